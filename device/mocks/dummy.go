package mocks

import (
	"sync"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/bufmgr/device"
)

// CreateRecord is a single CreateCommittedResource call observed by a DummyDevice
type CreateRecord struct {
	Props        device.HeapProperties
	Flags        device.HeapFlags
	Desc         device.ResourceDesc
	InitialState device.ResourceState
}

// DummyDevice is a software device.Device whose resources are backed by byte slices
type DummyDevice struct {
	lock        sync.Mutex
	features    device.Features
	outstanding int
	failCreate  bool
	failMap     bool
	creates     []CreateRecord
}

var _ device.Device = &DummyDevice{}

func NewDummyDevice(features device.Features) *DummyDevice {
	return &DummyDevice{features: features}
}

// FailCreate causes subsequent CreateCommittedResource calls to return device.ErrOutOfMemory
func (d *DummyDevice) FailCreate(fail bool) {
	d.lock.Lock()
	defer d.lock.Unlock()

	d.failCreate = fail
}

// FailMap causes Map on resources created after this call to return device.ErrMapFailed
func (d *DummyDevice) FailMap(fail bool) {
	d.lock.Lock()
	defer d.lock.Unlock()

	d.failMap = fail
}

// Outstanding returns the number of resources that have been created and not yet released
func (d *DummyDevice) Outstanding() int {
	d.lock.Lock()
	defer d.lock.Unlock()

	return d.outstanding
}

// Creates returns every successful CreateCommittedResource call in order
func (d *DummyDevice) Creates() []CreateRecord {
	d.lock.Lock()
	defer d.lock.Unlock()

	records := make([]CreateRecord, len(d.creates))
	copy(records, d.creates)
	return records
}

func (d *DummyDevice) CustomHeapProperties(nodeMask uint32, heapType device.HeapType) device.HeapProperties {
	props := device.HeapProperties{
		Type:             device.HeapTypeCustom,
		CreationNodeMask: nodeMask,
		VisibleNodeMask:  nodeMask,
	}

	switch heapType {
	case device.HeapTypeUpload:
		props.CPUPageProperty = device.CPUPagePropertyWriteCombine
		props.MemoryPoolPreference = device.MemoryPoolL0
	case device.HeapTypeReadback:
		props.CPUPageProperty = device.CPUPagePropertyWriteBack
		props.MemoryPoolPreference = device.MemoryPoolL0
	default:
		props.CPUPageProperty = device.CPUPagePropertyNotAvailable
		props.MemoryPoolPreference = device.MemoryPoolL1
	}

	return props
}

func (d *DummyDevice) CreateCommittedResource(props device.HeapProperties, flags device.HeapFlags, desc device.ResourceDesc, initialState device.ResourceState) (device.Resource, error) {
	d.lock.Lock()
	defer d.lock.Unlock()

	if d.failCreate {
		return nil, errors.Wrap(device.ErrOutOfMemory, "dummy device is configured to fail creation")
	}

	size := device.FootprintSize(desc, 0, 1, 0)
	if size == 0 {
		return nil, errors.Newf("cannot create a resource with an empty footprint: %+v", desc)
	}

	d.outstanding++
	d.creates = append(d.creates, CreateRecord{
		Props:        props,
		Flags:        flags,
		Desc:         desc,
		InitialState: initialState,
	})

	return &DummyResource{
		device:  d,
		desc:    desc,
		data:    make([]byte, size),
		failMap: d.failMap,
	}, nil
}

func (d *DummyDevice) CopyableFootprints(desc device.ResourceDesc, firstSubresource, numSubresources uint32, baseOffset uint64) uint64 {
	return device.FootprintSize(desc, firstSubresource, numSubresources, baseOffset)
}

func (d *DummyDevice) Features() device.Features {
	return d.features
}

func (d *DummyDevice) released() {
	d.lock.Lock()
	defer d.lock.Unlock()

	d.outstanding--
}

// DummyResource is a device.Resource backed by a byte slice
type DummyResource struct {
	device  *DummyDevice
	desc    device.ResourceDesc
	data    []byte
	failMap bool

	lock         sync.Mutex
	mapCount     int
	releaseCount int
}

var _ device.Resource = &DummyResource{}

// NewDummyResource creates a resource that does not belong to any DummyDevice, as though it had
// been imported from elsewhere
func NewDummyResource(desc device.ResourceDesc) *DummyResource {
	return &DummyResource{
		desc: desc,
		data: make([]byte, device.FootprintSize(desc, 0, 1, 0)),
	}
}

func (r *DummyResource) Desc() device.ResourceDesc {
	return r.desc
}

func (r *DummyResource) Map(subresource uint32, readRange *device.Range) (unsafe.Pointer, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.failMap {
		return nil, errors.Wrap(device.ErrMapFailed, "dummy resource is configured to fail mapping")
	}
	if subresource != 0 {
		return nil, errors.Newf("dummy resource has no subresource %d", subresource)
	}
	if readRange != nil && !readRange.IsEmpty() && readRange.End > uint64(len(r.data)) {
		return nil, errors.Newf("read range [%d, %d) exceeds resource size %d", readRange.Begin, readRange.End, len(r.data))
	}
	if len(r.data) == 0 {
		return nil, errors.Wrap(device.ErrMapFailed, "dummy resource has no backing data")
	}

	r.mapCount++
	return unsafe.Pointer(&r.data[0]), nil
}

func (r *DummyResource) Unmap(subresource uint32, writtenRange *device.Range) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.mapCount <= 0 {
		panic("dummy resource unmapped more times than it was mapped")
	}
	r.mapCount--
}

func (r *DummyResource) Release() {
	r.lock.Lock()
	r.releaseCount++
	count := r.releaseCount
	r.lock.Unlock()

	if count == 1 && r.device != nil {
		r.device.released()
	}
}

// MapCount returns the number of outstanding Map calls
func (r *DummyResource) MapCount() int {
	r.lock.Lock()
	defer r.lock.Unlock()

	return r.mapCount
}

// ReleaseCount returns the number of times Release has been called
func (r *DummyResource) ReleaseCount() int {
	r.lock.Lock()
	defer r.lock.Unlock()

	return r.releaseCount
}

// Bytes returns the resource's backing data
func (r *DummyResource) Bytes() []byte {
	return r.data
}
