package bufmgr

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/bufmgr/device"
	"github.com/vkngwrapper/bufmgr/pb"
	"github.com/vkngwrapper/bufmgr/transition"
	"golang.org/x/exp/slog"
)

// HeapTypeForUsage selects the heap a buffer with the provided usage is placed in. Buffers the
// CPU reads go to readback heaps, buffers the CPU only writes go to upload heaps, and all
// others go to device-local default heaps.
func HeapTypeForUsage(usage pb.Usage) device.HeapType {
	if usage&pb.UsageCPURead != 0 {
		return device.HeapTypeReadback
	} else if usage&pb.UsageCPUWrite != 0 {
		return device.HeapTypeUpload
	}

	return device.HeapTypeDefault
}

// NewBufferObject creates a committed buffer resource of size bytes on the allocator's device and
// wraps it in a buffer object with a single reference. If the device can create resources
// without committing memory, the buffer object starts out evicted; otherwise it starts out
// resident. If the device declines the allocation, an error is returned and nothing is retained.
func (a *Allocator) NewBufferObject(size uint64, desc pb.Desc) (*BufferObject, error) {
	a.logger.Debug("Allocator::NewBufferObject")

	if size == 0 {
		return nil, errors.New("attempted to create a buffer object of size 0")
	}

	heapType := HeapTypeForUsage(desc.Usage)
	heapFlags := device.HeapFlagNone
	residency := ResidencyResident
	if a.device.Features().CreateNotResident {
		heapFlags |= device.HeapFlagCreateNotResident
		residency = ResidencyEvicted
	}

	props := a.device.CustomHeapProperties(0, heapType)
	resourceDesc := device.BufferDesc(size, device.ResourceFlagAllowUnorderedAccess)

	resource, err := a.device.CreateCommittedResource(props, heapFlags, resourceDesc, device.ResourceStateCommon)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create a %d byte committed resource in %s", size, heapType)
	}

	bo, err := a.wrapResource(resource, device.FormatUnknown, residency)
	if err != nil {
		resource.Release()
		return nil, err
	}

	direct := bo.direct()
	direct.heapType = heapType
	direct.allocated = true
	a.memoryCallbacks.Allocate(heapType, resource, bo.estimatedSize)

	return bo, nil
}

// WrapResource adopts a resource created elsewhere, taking ownership of the caller's reference
// to it. format is the format the resource will be viewed through, which determines whether its
// stencil is tracked separately. The buffer object joins the residency list unless residency
// is ResidencyEvicted.
func (a *Allocator) WrapResource(resource device.Resource, format device.Format, residency ResidencyStatus) (*BufferObject, error) {
	a.logger.Debug("Allocator::WrapResource")

	if resource == nil {
		return nil, errors.New("attempted to wrap a nil resource")
	}
	if !residency.isValid() {
		return nil, errors.Newf("unknown residency status %s", residency)
	}

	return a.wrapResource(resource, format, residency)
}

func (a *Allocator) wrapResource(resource device.Resource, format device.Format, residency ResidencyStatus) (*BufferObject, error) {
	desc := resource.Desc()

	state, err := transition.NewResourceState(transition.SubresourceCount(desc, format), transition.SupportsSimultaneousAccess(desc))
	if err != nil {
		return nil, errors.Wrap(err, "failed to build transition state")
	}

	bo := &BufferObject{
		allocator: a,
		backing: &directBacking{
			resource: resource,
			state:    state,
		},
	}
	bo.ref.Init(1)
	a.liveCount.Add(1)
	bo.estimatedSize = a.device.CopyableFootprints(desc, 0, state.NumSubresources(), 0)
	bo.residencyStatus.Store(int32(residency))

	if residency != ResidencyEvicted {
		a.residency.Lock()
		a.residency.push(bo)
		a.residency.Unlock()
	}

	a.logger.Debug("Allocator::wrapResource created buffer object",
		slog.String("bo", bo.Describe()),
		slog.String("status", residency.String()),
	)
	return bo, nil
}

// WrapBuffer creates a buffer object that views buf, taking ownership of the caller's reference
// to it. The buffer object has no resource or transition state of its own; both come from the
// buffer object backing buf's base. It never joins the residency list. If an error is returned,
// the caller keeps its reference.
func (a *Allocator) WrapBuffer(buf pb.Buffer) (*BufferObject, error) {
	a.logger.Debug("Allocator::WrapBuffer")

	if buf == nil {
		return nil, errors.New("attempted to wrap a nil buffer")
	}

	baseBuffer, offset := pb.GetBase(buf)
	owner, ok := baseBuffer.(BufferObjectOwner)
	if !ok || owner.BufferObject() == nil {
		return nil, errors.New("the base of a wrapped buffer must be backed by a buffer object")
	}

	base, baseOffset := owner.BufferObject().Base()
	if base.allocator != a {
		return nil, errors.New("the base of a wrapped buffer was not created by this allocator")
	}

	offset += baseOffset
	if offset+buf.Size() > base.Size() {
		return nil, errors.Newf("wrapped buffer [%d, %d) extends past the end of its base, which is size %d", offset, offset+buf.Size(), base.Size())
	}

	bo := &BufferObject{
		allocator: a,
		backing: &suballocatedBacking{
			buffer: buf,
		},
	}
	bo.ref.Init(1)
	bo.residencyStatus.Store(int32(ResidencyEvicted))
	a.liveCount.Add(1)

	return bo, nil
}
