package device

import (
	"unsafe"
)

// ConstantBufferDataPlacementAlignment is the alignment, in bytes, required of buffers that may be bound
// as constant buffers
const ConstantBufferDataPlacementAlignment uint64 = 256

// Features describes optional device behaviors that the buffer manager consults when creating
// allocations
type Features struct {
	// CreateNotResident indicates that committed resources can be created without committing
	// physical memory until they are first made resident
	CreateNotResident bool
}

// Device is the capability surface of a GPU device consumed by the buffer manager. Every method
// is a synchronous call into the driver.
type Device interface {
	// CustomHeapProperties returns the concrete properties of a heap classification on the node
	// identified by nodeMask
	CustomHeapProperties(nodeMask uint32, heapType HeapType) HeapProperties
	// CreateCommittedResource creates a resource together with an implicit heap large enough to
	// contain it. An error is returned if the device declines the allocation.
	CreateCommittedResource(props HeapProperties, flags HeapFlags, desc ResourceDesc, initialState ResourceState) (Resource, error)
	// CopyableFootprints returns the total number of bytes occupied by numSubresources subresources of
	// a resource with the provided description, starting at firstSubresource and placed at baseOffset
	CopyableFootprints(desc ResourceDesc, firstSubresource, numSubresources uint32, baseOffset uint64) uint64
	// Features reports optional device behaviors
	Features() Features
}

// Resource is a device allocation created by Device.CreateCommittedResource or imported from
// elsewhere.
type Resource interface {
	// Desc returns the description the resource was created with
	Desc() ResourceDesc
	// Map returns a CPU pointer to the start of a subresource. readRange describes the bytes the
	// CPU may read and may be nil to indicate the whole subresource. A resource supports a single
	// logical mapping at a time; nested Map calls return the same pointer.
	Map(subresource uint32, readRange *Range) (unsafe.Pointer, error)
	// Unmap releases a mapping established with Map. writtenRange describes the bytes the CPU may
	// have written and may be nil to indicate the whole subresource.
	Unmap(subresource uint32, writtenRange *Range)
	// Release drops the caller's ownership of the resource
	Release()
}

// Range is a half-open byte range [Begin, End)
type Range struct {
	Begin uint64
	End   uint64
}

// IsEmpty returns true if the range covers no bytes
func (r Range) IsEmpty() bool {
	return r.Begin >= r.End
}

// Size returns the number of bytes covered by the range
func (r Range) Size() uint64 {
	if r.IsEmpty() {
		return 0
	}
	return r.End - r.Begin
}
