package bufmgr

import (
	"sync/atomic"

	"github.com/vkngwrapper/bufmgr/device"
	"github.com/vkngwrapper/bufmgr/pb"
	"github.com/vkngwrapper/bufmgr/transition"
	"golang.org/x/exp/slog"
)

// BufferObjectOwner is implemented by pool buffers that are backed by a BufferObject. The base
// buffer of any buffer passed to Allocator.WrapBuffer must implement it.
type BufferObjectOwner interface {
	pb.Buffer
	BufferObject() *BufferObject
}

// backing is what a BufferObject's memory comes from: a resource of its own, or a range of a
// pool buffer
type backing interface {
	isBacking()
}

type directBacking struct {
	resource device.Resource
	state    *transition.ResourceState

	// heapType is only set for resources created by the allocator
	heapType  device.HeapType
	allocated bool
}

func (*directBacking) isBacking() {}

type suballocatedBacking struct {
	buffer pb.Buffer
}

func (*suballocatedBacking) isBacking() {}

// BufferObject is the unit of allocation and lifetime. It either owns a device resource
// directly, or views a range of a pool buffer whose base is ultimately backed by a BufferObject
// that owns a resource. A BufferObject is destroyed by the Unreference call that drops its last
// reference, and by no other means.
type BufferObject struct {
	allocator *Allocator
	ref       pb.Reference
	backing   backing

	// Residency list linkage, owned by the list and guarded by its lock
	list   *ResidencyList
	prev   *BufferObject
	next   *BufferObject
	inList bool

	estimatedSize   uint64
	residencyStatus atomic.Int32

	lastUsedTimestamp int64
	lastUsedFence     uint64
}

func (bo *BufferObject) direct() *directBacking {
	direct, ok := bo.backing.(*directBacking)
	if !ok {
		return nil
	}
	return direct
}

func (bo *BufferObject) suballocated() *suballocatedBacking {
	sub, ok := bo.backing.(*suballocatedBacking)
	if !ok {
		return nil
	}
	return sub
}

// Reference adds a reference to the buffer object. It panics if the buffer object has already
// been destroyed.
func (bo *BufferObject) Reference() {
	bo.ref.Reference()
}

// Unreference drops a reference to the buffer object, destroying it if that was the last
// reference. Unreferencing a nil buffer object does nothing.
func (bo *BufferObject) Unreference() {
	if bo == nil {
		return
	}

	if !bo.ref.Release() {
		return
	}

	bo.destroy()
}

// ReferenceCount returns the current number of references to the buffer object
func (bo *BufferObject) ReferenceCount() int32 {
	return bo.ref.Count()
}

func (bo *BufferObject) destroy() {
	description := bo.Describe()
	if bo.allocator.referenceDebug != nil {
		bo.allocator.referenceDebug(bo, description)
	}
	bo.allocator.logger.Debug("BufferObject::Unreference destroying buffer object", slog.String("bo", description))

	switch backing := bo.backing.(type) {
	case *suballocatedBacking:
		backing.buffer.Release()
		backing.buffer = nil
	case *directBacking:
		list := &bo.allocator.residency
		list.Lock()
		if ResidencyStatus(bo.residencyStatus.Load()) != ResidencyEvicted {
			list.remove(bo)
		}
		list.Unlock()

		backing.state = nil
		backing.resource.Release()
		if backing.allocated {
			bo.allocator.memoryCallbacks.Free(backing.heapType, backing.resource, bo.estimatedSize)
		}
	default:
		panic("buffer object has no backing")
	}

	bo.allocator.liveCount.Add(-1)
}

// Base resolves the buffer object to the buffer object that owns its memory, and returns it
// along with this buffer object's byte offset inside it. A buffer object that owns its memory
// returns itself and 0.
func (bo *BufferObject) Base() (*BufferObject, uint64) {
	var offset uint64
	current := bo

	for step := 0; step < pb.MaxBaseChain; step++ {
		sub := current.suballocated()
		if sub == nil {
			return current, offset
		}

		baseBuffer, baseOffset := pb.GetBase(sub.buffer)
		owner, ok := baseBuffer.(BufferObjectOwner)
		if !ok {
			panic("base buffer of a suballocated buffer object is not backed by a buffer object")
		}

		offset += baseOffset
		current = owner.BufferObject()
	}

	panic("buffer object base chain did not terminate: cyclic or too deep")
}

// Size returns the logical size of the buffer object: the size of the pool buffer it views,
// or the width of the resource it owns
func (bo *BufferObject) Size() uint64 {
	switch backing := bo.backing.(type) {
	case *suballocatedBacking:
		return backing.buffer.Size()
	case *directBacking:
		return backing.resource.Desc().Width
	}

	panic("buffer object has no backing")
}

// IsSuballocated returns true if the buffer object views a range of another buffer object that
// is a different size than itself. A buffer object that wraps the whole of another buffer is
// not suballocated.
func (bo *BufferObject) IsSuballocated() bool {
	if bo.suballocated() == nil {
		return false
	}

	base, _ := bo.Base()
	return base.Size() != bo.Size()
}

// IsDirect returns true if the buffer object owns a device resource
func (bo *BufferObject) IsDirect() bool {
	return bo.direct() != nil
}

// TransitionState returns the subresource state tracker of the buffer object that owns this
// buffer object's memory
func (bo *BufferObject) TransitionState() *transition.ResourceState {
	base, _ := bo.Base()
	return base.direct().state
}

// Resource returns the device resource of the buffer object that owns this buffer object's
// memory
func (bo *BufferObject) Resource() device.Resource {
	base, _ := bo.Base()
	return base.direct().resource
}

// EstimatedSize returns the number of bytes the buffer object's resource occupies on the device.
// It is 0 for buffer objects that view another buffer, whose memory is accounted to their base.
func (bo *BufferObject) EstimatedSize() uint64 {
	return bo.estimatedSize
}

// ResidencyStatus returns the residency status of the buffer object. Buffer objects that view
// another buffer are never tracked independently and always report ResidencyEvicted; the
// status of their memory is the status of their base.
func (bo *BufferObject) ResidencyStatus() ResidencyStatus {
	return ResidencyStatus(bo.residencyStatus.Load())
}

// LastUsed returns the timestamp and fence value recorded by SetLastUsed. The caller must hold
// the residency list lock.
func (bo *BufferObject) LastUsed() (timestamp int64, fence uint64) {
	return bo.lastUsedTimestamp, bo.lastUsedFence
}

// SetLastUsed records when the buffer object was last used by a submission, for the benefit of
// an eviction policy. The caller must hold the residency list lock.
func (bo *BufferObject) SetLastUsed(timestamp int64, fence uint64) {
	bo.lastUsedTimestamp = timestamp
	bo.lastUsedFence = fence
}
