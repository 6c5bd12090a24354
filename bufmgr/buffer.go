package bufmgr

import (
	"unsafe"

	"github.com/vkngwrapper/bufmgr/device"
	"github.com/vkngwrapper/bufmgr/pb"
)

// Buffer is a pool buffer backed by a buffer object with a committed resource of its own. Buffers
// the CPU may access hold a single mapping for their whole lifetime.
type Buffer struct {
	ref       pb.Reference
	size      uint64
	usage     pb.Usage
	alignment uint64

	bo       *BufferObject
	mapRange device.Range
	mapped   unsafe.Pointer
}

var _ BufferObjectOwner = &Buffer{}

func (b *Buffer) Size() uint64 {
	return b.size
}

func (b *Buffer) Usage() pb.Usage {
	return b.usage
}

func (b *Buffer) Alignment() uint64 {
	return b.alignment
}

// BufferObject returns the buffer object backing this buffer
func (b *Buffer) BufferObject() *BufferObject {
	return b.bo
}

func (b *Buffer) Reference() {
	b.ref.Reference()
}

// Release drops a reference to the buffer. The last release unmaps the buffer and drops the
// buffer's reference to its buffer object.
func (b *Buffer) Release() {
	if !b.ref.Release() {
		return
	}

	if b.mapped != nil {
		b.bo.Unmap(&b.mapRange)
		b.mapped = nil
	}

	b.bo.Unreference()
}

// Map returns the persistent mapping of the buffer, or nil if the buffer was not created with CPU
// access. No synchronization with the GPU is performed.
func (b *Buffer) Map(flags pb.Usage, flushCtx pb.FlushContext) unsafe.Pointer {
	return b.mapped
}

// Unmap does nothing: the mapping persists until the buffer is destroyed
func (b *Buffer) Unmap() {}

// Validate always succeeds. Buffers are always resident from the submitter's point of view.
func (b *Buffer) Validate(list *pb.ValidateList, flags pb.Usage) error {
	return nil
}

func (b *Buffer) Fence(fence pb.Fence) {}

func (b *Buffer) BaseBuffer() (pb.Buffer, uint64) {
	return b, 0
}
