package suballoc

import (
	"unsafe"

	"github.com/vkngwrapper/bufmgr/memutils/metadata"
	"github.com/vkngwrapper/bufmgr/pb"
)

// Buffer is a range of a Manager's parent buffer
type Buffer struct {
	ref     pb.Reference
	manager *Manager
	handle  metadata.BlockAllocationHandle

	offset    uint64
	size      uint64
	usage     pb.Usage
	alignment uint64
}

var _ pb.Buffer = &Buffer{}

func (b *Buffer) Size() uint64 {
	return b.size
}

func (b *Buffer) Usage() pb.Usage {
	return b.usage
}

func (b *Buffer) Alignment() uint64 {
	return b.alignment
}

// Offset returns the buffer's byte offset within its parent
func (b *Buffer) Offset() uint64 {
	return b.offset
}

func (b *Buffer) Reference() {
	b.ref.Reference()
}

// Release drops a reference to the buffer. The last release returns its range to the manager
// and drops the buffer's reference to the parent.
func (b *Buffer) Release() {
	if !b.ref.Release() {
		return
	}

	b.manager.free(b)
}

// Map maps the parent and returns a pointer to this buffer's range within it
func (b *Buffer) Map(flags pb.Usage, flushCtx pb.FlushContext) unsafe.Pointer {
	ptr := b.manager.parent.Map(flags, flushCtx)
	if ptr == nil {
		return nil
	}

	return unsafe.Add(ptr, b.offset)
}

func (b *Buffer) Unmap() {
	b.manager.parent.Unmap()
}

// Validate validates the parent, which is what the submission actually uses
func (b *Buffer) Validate(list *pb.ValidateList, flags pb.Usage) error {
	return b.manager.parent.Validate(list, flags)
}

func (b *Buffer) Fence(fence pb.Fence) {
	b.manager.parent.Fence(fence)
}

func (b *Buffer) BaseBuffer() (pb.Buffer, uint64) {
	return b.manager.parent, b.offset
}
