// Package pb defines the protocol shared by buffer pools: managers that hand out buffers, and
// the buffers themselves. A buffer may be a view into another buffer, in which case BaseBuffer
// names the buffer it lives inside.
package pb

import (
	"unsafe"
)

// MaxBaseChain is the number of BaseBuffer steps GetBase will follow before it concludes the
// chain is cyclic
const MaxBaseChain = 64

// Fence is a GPU completion signal that buffers may be associated with
type Fence interface {
	Signaled() bool
}

// FlushContext is the submission context a Map call may need to flush before it can wait for
// the GPU. It may be nil.
type FlushContext interface {
	Flush()
}

// Buffer is a reference-counted buffer handed out by a Manager
type Buffer interface {
	// Size is the size of the buffer in bytes
	Size() uint64
	// Usage is the usage the buffer was created with
	Usage() Usage
	// Alignment is the alignment of the buffer's start in bytes
	Alignment() uint64

	// Reference adds a reference to the buffer
	Reference()
	// Release drops a reference to the buffer. The buffer is destroyed when the last reference
	// is released.
	Release()

	// Map returns a CPU pointer to the start of the buffer, or nil if it cannot be mapped with the
	// requested usage
	Map(flags Usage, flushCtx FlushContext) unsafe.Pointer
	// Unmap reverses a successful Map
	Unmap()

	// Validate prepares the buffer to be used by a submission with the provided usage
	Validate(list *ValidateList, flags Usage) error
	// Fence associates the buffer with the fence of the submission that uses it
	Fence(fence Fence)

	// BaseBuffer returns the buffer this buffer lives inside, and this buffer's offset within
	// it. A buffer that does not live inside another buffer returns itself and 0.
	BaseBuffer() (Buffer, uint64)
}

// Manager creates buffers
type Manager interface {
	// CreateBuffer creates a buffer of at least size bytes. An error is returned, and no state is
	// retained, if the buffer could not be created.
	CreateBuffer(size uint64, desc Desc) (Buffer, error)
	// Flush makes any deferred work of the manager visible
	Flush()
	// IsBufferBusy returns true if the GPU may still be using the buffer
	IsBufferBusy(buffer Buffer) bool
	// Destroy releases the manager. Buffers it created remain valid.
	Destroy()
}

// GetBase follows BaseBuffer from buf until it reaches a buffer that names itself, and returns
// that buffer along with buf's offset inside it
func GetBase(buf Buffer) (Buffer, uint64) {
	var offset uint64
	current := buf

	for step := 0; step < MaxBaseChain; step++ {
		base, baseOffset := current.BaseBuffer()
		if base == nil {
			panic("buffer reported a nil base buffer")
		}
		if base == current {
			return current, offset
		}

		offset += baseOffset
		current = base
	}

	panic("buffer base chain did not terminate: cyclic or too deep")
}
