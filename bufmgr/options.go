package bufmgr

import (
	"github.com/vkngwrapper/bufmgr/device"
	"github.com/vkngwrapper/core/v2/common"
)

// CreateFlags indicate specific allocator behaviors to activate or deactivate
type CreateFlags int32

var allocatorCreateFlagsMapping = common.NewFlagStringMapping[CreateFlags]()

func (f CreateFlags) Register(str string) {
	allocatorCreateFlagsMapping.Register(f, str)
}
func (f CreateFlags) String() string {
	return allocatorCreateFlagsMapping.FlagsToString(f)
}

const (
	// AllocatorCreateExternallySynchronized disables the residency list mutex. The consumer must
	// guarantee that buffer objects are created and destroyed from one goroutine at a time, and
	// that the submission path does not walk the residency list concurrently with them.
	AllocatorCreateExternallySynchronized CreateFlags = 1 << iota
)

func init() {
	AllocatorCreateExternallySynchronized.Register("AllocatorCreateExternallySynchronized")
}

// DefaultBufferAlignment is the size granularity of buffers created by a Manager when
// CreateOptions.BufferAlignment is 0. Buffers may be bound as constant buffers, so it is the
// constant buffer placement alignment.
const DefaultBufferAlignment = device.ConstantBufferDataPlacementAlignment

// ReferenceDebugCallback receives the description of a buffer object as it is destroyed. It is
// intended for leak diagnostics and is not called on any other path.
type ReferenceDebugCallback func(bo *BufferObject, description string)

// CreateOptions contains optional settings when creating an allocator
type CreateOptions struct {
	// Flags indicates specific allocator behaviors to activate or deactivate
	Flags CreateFlags
	// BufferAlignment is the granularity that sizes passed to Manager.CreateBuffer are rounded up
	// to. It must be a power of two. If 0, DefaultBufferAlignment is used.
	BufferAlignment uint64

	// ReferenceDebugCallback is an optional callback executed whenever a buffer object is
	// destroyed by its final Unreference
	ReferenceDebugCallback ReferenceDebugCallback

	// MemoryCallbackOptions is an optional set of callbacks that will be executed when the
	// allocator creates or releases a committed resource
	MemoryCallbackOptions *MemoryCallbackOptions
}
