package bufmgr

import "github.com/vkngwrapper/bufmgr/device"

type AllocateResourceCallback func(
	allocator *Allocator,
	heapType device.HeapType,
	resource device.Resource,
	size uint64,
	userData interface{},
)

type FreeResourceCallback func(
	allocator *Allocator,
	heapType device.HeapType,
	resource device.Resource,
	size uint64,
	userData interface{},
)

type MemoryCallbackOptions struct {
	Allocate AllocateResourceCallback
	Free     FreeResourceCallback
	UserData interface{}
}

type memoryCallbacks struct {
	Callbacks *MemoryCallbackOptions
	Allocator *Allocator
}

func (c *memoryCallbacks) Allocate(
	heapType device.HeapType,
	resource device.Resource,
	size uint64,
) {
	if c.Callbacks != nil && c.Callbacks.Allocate != nil {
		c.Callbacks.Allocate(c.Allocator, heapType, resource, size, c.Callbacks.UserData)
	}
}

func (c *memoryCallbacks) Free(
	heapType device.HeapType,
	resource device.Resource,
	size uint64,
) {
	if c.Callbacks != nil && c.Callbacks.Free != nil {
		c.Callbacks.Free(c.Allocator, heapType, resource, size, c.Callbacks.UserData)
	}
}
