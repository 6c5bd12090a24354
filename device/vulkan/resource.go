package vulkan

import (
	"context"
	"sync"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/bufmgr/device"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/core/v2/driver"
	"golang.org/x/exp/slog"
)

// Resource is a VkBuffer together with the VkDeviceMemory it is bound to
type Resource struct {
	logger *slog.Logger
	desc   device.ResourceDesc

	buffer          core1_0.Buffer
	memory          core1_0.DeviceMemory
	memoryTypeIndex int

	mapMutex      sync.Mutex
	mapReferences int
	mapData       unsafe.Pointer

	allocationCallbacks *driver.AllocationCallbacks
}

var _ device.Resource = &Resource{}

func (r *Resource) Desc() device.ResourceDesc {
	return r.desc
}

// VulkanBuffer returns the buffer backing this resource
func (r *Resource) VulkanBuffer() core1_0.Buffer {
	return r.buffer
}

// VulkanDeviceMemory returns the memory backing this resource
func (r *Resource) VulkanDeviceMemory() core1_0.DeviceMemory {
	return r.memory
}

// MemoryTypeIndex returns the index of the memory type the resource's memory was allocated from
func (r *Resource) MemoryTypeIndex() int {
	return r.memoryTypeIndex
}

// Map maps the whole memory object the first time it is called, and returns the existing mapping
// on later calls. The read range is not needed by Vulkan and is ignored.
func (r *Resource) Map(subresource uint32, readRange *device.Range) (unsafe.Pointer, error) {
	if subresource != 0 {
		return nil, errors.Newf("buffers have a single subresource, but subresource %d was requested", subresource)
	}

	r.mapMutex.Lock()
	defer r.mapMutex.Unlock()

	if r.mapReferences > 0 {
		if r.mapData == nil {
			return nil, errors.New("the resource is showing existing memory mapping references, but no mapped memory")
		}

		r.mapReferences++
		return r.mapData, nil
	}

	mappedData, _, err := r.memory.Map(0, -1, 0)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "failed to map device memory"), device.ErrMapFailed)
	}

	r.mapData = mappedData
	r.mapReferences = 1
	return mappedData, nil
}

func (r *Resource) Unmap(subresource uint32, writtenRange *device.Range) {
	r.mapMutex.Lock()
	defer r.mapMutex.Unlock()

	if r.mapReferences == 0 {
		r.logger.Warn("Resource::Unmap called on a resource that is not mapped")
		return
	}

	r.mapReferences--
	if r.mapReferences == 0 {
		r.memory.Unmap()
		r.mapData = nil
	}
}

// Release destroys the buffer and frees its memory. Any outstanding mapping is dropped first.
func (r *Resource) Release() {
	r.mapMutex.Lock()
	defer r.mapMutex.Unlock()

	if r.buffer == nil {
		return
	}

	if r.mapReferences > 0 {
		r.logger.LogAttrs(context.Background(), slog.LevelError, "[UNRELEASED MEMORY] resource released while mapped",
			slog.Int("mapReferences", r.mapReferences))
		r.memory.Unmap()
		r.mapReferences = 0
		r.mapData = nil
	}

	r.buffer.Destroy(r.allocationCallbacks)
	r.memory.Free(r.allocationCallbacks)
	r.buffer = nil
	r.memory = nil
}
