package vulkan

import (
	"math"
	"math/bits"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/bufmgr/device"
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/core/v2/driver"
	"github.com/vkngwrapper/extensions/v2/khr_dedicated_allocation"
	"golang.org/x/exp/slog"
)

// DefaultBufferUsage is the usage every VkBuffer is created with when CreateOptions.BufferUsage is 0
const DefaultBufferUsage = core1_0.BufferUsageTransferSrc | core1_0.BufferUsageTransferDst |
	core1_0.BufferUsageUniformBuffer | core1_0.BufferUsageStorageBuffer |
	core1_0.BufferUsageIndexBuffer | core1_0.BufferUsageVertexBuffer

// CreateOptions configure a Device
type CreateOptions struct {
	// AllocationCallbacks are passed to every Vulkan call that creates or destroys an object
	AllocationCallbacks *driver.AllocationCallbacks
	// BufferUsage is the usage of each VkBuffer backing a committed resource. If 0,
	// DefaultBufferUsage is used.
	BufferUsage core1_0.BufferUsageFlags
	// MemoryTypeBits restricts the memory types committed resources may be placed in. If 0,
	// all memory types are permitted.
	MemoryTypeBits uint32
}

// Device implements device.Device on top of a Vulkan logical device. Each committed resource
// is a VkBuffer bound to its own VkDeviceMemory.
type Device struct {
	logger *slog.Logger

	device              core1_0.Device
	memoryProperties    *core1_0.PhysicalDeviceMemoryProperties
	allocationCallbacks *driver.AllocationCallbacks
	bufferUsage         core1_0.BufferUsageFlags
	memoryTypeBits      uint32

	dedicatedAllocations bool
}

var _ device.Device = &Device{}

// New creates a Device over a logical device whose physical device reports the provided
// memory properties
func New(logger *slog.Logger, vkDevice core1_0.Device, memoryProperties *core1_0.PhysicalDeviceMemoryProperties, options CreateOptions) (*Device, error) {
	if logger == nil {
		return nil, errors.New("attempted to create a vulkan device without a logger")
	}
	if vkDevice == nil {
		return nil, errors.New("attempted to create a vulkan device without a logical device")
	}
	if memoryProperties == nil || len(memoryProperties.MemoryTypes) == 0 {
		return nil, errors.New("physical device reported no memory types")
	}

	d := &Device{
		logger:              logger,
		device:              vkDevice,
		memoryProperties:    memoryProperties,
		allocationCallbacks: options.AllocationCallbacks,
		bufferUsage:         options.BufferUsage,
		memoryTypeBits:      options.MemoryTypeBits,
	}

	if d.bufferUsage == 0 {
		d.bufferUsage = DefaultBufferUsage
	}
	if d.memoryTypeBits == 0 {
		d.memoryTypeBits = math.MaxUint32
	}

	// Dedicated allocations are core in 1.1
	d.dedicatedAllocations = vkDevice.APIVersion().IsAtLeast(common.Vulkan1_1) ||
		vkDevice.IsDeviceExtensionActive(khr_dedicated_allocation.ExtensionName)

	return d, nil
}

// NewFromPhysicalDevice creates a Device, reading memory properties from the physical device
// the logical device was created from
func NewFromPhysicalDevice(logger *slog.Logger, vkDevice core1_0.Device, physicalDevice core1_0.PhysicalDevice, options CreateOptions) (*Device, error) {
	if physicalDevice == nil {
		return nil, errors.New("attempted to create a vulkan device without a physical device")
	}

	return New(logger, vkDevice, physicalDevice.MemoryProperties(), options)
}

func (d *Device) CustomHeapProperties(nodeMask uint32, heapType device.HeapType) device.HeapProperties {
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

func (d *Device) CopyableFootprints(desc device.ResourceDesc, firstSubresource, numSubresources uint32, baseOffset uint64) uint64 {
	return device.FootprintSize(desc, firstSubresource, numSubresources, baseOffset)
}

// Features reports no optional behaviors: Vulkan memory cannot be created without being committed
func (d *Device) Features() device.Features {
	return device.Features{}
}

func (d *Device) memoryPreferences(props device.HeapProperties) (required, preferred, notPreferred core1_0.MemoryPropertyFlags, err error) {
	pageProperty := props.CPUPageProperty
	pool := props.MemoryPoolPreference

	if props.Type != device.HeapTypeCustom {
		standard := d.CustomHeapProperties(props.CreationNodeMask, props.Type)
		pageProperty = standard.CPUPageProperty
		pool = standard.MemoryPoolPreference
	}

	switch pageProperty {
	case device.CPUPagePropertyNotAvailable:
		preferred |= core1_0.MemoryPropertyDeviceLocal
		notPreferred |= core1_0.MemoryPropertyHostVisible
	case device.CPUPagePropertyWriteCombine:
		required |= core1_0.MemoryPropertyHostVisible | core1_0.MemoryPropertyHostCoherent
		notPreferred |= core1_0.MemoryPropertyHostCached
	case device.CPUPagePropertyWriteBack:
		required |= core1_0.MemoryPropertyHostVisible
		preferred |= core1_0.MemoryPropertyHostCached | core1_0.MemoryPropertyHostCoherent
	default:
		return 0, 0, 0, errors.Wrapf(device.ErrUnsupported, "unknown cpu page property %d", pageProperty)
	}

	if pool == device.MemoryPoolL1 {
		preferred |= core1_0.MemoryPropertyDeviceLocal
	} else if pool == device.MemoryPoolL0 && preferred&core1_0.MemoryPropertyDeviceLocal == 0 {
		notPreferred |= core1_0.MemoryPropertyDeviceLocal
	}

	return required, preferred, notPreferred, nil
}

func (d *Device) findMemoryTypeIndex(memoryTypeBits uint32, props device.HeapProperties) (int, error) {
	memoryTypeBits &= d.memoryTypeBits

	requiredFlags, preferredFlags, notPreferredFlags, err := d.memoryPreferences(props)
	if err != nil {
		return -1, err
	}

	bestMemoryTypeIndex := -1
	minCost := math.MaxInt

	for memTypeIndex := 0; memTypeIndex < len(d.memoryProperties.MemoryTypes); memTypeIndex++ {
		memTypeBit := uint32(1) << memTypeIndex

		if memTypeBit&memoryTypeBits == 0 {
			continue
		}

		flags := d.memoryProperties.MemoryTypes[memTypeIndex].PropertyFlags
		if requiredFlags & ^flags != 0 {
			continue
		}

		missingPreferredFlags := preferredFlags & ^flags
		presentNotPreferredFlags := notPreferredFlags & flags
		cost := bits.OnesCount32(uint32(missingPreferredFlags)) + bits.OnesCount32(uint32(presentNotPreferredFlags))
		if cost == 0 {
			return memTypeIndex, nil
		} else if cost < minCost {
			bestMemoryTypeIndex = memTypeIndex
			minCost = cost
		}
	}

	if bestMemoryTypeIndex < 0 {
		return -1, errors.Wrapf(device.ErrUnsupported, "no memory type satisfies required flags %s", requiredFlags)
	}

	return bestMemoryTypeIndex, nil
}

// CreateCommittedResource creates a VkBuffer and a dedicated VkDeviceMemory for it. Only buffer
// resources are supported. Heap flags have no Vulkan equivalent and are ignored.
func (d *Device) CreateCommittedResource(props device.HeapProperties, flags device.HeapFlags, desc device.ResourceDesc, initialState device.ResourceState) (device.Resource, error) {
	d.logger.Debug("Device::CreateCommittedResource")

	if desc.Dimension != device.ResourceDimensionBuffer {
		return nil, errors.Wrapf(device.ErrUnsupported, "vulkan device cannot create a committed %s", desc.Dimension)
	}
	if desc.Width == 0 {
		return nil, errors.New("attempted to create a committed buffer with zero width")
	}

	buffer, _, err := d.device.CreateBuffer(d.allocationCallbacks, core1_0.BufferCreateInfo{
		Size:        int(desc.Width),
		Usage:       d.bufferUsage,
		SharingMode: core1_0.SharingModeExclusive,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create buffer")
	}

	memReqs := buffer.MemoryRequirements()
	memoryTypeIndex, err := d.findMemoryTypeIndex(memReqs.MemoryTypeBits, props)
	if err != nil {
		buffer.Destroy(d.allocationCallbacks)
		return nil, err
	}

	allocInfo := core1_0.MemoryAllocateInfo{
		MemoryTypeIndex: memoryTypeIndex,
		AllocationSize:  memReqs.Size,
	}

	if d.dedicatedAllocations {
		dedicatedAllocInfo := khr_dedicated_allocation.MemoryDedicatedAllocateInfo{}
		dedicatedAllocInfo.Buffer = buffer
		dedicatedAllocInfo.Next = allocInfo.Next
		allocInfo.Next = dedicatedAllocInfo
	}

	memory, res, err := d.device.AllocateMemory(d.allocationCallbacks, allocInfo)
	if err != nil {
		buffer.Destroy(d.allocationCallbacks)
		if res == core1_0.VKErrorOutOfDeviceMemory || res == core1_0.VKErrorOutOfHostMemory {
			return nil, errors.Mark(errors.Wrap(err, "failed to allocate memory"), device.ErrOutOfMemory)
		}
		return nil, errors.Wrap(err, "failed to allocate memory")
	}

	_, err = buffer.BindBufferMemory(memory, 0)
	if err != nil {
		buffer.Destroy(d.allocationCallbacks)
		memory.Free(d.allocationCallbacks)
		return nil, errors.Wrap(err, "failed to bind buffer memory")
	}

	return &Resource{
		logger:              d.logger,
		desc:                desc,
		buffer:              buffer,
		memory:              memory,
		memoryTypeIndex:     memoryTypeIndex,
		allocationCallbacks: d.allocationCallbacks,
	}, nil
}
