package vulkan

import (
	"io"
	"testing"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/bufmgr/device"
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/core/v2/mocks"
	"github.com/vkngwrapper/extensions/v2/khr_dedicated_allocation"
	"github.com/golang/mock/gomock"
	"golang.org/x/exp/slog"
)

var testMemoryProperties = &core1_0.PhysicalDeviceMemoryProperties{
	MemoryTypes: []core1_0.MemoryType{
		{
			PropertyFlags: core1_0.MemoryPropertyDeviceLocal,
			HeapIndex:     0,
		},
		{
			PropertyFlags: core1_0.MemoryPropertyHostVisible | core1_0.MemoryPropertyHostCoherent,
			HeapIndex:     1,
		},
		{
			PropertyFlags: core1_0.MemoryPropertyHostVisible | core1_0.MemoryPropertyHostCoherent | core1_0.MemoryPropertyHostCached,
			HeapIndex:     1,
		},
	},
	MemoryHeaps: []core1_0.MemoryHeap{
		{
			Size:  1000000,
			Flags: core1_0.MemoryHeapDeviceLocal,
		},
		{
			Size:  1000000,
			Flags: 0,
		},
	},
}

func readyDevice(t *testing.T, ctrl *gomock.Controller, version common.APIVersion, dedicatedExtension bool) (*mocks.MockDevice, *Device) {
	vkDevice := mocks.NewMockDevice(ctrl)
	vkDevice.EXPECT().APIVersion().Return(version).AnyTimes()
	vkDevice.EXPECT().IsDeviceExtensionActive(khr_dedicated_allocation.ExtensionName).Return(dedicatedExtension).AnyTimes()

	logger := slog.New(slog.NewTextHandler(io.Discard))
	dev, err := New(logger, vkDevice, testMemoryProperties, CreateOptions{})
	require.NoError(t, err)

	return vkDevice, dev
}

func expectBuffer(ctrl *gomock.Controller, vkDevice *mocks.MockDevice, size int) *mocks.MockBuffer {
	buffer := mocks.NewMockBuffer(ctrl)
	vkDevice.EXPECT().CreateBuffer(gomock.Nil(), core1_0.BufferCreateInfo{
		Size:        size,
		Usage:       DefaultBufferUsage,
		SharingMode: core1_0.SharingModeExclusive,
	}).Return(buffer, core1_0.VKSuccess, nil)
	buffer.EXPECT().MemoryRequirements().Return(&core1_0.MemoryRequirements{
		Size:           size,
		Alignment:      256,
		MemoryTypeBits: 0xffffffff,
	})

	return buffer
}

func TestCreateCommittedResourceUpload(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	vkDevice, dev := readyDevice(t, ctrl, common.Vulkan1_0, false)
	buffer := expectBuffer(ctrl, vkDevice, 4096)

	memory := mocks.EasyMockDeviceMemory(ctrl)
	vkDevice.EXPECT().AllocateMemory(gomock.Nil(), core1_0.MemoryAllocateInfo{
		MemoryTypeIndex: 1,
		AllocationSize:  4096,
	}).Return(memory, core1_0.VKSuccess, nil)
	buffer.EXPECT().BindBufferMemory(memory, 0).Return(core1_0.VKSuccess, nil)

	props := dev.CustomHeapProperties(0, device.HeapTypeUpload)
	resource, err := dev.CreateCommittedResource(props, device.HeapFlagNone, device.BufferDesc(4096, device.ResourceFlagAllowUnorderedAccess), device.ResourceStateCommon)
	require.NoError(t, err)
	require.Equal(t, uint64(4096), resource.Desc().Width)
	require.Equal(t, 1, resource.(*Resource).MemoryTypeIndex())

	data := make([]byte, 4096)
	dataPtr := unsafe.Pointer(&data[0])

	// Nested maps share one vulkan mapping
	memory.EXPECT().Map(0, -1, core1_0.MemoryMapFlags(0)).Return(dataPtr, core1_0.VKSuccess, nil)
	memory.EXPECT().Unmap()

	ptr, err := resource.Map(0, nil)
	require.NoError(t, err)
	require.Equal(t, dataPtr, ptr)

	ptr, err = resource.Map(0, &device.Range{Begin: 16, End: 32})
	require.NoError(t, err)
	require.Equal(t, dataPtr, ptr)

	resource.Unmap(0, nil)
	resource.Unmap(0, nil)

	buffer.EXPECT().Destroy(gomock.Nil())
	memory.EXPECT().Free(gomock.Nil())
	resource.Release()
	resource.Release()
}

func TestCreateCommittedResourceReadbackPrefersCached(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	vkDevice, dev := readyDevice(t, ctrl, common.Vulkan1_0, false)
	buffer := expectBuffer(ctrl, vkDevice, 1024)

	memory := mocks.EasyMockDeviceMemory(ctrl)
	vkDevice.EXPECT().AllocateMemory(gomock.Nil(), core1_0.MemoryAllocateInfo{
		MemoryTypeIndex: 2,
		AllocationSize:  1024,
	}).Return(memory, core1_0.VKSuccess, nil)
	buffer.EXPECT().BindBufferMemory(memory, 0).Return(core1_0.VKSuccess, nil)

	props := dev.CustomHeapProperties(0, device.HeapTypeReadback)
	_, err := dev.CreateCommittedResource(props, device.HeapFlagNone, device.BufferDesc(1024, 0), device.ResourceStateCommon)
	require.NoError(t, err)
}

func TestCreateCommittedResourceDedicated(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	vkDevice, dev := readyDevice(t, ctrl, common.Vulkan1_1, false)
	buffer := expectBuffer(ctrl, vkDevice, 2048)

	memory := mocks.EasyMockDeviceMemory(ctrl)
	vkDevice.EXPECT().AllocateMemory(gomock.Nil(), core1_0.MemoryAllocateInfo{
		MemoryTypeIndex: 0,
		AllocationSize:  2048,
		NextOptions: common.NextOptions{
			Next: khr_dedicated_allocation.MemoryDedicatedAllocateInfo{
				Buffer: buffer,
			},
		},
	}).Return(memory, core1_0.VKSuccess, nil)
	buffer.EXPECT().BindBufferMemory(memory, 0).Return(core1_0.VKSuccess, nil)

	props := dev.CustomHeapProperties(0, device.HeapTypeDefault)
	_, err := dev.CreateCommittedResource(props, device.HeapFlagNone, device.BufferDesc(2048, 0), device.ResourceStateCommon)
	require.NoError(t, err)
}

func TestCreateCommittedResourceOutOfMemory(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	vkDevice, dev := readyDevice(t, ctrl, common.Vulkan1_0, false)
	buffer := expectBuffer(ctrl, vkDevice, 4096)

	vkDevice.EXPECT().AllocateMemory(gomock.Nil(), gomock.Any()).Return(nil, core1_0.VKErrorOutOfDeviceMemory, core1_0.VKErrorOutOfDeviceMemory.ToError())
	buffer.EXPECT().Destroy(gomock.Nil())

	props := dev.CustomHeapProperties(0, device.HeapTypeDefault)
	resource, err := dev.CreateCommittedResource(props, device.HeapFlagNone, device.BufferDesc(4096, 0), device.ResourceStateCommon)
	require.Nil(t, resource)
	require.True(t, errors.Is(err, device.ErrOutOfMemory))
}

func TestCreateCommittedResourceRejectsTextures(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	_, dev := readyDevice(t, ctrl, common.Vulkan1_0, false)

	desc := device.ResourceDesc{
		Dimension:        device.ResourceDimensionTexture2D,
		Width:            64,
		Height:           64,
		DepthOrArraySize: 1,
		MipLevels:        1,
		Format:           device.FormatR8G8B8A8Unorm,
	}

	_, err := dev.CreateCommittedResource(dev.CustomHeapProperties(0, device.HeapTypeDefault), device.HeapFlagNone, desc, device.ResourceStateCommon)
	require.True(t, errors.Is(err, device.ErrUnsupported))
}

func TestFeatures(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	_, dev := readyDevice(t, ctrl, common.Vulkan1_0, true)
	require.False(t, dev.Features().CreateNotResident)
	require.True(t, dev.dedicatedAllocations)
}
