package device

import (
	"fmt"

	"github.com/vkngwrapper/core/v2/common"
)

// ResourceDimension is the shape of a resource
type ResourceDimension int32

const (
	ResourceDimensionUnknown ResourceDimension = iota
	ResourceDimensionBuffer
	ResourceDimensionTexture1D
	ResourceDimensionTexture2D
	ResourceDimensionTexture3D
)

var resourceDimensionMapping = map[ResourceDimension]string{
	ResourceDimensionUnknown:   "ResourceDimensionUnknown",
	ResourceDimensionBuffer:    "ResourceDimensionBuffer",
	ResourceDimensionTexture1D: "ResourceDimensionTexture1D",
	ResourceDimensionTexture2D: "ResourceDimensionTexture2D",
	ResourceDimensionTexture3D: "ResourceDimensionTexture3D",
}

func (d ResourceDimension) String() string {
	str, ok := resourceDimensionMapping[d]
	if !ok {
		return fmt.Sprintf("ResourceDimension(%d)", int32(d))
	}
	return str
}

// TextureLayout describes the memory layout of a resource
type TextureLayout int32

const (
	TextureLayoutUnknown TextureLayout = iota
	TextureLayoutRowMajor
)

// ResourceFlags are creation options for a resource
type ResourceFlags int32

var resourceFlagsMapping = common.NewFlagStringMapping[ResourceFlags]()

func (f ResourceFlags) Register(str string) {
	resourceFlagsMapping.Register(f, str)
}
func (f ResourceFlags) String() string {
	return resourceFlagsMapping.FlagsToString(f)
}

const (
	ResourceFlagNone              ResourceFlags = 0
	ResourceFlagAllowRenderTarget ResourceFlags = 1 << iota
	ResourceFlagAllowDepthStencil
	ResourceFlagAllowUnorderedAccess
	ResourceFlagDenyShaderResource
	ResourceFlagAllowCrossAdapter
	ResourceFlagAllowSimultaneousAccess
)

func init() {
	ResourceFlagAllowRenderTarget.Register("ResourceFlagAllowRenderTarget")
	ResourceFlagAllowDepthStencil.Register("ResourceFlagAllowDepthStencil")
	ResourceFlagAllowUnorderedAccess.Register("ResourceFlagAllowUnorderedAccess")
	ResourceFlagDenyShaderResource.Register("ResourceFlagDenyShaderResource")
	ResourceFlagAllowCrossAdapter.Register("ResourceFlagAllowCrossAdapter")
	ResourceFlagAllowSimultaneousAccess.Register("ResourceFlagAllowSimultaneousAccess")
}

// SampleDesc describes multisampling for a texture
type SampleDesc struct {
	Count   uint32
	Quality uint32
}

// ResourceDesc describes a resource to be created, or the resource that was created
type ResourceDesc struct {
	Dimension        ResourceDimension
	Alignment        uint64
	Width            uint64
	Height           uint32
	DepthOrArraySize uint16
	MipLevels        uint16
	Format           Format
	SampleDesc       SampleDesc
	Layout           TextureLayout
	Flags            ResourceFlags
}

// BufferDesc returns the description of a plain row-major buffer of the provided width
func BufferDesc(width uint64, flags ResourceFlags) ResourceDesc {
	return ResourceDesc{
		Dimension:        ResourceDimensionBuffer,
		Format:           FormatUnknown,
		Alignment:        0,
		Width:            width,
		Height:           1,
		DepthOrArraySize: 1,
		MipLevels:        1,
		SampleDesc:       SampleDesc{Count: 1, Quality: 0},
		Layout:           TextureLayoutRowMajor,
		Flags:            flags,
	}
}

// ArraySize returns the number of array slices in the resource. Depth slices of a 3D texture
// are not array slices.
func (d ResourceDesc) ArraySize() uint32 {
	if d.Dimension == ResourceDimensionTexture3D {
		return 1
	}
	return uint32(d.DepthOrArraySize)
}

// ResourceState is the usage state a resource is in from the device's point of view
type ResourceState int32

const (
	ResourceStateCommon                  ResourceState = 0
	ResourceStateVertexAndConstantBuffer ResourceState = 1 << iota
	ResourceStateIndexBuffer
	ResourceStateRenderTarget
	ResourceStateUnorderedAccess
	ResourceStateDepthWrite
	ResourceStateDepthRead
	ResourceStateNonPixelShaderResource
	ResourceStatePixelShaderResource
	ResourceStateCopyDest
	ResourceStateCopySource
	ResourceStateGenericRead = ResourceStateVertexAndConstantBuffer | ResourceStateIndexBuffer |
		ResourceStateNonPixelShaderResource | ResourceStatePixelShaderResource | ResourceStateCopySource
)
