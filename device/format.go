package device

// Format is the element format of a resource
type Format uint32

const (
	FormatUnknown Format = iota
	FormatR8G8B8A8Unorm
	FormatB8G8R8A8Unorm
	FormatR16G16B16A16Float
	FormatR32G32B32A32Float
	FormatR32Float
	FormatR8Unorm
	FormatD16Unorm
	FormatD32Float
	FormatD24UnormS8Uint
	FormatD32FloatS8X24Uint
	FormatS8Uint
	FormatNV12
	FormatP010
	FormatP016
	FormatYUY2
	FormatV208
	FormatV408
)

type formatInfo struct {
	name        string
	planeCount  uint32
	hasStencil  bool
	bytesPerElt uint32
}

var formatInfos = map[Format]formatInfo{
	FormatUnknown:           {name: "FormatUnknown", planeCount: 1, bytesPerElt: 1},
	FormatR8G8B8A8Unorm:     {name: "FormatR8G8B8A8Unorm", planeCount: 1, bytesPerElt: 4},
	FormatB8G8R8A8Unorm:     {name: "FormatB8G8R8A8Unorm", planeCount: 1, bytesPerElt: 4},
	FormatR16G16B16A16Float: {name: "FormatR16G16B16A16Float", planeCount: 1, bytesPerElt: 8},
	FormatR32G32B32A32Float: {name: "FormatR32G32B32A32Float", planeCount: 1, bytesPerElt: 16},
	FormatR32Float:          {name: "FormatR32Float", planeCount: 1, bytesPerElt: 4},
	FormatR8Unorm:           {name: "FormatR8Unorm", planeCount: 1, bytesPerElt: 1},
	FormatD16Unorm:          {name: "FormatD16Unorm", planeCount: 1, bytesPerElt: 2},
	FormatD32Float:          {name: "FormatD32Float", planeCount: 1, bytesPerElt: 4},
	FormatD24UnormS8Uint:    {name: "FormatD24UnormS8Uint", planeCount: 1, hasStencil: true, bytesPerElt: 4},
	FormatD32FloatS8X24Uint: {name: "FormatD32FloatS8X24Uint", planeCount: 1, hasStencil: true, bytesPerElt: 8},
	FormatS8Uint:            {name: "FormatS8Uint", planeCount: 1, hasStencil: true, bytesPerElt: 1},
	FormatNV12:              {name: "FormatNV12", planeCount: 2, bytesPerElt: 1},
	FormatP010:              {name: "FormatP010", planeCount: 2, bytesPerElt: 2},
	FormatP016:              {name: "FormatP016", planeCount: 2, bytesPerElt: 2},
	FormatYUY2:              {name: "FormatYUY2", planeCount: 1, bytesPerElt: 4},
	FormatV208:              {name: "FormatV208", planeCount: 3, bytesPerElt: 1},
	FormatV408:              {name: "FormatV408", planeCount: 3, bytesPerElt: 1},
}

func (f Format) String() string {
	return formatInfos[f].name
}

// PlaneCount returns the number of planes of the format that are addressed as separate
// subresources. Depth/stencil planes are opaque and not counted here.
func (f Format) PlaneCount() uint32 {
	info, ok := formatInfos[f]
	if !ok {
		return 1
	}
	return info.planeCount
}

// HasStencil returns true if the format carries a stencil aspect, which is tracked as its
// own set of subresources
func (f Format) HasStencil() bool {
	return formatInfos[f].hasStencil
}

// BytesPerElement returns the size of one element of the format's first plane
func (f Format) BytesPerElement() uint32 {
	info, ok := formatInfos[f]
	if !ok {
		return 1
	}
	return info.bytesPerElt
}
