package device

import "github.com/vkngwrapper/bufmgr/memutils"

const (
	// TexturePitchAlignment is the row pitch alignment of a texture's copyable footprint
	TexturePitchAlignment uint64 = 256
	// TexturePlacementAlignment is the offset alignment of each subresource's copyable footprint
	TexturePlacementAlignment uint64 = 512
)

// FootprintSize computes the bytes that numSubresources subresources of a resource occupy when laid
// out for copying, starting at firstSubresource. Buffers occupy their width. Texture subresources
// are ordered mip-major within each plane and array slice, with rows aligned to
// TexturePitchAlignment and every subresource placed at a TexturePlacementAlignment boundary.
func FootprintSize(desc ResourceDesc, firstSubresource, numSubresources uint32, baseOffset uint64) uint64 {
	if numSubresources == 0 {
		return 0
	}

	if desc.Dimension == ResourceDimensionBuffer {
		return desc.Width
	}

	mipLevels := uint32(desc.MipLevels)
	if mipLevels == 0 {
		mipLevels = 1
	}

	offset := baseOffset
	end := baseOffset
	for subresource := firstSubresource; subresource < firstSubresource+numSubresources; subresource++ {
		mip := subresource % mipLevels
		offset = memutils.AlignUp(offset, TexturePlacementAlignment)

		width := mipExtent(desc.Width, mip)
		height := mipExtent(uint64(desc.Height), mip)
		depth := uint64(1)
		if desc.Dimension == ResourceDimensionTexture3D {
			depth = mipExtent(uint64(desc.DepthOrArraySize), mip)
		}

		rowPitch := memutils.AlignUp(width*uint64(desc.Format.BytesPerElement()), TexturePitchAlignment)
		size := rowPitch*(height*depth-1) + width*uint64(desc.Format.BytesPerElement())

		end = offset + size
		offset = end
	}

	return end - baseOffset
}

func mipExtent(extent uint64, mip uint32) uint64 {
	extent >>= mip
	if extent == 0 {
		return 1
	}
	return extent
}
