package bufmgr

import (
	"context"
	"unsafe"

	"github.com/vkngwrapper/bufmgr/device"
	"golang.org/x/exp/slog"
)

// baseRange translates a range relative to bo into a range relative to bo's base. A nil or empty
// range means the whole of bo.
func (bo *BufferObject) baseRange(offset uint64, r *device.Range) device.Range {
	if r == nil || r.IsEmpty() {
		return device.Range{
			Begin: offset,
			End:   offset + bo.Size(),
		}
	}

	return device.Range{
		Begin: r.Begin + offset,
		End:   r.End + offset,
	}
}

// Map maps the range r of the buffer object for CPU access and returns a pointer to the start of
// the range. A nil or empty range maps the whole buffer object. Only the base buffer object's
// resource is ever mapped, so buffer objects viewing the same base share its single mapping.
// Map returns nil if the device could not map the resource.
func (bo *BufferObject) Map(r *device.Range) unsafe.Pointer {
	base, offset := bo.Base()
	baseRange := bo.baseRange(offset, r)

	ptr, err := base.direct().resource.Map(0, &baseRange)
	if err != nil {
		bo.allocator.logger.LogAttrs(context.Background(), slog.LevelError, "BufferObject::Map failed to map resource",
			slog.String("bo", bo.Describe()),
			slog.Any("error", err),
		)
		return nil
	}

	return unsafe.Add(ptr, baseRange.Begin)
}

// Unmap reverses a Map call made with the same range
func (bo *BufferObject) Unmap(r *device.Range) {
	base, offset := bo.Base()
	baseRange := bo.baseRange(offset, r)

	base.direct().resource.Unmap(0, &baseRange)
}
