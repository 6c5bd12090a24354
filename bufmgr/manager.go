package bufmgr

import (
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/bufmgr/device"
	"github.com/vkngwrapper/bufmgr/memutils"
	"github.com/vkngwrapper/bufmgr/pb"
	"golang.org/x/exp/slog"
)

// Manager is a pb.Manager that gives each buffer a committed resource of its own
type Manager struct {
	allocator *Allocator
	destroyed atomic.Bool
}

var _ pb.Manager = &Manager{}

// NewManager creates a buffer manager that creates buffer objects from this allocator
func (a *Allocator) NewManager() *Manager {
	return &Manager{allocator: a}
}

// CreateBuffer creates a buffer of at least size bytes. The size is rounded up to the
// allocator's buffer alignment so that the buffer may be bound as a constant buffer. Buffers the
// CPU may access are mapped immediately and stay mapped until they are destroyed. If any step
// fails, everything created so far is released and an error is returned.
func (m *Manager) CreateBuffer(size uint64, desc pb.Desc) (pb.Buffer, error) {
	buf, err := m.CreatePoolBuffer(size, desc)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// CreatePoolBuffer is CreateBuffer returning the concrete buffer type
func (m *Manager) CreatePoolBuffer(size uint64, desc pb.Desc) (*Buffer, error) {
	a := m.allocator
	a.logger.Debug("Manager::CreateBuffer", slog.Uint64("size", size), slog.String("usage", desc.Usage.String()))

	if m.destroyed.Load() {
		return nil, errors.New("attempted to create a buffer from a destroyed manager")
	}

	alignment := desc.Alignment
	if alignment == 0 {
		alignment = 1
	}
	err := memutils.CheckPow2(alignment, "pb.Desc.Alignment")
	if err != nil {
		return nil, err
	}

	size = memutils.AlignUp(size, a.bufferAlignment)

	buf := &Buffer{
		size:      size,
		usage:     desc.Usage,
		alignment: alignment,
		mapRange: device.Range{
			Begin: 0,
			End:   size,
		},
	}
	buf.ref.Init(1)

	buf.bo, err = a.NewBufferObject(size, desc)
	if err != nil {
		return nil, err
	}

	if desc.Usage&pb.UsageCPUReadWrite != 0 {
		buf.mapped = buf.bo.Map(&buf.mapRange)
		if buf.mapped == nil {
			buf.bo.Unreference()
			return nil, errors.Wrapf(device.ErrMapFailed, "failed to persistently map a %d byte buffer", size)
		}
	}

	return buf, nil
}

// Flush does nothing: buffers are created synchronously
func (m *Manager) Flush() {}

// IsBufferBusy always returns false. It must only be called on buffers that are already known to
// be idle through other tracking.
func (m *Manager) IsBufferBusy(buffer pb.Buffer) bool {
	return false
}

// Destroy releases the manager. Buffers it created are unaffected.
func (m *Manager) Destroy() {
	m.allocator.logger.Debug("Manager::Destroy")
	m.destroyed.Store(true)
}
