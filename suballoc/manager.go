// Package suballoc implements a pb.Manager that carves buffers out of a single parent buffer.
// Each buffer it creates is a view of a range of the parent, and reports the parent as its base.
package suballoc

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/bufmgr/memutils"
	"github.com/vkngwrapper/bufmgr/memutils/metadata"
	"github.com/vkngwrapper/bufmgr/pb"
	"golang.org/x/exp/slog"
)

// CreateOptions contains optional settings when creating a Manager
type CreateOptions struct {
	// MinAlignment is the minimum alignment of every buffer's offset within the parent. It must
	// be a power of two. If 0, buffers are aligned only as their pb.Desc requests.
	MinAlignment uint64
	// Strategy selects how free ranges are chosen. If 0, metadata.AllocationStrategyMinMemory
	// is used.
	Strategy metadata.AllocationStrategy
}

// Manager suballocates buffers from a parent buffer. It holds a reference to the parent until
// it is destroyed, and each buffer it creates holds its own reference to the parent.
type Manager struct {
	logger *slog.Logger
	parent pb.Buffer

	minAlignment uint64
	strategy     metadata.AllocationStrategy

	mutex     sync.Mutex
	metadata  *metadata.FreeListBlockMetadata
	destroyed bool
}

var _ pb.Manager = &Manager{}

// New creates a Manager that suballocates from parent. The manager takes a reference of its own
// to parent; the caller keeps its reference.
func New(logger *slog.Logger, parent pb.Buffer, options CreateOptions) (*Manager, error) {
	if logger == nil {
		return nil, errors.New("attempted to create a suballocation manager without a logger")
	}
	if parent == nil {
		return nil, errors.New("attempted to create a suballocation manager without a parent buffer")
	}
	if parent.Size() == 0 {
		return nil, errors.New("attempted to suballocate from an empty parent buffer")
	}

	minAlignment := options.MinAlignment
	if minAlignment == 0 {
		minAlignment = 1
	}
	err := memutils.CheckPow2(minAlignment, "CreateOptions.MinAlignment")
	if err != nil {
		return nil, err
	}

	strategy := options.Strategy
	if strategy == 0 {
		strategy = metadata.AllocationStrategyMinMemory
	}

	md := metadata.NewFreeListBlockMetadata()
	md.Init(parent.Size())

	parent.Reference()

	return &Manager{
		logger:       logger,
		parent:       parent,
		minAlignment: minAlignment,
		strategy:     strategy,
		metadata:     md,
	}, nil
}

// Parent returns the buffer this manager suballocates from
func (m *Manager) Parent() pb.Buffer {
	return m.parent
}

func (m *Manager) CreateBuffer(size uint64, desc pb.Desc) (pb.Buffer, error) {
	buf, err := m.CreateSubBuffer(size, desc)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// CreateSubBuffer is CreateBuffer returning the concrete buffer type. Alignment is relative to
// the start of the parent. An error wrapping
// memutils.OutOfRangeError is returned when no free range of the parent can hold the buffer.
func (m *Manager) CreateSubBuffer(size uint64, desc pb.Desc) (*Buffer, error) {
	m.logger.Debug("Manager::CreateBuffer", slog.Uint64("size", size))

	alignment := desc.Alignment
	if alignment < m.minAlignment {
		alignment = m.minAlignment
	}
	err := memutils.CheckPow2(alignment, "pb.Desc.Alignment")
	if err != nil {
		return nil, err
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.destroyed {
		return nil, errors.New("attempted to create a buffer from a destroyed manager")
	}

	success, request, err := m.metadata.CreateAllocationRequest(size, alignment, m.strategy)
	if err != nil {
		return nil, err
	}
	if !success {
		return nil, errors.Wrapf(memutils.OutOfRangeError, "no free range of %d bytes with alignment %d in a %d byte parent", size, alignment, m.metadata.Size())
	}

	buf := &Buffer{
		manager:   m,
		handle:    request.BlockAllocationHandle,
		offset:    request.Offset,
		size:      size,
		usage:     desc.Usage,
		alignment: alignment,
	}
	buf.ref.Init(1)

	err = m.metadata.Alloc(request, buf)
	if err != nil {
		return nil, err
	}

	m.parent.Reference()
	return buf, nil
}

func (m *Manager) free(buf *Buffer) {
	m.mutex.Lock()
	err := m.metadata.Free(buf.handle)
	m.mutex.Unlock()

	if err != nil {
		m.logger.LogAttrs(context.Background(), slog.LevelError, "Buffer::Release failed to free range",
			slog.Uint64("offset", buf.offset),
			slog.Uint64("size", buf.size),
			slog.Any("error", err),
		)
	}

	m.parent.Release()
}

// Flush does nothing: buffers are placed synchronously
func (m *Manager) Flush() {}

// IsBufferBusy always returns false. It must only be called on buffers that are already known to
// be idle through other tracking.
func (m *Manager) IsBufferBusy(buffer pb.Buffer) bool {
	return false
}

// Destroy releases the manager's reference to the parent. Buffers that have not been released
// are logged; they keep the parent alive until they are released.
func (m *Manager) Destroy() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.destroyed {
		return
	}
	m.destroyed = true

	if !m.metadata.IsEmpty() {
		err := m.metadata.VisitAllRegions(func(handle metadata.BlockAllocationHandle, offset uint64, size uint64, userData any, free bool) error {
			if free {
				return nil
			}

			m.logger.LogAttrs(context.Background(), slog.LevelError, "[UNRELEASED MEMORY] unreleased suballocated buffer",
				slog.Uint64("offset", offset),
				slog.Uint64("size", size),
			)
			return nil
		})
		if err != nil {
			m.logger.LogAttrs(context.Background(),
				slog.LevelError,
				"[UNRELEASED MEMORY] error while iterating unreleased memory",
				slog.Any("error", err))
		}
	}

	m.parent.Release()
}

// Statistics returns the number and size of live buffers in the parent
func (m *Manager) Statistics() memutils.Statistics {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	var stats memutils.Statistics
	m.metadata.AddStatistics(&stats)
	return stats
}

// DetailedStatistics returns the size extremes of the live buffers and free ranges in the parent
func (m *Manager) DetailedStatistics() memutils.DetailedStatistics {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	var stats memutils.DetailedStatistics
	stats.Clear()
	m.metadata.AddDetailedStatistics(&stats)
	return stats
}

// Validate checks the consistency of the manager's free range bookkeeping
func (m *Manager) Validate() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return m.metadata.Validate()
}

// BuildStatsString returns a JSON document describing the parent's live and free ranges
func (m *Manager) BuildStatsString() (string, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	writer := jwriter.NewWriter()
	obj := writer.Object()
	obj.Name("Strategy").String(m.strategy.String())
	obj.Name("MinAlignment").Int(int(m.minAlignment))

	block := obj.Name("Block").Object()
	m.metadata.BlockJsonData(block)
	block.End()

	var stats memutils.DetailedStatistics
	stats.Clear()
	m.metadata.AddDetailedStatistics(&stats)
	if stats.AllocationCount > 0 {
		sizes := obj.Name("AllocationSize").Object()
		sizes.Name("Min").Int(int(stats.AllocationSizeMin))
		sizes.Name("Max").Int(int(stats.AllocationSizeMax))
		sizes.End()
	}
	if stats.UnusedRangeCount > 0 {
		sizes := obj.Name("UnusedRangeSize").Object()
		sizes.Name("Min").Int(int(stats.UnusedRangeSizeMin))
		sizes.Name("Max").Int(int(stats.UnusedRangeSizeMax))
		sizes.End()
	}

	obj.End()

	err := writer.Error()
	if err != nil {
		return "", errors.Wrap(err, "failed to build suballocation stats")
	}

	return string(writer.Bytes()), nil
}
