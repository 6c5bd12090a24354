package bufmgr

import (
	"context"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/bufmgr/device"
	"github.com/vkngwrapper/bufmgr/memutils"
	"golang.org/x/exp/slog"
)

// Allocator is the device-wide context of the buffer manager. It creates buffer objects on a
// device and owns the residency list that tracks which of them occupy device memory.
type Allocator struct {
	useMutex bool
	logger   *slog.Logger
	device   device.Device

	createFlags     CreateFlags
	bufferAlignment uint64
	referenceDebug  ReferenceDebugCallback
	memoryCallbacks *memoryCallbacks

	residency ResidencyList
	liveCount atomic.Int64
}

// New creates a new Allocator
//
// logger - The logger that allocator diagnostics are written to
//
// dev - The device that resources will be created on
//
// options - Optional parameters: it is valid to leave all the fields blank
func New(logger *slog.Logger, dev device.Device, options CreateOptions) (*Allocator, error) {
	if logger == nil {
		return nil, errors.New("attempted to create an allocator without a logger")
	}
	if dev == nil {
		return nil, errors.New("attempted to create an allocator without a device")
	}

	useMutex := options.Flags&AllocatorCreateExternallySynchronized == 0

	allocator := &Allocator{
		useMutex:        useMutex,
		logger:          logger,
		device:          dev,
		createFlags:     options.Flags,
		bufferAlignment: options.BufferAlignment,
		referenceDebug:  options.ReferenceDebugCallback,
	}

	if allocator.bufferAlignment == 0 {
		allocator.bufferAlignment = DefaultBufferAlignment
	}

	err := memutils.CheckPow2(allocator.bufferAlignment, "CreateOptions.BufferAlignment")
	if err != nil {
		return nil, err
	}

	allocator.memoryCallbacks = &memoryCallbacks{
		Callbacks: options.MemoryCallbackOptions,
		Allocator: allocator,
	}
	allocator.residency.init(useMutex)

	return allocator, nil
}

// Device returns the device this allocator creates resources on
func (a *Allocator) Device() device.Device {
	return a.device
}

// BufferAlignment returns the granularity of buffer sizes created by this allocator's managers
func (a *Allocator) BufferAlignment() uint64 {
	return a.bufferAlignment
}

// Residency returns the residency list of this allocator
func (a *Allocator) Residency() *ResidencyList {
	return &a.residency
}

// Destroy checks that every buffer object created from this allocator has been destroyed.
// Buffer objects that are still in the residency list are logged individually. Evicted buffer
// objects are not listed anywhere, so only their number is reported. An error is returned if
// any buffer object is still alive.
func (a *Allocator) Destroy() error {
	a.residency.Lock()
	defer a.residency.Unlock()

	live := int(a.liveCount.Load())
	if live == 0 {
		return nil
	}

	a.residency.Each(func(bo *BufferObject) bool {
		a.logger.LogAttrs(context.Background(), slog.LevelError, "[UNRELEASED MEMORY] unreleased buffer object",
			slog.String("bo", bo.Describe()),
			slog.Int("references", int(bo.ReferenceCount())),
			slog.String("status", bo.ResidencyStatus().String()),
		)
		return true
	})

	evicted := live - a.residency.Len()
	if evicted > 0 {
		a.logger.LogAttrs(context.Background(), slog.LevelError, "[UNRELEASED MEMORY] unreleased evicted buffer objects",
			slog.Int("count", evicted),
		)
	}

	return errors.Newf("%d buffer objects were not released before the destruction of this allocator", live)
}

// LiveCount returns the number of buffer objects created by this allocator that have not been
// destroyed, whatever their residency
func (a *Allocator) LiveCount() int {
	return int(a.liveCount.Load())
}

// SetResidencyStatus records that bo's memory has been made resident, evicted, or promoted to
// permanently resident, and updates the residency list to match. The permitted transitions
// are evicted to resident, resident to evicted, and resident to permanently resident. Deciding
// when to make these transitions is up to the caller.
func (a *Allocator) SetResidencyStatus(bo *BufferObject, status ResidencyStatus) error {
	if bo == nil {
		return errors.New("attempted to set the residency status of a nil buffer object")
	}
	if bo.allocator != a {
		return errors.New("buffer object was not created by this allocator")
	}
	if bo.direct() == nil {
		return errors.New("the residency of a buffer object that views another buffer is the residency of its base")
	}
	if !status.isValid() {
		return errors.Newf("unknown residency status %s", status)
	}

	a.residency.Lock()
	defer a.residency.Unlock()

	if bo.ReferenceCount() <= 0 {
		return errors.Newf("attempted to set the residency status of destroyed buffer object %s", bo.Describe())
	}

	current := bo.ResidencyStatus()
	if current == status {
		return nil
	}

	switch {
	case current == ResidencyEvicted && status == ResidencyResident:
	case current == ResidencyResident && status == ResidencyEvicted:
	case current == ResidencyResident && status == ResidencyPermanentlyResident:
	default:
		return errors.Newf("buffer object cannot move from %s to %s", current, status)
	}

	// The list only holds objects that are not evicted, so the status changes first
	bo.residencyStatus.Store(int32(status))
	if current == ResidencyEvicted {
		a.residency.push(bo)
	} else if status == ResidencyEvicted {
		a.residency.remove(bo)
	}

	return nil
}

// ResidentBytes returns the total estimated size of every buffer object in the residency list
func (a *Allocator) ResidentBytes() uint64 {
	a.residency.Lock()
	defer a.residency.Unlock()

	return a.residency.TotalEstimatedSize()
}

// BuildStatsString returns a JSON document describing every buffer object in the residency list
func (a *Allocator) BuildStatsString() (string, error) {
	a.residency.Lock()
	defer a.residency.Unlock()

	writer := jwriter.NewWriter()
	obj := writer.Object()

	obj.Name("Flags").String(a.createFlags.String())
	obj.Name("BufferAlignment").Int(int(a.bufferAlignment))

	total := obj.Name("Total").Object()
	total.Name("Count").Int(a.residency.Len())
	total.Name("EstimatedBytes").Int(int(a.residency.TotalEstimatedSize()))
	total.End()

	a.residency.buildStatsString(obj.Name("Resident"))

	obj.End()

	err := writer.Error()
	if err != nil {
		return "", errors.Wrap(err, "failed to build residency stats")
	}

	return string(writer.Bytes()), nil
}
