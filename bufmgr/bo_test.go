package bufmgr

import (
	"fmt"
	"io"
	"regexp"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/bufmgr/device"
	"github.com/vkngwrapper/bufmgr/device/mocks"
	"github.com/vkngwrapper/bufmgr/pb"
	"github.com/vkngwrapper/bufmgr/suballoc"
	"golang.org/x/exp/slog"
)

func readyPool(t *testing.T, allocator *Allocator, size uint64) *Buffer {
	pool, err := allocator.NewManager().CreatePoolBuffer(size, pb.Desc{Usage: pb.UsageCPUReadWrite | pb.UsageGPURead})
	require.NoError(t, err)
	return pool
}

func readySuballocator(t *testing.T, parent pb.Buffer) *suballoc.Manager {
	logger := slog.New(slog.NewTextHandler(io.Discard))
	manager, err := suballoc.New(logger, parent, suballoc.CreateOptions{MinAlignment: 256})
	require.NoError(t, err)
	return manager
}

func TestReferenceSymmetry(t *testing.T) {
	var destroyed []string
	dummy, allocator := readyAllocator(t, device.Features{}, CreateOptions{
		ReferenceDebugCallback: func(bo *BufferObject, description string) {
			destroyed = append(destroyed, description)
		},
	})

	bo, err := allocator.NewBufferObject(4096, pb.Desc{})
	require.NoError(t, err)
	description := bo.Describe()

	for i := 0; i < 10; i++ {
		bo.Reference()
	}
	require.Equal(t, int32(11), bo.ReferenceCount())

	for i := 0; i < 10; i++ {
		bo.Unreference()
	}
	require.Equal(t, int32(1), bo.ReferenceCount())
	require.Empty(t, destroyed)
	require.Equal(t, 1, dummy.Outstanding())

	bo.Unreference()
	require.Equal(t, []string{description}, destroyed)
	require.Equal(t, 0, dummy.Outstanding())

	require.Panics(t, func() {
		bo.Reference()
	})
}

func TestUnreferenceNil(t *testing.T) {
	var bo *BufferObject
	require.NotPanics(t, func() {
		bo.Unreference()
	})
}

func TestSuballocatedBase(t *testing.T) {
	dummy, allocator := readyAllocator(t, device.Features{}, CreateOptions{})

	pool := readyPool(t, allocator, 4096)
	poolBO := pool.BufferObject()
	manager := readySuballocator(t, pool)

	first, err := manager.CreateSubBuffer(1024, pb.Desc{Usage: pb.UsageGPURead})
	require.NoError(t, err)
	second, err := manager.CreateSubBuffer(1024, pb.Desc{Usage: pb.UsageGPURead})
	require.NoError(t, err)

	firstBO, err := allocator.WrapBuffer(first)
	require.NoError(t, err)
	secondBO, err := allocator.WrapBuffer(second)
	require.NoError(t, err)

	base, offset := firstBO.Base()
	require.Same(t, poolBO, base)
	require.Equal(t, uint64(0), offset)

	base, offset = secondBO.Base()
	require.Same(t, poolBO, base)
	require.Equal(t, uint64(1024), offset)

	base, offset = poolBO.Base()
	require.Same(t, poolBO, base)
	require.Equal(t, uint64(0), offset)

	require.Equal(t, uint64(4096), poolBO.Size())
	require.Equal(t, uint64(1024), firstBO.Size())
	require.True(t, firstBO.IsSuballocated())
	require.False(t, firstBO.IsDirect())
	require.False(t, poolBO.IsSuballocated())

	require.Same(t, poolBO.TransitionState(), firstBO.TransitionState())
	require.Equal(t, poolBO.Resource(), secondBO.Resource())
	require.Equal(t, ResidencyEvicted, firstBO.ResidencyStatus())
	require.Equal(t, uint64(0), firstBO.EstimatedSize())
	require.Error(t, allocator.SetResidencyStatus(firstBO, ResidencyResident))

	// Only the pool is tracked
	require.Equal(t, uint64(4096), allocator.ResidentBytes())
	requireResidencyInvariant(t, allocator, poolBO, firstBO, secondBO)

	firstBO.Unreference()
	secondBO.Unreference()
	pool.Release()
	manager.Destroy()

	allocator.Residency().Lock()
	require.Equal(t, 0, allocator.Residency().Len())
	allocator.Residency().Unlock()
	require.Equal(t, 0, dummy.Outstanding())
	require.NoError(t, allocator.Destroy())
}

func TestNestedSuballocationBase(t *testing.T) {
	_, allocator := readyAllocator(t, device.Features{}, CreateOptions{})

	pool := readyPool(t, allocator, 8192)
	outer := readySuballocator(t, pool)

	_, err := outer.CreateSubBuffer(1024, pb.Desc{})
	require.NoError(t, err)
	middle, err := outer.CreateSubBuffer(2048, pb.Desc{})
	require.NoError(t, err)

	inner := readySuballocator(t, middle)
	_, err = inner.CreateSubBuffer(256, pb.Desc{})
	require.NoError(t, err)
	leaf, err := inner.CreateSubBuffer(256, pb.Desc{})
	require.NoError(t, err)

	bo, err := allocator.WrapBuffer(leaf)
	require.NoError(t, err)

	base, offset := bo.Base()
	require.Same(t, pool.BufferObject(), base)
	require.Equal(t, uint64(1024+256), offset)
	require.Equal(t, uint64(256), bo.Size())

	// A buffer object wrapping a buffer object's pool buffer resolves through both
	middleBO, err := allocator.WrapBuffer(middle)
	require.NoError(t, err)
	base, offset = middleBO.Base()
	require.Same(t, pool.BufferObject(), base)
	require.Equal(t, uint64(1024), offset)

	bo.Unreference()
	middleBO.Unreference()
}

func TestWrapWholeBuffer(t *testing.T) {
	dummy, allocator := readyAllocator(t, device.Features{}, CreateOptions{})

	pool := readyPool(t, allocator, 4096)
	pool.Reference()

	bo, err := allocator.WrapBuffer(pool)
	require.NoError(t, err)
	require.False(t, bo.IsSuballocated())
	require.False(t, bo.IsDirect())
	require.Equal(t, uint64(4096), bo.Size())

	pool.Release()
	require.Equal(t, 1, dummy.Outstanding())

	bo.Unreference()
	require.Equal(t, 0, dummy.Outstanding())
}

func TestWrapBufferRejectsForeignBase(t *testing.T) {
	_, allocator := readyAllocator(t, device.Features{}, CreateOptions{})
	_, foreign := readyAllocator(t, device.Features{}, CreateOptions{})

	pool := readyPool(t, foreign, 4096)

	_, err := allocator.WrapBuffer(pool)
	require.Error(t, err)
	_, err = allocator.WrapBuffer(nil)
	require.Error(t, err)

	// The caller keeps its reference on failure
	require.Equal(t, int32(1), pool.BufferObject().ReferenceCount())
	pool.Release()
}

func TestMapUnmapPairing(t *testing.T) {
	_, allocator := readyAllocator(t, device.Features{}, CreateOptions{})

	pool := readyPool(t, allocator, 4096)
	resource := pool.BufferObject().Resource().(*mocks.DummyResource)
	// The persistent mapping
	require.Equal(t, 1, resource.MapCount())

	manager := readySuballocator(t, pool)
	head, err := manager.CreateSubBuffer(512, pb.Desc{})
	require.NoError(t, err)
	sub, err := manager.CreateSubBuffer(512, pb.Desc{})
	require.NoError(t, err)

	subBO, err := allocator.WrapBuffer(sub)
	require.NoError(t, err)

	ptr := subBO.Map(&device.Range{Begin: 16, End: 32})
	require.NotNil(t, ptr)
	require.Equal(t, 2, resource.MapCount())
	require.Equal(t, unsafe.Add(pool.Map(0, nil), 512+16), ptr)

	whole := subBO.Map(nil)
	require.Equal(t, unsafe.Add(pool.Map(0, nil), 512), whole)
	require.Equal(t, 3, resource.MapCount())

	subBO.Unmap(nil)
	subBO.Unmap(&device.Range{Begin: 16, End: 32})
	require.Equal(t, 1, resource.MapCount())

	subBO.Unreference()
	head.Release()
	manager.Destroy()
	pool.Release()
	require.Equal(t, 0, resource.MapCount())
	require.Equal(t, 1, resource.ReleaseCount())
}

func TestMapFailureReturnsNil(t *testing.T) {
	dummy, allocator := readyAllocator(t, device.Features{}, CreateOptions{})
	dummy.FailMap(true)

	bo, err := allocator.NewBufferObject(4096, pb.Desc{Usage: pb.UsageCPUWrite})
	require.NoError(t, err)

	require.Nil(t, bo.Map(nil))
	require.Equal(t, 0, bo.Resource().(*mocks.DummyResource).MapCount())

	bo.Unreference()
}

func TestDescribe(t *testing.T) {
	_, allocator := readyAllocator(t, device.Features{}, CreateOptions{})

	pool := readyPool(t, allocator, 4096)
	poolBO := pool.BufferObject()
	require.Regexp(t, regexp.MustCompile(`^bufmgr_bo<direct,0x[0-9a-f]+,0x1000>$`), poolBO.Describe())

	manager := readySuballocator(t, pool)
	_, err := manager.CreateSubBuffer(1024, pb.Desc{})
	require.NoError(t, err)
	sub, err := manager.CreateSubBuffer(1024, pb.Desc{})
	require.NoError(t, err)

	subBO, err := allocator.WrapBuffer(sub)
	require.NoError(t, err)
	require.Equal(t, fmt.Sprintf("bufmgr_bo<suballoc<%s>,0x400,0x400>", poolBO.Describe()), subBO.Describe())

	subBO.Unreference()
	manager.Destroy()
	pool.Release()
}
