package metadata_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/bufmgr/memutils"
	"github.com/vkngwrapper/bufmgr/memutils/metadata"
)

func allocate(t *testing.T, md metadata.BlockMetadata, size, alignment uint64, strategy metadata.AllocationStrategy) (metadata.BlockAllocationHandle, uint64) {
	success, req, err := md.CreateAllocationRequest(size, alignment, strategy)
	require.NoError(t, err)
	require.True(t, success)

	err = md.Alloc(req, nil)
	require.NoError(t, err)
	require.NoError(t, md.Validate())

	return req.BlockAllocationHandle, req.Offset
}

func TestFreeListBasicAlloc(t *testing.T) {
	md := metadata.NewFreeListBlockMetadata()
	md.Init(1000)

	var stats memutils.DetailedStatistics
	stats.Clear()
	md.AddDetailedStatistics(&stats)

	require.Equal(t, memutils.DetailedStatistics{
		Statistics: memutils.Statistics{
			BlockCount: 1,
			BlockBytes: 1000,
		},
		UnusedRangeCount:   1,
		AllocationSizeMin:  math.MaxUint64,
		AllocationSizeMax:  0,
		UnusedRangeSizeMin: 1000,
		UnusedRangeSizeMax: 1000,
	}, stats)

	alloc1, offset := allocate(t, md, 100, 1, metadata.AllocationStrategyMinMemory)
	require.Equal(t, uint64(0), offset)

	stats.Clear()
	md.AddDetailedStatistics(&stats)
	require.Equal(t, memutils.DetailedStatistics{
		Statistics: memutils.Statistics{
			BlockCount:      1,
			BlockBytes:      1000,
			AllocationCount: 1,
			AllocationBytes: 100,
		},
		UnusedRangeCount:   1,
		AllocationSizeMin:  100,
		AllocationSizeMax:  100,
		UnusedRangeSizeMin: 900,
		UnusedRangeSizeMax: 900,
	}, stats)

	require.NoError(t, md.Free(alloc1))
	require.NoError(t, md.Validate())
	require.True(t, md.IsEmpty())
	require.Equal(t, uint64(1000), md.SumFreeSize())
	require.Equal(t, 1, md.FreeRegionsCount())
}

func TestFreeListAlignmentKeepsPadding(t *testing.T) {
	md := metadata.NewFreeListBlockMetadata()
	md.Init(4096)

	_, offset := allocate(t, md, 10, 1, metadata.AllocationStrategyMinTime)
	require.Equal(t, uint64(0), offset)

	_, offset = allocate(t, md, 256, 256, metadata.AllocationStrategyMinTime)
	require.Equal(t, uint64(256), offset)

	// The padding between 10 and 256 is still usable
	_, offset = allocate(t, md, 100, 1, metadata.AllocationStrategyMinOffset)
	require.Equal(t, uint64(10), offset)

	require.Equal(t, uint64(4096-366), md.SumFreeSize())
}

func TestFreeListMergesOnFree(t *testing.T) {
	md := metadata.NewFreeListBlockMetadata()
	md.Init(300)

	a, _ := allocate(t, md, 100, 1, metadata.AllocationStrategyMinTime)
	b, _ := allocate(t, md, 100, 1, metadata.AllocationStrategyMinTime)
	c, _ := allocate(t, md, 100, 1, metadata.AllocationStrategyMinTime)
	require.Equal(t, 0, md.FreeRegionsCount())

	success, _, err := md.CreateAllocationRequest(1, 1, metadata.AllocationStrategyMinTime)
	require.NoError(t, err)
	require.False(t, success)

	require.NoError(t, md.Free(a))
	require.NoError(t, md.Free(c))
	require.Equal(t, 2, md.FreeRegionsCount())
	require.NoError(t, md.Validate())

	require.NoError(t, md.Free(b))
	require.Equal(t, 1, md.FreeRegionsCount())
	require.NoError(t, md.Validate())
}

func TestFreeListBestFit(t *testing.T) {
	md := metadata.NewFreeListBlockMetadata()
	md.Init(1000)

	a, _ := allocate(t, md, 100, 1, metadata.AllocationStrategyMinTime)
	_, _ = allocate(t, md, 100, 1, metadata.AllocationStrategyMinTime)
	c, _ := allocate(t, md, 50, 1, metadata.AllocationStrategyMinTime)
	_, _ = allocate(t, md, 100, 1, metadata.AllocationStrategyMinTime)

	require.NoError(t, md.Free(a))
	require.NoError(t, md.Free(c))

	// Free regions: [0,100), [200,250), [350,1000)
	_, offset := allocate(t, md, 40, 1, metadata.AllocationStrategyMinMemory)
	require.Equal(t, uint64(200), offset)

	_, offset = allocate(t, md, 40, 1, metadata.AllocationStrategyMinTime)
	require.Equal(t, uint64(0), offset)
}

func TestFreeListStaleRequest(t *testing.T) {
	md := metadata.NewFreeListBlockMetadata()
	md.Init(100)

	success, req, err := md.CreateAllocationRequest(10, 1, metadata.AllocationStrategyMinTime)
	require.NoError(t, err)
	require.True(t, success)
	require.NoError(t, md.Alloc(req, "first"))

	require.Error(t, md.Alloc(req, "second"))

	userData, err := md.AllocationUserData(req.BlockAllocationHandle)
	require.NoError(t, err)
	require.Equal(t, "first", userData)

	require.Error(t, md.Free(req.BlockAllocationHandle+1))
}

func TestFreeListRejectsBadRequests(t *testing.T) {
	md := metadata.NewFreeListBlockMetadata()
	md.Init(100)

	_, _, err := md.CreateAllocationRequest(0, 1, metadata.AllocationStrategyMinTime)
	require.Error(t, err)

	_, _, err = md.CreateAllocationRequest(10, 3, metadata.AllocationStrategyMinTime)
	require.Error(t, err)
}

func TestFreeListVisitOrder(t *testing.T) {
	md := metadata.NewFreeListBlockMetadata()
	md.Init(100)

	_, _ = allocate(t, md, 10, 1, metadata.AllocationStrategyMinTime)
	b, _ := allocate(t, md, 10, 1, metadata.AllocationStrategyMinTime)
	_, _ = allocate(t, md, 10, 1, metadata.AllocationStrategyMinTime)
	require.NoError(t, md.Free(b))

	var offsets []uint64
	var frees []bool
	err := md.VisitAllRegions(func(handle metadata.BlockAllocationHandle, offset uint64, size uint64, userData any, free bool) error {
		offsets = append(offsets, offset)
		frees = append(frees, free)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []uint64{0, 10, 20, 30}, offsets)
	require.Equal(t, []bool{false, true, false, true}, frees)
}
