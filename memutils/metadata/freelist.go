package metadata

import (
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/bufmgr/memutils"
	"golang.org/x/exp/slices"
)

type freeRange struct {
	offset uint64
	size   uint64
}

func (r freeRange) end() uint64 { return r.offset + r.size }

// FreeListBlockMetadata is a BlockMetadata implementation that keeps free space as a list of ranges
// sorted by offset. Adjacent free ranges are always merged. It is intended for blocks carrying a
// modest number of suballocations, such as a single buffer carved into views.
type FreeListBlockMetadata struct {
	BlockMetadataBase

	free        []freeRange
	sumFreeSize uint64
	allocations *swiss.Map[BlockAllocationHandle, *Suballocation]
	nextHandle  BlockAllocationHandle
}

var _ BlockMetadata = &FreeListBlockMetadata{}

func NewFreeListBlockMetadata() *FreeListBlockMetadata {
	return &FreeListBlockMetadata{
		allocations: swiss.NewMap[BlockAllocationHandle, *Suballocation](16),
	}
}

func (m *FreeListBlockMetadata) Init(size uint64) {
	m.BlockMetadataBase.Init(size)
	m.Clear()
}

func (m *FreeListBlockMetadata) Clear() {
	m.allocations.Clear()
	m.free = m.free[:0]
	if m.Size() > 0 {
		m.free = append(m.free, freeRange{offset: 0, size: m.Size()})
	}
	m.sumFreeSize = m.Size()
}

func (m *FreeListBlockMetadata) AllocationCount() int  { return m.allocations.Count() }
func (m *FreeListBlockMetadata) FreeRegionsCount() int { return len(m.free) }
func (m *FreeListBlockMetadata) SumFreeSize() uint64   { return m.sumFreeSize }
func (m *FreeListBlockMetadata) IsEmpty() bool         { return m.allocations.Count() == 0 }

func (m *FreeListBlockMetadata) CreateAllocationRequest(allocSize uint64, allocAlignment uint64, strategy AllocationStrategy) (bool, AllocationRequest, error) {
	if allocSize == 0 {
		return false, AllocationRequest{}, errors.New("attempted to create an allocation request of 0 size")
	}
	if allocAlignment == 0 {
		allocAlignment = 1
	}
	err := memutils.CheckPow2(allocAlignment, "allocation alignment")
	if err != nil {
		return false, AllocationRequest{}, err
	}

	if allocSize > m.sumFreeSize {
		return false, AllocationRequest{}, nil
	}

	bestIndex := -1
	var bestOffset uint64
	for index, r := range m.free {
		alignedOffset := memutils.AlignUp(r.offset, allocAlignment)
		if alignedOffset+allocSize > r.end() {
			continue
		}

		if strategy != AllocationStrategyMinMemory && strategy != 0 {
			// Ranges are sorted by offset, so the first fit is also the lowest offset
			bestIndex = index
			bestOffset = alignedOffset
			break
		}

		if bestIndex < 0 || r.size < m.free[bestIndex].size {
			bestIndex = index
			bestOffset = alignedOffset
		}
	}

	if bestIndex < 0 {
		return false, AllocationRequest{}, nil
	}

	return true, AllocationRequest{
		BlockAllocationHandle: m.nextHandle,
		Offset:                bestOffset,
		Size:                  allocSize,
		AlgorithmData:         uint64(bestIndex),
	}, nil
}

func (m *FreeListBlockMetadata) Alloc(request AllocationRequest, userData any) error {
	if request.BlockAllocationHandle != m.nextHandle {
		return errors.Newf("allocation request for handle %d is stale, the next handle is %d", request.BlockAllocationHandle, m.nextHandle)
	}

	index := int(request.AlgorithmData)
	if index >= len(m.free) {
		return errors.Newf("allocation request refers to free region %d, but only %d exist", index, len(m.free))
	}

	r := m.free[index]
	if request.Offset < r.offset || request.Offset+request.Size > r.end() {
		return errors.Newf("allocation request [%d, %d) no longer fits in free region [%d, %d)",
			request.Offset, request.Offset+request.Size, r.offset, r.end())
	}

	var replacement []freeRange
	if request.Offset > r.offset {
		replacement = append(replacement, freeRange{offset: r.offset, size: request.Offset - r.offset})
	}
	if request.Offset+request.Size < r.end() {
		replacement = append(replacement, freeRange{offset: request.Offset + request.Size, size: r.end() - request.Offset - request.Size})
	}

	m.free = slices.Delete(m.free, index, index+1)
	m.free = slices.Insert(m.free, index, replacement...)
	m.sumFreeSize -= request.Size

	m.allocations.Put(request.BlockAllocationHandle, &Suballocation{
		Offset:   request.Offset,
		Size:     request.Size,
		UserData: userData,
	})
	m.advanceHandle()

	memutils.DebugValidate(m)
	return nil
}

// advanceHandle moves nextHandle to the next value that is neither NoAllocation nor held by a
// live allocation
func (m *FreeListBlockMetadata) advanceHandle() {
	for {
		m.nextHandle++
		if m.nextHandle == NoAllocation {
			m.nextHandle = 0
		}
		if !m.allocations.Has(m.nextHandle) {
			return
		}
	}
}

func (m *FreeListBlockMetadata) Free(allocHandle BlockAllocationHandle) error {
	alloc, ok := m.allocations.Get(allocHandle)
	if !ok {
		return errors.Newf("attempted to free unknown allocation handle %d", allocHandle)
	}
	m.allocations.Delete(allocHandle)
	m.sumFreeSize += alloc.Size

	index := sort.Search(len(m.free), func(i int) bool {
		return m.free[i].offset > alloc.Offset
	})

	freed := freeRange{offset: alloc.Offset, size: alloc.Size}
	mergePrev := index > 0 && m.free[index-1].end() == freed.offset
	mergeNext := index < len(m.free) && freed.end() == m.free[index].offset

	switch {
	case mergePrev && mergeNext:
		m.free[index-1].size += freed.size + m.free[index].size
		m.free = slices.Delete(m.free, index, index+1)
	case mergePrev:
		m.free[index-1].size += freed.size
	case mergeNext:
		m.free[index].offset = freed.offset
		m.free[index].size += freed.size
	default:
		m.free = slices.Insert(m.free, index, freed)
	}

	memutils.DebugValidate(m)
	return nil
}

func (m *FreeListBlockMetadata) AllocationOffset(allocHandle BlockAllocationHandle) (uint64, error) {
	alloc, ok := m.allocations.Get(allocHandle)
	if !ok {
		return 0, errors.Newf("unknown allocation handle %d", allocHandle)
	}
	return alloc.Offset, nil
}

func (m *FreeListBlockMetadata) AllocationUserData(allocHandle BlockAllocationHandle) (any, error) {
	alloc, ok := m.allocations.Get(allocHandle)
	if !ok {
		return nil, errors.Newf("unknown allocation handle %d", allocHandle)
	}
	return alloc.UserData, nil
}

func (m *FreeListBlockMetadata) SetAllocationUserData(allocHandle BlockAllocationHandle, userData any) error {
	alloc, ok := m.allocations.Get(allocHandle)
	if !ok {
		return errors.Newf("unknown allocation handle %d", allocHandle)
	}
	alloc.UserData = userData
	return nil
}

type handleSuballocation struct {
	handle BlockAllocationHandle
	*Suballocation
}

func (m *FreeListBlockMetadata) sortedAllocations() []handleSuballocation {
	allocs := make([]handleSuballocation, 0, m.allocations.Count())
	m.allocations.Iter(func(handle BlockAllocationHandle, alloc *Suballocation) bool {
		allocs = append(allocs, handleSuballocation{handle: handle, Suballocation: alloc})
		return false
	})
	sort.Slice(allocs, func(i, j int) bool {
		return allocs[i].Offset < allocs[j].Offset
	})
	return allocs
}

func (m *FreeListBlockMetadata) VisitAllRegions(handleBlock func(handle BlockAllocationHandle, offset uint64, size uint64, userData any, free bool) error) error {
	allocs := m.sortedAllocations()

	freeIndex := 0
	allocIndex := 0
	for freeIndex < len(m.free) || allocIndex < len(allocs) {
		var err error
		if allocIndex >= len(allocs) || (freeIndex < len(m.free) && m.free[freeIndex].offset < allocs[allocIndex].Offset) {
			r := m.free[freeIndex]
			err = handleBlock(NoAllocation, r.offset, r.size, nil, true)
			freeIndex++
		} else {
			alloc := allocs[allocIndex]
			err = handleBlock(alloc.handle, alloc.Offset, alloc.Size, alloc.UserData, false)
			allocIndex++
		}

		if err != nil {
			return err
		}
	}

	return nil
}

func (m *FreeListBlockMetadata) Validate() error {
	var sumFree uint64
	for index, r := range m.free {
		if r.size == 0 {
			return errors.Newf("free region %d has 0 size", index)
		}
		if r.end() > m.Size() {
			return errors.Wrapf(memutils.OutOfRangeError, "free region [%d, %d) ends past the block size %d", r.offset, r.end(), m.Size())
		}
		if index > 0 && m.free[index-1].end() >= r.offset {
			return errors.Newf("free regions %d and %d overlap or were not merged", index-1, index)
		}
		sumFree += r.size
	}

	if sumFree != m.sumFreeSize {
		return errors.Newf("free regions sum to %d bytes but the block has recorded %d free bytes", sumFree, m.sumFreeSize)
	}

	var cursor uint64
	err := m.VisitAllRegions(func(handle BlockAllocationHandle, offset uint64, size uint64, userData any, free bool) error {
		if offset != cursor {
			return errors.Newf("region at offset %d does not begin where the previous region ended (%d)", offset, cursor)
		}
		cursor = offset + size
		return nil
	})
	if err != nil {
		return err
	}

	if cursor != m.Size() {
		return errors.Newf("regions cover %d bytes but the block is %d bytes", cursor, m.Size())
	}

	return nil
}

func (m *FreeListBlockMetadata) AddStatistics(stats *memutils.Statistics) {
	stats.BlockCount++
	stats.BlockBytes += m.Size()
	stats.AllocationCount += m.allocations.Count()
	stats.AllocationBytes += m.Size() - m.sumFreeSize
}

func (m *FreeListBlockMetadata) AddDetailedStatistics(stats *memutils.DetailedStatistics) {
	stats.BlockCount++
	stats.BlockBytes += m.Size()

	_ = m.VisitAllRegions(func(handle BlockAllocationHandle, offset uint64, size uint64, userData any, free bool) error {
		if free {
			stats.AddUnusedRange(size)
		} else {
			stats.AddAllocation(size)
		}
		return nil
	})
}

func (m *FreeListBlockMetadata) BlockJsonData(json jwriter.ObjectState) {
	m.blockJsonData(json, m.sumFreeSize, m.allocations.Count(), len(m.free))
}
