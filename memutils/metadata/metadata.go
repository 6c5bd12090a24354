package metadata

import (
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/bufmgr/memutils"
)

// BlockMetadata represents a single large allocation of memory within some system. It manages
// suballocations within the block, allowing allocations to be requested and freed, as well as
// enumerated and queried.
type BlockMetadata interface {
	// Init must be called before the BlockMetadata is used. It informs the implementation of the
	// size in bytes of the block of memory it will be managing.
	Init(size uint64)
	// Size retrieves the size in bytes that the block was initialized with
	Size() uint64

	// Validate performs internal consistency checks on the metadata. These checks may be expensive.
	// When the implementation is functioning correctly, it should not be possible for this method
	// to return an error.
	Validate() error
	// AllocationCount returns the number of suballocations currently live in the implementation
	AllocationCount() int
	// FreeRegionsCount returns the number of unique regions of free memory in the block. Adjacent
	// free regions are merged and counted once.
	FreeRegionsCount() int
	// SumFreeSize returns the number of free bytes of memory in the block.
	SumFreeSize() uint64
	// IsEmpty will return true if this block has no live suballocations
	IsEmpty() bool

	// VisitAllRegions will call the provided callback once for each allocation and free region in
	// the block, in offset order. This is intended for diagnostics.
	VisitAllRegions(handleBlock func(handle BlockAllocationHandle, offset uint64, size uint64, userData any, free bool) error) error

	// AllocationOffset returns the offset in bytes within the block of a live allocation.
	AllocationOffset(allocHandle BlockAllocationHandle) (uint64, error)
	// AllocationUserData returns the userdata value provided by the consumer for a live allocation.
	AllocationUserData(allocHandle BlockAllocationHandle) (any, error)
	// SetAllocationUserData replaces the userdata value of a live allocation.
	SetAllocationUserData(allocHandle BlockAllocationHandle, userData any) error

	// AddDetailedStatistics sums this block's allocation statistics into stats
	AddDetailedStatistics(stats *memutils.DetailedStatistics)
	// AddStatistics sums this block's allocation statistics into stats
	AddStatistics(stats *memutils.Statistics)

	// Clear instantly frees all allocations
	Clear()
	// BlockJsonData populates a json object with information about this block
	BlockJsonData(json jwriter.ObjectState)

	// CreateAllocationRequest retrieves an AllocationRequest object indicating where the implementation
	// would place an allocation of allocSize bytes aligned to allocAlignment. The returned bool is false
	// when the block has no room. The request can be passed to Alloc to commit the allocation.
	CreateAllocationRequest(allocSize uint64, allocAlignment uint64, strategy AllocationStrategy) (bool, AllocationRequest, error)
	// Alloc commits an AllocationRequest object. The implementation must return an error if the
	// request is no longer valid.
	Alloc(request AllocationRequest, userData any) error
	// Free frees a suballocation within the block, causing it to become a free region once again.
	Free(allocHandle BlockAllocationHandle) error
}

// BlockMetadataBase is a simple struct that provides a few shared utilities for BlockMetadata
// implementations.
type BlockMetadataBase struct {
	size uint64
}

// Init prepares this structure for allocations and sizes the block in bytes based on the parameter size.
func (m *BlockMetadataBase) Init(size uint64) {
	m.size = size
}

// Size returns the size of the block in bytes
func (m *BlockMetadataBase) Size() uint64 { return m.size }

func (m *BlockMetadataBase) blockJsonData(json jwriter.ObjectState, unusedBytes uint64, allocationCount, unusedRangeCount int) {
	json.Name("TotalBytes").Int(int(m.Size()))
	json.Name("UnusedBytes").Int(int(unusedBytes))
	json.Name("Allocations").Int(allocationCount)
	json.Name("UnusedRanges").Int(unusedRangeCount)
}
