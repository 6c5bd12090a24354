package memutils

import "math"

// Statistics is a running tally of blocks of memory and the allocations made within them
type Statistics struct {
	BlockCount      int
	AllocationCount int
	BlockBytes      uint64
	AllocationBytes uint64
}

func (s *Statistics) Clear() {
	s.BlockCount = 0
	s.AllocationCount = 0
	s.BlockBytes = 0
	s.AllocationBytes = 0
}

func (s *Statistics) AddStatistics(other *Statistics) {
	s.BlockCount += other.BlockCount
	s.AllocationCount += other.AllocationCount
	s.BlockBytes += other.BlockBytes
	s.AllocationBytes += other.AllocationBytes
}

// DetailedStatistics adds size extremes and unused range data to Statistics
type DetailedStatistics struct {
	Statistics
	UnusedRangeCount   int
	AllocationSizeMin  uint64
	AllocationSizeMax  uint64
	UnusedRangeSizeMin uint64
	UnusedRangeSizeMax uint64
}

func (s *DetailedStatistics) Clear() {
	s.Statistics.Clear()
	s.UnusedRangeCount = 0
	s.AllocationSizeMin = math.MaxUint64
	s.AllocationSizeMax = 0
	s.UnusedRangeSizeMin = math.MaxUint64
	s.UnusedRangeSizeMax = 0
}

func (s *DetailedStatistics) AddUnusedRange(size uint64) {
	s.UnusedRangeCount++

	if size < s.UnusedRangeSizeMin {
		s.UnusedRangeSizeMin = size
	}

	if size > s.UnusedRangeSizeMax {
		s.UnusedRangeSizeMax = size
	}
}

func (s *DetailedStatistics) AddAllocation(size uint64) {
	s.AllocationCount++
	s.AllocationBytes += size

	if size < s.AllocationSizeMin {
		s.AllocationSizeMin = size
	}

	if size > s.AllocationSizeMax {
		s.AllocationSizeMax = size
	}
}
