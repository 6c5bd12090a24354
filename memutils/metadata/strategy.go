package metadata

import "fmt"

// AllocationStrategy exposes several options for choosing the location of a new allocation.
// If none is chosen, AllocationStrategyMinMemory is used.
type AllocationStrategy uint32

const (
	// AllocationStrategyMinMemory selects the smallest free range that fits the allocation, to
	// minimize fragmentation at the expense of allocation time
	AllocationStrategyMinMemory AllocationStrategy = 1 << iota
	// AllocationStrategyMinTime selects the first free range that fits the allocation
	AllocationStrategyMinTime
	// AllocationStrategyMinOffset selects the free range with the lowest offset that fits the allocation
	AllocationStrategyMinOffset
)

var allocationStrategyMapping = map[AllocationStrategy]string{
	AllocationStrategyMinMemory: "MinMemory",
	AllocationStrategyMinTime:   "MinTime",
	AllocationStrategyMinOffset: "MinOffset",
}

func (s AllocationStrategy) String() string {
	str, ok := allocationStrategyMapping[s]
	if !ok {
		return fmt.Sprintf("AllocationStrategy(%d)", uint32(s))
	}
	return str
}
