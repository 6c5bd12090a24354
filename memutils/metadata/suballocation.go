package metadata

import "math"

type BlockAllocationHandle uint64

const (
	NoAllocation BlockAllocationHandle = math.MaxUint64
)

type Suballocation struct {
	Offset   uint64
	Size     uint64
	UserData any
}
