package metadata

// AllocationRequest is a type returned from BlockMetadata.CreateAllocationRequest which indicates where
// the metadata intends to place new memory. It can be committed with BlockMetadata.Alloc
type AllocationRequest struct {
	// BlockAllocationHandle is the handle the allocation will carry once committed
	BlockAllocationHandle BlockAllocationHandle
	// Offset is the aligned offset of the allocation within the block
	Offset uint64
	// Size is the size of the allocation in bytes
	Size uint64

	// AlgorithmData is arbitrary data used by the BlockMetadata implementation for internal
	// purposes
	AlgorithmData uint64
}
