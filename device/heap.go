package device

import (
	"fmt"

	"github.com/vkngwrapper/core/v2/common"
)

// HeapType classifies the memory an allocation lives in
type HeapType int32

const (
	// HeapTypeDefault is device-local memory that the CPU cannot access
	HeapTypeDefault HeapType = iota + 1
	// HeapTypeUpload is CPU-visible memory optimized for CPU writes and GPU reads
	HeapTypeUpload
	// HeapTypeReadback is CPU-visible memory optimized for GPU writes and CPU reads
	HeapTypeReadback
	// HeapTypeCustom indicates heap properties are specified explicitly
	HeapTypeCustom
)

var heapTypeMapping = map[HeapType]string{
	HeapTypeDefault:  "HeapTypeDefault",
	HeapTypeUpload:   "HeapTypeUpload",
	HeapTypeReadback: "HeapTypeReadback",
	HeapTypeCustom:   "HeapTypeCustom",
}

func (t HeapType) String() string {
	str, ok := heapTypeMapping[t]
	if !ok {
		return fmt.Sprintf("HeapType(%d)", int32(t))
	}
	return str
}

// CPUPageProperty describes how the CPU sees a heap's pages
type CPUPageProperty int32

const (
	CPUPagePropertyUnknown CPUPageProperty = iota
	CPUPagePropertyNotAvailable
	CPUPagePropertyWriteCombine
	CPUPagePropertyWriteBack
)

// MemoryPool identifies the physical memory a heap prefers
type MemoryPool int32

const (
	MemoryPoolUnknown MemoryPool = iota
	// MemoryPoolL0 is system memory
	MemoryPoolL0
	// MemoryPoolL1 is discrete video memory
	MemoryPoolL1
)

// HeapProperties are the concrete properties of a heap, as returned by Device.CustomHeapProperties
type HeapProperties struct {
	Type                 HeapType
	CPUPageProperty      CPUPageProperty
	MemoryPoolPreference MemoryPool
	CreationNodeMask     uint32
	VisibleNodeMask      uint32
}

// HeapFlags modify how a committed resource's implicit heap is created
type HeapFlags int32

var heapFlagsMapping = common.NewFlagStringMapping[HeapFlags]()

func (f HeapFlags) Register(str string) {
	heapFlagsMapping.Register(f, str)
}
func (f HeapFlags) String() string {
	return heapFlagsMapping.FlagsToString(f)
}

const (
	HeapFlagNone HeapFlags = 0

	// HeapFlagShared indicates the heap may be shared with other processes
	HeapFlagShared HeapFlags = 1 << iota
	// HeapFlagCreateNotResident instructs the device not to commit physical memory for the heap
	// until it is made resident
	HeapFlagCreateNotResident
	// HeapFlagAllowAllBuffersAndTextures permits any resource type in the heap
	HeapFlagAllowAllBuffersAndTextures
)

func init() {
	HeapFlagShared.Register("HeapFlagShared")
	HeapFlagCreateNotResident.Register("HeapFlagCreateNotResident")
	HeapFlagAllowAllBuffersAndTextures.Register("HeapFlagAllowAllBuffersAndTextures")
}
