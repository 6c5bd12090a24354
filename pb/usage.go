package pb

import "github.com/vkngwrapper/core/v2/common"

// Usage describes how a buffer will be accessed. It is supplied when a buffer is created, when
// it is mapped, and when it is validated for a submission.
type Usage int32

var usageMapping = common.NewFlagStringMapping[Usage]()

func (u Usage) Register(str string) {
	usageMapping.Register(u, str)
}
func (u Usage) String() string {
	return usageMapping.FlagsToString(u)
}

const (
	// UsageCPURead indicates the CPU will read the buffer's contents
	UsageCPURead Usage = 1 << iota
	// UsageCPUWrite indicates the CPU will write the buffer's contents
	UsageCPUWrite
	// UsageGPURead indicates the GPU will read the buffer's contents
	UsageGPURead
	// UsageGPUWrite indicates the GPU will write the buffer's contents
	UsageGPUWrite
	// UsageDontBlock asks Map to return nil rather than wait for the GPU
	UsageDontBlock
	// UsageUnsynchronized asks Map not to synchronize with the GPU at all
	UsageUnsynchronized
	// UsagePersistent indicates a mapping will be held while the GPU uses the buffer
	UsagePersistent

	UsageCPUReadWrite = UsageCPURead | UsageCPUWrite
	UsageGPUReadWrite = UsageGPURead | UsageGPUWrite
)

func init() {
	UsageCPURead.Register("UsageCPURead")
	UsageCPUWrite.Register("UsageCPUWrite")
	UsageGPURead.Register("UsageGPURead")
	UsageGPUWrite.Register("UsageGPUWrite")
	UsageDontBlock.Register("UsageDontBlock")
	UsageUnsynchronized.Register("UsageUnsynchronized")
	UsagePersistent.Register("UsagePersistent")
}

// Desc is the description of a buffer to be created
type Desc struct {
	// Alignment is the minimum alignment, in bytes, of the buffer's start. 0 means no requirement.
	Alignment uint64
	// Usage is how the buffer will be accessed
	Usage Usage
}
