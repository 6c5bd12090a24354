package bufmgr

import (
	"fmt"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
)

func describeDirect(bo *BufferObject) string {
	return fmt.Sprintf("bufmgr_bo<direct,%p,0x%x>", bo.direct().resource, bo.estimatedSize)
}

// Describe returns a short description of the buffer object for leak diagnostics. Buffer objects
// that own a resource report the resource and its estimated size. Buffer objects that view
// another buffer report their base's description, their size, and their offset in the base.
func (bo *BufferObject) Describe() string {
	if bo.suballocated() == nil {
		return describeDirect(bo)
	}

	base, offset := bo.Base()
	return fmt.Sprintf("bufmgr_bo<suballoc<%s>,0x%x,0x%x>", describeDirect(base), bo.Size(), offset)
}

func (bo *BufferObject) printParameters(json *jwriter.ObjectState) {
	json.Name("Description").String(bo.Describe())
	json.Name("Status").String(bo.ResidencyStatus().String())
	json.Name("Size").Int(int(bo.Size()))
	json.Name("EstimatedSize").Int(int(bo.estimatedSize))

	direct := bo.direct()
	if direct != nil && direct.allocated {
		json.Name("HeapType").String(direct.heapType.String())
	}

	timestamp, fence := bo.LastUsed()
	if timestamp != 0 {
		json.Name("LastUsedTimestamp").Int(int(timestamp))
		json.Name("LastUsedFence").Int(int(fence))
	}
}
