package bufmgr

import (
	"fmt"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/pkg/errors"
	"github.com/vkngwrapper/bufmgr/bufmgr/internal/utils"
	"github.com/vkngwrapper/bufmgr/memutils"
)

// ResidencyStatus records whether a buffer object's memory currently occupies device memory
type ResidencyStatus int32

const (
	// ResidencyEvicted indicates the memory has been evicted, or was never made resident
	ResidencyEvicted ResidencyStatus = iota
	// ResidencyResident indicates the memory is resident and may be evicted
	ResidencyResident
	// ResidencyPermanentlyResident indicates the memory is resident and will never be evicted
	ResidencyPermanentlyResident
)

var residencyStatusMapping = map[ResidencyStatus]string{
	ResidencyEvicted:             "ResidencyEvicted",
	ResidencyResident:            "ResidencyResident",
	ResidencyPermanentlyResident: "ResidencyPermanentlyResident",
}

func (s ResidencyStatus) String() string {
	str, ok := residencyStatusMapping[s]
	if !ok {
		return fmt.Sprintf("ResidencyStatus(%d)", int32(s))
	}
	return str
}

func (s ResidencyStatus) isValid() bool {
	_, ok := residencyStatusMapping[s]
	return ok
}

// ResidencyList is the set of all buffer objects of an Allocator whose status is not
// ResidencyEvicted. The list is unordered. It is guarded by a single mutex, which the
// submission path holds while it makes residency decisions so that it sees a consistent list.
type ResidencyList struct {
	mutex utils.OptionalMutex

	count int
	head  *BufferObject
	tail  *BufferObject
}

func (l *ResidencyList) init(useMutex bool) {
	l.mutex = utils.OptionalMutex{UseMutex: useMutex}
}

// Lock acquires the residency list mutex
func (l *ResidencyList) Lock() {
	l.mutex.Lock()
}

// TryLock attempts to acquire the residency list mutex without blocking
func (l *ResidencyList) TryLock() bool {
	return l.mutex.TryLock()
}

// Unlock releases the residency list mutex
func (l *ResidencyList) Unlock() {
	l.mutex.Unlock()
}

// Len returns the number of buffer objects in the list. The caller must hold the lock.
func (l *ResidencyList) Len() int {
	return l.count
}

// Each calls visit for every buffer object in the list until visit returns false. The caller
// must hold the lock, and visit must not add or remove buffer objects.
func (l *ResidencyList) Each(visit func(bo *BufferObject) bool) {
	for bo := l.head; bo != nil; bo = bo.next {
		if !visit(bo) {
			return
		}
	}
}

// Contains returns true if bo is in the list. The caller must hold the lock.
func (l *ResidencyList) Contains(bo *BufferObject) bool {
	return bo != nil && bo.inList && bo.list == l
}

// Validate checks the list's linkage and that every member's status is not ResidencyEvicted.
// The caller must hold the lock.
func (l *ResidencyList) Validate() error {
	declaredCount := l.count
	actualCount := 0

	var prev *BufferObject
	for bo := l.head; bo != nil; bo = bo.next {
		actualCount++

		if bo.prev != prev {
			return errors.Errorf("residency list entry %d has a broken back link", actualCount-1)
		}
		if !bo.inList || bo.list != l {
			return errors.Errorf("residency list entry %d is not marked as belonging to the list", actualCount-1)
		}
		if bo.ResidencyStatus() == ResidencyEvicted {
			return errors.Errorf("residency list entry %d is evicted", actualCount-1)
		}

		prev = bo
	}

	if prev != l.tail {
		return errors.New("the residency list tail does not match the last entry")
	}

	if declaredCount != actualCount {
		return errors.Errorf("the listed number of buffer objects in the residency list (%d) does not match the actual number of buffer objects (%d)", declaredCount, actualCount)
	}

	return nil
}

// TotalEstimatedSize returns the sum of the estimated sizes of every buffer object in the list.
// The caller must hold the lock.
func (l *ResidencyList) TotalEstimatedSize() uint64 {
	var total uint64
	for bo := l.head; bo != nil; bo = bo.next {
		total += bo.estimatedSize
	}
	return total
}

func (l *ResidencyList) buildStatsString(writer *jwriter.Writer) {
	s := writer.Array()
	defer s.End()

	for bo := l.head; bo != nil; bo = bo.next {
		o := s.Object()
		bo.printParameters(&o)
		o.End()
	}
}

func (l *ResidencyList) push(bo *BufferObject) {
	if bo.inList {
		panic("buffer object is already in a residency list")
	}

	bo.list = l
	bo.inList = true
	bo.next = nil

	if l.count == 0 {
		bo.prev = nil
		l.head = bo
		l.tail = bo
		l.count = 1
	} else {
		bo.prev = l.tail
		l.tail.next = bo

		l.tail = bo
		l.count++
	}

	memutils.DebugValidate(l)
}

func (l *ResidencyList) remove(bo *BufferObject) {
	if !bo.inList || bo.list != l {
		panic("buffer object is not in this residency list")
	}

	prev := bo.prev
	next := bo.next

	if prev != nil {
		prev.next = next
	} else {
		l.head = next
	}

	if next != nil {
		next.prev = prev
	} else {
		l.tail = prev
	}

	bo.next = nil
	bo.prev = nil
	bo.inList = false
	bo.list = nil

	l.count--
	memutils.DebugValidate(l)
}
