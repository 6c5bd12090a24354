package pb

import (
	"fmt"
	"sync/atomic"
)

// Reference is an atomic reference count. The zero value has no references; Init must be
// called before use.
type Reference struct {
	count atomic.Int32
}

// Init sets the reference count, normally to 1
func (r *Reference) Init(count int32) {
	r.count.Store(count)
}

// Reference adds a reference. It panics if the object has already been destroyed.
func (r *Reference) Reference() {
	newCount := r.count.Add(1)
	if newCount <= 1 {
		panic(fmt.Sprintf("referenced an object with no references: count is now %d", newCount))
	}
}

// Release drops a reference and returns true if it was the last one, in which case the caller
// must destroy the object. It panics if there were no references to drop.
func (r *Reference) Release() bool {
	newCount := r.count.Add(-1)
	if newCount < 0 {
		panic(fmt.Sprintf("released an object with no references: count is now %d", newCount))
	}

	return newCount == 0
}

// Count returns the current reference count
func (r *Reference) Count() int32 {
	return r.count.Load()
}
