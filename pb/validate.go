package pb

import (
	"github.com/cockroachdb/errors"
)

type validateEntry struct {
	buffer Buffer
	usage  Usage
}

// ValidateList collects the buffers a submission will use. Each buffer appears once, with the
// union of the usages it was added with.
type ValidateList struct {
	entries []validateEntry
	index   map[Buffer]int
}

func NewValidateList() *ValidateList {
	return &ValidateList{
		index: make(map[Buffer]int),
	}
}

// Add adds buffer to the list with the provided usage. Only GPU usage flags may be supplied.
func (l *ValidateList) Add(buffer Buffer, usage Usage) error {
	if buffer == nil {
		return errors.New("attempted to add a nil buffer to a validate list")
	}
	if usage&UsageGPUReadWrite == 0 {
		return errors.Newf("buffers must be validated for gpu usage, but usage was %s", usage)
	}
	if usage & ^UsageGPUReadWrite != 0 {
		return errors.Newf("buffers may only be validated for gpu usage, but usage was %s", usage)
	}

	idx, ok := l.index[buffer]
	if ok {
		l.entries[idx].usage |= usage
		return nil
	}

	l.index[buffer] = len(l.entries)
	l.entries = append(l.entries, validateEntry{buffer: buffer, usage: usage})
	return nil
}

// Len returns the number of distinct buffers in the list
func (l *ValidateList) Len() int {
	return len(l.entries)
}

// Validate calls Validate on every buffer in the list, stopping at the first failure
func (l *ValidateList) Validate() error {
	for _, entry := range l.entries {
		err := entry.buffer.Validate(l, entry.usage)
		if err != nil {
			return errors.Wrapf(err, "failed to validate buffer of size %d", entry.buffer.Size())
		}
	}

	return nil
}

// Fence associates every buffer in the list with fence and empties the list
func (l *ValidateList) Fence(fence Fence) {
	for _, entry := range l.entries {
		entry.buffer.Fence(fence)
	}

	l.entries = l.entries[:0]
	for buffer := range l.index {
		delete(l.index, buffer)
	}
}
