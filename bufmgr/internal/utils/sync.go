package utils

import (
	"sync"
)

// OptionalMutex is a mutex that does nothing unless UseMutex is set. Objects created with
// external synchronization leave it unset.
type OptionalMutex struct {
	Mutex    sync.Mutex
	UseMutex bool
}

func (m *OptionalMutex) Lock() {
	if m.UseMutex {
		m.Mutex.Lock()
	}
}

func (m *OptionalMutex) TryLock() bool {
	if m.UseMutex {
		return m.Mutex.TryLock()
	}

	return true
}

func (m *OptionalMutex) Unlock() {
	if m.UseMutex {
		m.Mutex.Unlock()
	}
}
