// Package keyed provides synchronization primitives scoped to a string
// key, so that work on different guilds or channels never blocks while
// work on the same one stays serialized.
package keyed

import "sync"

// Mutex is a set of mutexes keyed by string. The zero value is ready
// to use.
type Mutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewMutex creates a new keyed mutex.
func NewMutex() *Mutex {
	return &Mutex{
		locks: make(map[string]*sync.Mutex),
	}
}

func (m *Mutex) get(key string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.locks == nil {
		m.locks = make(map[string]*sync.Mutex)
	}

	l, ok := m.locks[key]
	if !ok {
		l = new(sync.Mutex)
		m.locks[key] = l
	}
	return l
}

// Lock blocks until the mutex for key is held.
func (m *Mutex) Lock(key string) {
	m.get(key).Lock()
}

// TryLock acquires the mutex for key without blocking. It reports
// whether the lock was acquired.
func (m *Mutex) TryLock(key string) bool {
	return m.get(key).TryLock()
}

// Unlock releases the mutex for key. It panics if the mutex is not
// held, matching sync.Mutex.
func (m *Mutex) Unlock(key string) {
	m.get(key).Unlock()
}
