// Package keylock provides per-key mutual exclusion within the process.
package keylock

import "sync"

type entry struct {
	mu   sync.Mutex
	refs int
}

// Registry maps arbitrary string keys to dedicated locks.
// Entries are created on first use and removed once the last holder or
// waiter releases them, so the registry only holds keys currently in use.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Acquire blocks until the lock for key is held and returns its release
// function. Calling release more than once is a no-op.
func (r *Registry) Acquire(key string) (release func()) {
	r.mu.Lock()
	e, ok := r.entries[key]
	if !ok {
		e = &entry{}
		r.entries[key] = e
	}
	e.refs++
	r.mu.Unlock()

	e.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Unlock()

			r.mu.Lock()
			e.refs--
			if e.refs == 0 {
				delete(r.entries, key)
			}
			r.mu.Unlock()
		})
	}
}

// Len returns the number of keys with a holder or waiter.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
