package resource

import "sync"

// Dropper is optionally implemented by resource values that need cleanup.
type Dropper interface {
	Drop()
}

// Lockable is implemented by externally owned resources that must be held
// locked for the whole time a program may read them. Lock is acquired as
// the resource is registered, before any compile-time evaluation touches
// it, and released exactly once when the owning program is cleared or
// replaced.
type Lockable interface {
	Lock()
	Unlock()
}

// Set owns resources registered by operation compile routines. Lockable
// resources are locked on Add; the owning program calls Release when it is
// cleared, which also covers a failed compile releasing a partially filled
// set.
type Set struct {
	mu       sync.Mutex
	items    []any
	released bool
}

// NewSet creates an empty ownership set.
func NewSet() *Set {
	return &Set{}
}

// Add transfers ownership of v to the set, locking it if it is a
// Lockable. Nil values are ignored.
func (s *Set) Add(v any) {
	if v == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		// Late registration after teardown is a bug in the caller.
		panic("resource: Add after Release")
	}
	if l, ok := v.(Lockable); ok {
		l.Lock()
	}
	s.items = append(s.items, v)
}

// Len returns the number of owned resources.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Release unlocks every Lockable, drops every Dropper and empties the set.
// Resources are released in reverse registration order. Calling Release
// more than once is a no-op.
func (s *Set) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return
	}
	s.released = true
	for i := len(s.items) - 1; i >= 0; i-- {
		v := s.items[i]
		if l, ok := v.(Lockable); ok {
			l.Unlock()
		}
		if d, ok := v.(Dropper); ok {
			d.Drop()
		}
	}
	s.items = nil
}

// Each iterates over owned resources until fn returns false.
func (s *Set) Each(fn func(any) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.items {
		if !fn(v) {
			return
		}
	}
}
