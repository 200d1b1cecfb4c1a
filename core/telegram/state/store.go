package state

import (
	"sync"
	"time"
)

// DefaultTTL is used when NewStore receives a non-positive TTL.
const DefaultTTL = 30 * time.Minute

type entry[T any] struct {
	mu      sync.Mutex
	value   T
	touched time.Time
	live    bool
	removed bool
}

// Store maps user ids to conversation values of type T.
type Store[T any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[int64]*entry[T]
}

// Option customises a Store.
type Option func(*storeConfig)

type storeConfig struct {
	now func() time.Time
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *storeConfig) { c.now = now }
}

// NewStore creates an empty store whose entries expire after ttl of inactivity.
func NewStore[T any](ttl time.Duration, opts ...Option) *Store[T] {
	cfg := storeConfig{now: time.Now}
	for _, o := range opts {
		o(&cfg)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store[T]{
		ttl:     ttl,
		now:     cfg.now,
		entries: make(map[int64]*entry[T]),
	}
}

// lock returns the user's entry with its mutex held, creating a placeholder if needed.
func (s *Store[T]) lock(userID int64) *entry[T] {
	for {
		s.mu.Lock()
		e, ok := s.entries[userID]
		if !ok {
			e = &entry[T]{}
			s.entries[userID] = e
		}
		s.mu.Unlock()

		e.mu.Lock()
		if !e.removed {
			return e
		}
		// dropped while we waited; retry with a fresh entry
		e.mu.Unlock()
	}
}

func (s *Store[T]) expired(e *entry[T]) bool {
	return e.live && s.now().Sub(e.touched) > s.ttl
}

// drop must be called with e.mu held.
func (s *Store[T]) drop(userID int64, e *entry[T]) {
	var zero T
	e.value, e.live, e.removed = zero, false, true
	s.mu.Lock()
	if s.entries[userID] == e {
		delete(s.entries, userID)
	}
	s.mu.Unlock()
}

// Update runs fn with exclusive access to the user's value. found is false
// when there is no live entry. fn returns the value to keep and whether to
// keep it; keep=false removes the entry.
func (s *Store[T]) Update(userID int64, fn func(cur T, found bool) (next T, keep bool)) {
	e := s.lock(userID)
	defer e.mu.Unlock()

	if s.expired(e) {
		var zero T
		e.value, e.live = zero, false
	}
	next, keep := fn(e.value, e.live)
	if !keep {
		s.drop(userID, e)
		return
	}
	e.value, e.live, e.touched = next, true, s.now()
}

// Put stores v for the user, replacing any previous value.
func (s *Store[T]) Put(userID int64, v T) {
	s.Update(userID, func(T, bool) (T, bool) { return v, true })
}

// Delete removes the user's value and reports whether a live one existed.
func (s *Store[T]) Delete(userID int64) bool {
	var existed bool
	s.Update(userID, func(cur T, found bool) (T, bool) {
		existed = found
		return cur, false
	})
	return existed
}

// Active reports whether the user has a live, unexpired entry.
func (s *Store[T]) Active(userID int64) bool {
	s.mu.Lock()
	e, ok := s.entries[userID]
	s.mu.Unlock()
	if !ok {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.removed && e.live && !s.expired(e)
}

// Sweep removes expired entries and returns how many were dropped.
func (s *Store[T]) Sweep() int {
	s.mu.Lock()
	ids := make([]int64, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	n := 0
	for _, id := range ids {
		s.mu.Lock()
		e, ok := s.entries[id]
		s.mu.Unlock()
		if !ok || !e.mu.TryLock() {
			continue
		}
		if !e.removed && (!e.live || s.expired(e)) {
			if e.live {
				n++
			}
			s.drop(id, e)
		}
		e.mu.Unlock()
	}
	return n
}

// Len returns the number of tracked entries, including expired ones not yet swept.
func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
