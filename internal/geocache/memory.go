package geocache

import (
	"context"
	"sync"
	"time"
)

// entry owns a value, its creation timestamp and its TTL. Validity is
// re-checked against the clock on every read, never precomputed.
type entry struct {
	value   []byte
	created time.Time
	ttl     time.Duration
}

func (e entry) expired(now time.Time) bool {
	return now.Sub(e.created) > e.ttl
}

// MemoryStore implements Store with a mutex-guarded map. Expired entries are
// removed on read; Sweep can additionally reclaim them in bulk.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]entry

	// now is replaceable in tests to simulate clock advancement.
	now func() time.Time
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]entry),
		now:  time.Now,
	}
}

// Get implements Store. Reading an expired entry deletes it.
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if ctx.Err() != nil {
		return nil, false, ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	if e.expired(s.now()) {
		delete(s.data, key)
		return nil, false, nil
	}
	return e.value, true, nil
}

// Set implements Store.
func (s *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	s.mu.Lock()
	s.data[key] = entry{value: value, created: s.now(), ttl: ttl}
	s.mu.Unlock()
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	return nil
}

// Flush implements Store.
func (s *MemoryStore) Flush(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	s.mu.Lock()
	s.data = make(map[string]entry)
	s.mu.Unlock()
	return nil
}

// Len implements Store.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// Sweep removes all expired entries and returns how many were reclaimed.
// Correctness does not depend on sweeping; Get enforces expiry on its own.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, e := range s.data {
		if e.expired(now) {
			delete(s.data, key)
			removed++
		}
	}
	return removed
}

// SweepPeriodic sweeps at the given interval until ctx is done.
func (s *MemoryStore) SweepPeriodic(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
