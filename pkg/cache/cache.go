package cache

import (
	"context"
	"sync"
	"time"
)

// Entry is a cached provider snapshot. FetchedAt lets callers distinguish a
// fresh value from a stale-but-available one instead of hiding the decision
// inside the cache.
type Entry struct {
	Value     float64   `json:"value"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Fresh reports whether the entry is younger than ttl.
func (e Entry) Fresh(ttl time.Duration) bool {
	return time.Since(e.FetchedAt) <= ttl
}

// Store is the cache abstraction injected into the signal aggregator.
// Retention bounds how long an entry stays retrievable at all; freshness
// within that window is the caller's policy.
type Store interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Set(ctx context.Context, key string, entry Entry, retention time.Duration) error
}

// MemoryStore is a thread-safe in-process Store.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]memoryItem
}

type memoryItem struct {
	entry     Entry
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]memoryItem)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (Entry, bool, error) {
	s.mu.RLock()
	item, found := s.items[key]
	s.mu.RUnlock()

	if !found {
		return Entry{}, false, nil
	}
	if time.Now().After(item.expiresAt) {
		s.mu.Lock()
		delete(s.items, key)
		s.mu.Unlock()
		return Entry{}, false, nil
	}
	return item.entry, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, entry Entry, retention time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = memoryItem{
		entry:     entry,
		expiresAt: time.Now().Add(retention),
	}
	return nil
}
