package offline

import (
	"context"
	"slices"
	"sync"
	"time"
)

// Entry is one cached response.
type Entry struct {
	URL         string    `json:"url"`
	ContentType string    `json:"content_type,omitempty"`
	Body        []byte    `json:"body"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// Store holds named caches of entries keyed by asset key (see [Key]).
type Store interface {
	// Put stores e under key in the named cache, creating the cache if needed.
	Put(ctx context.Context, name, key string, e Entry) error
	// Get returns the entry for key. The bool is false on a miss.
	Get(ctx context.Context, name, key string) (Entry, bool, error)
	// Names lists the cache names, sorted.
	Names(ctx context.Context) ([]string, error)
	// Drop deletes a cache and all its entries. Dropping an unknown cache is
	// not an error.
	Drop(ctx context.Context, name string) error
}

// MemoryStore is a Store held in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	caches map[string]map[string]Entry
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{caches: make(map[string]map[string]Entry)}
}

func (s *MemoryStore) Put(_ context.Context, name, key string, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.caches[name]
	if !ok {
		c = make(map[string]Entry)
		s.caches[name] = c
	}
	e.Body = slices.Clone(e.Body)
	c[key] = e
	return nil
}

func (s *MemoryStore) Get(_ context.Context, name, key string) (Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.caches[name][key]
	return e, ok, nil
}

func (s *MemoryStore) Names(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.caches))
	for name := range s.caches {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

func (s *MemoryStore) Drop(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.caches, name)
	return nil
}

var _ Store = (*MemoryStore)(nil)
