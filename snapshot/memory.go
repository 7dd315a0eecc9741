package snapshot

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/n-r-w/apifetch"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps the most recently saved snapshots in memory.
// Snapshots are stored encoded, so callers never share maps with the store.
type MemoryStore struct {
	cache *lru.Cache[string, []byte]
}

// NewMemoryStore creates a store holding at most size snapshots.
func NewMemoryStore(size int) (*MemoryStore, error) {
	c, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create memory store: %w", err)
	}

	return &MemoryStore{cache: c}, nil
}

// Save stores the snapshot, evicting the least recently used one when full.
func (s *MemoryStore) Save(_ context.Context, key string, data apifetch.ApiData) error {
	b, err := encode(data)
	if err != nil {
		return err
	}

	s.cache.Add(key, b)

	return nil
}

// Load returns the snapshot stored under the key.
func (s *MemoryStore) Load(_ context.Context, key string) (apifetch.ApiData, error) {
	b, ok := s.cache.Get(key)
	if !ok {
		return nil, ErrNotFound
	}

	return decode(b)
}

// Len returns the number of stored snapshots.
func (s *MemoryStore) Len() int {
	return s.cache.Len()
}
