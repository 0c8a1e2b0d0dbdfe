package cache

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/glowtrip/procedure-recommender/internal/domain/providers"
)

// MemoryAdapter implements CacheProvider with a bounded in-process LRU.
// It backs the resolver memoization cache: process-wide, safe for
// concurrent group resolutions, and bounded so the "never evicted"
// behavior of the legacy cache cannot grow without limit.
//
// Expiration is ignored: resolved taxonomy matches are immutable for a
// given key, so entries stay valid until evicted by capacity.
type MemoryAdapter struct {
	entries *lru.Cache[string, []byte]
}

var _ providers.CacheProvider = (*MemoryAdapter)(nil)

// NewMemoryAdapter creates an in-process cache holding at most size entries.
func NewMemoryAdapter(size int) (*MemoryAdapter, error) {
	entries, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create memory cache: %w", err)
	}
	return &MemoryAdapter{entries: entries}, nil
}

// Get retrieves a value from cache
func (a *MemoryAdapter) Get(_ context.Context, key string) ([]byte, error) {
	value, ok := a.entries.Get(key)
	if !ok {
		return nil, fmt.Errorf("key not found: %s", key)
	}
	return value, nil
}

// Set stores a value. Concurrent writers for the same key race
// last-write-wins; resolved values for a key are deterministic.
func (a *MemoryAdapter) Set(_ context.Context, key string, value []byte, _ int) error {
	a.entries.Add(key, value)
	return nil
}

// Delete removes a value from cache
func (a *MemoryAdapter) Delete(_ context.Context, key string) error {
	a.entries.Remove(key)
	return nil
}

// Exists checks if a key exists in cache
func (a *MemoryAdapter) Exists(_ context.Context, key string) (bool, error) {
	return a.entries.Contains(key), nil
}

// Len reports the number of cached entries
func (a *MemoryAdapter) Len() int {
	return a.entries.Len()
}
