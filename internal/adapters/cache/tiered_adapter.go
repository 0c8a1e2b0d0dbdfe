package cache

import (
	"context"

	"github.com/glowtrip/procedure-recommender/internal/domain/providers"
)

// TieredAdapter layers a process-local cache in front of a shared remote
// one. Reads served locally never touch the remote; remote hits are
// backfilled so the next read stays local.
type TieredAdapter struct {
	local  providers.CacheProvider
	remote providers.CacheProvider
}

// NewTieredAdapter creates a two-level cache. remote may be nil, in
// which case only the local level is used.
func NewTieredAdapter(local, remote providers.CacheProvider) providers.CacheProvider {
	return &TieredAdapter{local: local, remote: remote}
}

// Get retrieves a value, preferring the local level
func (a *TieredAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	if value, err := a.local.Get(ctx, key); err == nil && value != nil {
		return value, nil
	}
	if a.remote == nil {
		return nil, nil
	}

	value, err := a.remote.Get(ctx, key)
	if err != nil || value == nil {
		return nil, err
	}
	// Backfill; local expiry is handled by LRU eviction.
	_ = a.local.Set(ctx, key, value, 0)
	return value, nil
}

// Set stores a value in both levels
func (a *TieredAdapter) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	if err := a.local.Set(ctx, key, value, expirationSeconds); err != nil {
		return err
	}
	if a.remote == nil {
		return nil
	}
	return a.remote.Set(ctx, key, value, expirationSeconds)
}

// Delete removes a value from both levels
func (a *TieredAdapter) Delete(ctx context.Context, key string) error {
	if err := a.local.Delete(ctx, key); err != nil {
		return err
	}
	if a.remote == nil {
		return nil
	}
	return a.remote.Delete(ctx, key)
}

// Exists checks both levels
func (a *TieredAdapter) Exists(ctx context.Context, key string) (bool, error) {
	if ok, err := a.local.Exists(ctx, key); err == nil && ok {
		return true, nil
	}
	if a.remote == nil {
		return false, nil
	}
	return a.remote.Exists(ctx, key)
}
