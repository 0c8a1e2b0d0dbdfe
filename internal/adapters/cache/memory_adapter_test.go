package cache_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/glowtrip/procedure-recommender/internal/adapters/cache"
)

func TestMemoryAdapter_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	adapter, err := cache.NewMemoryAdapter(8)
	require.NoError(t, err)

	_, err = adapter.Get(ctx, "ko:브이라인")
	assert.Error(t, err)

	require.NoError(t, adapter.Set(ctx, "ko:브이라인", []byte(`{"group_key":"K1"}`), 0))

	got, err := adapter.Get(ctx, "ko:브이라인")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"group_key":"K1"}`), got)

	exists, err := adapter.Exists(ctx, "ko:브이라인")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, adapter.Delete(ctx, "ko:브이라인"))
	exists, _ = adapter.Exists(ctx, "ko:브이라인")
	assert.False(t, exists)
}

func TestMemoryAdapter_BoundedByCapacity(t *testing.T) {
	ctx := context.Background()
	adapter, err := cache.NewMemoryAdapter(4)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		require.NoError(t, adapter.Set(ctx, fmt.Sprintf("k%d", i), []byte("v"), 0))
	}
	assert.Equal(t, 4, adapter.Len())
}

func TestMemoryAdapter_ConcurrentWritesSameKey(t *testing.T) {
	ctx := context.Background()
	adapter, err := cache.NewMemoryAdapter(16)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = adapter.Set(ctx, "shared", []byte("same-value"), 0)
		}()
	}
	wg.Wait()

	got, err := adapter.Get(ctx, "shared")
	require.NoError(t, err)
	assert.Equal(t, []byte("same-value"), got)
}
