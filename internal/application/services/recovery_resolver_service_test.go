package services

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glowtrip/procedure-recommender/internal/adapters/cache"
	"github.com/glowtrip/procedure-recommender/internal/domain/entities"
	"github.com/glowtrip/procedure-recommender/pkg/errors"
)

type stubRecoveryRepo struct {
	mu     sync.Mutex
	calls  map[string]int
	tables map[string][]*entities.CategoryRecovery
	err    error
	delay  time.Duration
}

func (s *stubRecoveryRepo) ListByLanguage(ctx context.Context, language string) ([]*entities.CategoryRecovery, error) {
	s.mu.Lock()
	if s.calls == nil {
		s.calls = make(map[string]int)
	}
	s.calls[language]++
	s.mu.Unlock()

	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.tables[language], nil
}

func (s *stubRecoveryRepo) callCount(language string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[language]
}

func recoveryFixtures() map[string][]*entities.CategoryRecovery {
	return map[string][]*entities.CategoryRecovery{
		"ko": {
			{
				ID: "ko-1", Language: "ko", Label: "쌍꺼풀",
				GroupKey:        "눈성형::쌍꺼풀",
				RecoveryMinDays: 3, RecoveryMaxDays: 7,
				StayDays:     5,
				Guidance4To7: "냉찜질을 유지하세요",
			},
			{
				ID: "ko-2", Language: "ko", Label: "브이라인",
				GroupKey:        "안면윤곽::브이라인",
				RecoveryMinDays: 10, RecoveryMaxDays: 14,
				StayDays: 10,
			},
		},
		"en": {
			{
				ID: "en-1", Language: "en", Label: "Double Eyelid",
				GroupKey:        "눈성형::쌍꺼풀",
				RecoveryMinDays: 3, RecoveryMaxDays: 7,
			},
			{
				ID: "en-2", Language: "en", Label: "V-Line Surgery",
				GroupKey:        "안면윤곽::브이라인",
				RecoveryMinDays: 10, RecoveryMaxDays: 14,
			},
		},
	}
}

func newTestResolver(t *testing.T, repo *stubRecoveryRepo) *RecoveryResolverService {
	t.Helper()
	memCache, err := cache.NewMemoryAdapter(64)
	require.NoError(t, err)
	return NewRecoveryResolverService(repo, memCache, nil, "ko", time.Second)
}

func TestResolveExactMatch(t *testing.T) {
	repo := &stubRecoveryRepo{tables: recoveryFixtures()}
	svc := newTestResolver(t, repo)

	res, err := svc.Resolve(context.Background(), "쌍꺼풀", "ko")
	require.NoError(t, err)

	assert.Equal(t, StrategyExact, res.Strategy)
	assert.Equal(t, "눈성형::쌍꺼풀", res.Metadata.GroupKey)
	assert.Equal(t, 7, res.Metadata.RecoveryMaxDays)
	assert.Equal(t, "냉찜질을 유지하세요", res.Metadata.Guidance)
}

func TestResolveNormalizedMatch(t *testing.T) {
	repo := &stubRecoveryRepo{tables: recoveryFixtures()}
	svc := newTestResolver(t, repo)

	// Extra whitespace and casing differences only survive the raw step.
	res, err := svc.Resolve(context.Background(), "Double  eyelid", "en")
	require.NoError(t, err)

	assert.Equal(t, StrategyNormalized, res.Strategy)
	assert.Equal(t, "Double Eyelid", res.Metadata.Label)
}

func TestResolveBridgesThroughBaseLanguage(t *testing.T) {
	repo := &stubRecoveryRepo{tables: recoveryFixtures()}
	svc := newTestResolver(t, repo)

	// A Korean label queried against the English table has no direct
	// match; the base-language group key carries it across.
	res, err := svc.Resolve(context.Background(), "브이라인", "en")
	require.NoError(t, err)

	assert.Equal(t, StrategyBridge, res.Strategy)
	assert.Equal(t, "en", res.Metadata.Language)
	assert.Equal(t, "V-Line Surgery", res.Metadata.Label)
	assert.Equal(t, "안면윤곽::브이라인", res.Metadata.GroupKey)
}

func TestResolveBridgeSkippedForBaseLanguage(t *testing.T) {
	repo := &stubRecoveryRepo{tables: recoveryFixtures()}
	svc := newTestResolver(t, repo)

	_, err := svc.Resolve(context.Background(), "V-Line Surgery", "ko")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestResolveMemoizesSuccessOnly(t *testing.T) {
	repo := &stubRecoveryRepo{tables: recoveryFixtures()}
	memCache, err := cache.NewMemoryAdapter(64)
	require.NoError(t, err)
	svc := NewRecoveryResolverService(repo, memCache, nil, "ko", time.Second)

	first, err := svc.Resolve(context.Background(), "쌍꺼풀", "ko")
	require.NoError(t, err)
	require.Equal(t, 1, repo.callCount("ko"))

	second, err := svc.Resolve(context.Background(), "쌍꺼풀", "ko")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.callCount("ko"))
	assert.Equal(t, first.Strategy, second.Strategy)
	assert.Equal(t, first.Metadata, second.Metadata)

	// A fresh resolver sharing the cache serves the memoized result
	// without touching the source at all.
	fresh := NewRecoveryResolverService(repo, memCache, nil, "ko", time.Second)
	_, err = fresh.Resolve(context.Background(), "쌍꺼풀", "ko")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.callCount("ko"))
}

func TestResolveDoesNotMemoizeMisses(t *testing.T) {
	repo := &stubRecoveryRepo{tables: map[string][]*entities.CategoryRecovery{}}
	memCache, err := cache.NewMemoryAdapter(64)
	require.NoError(t, err)
	svc := NewRecoveryResolverService(repo, memCache, nil, "ko", time.Second)

	_, err = svc.Resolve(context.Background(), "없는시술", "ko")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.Equal(t, 0, memCache.Len())
}

func TestResolveTimeoutDegradesToNotFound(t *testing.T) {
	repo := &stubRecoveryRepo{tables: recoveryFixtures(), delay: 200 * time.Millisecond}
	memCache, err := cache.NewMemoryAdapter(64)
	require.NoError(t, err)
	svc := NewRecoveryResolverService(repo, memCache, nil, "ko", 10*time.Millisecond)

	_, err = svc.Resolve(context.Background(), "쌍꺼풀", "ko")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestResolveHardSourceFailureIsExternal(t *testing.T) {
	repo := &stubRecoveryRepo{err: stderrors.New("connection refused")}
	svc := newTestResolver(t, repo)

	_, err := svc.Resolve(context.Background(), "쌍꺼풀", "ko")
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeExternal, errors.TypeOf(err))
}

func TestResolveOpenBreakerDegradesToNotFound(t *testing.T) {
	repo := &stubRecoveryRepo{err: stderrors.New("connection refused")}
	svc := newTestResolver(t, repo)

	// Trip the breaker with consecutive source failures.
	for i := 0; i < 3; i++ {
		_, err := svc.Resolve(context.Background(), "쌍꺼풀", "ko")
		require.Error(t, err)
		assert.Equal(t, errors.ErrorTypeExternal, errors.TypeOf(err))
	}

	_, err := svc.Resolve(context.Background(), "쌍꺼풀", "ko")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestResolveRejectsEmptyLabel(t *testing.T) {
	repo := &stubRecoveryRepo{tables: recoveryFixtures()}
	svc := newTestResolver(t, repo)

	_, err := svc.Resolve(context.Background(), "", "ko")
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeValidation, errors.TypeOf(err))
	assert.Equal(t, 0, repo.callCount("ko"))
}
