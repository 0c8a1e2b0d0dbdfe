package services

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glowtrip/procedure-recommender/internal/adapters/cache"
	"github.com/glowtrip/procedure-recommender/internal/domain/entities"
	"github.com/glowtrip/procedure-recommender/pkg/errors"
)

type stubKeywordRepo struct {
	mu       sync.Mutex
	calls    int
	keywords []*entities.CategoryKeyword
	err      error
}

func (s *stubKeywordRepo) ListByLanguage(ctx context.Context, language string) ([]*entities.CategoryKeyword, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := make([]*entities.CategoryKeyword, 0, len(s.keywords))
	for _, k := range s.keywords {
		if k.Language == language {
			out = append(out, k)
		}
	}
	return out, nil
}

func (s *stubKeywordRepo) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func keywordFixtures() []*entities.CategoryKeyword {
	return []*entities.CategoryKeyword{
		{ID: "k1", Language: "ko", Keyword: "리프팅", GroupKey: "쁘띠시술::리프팅"},
		{ID: "k2", Language: "ko", Keyword: "눈매교정", GroupKey: "눈성형::눈매교정"},
		{ID: "k3", Language: "en", Keyword: "Lifting", GroupKey: "쁘띠시술::리프팅"},
	}
}

func TestLookupGroupKeyExactAndNormalized(t *testing.T) {
	repo := &stubKeywordRepo{keywords: keywordFixtures()}
	svc := NewKeywordLookupService(repo, nil, nil)

	groupKey, err := svc.LookupGroupKey(context.Background(), "리프팅", "ko")
	require.NoError(t, err)
	assert.Equal(t, "쁘띠시술::리프팅", groupKey)

	// Whitespace and case fall away in the normalized step.
	groupKey, err = svc.LookupGroupKey(context.Background(), " lifting ", "en")
	require.NoError(t, err)
	assert.Equal(t, "쁘띠시술::리프팅", groupKey)
}

func TestLookupGroupKeyUnknownKeyword(t *testing.T) {
	repo := &stubKeywordRepo{keywords: keywordFixtures()}
	svc := NewKeywordLookupService(repo, nil, nil)

	_, err := svc.LookupGroupKey(context.Background(), "없는키워드", "ko")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestLookupGroupKeyMemoizesSuccess(t *testing.T) {
	repo := &stubKeywordRepo{keywords: keywordFixtures()}
	memCache, err := cache.NewMemoryAdapter(64)
	require.NoError(t, err)
	svc := NewKeywordLookupService(repo, memCache, nil)

	_, err = svc.LookupGroupKey(context.Background(), "리프팅", "ko")
	require.NoError(t, err)
	require.Equal(t, 1, repo.callCount())

	// A fresh service sharing the cache never touches the source.
	fresh := NewKeywordLookupService(repo, memCache, nil)
	groupKey, err := fresh.LookupGroupKey(context.Background(), "리프팅", "ko")
	require.NoError(t, err)
	assert.Equal(t, "쁘띠시술::리프팅", groupKey)
	assert.Equal(t, 1, repo.callCount())
}

func TestLookupGroupKeySourceFailureIsExternal(t *testing.T) {
	repo := &stubKeywordRepo{err: stderrors.New("connection refused")}
	svc := NewKeywordLookupService(repo, nil, nil)

	_, err := svc.LookupGroupKey(context.Background(), "리프팅", "ko")
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeExternal, errors.TypeOf(err))
}
