package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/glowtrip/procedure-recommender/internal/domain/entities"
	"github.com/glowtrip/procedure-recommender/internal/domain/providers"
	"github.com/glowtrip/procedure-recommender/internal/domain/repositories"
	"github.com/glowtrip/procedure-recommender/internal/infrastructure/observability"
	"github.com/glowtrip/procedure-recommender/pkg/errors"
	"github.com/glowtrip/procedure-recommender/pkg/labels"
)

const (
	keywordCacheKeyPrefix = "keyword:"
	keywordCacheTTL       = 30 * 60 // seconds
	keywordCacheName      = "keyword_lookup"
)

// keywordIndex holds one language's keyword table, raw and normalized.
type keywordIndex struct {
	byRaw        map[string]string
	byNormalized map[string]string
}

// KeywordLookupService maps free-form search keywords to category group
// keys, with the same exact-then-normalized matching and success-only
// memoization the recovery resolver uses.
type KeywordLookupService struct {
	repo    repositories.CategoryKeywordRepository
	cache   providers.CacheProvider
	metrics *observability.Metrics

	mu      sync.RWMutex
	indexes map[string]*keywordIndex
}

// NewKeywordLookupService creates a keyword lookup over the given
// keyword source. cache and metrics may be nil.
func NewKeywordLookupService(
	repo repositories.CategoryKeywordRepository,
	cache providers.CacheProvider,
	metrics *observability.Metrics,
) *KeywordLookupService {
	return &KeywordLookupService{
		repo:    repo,
		cache:   cache,
		metrics: metrics,
		indexes: make(map[string]*keywordIndex),
	}
}

// LookupGroupKey resolves a keyword to its category group key. Unknown
// keywords return a not-found error.
func (s *KeywordLookupService) LookupGroupKey(ctx context.Context, keyword, language string) (string, error) {
	if keyword == "" || language == "" {
		return "", errors.NewValidationError("keyword and language are required")
	}

	cacheKey := keywordCacheKeyPrefix + language + ":" + keyword
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil && data != nil {
			observability.RecordCacheHit(ctx, s.metrics, keywordCacheName)
			return string(data), nil
		}
		observability.RecordCacheMiss(ctx, s.metrics, keywordCacheName)
	}

	idx, err := s.indexFor(ctx, language)
	if err != nil {
		return "", errors.NewExternalError("failed to load category keywords", err)
	}

	groupKey, ok := idx.byRaw[keyword]
	if !ok {
		groupKey, ok = idx.byNormalized[labels.Normalize(keyword)]
	}
	if !ok {
		return "", errors.NewNotFoundError(fmt.Sprintf("no category for keyword %q in language %q", keyword, language))
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, []byte(groupKey), keywordCacheTTL); err != nil {
			observability.LoggerFromContext(ctx).Debug().
				Err(err).
				Str("key", cacheKey).
				Msg("failed to cache keyword lookup")
		}
	}
	return groupKey, nil
}

func (s *KeywordLookupService) indexFor(ctx context.Context, language string) (*keywordIndex, error) {
	s.mu.RLock()
	idx, ok := s.indexes[language]
	s.mu.RUnlock()
	if ok {
		return idx, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if idx, ok := s.indexes[language]; ok {
		return idx, nil
	}

	keywords, err := s.repo.ListByLanguage(ctx, language)
	if err != nil {
		return nil, err
	}
	idx = buildKeywordIndex(keywords)
	s.indexes[language] = idx
	return idx, nil
}

func buildKeywordIndex(keywords []*entities.CategoryKeyword) *keywordIndex {
	idx := &keywordIndex{
		byRaw:        make(map[string]string, len(keywords)),
		byNormalized: make(map[string]string, len(keywords)),
	}
	for _, k := range keywords {
		if _, ok := idx.byRaw[k.Keyword]; !ok {
			idx.byRaw[k.Keyword] = k.GroupKey
		}
		norm := labels.Normalize(k.Keyword)
		if _, ok := idx.byNormalized[norm]; !ok {
			idx.byNormalized[norm] = k.GroupKey
		}
	}
	return idx
}
