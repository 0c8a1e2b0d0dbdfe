package services

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/glowtrip/procedure-recommender/internal/domain/entities"
	"github.com/glowtrip/procedure-recommender/internal/domain/providers"
	"github.com/glowtrip/procedure-recommender/internal/domain/repositories"
	"github.com/glowtrip/procedure-recommender/internal/infrastructure/observability"
	"github.com/glowtrip/procedure-recommender/pkg/errors"
	"github.com/glowtrip/procedure-recommender/pkg/labels"
)

// ResolveStrategy names the lookup step that produced a resolution.
type ResolveStrategy string

const (
	// StrategyExact matched the raw label in the target-language table.
	StrategyExact ResolveStrategy = "exact"

	// StrategyNormalized matched after label normalization.
	StrategyNormalized ResolveStrategy = "normalized"

	// StrategyBridge matched through the base-language table's group key.
	StrategyBridge ResolveStrategy = "bridge"
)

const (
	resolverCacheKeyPrefix = "recovery:"
	resolverCacheTTL       = 30 * 60 // seconds
	resolverCacheName      = "recovery_resolver"
)

// Resolution is a successful recovery-metadata lookup, tagged with the
// strategy that produced it.
type Resolution struct {
	Metadata *entities.RecoveryMetadata `json:"metadata"`
	Strategy ResolveStrategy            `json:"strategy"`
}

// languageIndex holds one language's recovery table indexed three ways.
// Group keys are language-invariant, so byGroupKey is what the bridge
// step lands on after translating a label through the base language.
type languageIndex struct {
	byRaw        map[string]*entities.CategoryRecovery
	byNormalized map[string]*entities.CategoryRecovery
	byGroupKey   map[string]*entities.CategoryRecovery
}

func buildLanguageIndex(records []*entities.CategoryRecovery) *languageIndex {
	idx := &languageIndex{
		byRaw:        make(map[string]*entities.CategoryRecovery, len(records)),
		byNormalized: make(map[string]*entities.CategoryRecovery, len(records)),
		byGroupKey:   make(map[string]*entities.CategoryRecovery, len(records)),
	}
	for _, r := range records {
		// First record wins on collisions so repeated lookups stay stable.
		if _, ok := idx.byRaw[r.Label]; !ok {
			idx.byRaw[r.Label] = r
		}
		norm := labels.Normalize(r.Label)
		if _, ok := idx.byNormalized[norm]; !ok {
			idx.byNormalized[norm] = r
		}
		if _, ok := idx.byGroupKey[r.GroupKey]; !ok {
			idx.byGroupKey[r.GroupKey] = r
		}
	}
	return idx
}

func (idx *languageIndex) lookup(label string) (*entities.CategoryRecovery, ResolveStrategy, bool) {
	if r, ok := idx.byRaw[label]; ok {
		return r, StrategyExact, true
	}
	if r, ok := idx.byNormalized[labels.Normalize(label)]; ok {
		return r, StrategyNormalized, true
	}
	return nil, "", false
}

// RecoveryResolverService resolves a UI category label to its recovery
// metadata through an ordered chain of lookup strategies: exact match,
// normalized match, then a bridge through the base language's group key.
// Successful resolutions are memoized per (language, raw label); misses
// and source failures never are.
type RecoveryResolverService struct {
	repo         repositories.CategoryRecoveryRepository
	cache        providers.CacheProvider
	metrics      *observability.Metrics
	breaker      *gobreaker.CircuitBreaker
	baseLanguage string
	loadTimeout  time.Duration

	mu      sync.RWMutex
	indexes map[string]*languageIndex
}

// NewRecoveryResolverService creates a resolver over the given metadata
// source. cache and metrics may be nil.
func NewRecoveryResolverService(
	repo repositories.CategoryRecoveryRepository,
	cache providers.CacheProvider,
	metrics *observability.Metrics,
	baseLanguage string,
	loadTimeout time.Duration,
) *RecoveryResolverService {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "recovery-metadata-source",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})

	return &RecoveryResolverService{
		repo:         repo,
		cache:        cache,
		metrics:      metrics,
		breaker:      breaker,
		baseLanguage: baseLanguage,
		loadTimeout:  loadTimeout,
		indexes:      make(map[string]*languageIndex),
	}
}

// Resolve maps a category label in the given language to its recovery
// metadata. A label no strategy can match returns a not-found error; so
// do timed-out or breaker-rejected source loads, which the caller treats
// as "no recovery constraint" rather than a hard failure.
func (s *RecoveryResolverService) Resolve(ctx context.Context, label, language string) (*Resolution, error) {
	logger := observability.LoggerFromContext(ctx)
	start := time.Now()

	if label == "" || language == "" {
		return nil, errors.NewValidationError("label and language are required")
	}

	cacheKey := resolverCacheKeyPrefix + language + ":" + label
	if cached := s.cacheGet(ctx, cacheKey); cached != nil {
		observability.RecordCacheHit(ctx, s.metrics, resolverCacheName)
		return cached, nil
	}
	observability.RecordCacheMiss(ctx, s.metrics, resolverCacheName)

	idx, err := s.indexFor(ctx, language)
	if err != nil {
		return nil, s.degradeOrFail(ctx, err, language)
	}

	record, strategy, ok := idx.lookup(label)
	if !ok && language != s.baseLanguage {
		record, ok = s.bridgeLookup(ctx, idx, label)
		strategy = StrategyBridge
	}
	if !ok {
		logger.Debug().
			Str("label", label).
			Str("language", language).
			Msg("no recovery metadata for label")
		return nil, errors.NewNotFoundError(fmt.Sprintf("no recovery metadata for label %q in language %q", label, language))
	}

	resolution := &Resolution{
		Metadata: record.Metadata(),
		Strategy: strategy,
	}
	s.cacheSet(ctx, cacheKey, resolution)
	observability.RecordResolveMetric(ctx, s.metrics, language, string(strategy), time.Since(start))

	return resolution, nil
}

// bridgeLookup translates the label through the base-language table to
// its group key, then finds the target-language record for that group.
// A failed base-language load only disables the bridge step.
func (s *RecoveryResolverService) bridgeLookup(ctx context.Context, target *languageIndex, label string) (*entities.CategoryRecovery, bool) {
	baseIdx, err := s.indexFor(ctx, s.baseLanguage)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().
			Err(err).
			Str("base_language", s.baseLanguage).
			Msg("bridge lookup unavailable")
		return nil, false
	}

	baseRecord, _, ok := baseIdx.lookup(label)
	if !ok {
		return nil, false
	}
	record, ok := target.byGroupKey[baseRecord.GroupKey]
	return record, ok
}

// indexFor returns the in-memory index for a language, loading the full
// per-language table through the circuit breaker on first use. Only
// successful builds are retained.
func (s *RecoveryResolverService) indexFor(ctx context.Context, language string) (*languageIndex, error) {
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

	loadCtx, cancel := context.WithTimeout(ctx, s.loadTimeout)
	defer cancel()

	result, err := s.breaker.Execute(func() (interface{}, error) {
		return s.repo.ListByLanguage(loadCtx, language)
	})
	if err != nil {
		return nil, err
	}

	records := result.([]*entities.CategoryRecovery)
	idx = buildLanguageIndex(records)
	s.indexes[language] = idx
	return idx, nil
}

// degradeOrFail classifies a source-load failure. Timeouts, cancellation
// and an open breaker degrade to not-found so a slow metadata source
// never sinks the whole recommendation; anything else surfaces as an
// external failure.
func (s *RecoveryResolverService) degradeOrFail(ctx context.Context, err error, language string) error {
	logger := observability.LoggerFromContext(ctx)

	switch {
	case stderrors.Is(err, context.DeadlineExceeded),
		stderrors.Is(err, context.Canceled),
		stderrors.Is(err, gobreaker.ErrOpenState),
		stderrors.Is(err, gobreaker.ErrTooManyRequests):
		logger.Warn().
			Err(err).
			Str("language", language).
			Msg("recovery metadata source degraded, resolving as not found")
		return errors.NewNotFoundError("recovery metadata temporarily unavailable")
	default:
		logger.Error().
			Err(err).
			Str("language", language).
			Msg("failed to load recovery metadata")
		return errors.NewExternalError("failed to load recovery metadata", err)
	}
}

func (s *RecoveryResolverService) cacheGet(ctx context.Context, key string) *Resolution {
	if s.cache == nil {
		return nil
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil || data == nil {
		return nil
	}
	var resolution Resolution
	if err := json.Unmarshal(data, &resolution); err != nil {
		return nil
	}
	return &resolution
}

func (s *RecoveryResolverService) cacheSet(ctx context.Context, key string, resolution *Resolution) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(resolution)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, resolverCacheTTL); err != nil {
		observability.LoggerFromContext(ctx).Debug().
			Err(err).
			Str("key", key).
			Msg("failed to cache resolution")
	}
}
