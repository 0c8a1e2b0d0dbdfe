package services

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/glowtrip/procedure-recommender/internal/domain/entities"
	"github.com/glowtrip/procedure-recommender/internal/domain/repositories"
	"github.com/glowtrip/procedure-recommender/internal/infrastructure/observability"
	"github.com/glowtrip/procedure-recommender/pkg/errors"
)

const (
	dropReasonItinerary = "itinerary"
	dropReasonNoItems   = "no_items"
)

// RecommendationService assembles ranked category groups from a raw
// procedure catalog for one traveler request: alias matching, grouping,
// concurrent recovery resolution, itinerary filtering, scoring, and a
// deterministic final order.
type RecommendationService struct {
	procedures repositories.ProcedureRepository
	aliases    *CategoryAliasService
	resolver   *RecoveryResolverService
	filter     *ItineraryFilterService
	scorer     *SuitabilityRankingService
	metrics    *observability.Metrics

	concurrency       int64
	unconstrainedTopN int
}

// NewRecommendationService wires the engine's components. concurrency
// bounds parallel metadata resolutions; unconstrainedTopN caps group
// members kept without any recovery constraint.
func NewRecommendationService(
	procedures repositories.ProcedureRepository,
	aliases *CategoryAliasService,
	resolver *RecoveryResolverService,
	filter *ItineraryFilterService,
	scorer *SuitabilityRankingService,
	metrics *observability.Metrics,
	concurrency int,
	unconstrainedTopN int,
) *RecommendationService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &RecommendationService{
		procedures:        procedures,
		aliases:           aliases,
		resolver:          resolver,
		filter:            filter,
		scorer:            scorer,
		metrics:           metrics,
		concurrency:       int64(concurrency),
		unconstrainedTopN: unconstrainedTopN,
	}
}

// RecommendForLanguage loads the active catalog for a language and runs
// the recommendation over it. A failed load surfaces as an external
// error; nothing partial is returned.
func (s *RecommendationService) RecommendForLanguage(ctx context.Context, uiCategory string, window entities.TravelWindow, language string) ([]*entities.CategoryGroup, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}

	catalog, err := s.procedures.List(ctx, repositories.ProcedureFilter{Language: language})
	if err != nil {
		return nil, errors.NewExternalError("failed to load procedure catalog", err)
	}
	return s.Recommend(ctx, catalog, uiCategory, window, language)
}

// Recommend produces ranked category groups from an already-loaded
// catalog. Aside from the resolver's memoization it is a pure function
// of (catalog, category selection, travel window).
func (s *RecommendationService) Recommend(ctx context.Context, catalog []*entities.Procedure, uiCategory string, window entities.TravelWindow, language string) ([]*entities.CategoryGroup, error) {
	logger := observability.LoggerFromContext(ctx)

	if err := window.Validate(); err != nil {
		return nil, err
	}

	groups := s.partition(catalog, uiCategory)
	if len(groups) == 0 {
		return []*entities.CategoryGroup{}, nil
	}

	resolutions, err := s.resolveGroups(ctx, groups, language)
	if err != nil {
		return nil, err
	}

	ranked := make([]*entities.CategoryGroup, 0, len(groups))
	for _, g := range groups {
		resolution := resolutions[g.key]
		built, reason := s.buildGroup(g, resolution, window)
		if built == nil {
			logger.Debug().
				Str("group_key", g.key).
				Str("reason", reason).
				Msg("dropped category group")
			observability.RecordGroupDropped(ctx, s.metrics, reason)
			continue
		}
		ranked = append(ranked, built)
	}

	s.scorer.RankGroups(ranked)
	return ranked, nil
}

// rawGroup is a pre-scoring (large, mid) bucket.
type rawGroup struct {
	key   string
	large string
	mid   string
	items []*entities.Procedure
}

func (s *RecommendationService) partition(catalog []*entities.Procedure, uiCategory string) []*rawGroup {
	byKey := make(map[string]*rawGroup)
	order := make([]string, 0)

	for _, p := range catalog {
		if !p.IsActive || !s.aliases.Matches(uiCategory, p) {
			continue
		}
		key := p.GroupKey()
		g, ok := byKey[key]
		if !ok {
			g = &rawGroup{key: key, large: p.LargeCategory, mid: p.MidCategory}
			byKey[key] = g
			order = append(order, key)
		}
		g.items = append(g.items, p)
	}

	sort.Strings(order)
	groups := make([]*rawGroup, 0, len(byKey))
	for _, key := range order {
		groups = append(groups, byKey[key])
	}
	return groups
}

// resolveGroups fans resolver lookups out under a bounded semaphore. A
// not-found resolution leaves the group's entry nil; any hard failure
// aborts the whole run.
func (s *RecommendationService) resolveGroups(ctx context.Context, groups []*rawGroup, language string) (map[string]*Resolution, error) {
	sem := semaphore.NewWeighted(s.concurrency)

	var (
		mu          sync.Mutex
		wg          sync.WaitGroup
		resolutions = make(map[string]*Resolution, len(groups))
		hardErr     error
	)

	for _, g := range groups {
		if err := sem.Acquire(ctx, 1); err != nil {
			return nil, errors.NewExternalError("recommendation canceled", err)
		}

		wg.Add(1)
		go func(g *rawGroup) {
			defer wg.Done()
			defer sem.Release(1)

			label := g.mid
			if label == "" {
				label = g.large
			}

			resolution, err := s.resolver.Resolve(ctx, label, language)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				resolutions[g.key] = resolution
			case errors.IsNotFound(err):
				// No recovery constraint for this group.
			case hardErr == nil:
				hardErr = err
			}
		}(g)
	}

	wg.Wait()
	if hardErr != nil {
		return nil, hardErr
	}
	return resolutions, nil
}

// buildGroup applies the itinerary filter and scoring to one bucket.
// It returns nil with a drop reason when the group cannot be shown.
func (s *RecommendationService) buildGroup(g *rawGroup, resolution *Resolution, window entities.TravelWindow) (*entities.CategoryGroup, string) {
	var (
		meta  *entities.RecoveryMetadata
		items = g.items
	)

	if resolution != nil {
		meta = resolution.Metadata
		if !s.filter.Fits(meta, window) {
			return nil, dropReasonItinerary
		}
	} else {
		items = s.filter.FilterByLegacyDuration(items, window)
	}
	if len(items) == 0 {
		return nil, dropReasonNoItems
	}

	scored := s.scorer.ScoreAll(items)
	if resolution == nil && s.unconstrainedTopN > 0 && len(scored) > s.unconstrainedTopN {
		scored = scored[:s.unconstrainedTopN]
	}

	return &entities.CategoryGroup{
		Key:             g.key,
		LargeCategory:   g.large,
		MidCategory:     g.mid,
		Items:           scored,
		Metadata:        meta,
		TopScore:        scored[0].Score,
		AvgRecoveryDays: averageRecovery(meta, items),
	}, ""
}

// averageRecovery is the ranking tie-breaker. With resolved metadata it
// is the recovery-range midpoint; otherwise the mean of the parseable
// legacy durations, or 0 when none parse.
func averageRecovery(meta *entities.RecoveryMetadata, items []*entities.Procedure) float64 {
	if meta != nil {
		return meta.AverageRecoveryDays()
	}

	sum, n := 0, 0
	for _, p := range items {
		if days, ok := parseLegacyRecoveryDays(p.RecoveryText); ok {
			sum += days
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}
