package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glowtrip/procedure-recommender/internal/domain/entities"
	"github.com/glowtrip/procedure-recommender/internal/domain/repositories"
	"github.com/glowtrip/procedure-recommender/pkg/errors"
)

type stubProcedureRepo struct {
	catalog []*entities.Procedure
	err     error
}

func (s *stubProcedureRepo) GetByID(ctx context.Context, id string) (*entities.Procedure, error) {
	for _, p := range s.catalog {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, errors.NewNotFoundError("procedure not found")
}

func (s *stubProcedureRepo) List(ctx context.Context, filter repositories.ProcedureFilter) ([]*entities.Procedure, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]*entities.Procedure, 0, len(s.catalog))
	for _, p := range s.catalog {
		if filter.Language == "" || p.Language == filter.Language {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubProcedureRepo) Count(ctx context.Context, filter repositories.ProcedureFilter) (int, error) {
	items, err := s.List(ctx, filter)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

func testCatalog() []*entities.Procedure {
	return []*entities.Procedure{
		{
			ID: "eye-1", Language: "ko", Name: "자연유착 쌍꺼풀",
			LargeCategory: "눈성형", MidCategory: "쌍꺼풀",
			Price: 1_500_000, Rating: 4.7, ReviewCount: 320, IsActive: true,
		},
		{
			ID: "eye-2", Language: "ko", Name: "매몰 쌍꺼풀",
			LargeCategory: "눈성형", MidCategory: "쌍꺼풀",
			Price: 900_000, Rating: 4.4, ReviewCount: 150, DiscountRate: 10, IsActive: true,
		},
		{
			ID: "skin-1", Language: "ko", Name: "레이저토닝",
			LargeCategory: "피부시술", MidCategory: "레이저토닝",
			Price: 300_000, Rating: 4.6, ReviewCount: 2100, IsActive: true,
		},
		{
			ID: "petit-1", Language: "ko", Name: "보톡스",
			LargeCategory: "쁘띠시술", MidCategory: "보톡스",
			Price: 99_000, Rating: 4.2, ReviewCount: 5400, RecoveryText: "당일", IsActive: true,
		},
		{
			ID: "petit-2", Language: "ko", Name: "리프팅 패키지",
			LargeCategory: "쁘띠시술", MidCategory: "보톡스",
			Price: 450_000, Rating: 4.9, ReviewCount: 80, RecoveryText: "2주", IsActive: true,
		},
		{
			ID: "inactive-1", Language: "ko", Name: "판매중지 시술",
			LargeCategory: "피부시술", MidCategory: "레이저토닝",
			Price: 100_000, Rating: 5.0, ReviewCount: 9000, IsActive: false,
		},
	}
}

// 쌍꺼풀 needs more days than 레이저토닝; 보톡스 has no metadata at all.
func testRecoveryTables() map[string][]*entities.CategoryRecovery {
	return map[string][]*entities.CategoryRecovery{
		"ko": {
			{
				ID: "r1", Language: "ko", Label: "쌍꺼풀",
				GroupKey:        "눈성형::쌍꺼풀",
				RecoveryMinDays: 5, RecoveryMaxDays: 7,
			},
			{
				ID: "r2", Language: "ko", Label: "레이저토닝",
				GroupKey:        "피부시술::레이저토닝",
				RecoveryMinDays: 1, RecoveryMaxDays: 2,
			},
		},
	}
}

func newTestRecommendation(t *testing.T, procRepo repositories.ProcedureRepository, recoveryRepo *stubRecoveryRepo) *RecommendationService {
	t.Helper()
	return NewRecommendationService(
		procRepo,
		NewCategoryAliasService(),
		newTestResolver(t, recoveryRepo),
		NewItineraryFilterService(false),
		NewSuitabilityRankingService(3_000_000),
		nil,
		4,
		20,
	)
}

func travelWindow(start, end string) entities.TravelWindow {
	s, _ := time.Parse("2006-01-02", start)
	e, _ := time.Parse("2006-01-02", end)
	return entities.TravelWindow{Start: s, End: e}
}

func TestRecommendFiltersGroupsByItinerary(t *testing.T) {
	svc := newTestRecommendation(t, &stubProcedureRepo{catalog: testCatalog()},
		&stubRecoveryRepo{tables: testRecoveryTables()})

	// Five travel days: 쌍꺼풀 needs 8, 레이저토닝 needs 3.
	groups, err := svc.Recommend(context.Background(), testCatalog(), CategoryAll, travelWindow("2026-10-01", "2026-10-05"), "ko")
	require.NoError(t, err)

	keys := make([]string, len(groups))
	for i, g := range groups {
		keys[i] = g.Key
	}
	assert.NotContains(t, keys, "눈성형::쌍꺼풀")
	assert.Contains(t, keys, "피부시술::레이저토닝")
	assert.Contains(t, keys, "쁘띠시술::보톡스")
}

func TestRecommendKeepsLongRecoveryGivenEnoughDays(t *testing.T) {
	svc := newTestRecommendation(t, &stubProcedureRepo{catalog: testCatalog()},
		&stubRecoveryRepo{tables: testRecoveryTables()})

	groups, err := svc.Recommend(context.Background(), testCatalog(), CategoryAll, travelWindow("2026-10-01", "2026-10-14"), "ko")
	require.NoError(t, err)

	var eye *entities.CategoryGroup
	for _, g := range groups {
		if g.Key == "눈성형::쌍꺼풀" {
			eye = g
		}
	}
	require.NotNil(t, eye)
	require.NotNil(t, eye.Metadata)
	assert.Equal(t, 7, eye.Metadata.RecoveryMaxDays)
	assert.Equal(t, 6.0, eye.AvgRecoveryDays)
	assert.Len(t, eye.Items, 2)
	// Items ordered by score descending.
	assert.GreaterOrEqual(t, eye.Items[0].Score, eye.Items[1].Score)
}

func TestRecommendUnresolvedGroupUsesLegacyDurations(t *testing.T) {
	svc := newTestRecommendation(t, &stubProcedureRepo{catalog: testCatalog()},
		&stubRecoveryRepo{tables: testRecoveryTables()})

	// Three travel days: the "2주" item needs 15, the "당일" one fits.
	groups, err := svc.Recommend(context.Background(), testCatalog(), "쁘띠시술", travelWindow("2026-10-01", "2026-10-03"), "ko")
	require.NoError(t, err)

	require.Len(t, groups, 1)
	g := groups[0]
	assert.Equal(t, "쁘띠시술::보톡스", g.Key)
	assert.Nil(t, g.Metadata)
	require.Len(t, g.Items, 1)
	assert.Equal(t, "petit-1", g.Items[0].Procedure.ID)
}

func TestRecommendSkipsInactiveItems(t *testing.T) {
	svc := newTestRecommendation(t, &stubProcedureRepo{catalog: testCatalog()},
		&stubRecoveryRepo{tables: testRecoveryTables()})

	groups, err := svc.Recommend(context.Background(), testCatalog(), "피부시술", travelWindow("2026-10-01", "2026-10-05"), "ko")
	require.NoError(t, err)

	require.Len(t, groups, 1)
	for _, item := range groups[0].Items {
		assert.NotEqual(t, "inactive-1", item.Procedure.ID)
	}
}

func TestRecommendCategoryFilterNarrowsGroups(t *testing.T) {
	svc := newTestRecommendation(t, &stubProcedureRepo{catalog: testCatalog()},
		&stubRecoveryRepo{tables: testRecoveryTables()})

	groups, err := svc.Recommend(context.Background(), testCatalog(), "눈성형", travelWindow("2026-10-01", "2026-10-14"), "ko")
	require.NoError(t, err)

	require.Len(t, groups, 1)
	assert.Equal(t, "눈성형::쌍꺼풀", groups[0].Key)
}

func TestRecommendRejectsInvalidWindow(t *testing.T) {
	svc := newTestRecommendation(t, &stubProcedureRepo{catalog: testCatalog()},
		&stubRecoveryRepo{tables: testRecoveryTables()})

	_, err := svc.Recommend(context.Background(), testCatalog(), CategoryAll, travelWindow("2026-10-05", "2026-10-01"), "ko")
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeValidation, errors.TypeOf(err))
}

func TestRecommendPropagatesHardResolverFailure(t *testing.T) {
	svc := newTestRecommendation(t, &stubProcedureRepo{catalog: testCatalog()},
		&stubRecoveryRepo{err: stderrors.New("connection refused")})

	_, err := svc.Recommend(context.Background(), testCatalog(), CategoryAll, travelWindow("2026-10-01", "2026-10-05"), "ko")
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeExternal, errors.TypeOf(err))
}

func TestRecommendCapsUnconstrainedGroups(t *testing.T) {
	catalog := make([]*entities.Procedure, 0, 30)
	for i := 0; i < 30; i++ {
		catalog = append(catalog, &entities.Procedure{
			ID: fmt.Sprintf("petit-%02d", i), Language: "ko",
			LargeCategory: "쁘띠시술", MidCategory: "필러",
			Price: 100_000, Rating: 4.0, ReviewCount: i,
			RecoveryText: "상담 후 결정", IsActive: true,
		})
	}

	svc := newTestRecommendation(t, &stubProcedureRepo{catalog: catalog},
		&stubRecoveryRepo{tables: testRecoveryTables()})

	groups, err := svc.Recommend(context.Background(), catalog, CategoryAll, travelWindow("2026-10-01", "2026-10-03"), "ko")
	require.NoError(t, err)

	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Items, 20)
}

func TestRecommendGroupOrderIsDeterministic(t *testing.T) {
	svc := newTestRecommendation(t, &stubProcedureRepo{catalog: testCatalog()},
		&stubRecoveryRepo{tables: testRecoveryTables()})

	first, err := svc.Recommend(context.Background(), testCatalog(), CategoryAll, travelWindow("2026-10-01", "2026-10-14"), "ko")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := svc.Recommend(context.Background(), testCatalog(), CategoryAll, travelWindow("2026-10-01", "2026-10-14"), "ko")
		require.NoError(t, err)
		require.Len(t, again, len(first))
		for j := range first {
			assert.Equal(t, first[j].Key, again[j].Key)
		}
	}

	// Descending by the best member's score.
	for i := 1; i < len(first); i++ {
		assert.GreaterOrEqual(t, first[i-1].TopScore, first[i].TopScore)
	}
}

func TestRecommendForLanguageLoadsCatalog(t *testing.T) {
	svc := newTestRecommendation(t, &stubProcedureRepo{catalog: testCatalog()},
		&stubRecoveryRepo{tables: testRecoveryTables()})

	groups, err := svc.RecommendForLanguage(context.Background(), CategoryAll, travelWindow("2026-10-01", "2026-10-14"), "ko")
	require.NoError(t, err)
	assert.NotEmpty(t, groups)
}

func TestRecommendForLanguageCatalogFailureIsExternal(t *testing.T) {
	svc := newTestRecommendation(t, &stubProcedureRepo{err: stderrors.New("connection refused")},
		&stubRecoveryRepo{tables: testRecoveryTables()})

	_, err := svc.RecommendForLanguage(context.Background(), CategoryAll, travelWindow("2026-10-01", "2026-10-14"), "ko")
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeExternal, errors.TypeOf(err))
}
