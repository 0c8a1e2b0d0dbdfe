package services

import (
	"math"
	"sort"

	"github.com/glowtrip/procedure-recommender/internal/domain/entities"
)

// SuitabilityRankingService computes composite suitability scores and
// orders groups and their members deterministically.
type SuitabilityRankingService struct {
	wRating         float64
	wReviews        float64
	priceBandFull   float64
	priceBandHigh   float64
	wDiscount       float64
	reasonablePrice float64
}

// NewSuitabilityRankingService creates a scorer. reasonablePrice is the
// threshold under which a priced item earns the full price-band score.
func NewSuitabilityRankingService(reasonablePrice float64) *SuitabilityRankingService {
	return &SuitabilityRankingService{
		wRating:         40,
		wReviews:        30,
		priceBandFull:   20,
		priceBandHigh:   10,
		wDiscount:       0.1,
		reasonablePrice: reasonablePrice,
	}
}

// Score computes a single procedure's suitability score with its
// per-channel breakdown.
func (s *SuitabilityRankingService) Score(p *entities.Procedure) (float64, map[string]float64) {
	breakdown := make(map[string]float64, 4)

	breakdown["rating"] = p.Rating * s.wRating

	// Logarithmic so rating quality is not drowned out by sheer volume.
	breakdown["reviews"] = math.Log10(float64(p.ReviewCount)+1) * s.wReviews

	price := 0.0
	if p.HasPrice() {
		if p.Price < s.reasonablePrice {
			price = s.priceBandFull
		} else {
			price = s.priceBandHigh
		}
	}
	breakdown["price_band"] = price

	breakdown["discount"] = p.DiscountRate * s.wDiscount

	total := breakdown["rating"] + breakdown["reviews"] + breakdown["price_band"] + breakdown["discount"]
	return total, breakdown
}

// ScoreAll scores every item and returns them ordered by score
// descending, id ascending on equal scores.
func (s *SuitabilityRankingService) ScoreAll(items []*entities.Procedure) []entities.ScoredProcedure {
	scored := make([]entities.ScoredProcedure, len(items))
	for i, item := range items {
		score, breakdown := s.Score(item)
		scored[i] = entities.ScoredProcedure{
			Procedure: item,
			Score:     score,
			Breakdown: breakdown,
		}
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Procedure.ID < scored[j].Procedure.ID
	})

	return scored
}

// RankGroups orders groups by their top member score descending; ties
// break toward shorter average recovery, then group key for stability.
func (s *SuitabilityRankingService) RankGroups(groups []*entities.CategoryGroup) {
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].TopScore != groups[j].TopScore {
			return groups[i].TopScore > groups[j].TopScore
		}
		if groups[i].AvgRecoveryDays != groups[j].AvgRecoveryDays {
			return groups[i].AvgRecoveryDays < groups[j].AvgRecoveryDays
		}
		return groups[i].Key < groups[j].Key
	})
}
