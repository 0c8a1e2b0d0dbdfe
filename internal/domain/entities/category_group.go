package entities

// ScoredProcedure pairs a catalog record with its computed suitability
// score. The breakdown keeps each scoring channel's contribution for
// observability and regression tests.
type ScoredProcedure struct {
	Procedure *Procedure         `json:"procedure"`
	Score     float64            `json:"score"`
	Breakdown map[string]float64 `json:"score_breakdown,omitempty"`
}

// CategoryGroup is a (large, mid) category bucket assembled for one
// recommendation run. Metadata is nil when no recovery record resolved
// for the group, in which case members were filtered item-by-item against
// their legacy duration text.
type CategoryGroup struct {
	Key           string           `json:"key"`
	LargeCategory string           `json:"large_category"`
	MidCategory   string           `json:"mid_category"`
	Items         []ScoredProcedure `json:"items"`
	Metadata      *RecoveryMetadata `json:"recovery,omitempty"`

	// TopScore is the highest member score; groups are ranked by it.
	TopScore float64 `json:"top_score"`

	// AvgRecoveryDays breaks ranking ties, shorter recovery first.
	AvgRecoveryDays float64 `json:"avg_recovery_days"`
}

// CategoryKeyword maps a free-text search keyword in one language to a
// language-invariant category group key.
type CategoryKeyword struct {
	ID       string `json:"id" db:"id"`
	Language string `json:"language" db:"language"`
	Keyword  string `json:"keyword" db:"keyword"`
	GroupKey string `json:"group_key" db:"group_key"`
}
