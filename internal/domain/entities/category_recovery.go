package entities

import (
	"time"
)

// CategoryRecovery holds recovery/duration metadata for one mid- or
// small-category bucket in one language. The display label is free text
// and only comparable within its own language table; GroupKey is the
// language-invariant identity shared by equivalent records across all
// four language tables.
type CategoryRecovery struct {
	ID       string `json:"id" db:"id"`
	Language string `json:"language" db:"language"`
	Label    string `json:"label" db:"label"`
	GroupKey string `json:"group_key" db:"group_key"`

	// Day values are non-negative; 0 means "unknown", never "zero days".
	RecoveryMinDays int `json:"recovery_min_days" db:"recovery_min_days"`
	RecoveryMaxDays int `json:"recovery_max_days" db:"recovery_max_days"`

	// Procedure time in minutes.
	ProcedureTimeMin int `json:"procedure_time_min" db:"procedure_time_min"`
	ProcedureTimeMax int `json:"procedure_time_max" db:"procedure_time_max"`

	StayDays int `json:"stay_days" db:"stay_days"`

	// Day-bucketed aftercare guidance. The four buckets partition [1,21]
	// without gaps.
	Guidance1To3   string `json:"guidance_1_3,omitempty" db:"guidance_1_3"`
	Guidance4To7   string `json:"guidance_4_7,omitempty" db:"guidance_4_7"`
	Guidance8To14  string `json:"guidance_8_14,omitempty" db:"guidance_8_14"`
	Guidance15To21 string `json:"guidance_15_21,omitempty" db:"guidance_15_21"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// GuidanceFor selects the single guidance string whose day bucket contains
// recoveryMaxDays. Returns "" when no bucket applies (0 or above 21 days).
func (r *CategoryRecovery) GuidanceFor(recoveryMaxDays int) string {
	switch {
	case recoveryMaxDays >= 1 && recoveryMaxDays <= 3:
		return r.Guidance1To3
	case recoveryMaxDays >= 4 && recoveryMaxDays <= 7:
		return r.Guidance4To7
	case recoveryMaxDays >= 8 && recoveryMaxDays <= 14:
		return r.Guidance8To14
	case recoveryMaxDays >= 15 && recoveryMaxDays <= 21:
		return r.Guidance15To21
	default:
		return ""
	}
}

// RecoveryMetadata is the resolved, language-independent view of a
// category's recovery constraints attached to a recommendation group.
type RecoveryMetadata struct {
	GroupKey         string `json:"group_key"`
	Label            string `json:"label"`
	Language         string `json:"language"`
	RecoveryMinDays  int    `json:"recovery_min_days"`
	RecoveryMaxDays  int    `json:"recovery_max_days"`
	ProcedureTimeMin int    `json:"procedure_time_min"`
	ProcedureTimeMax int    `json:"procedure_time_max"`
	StayDays         int    `json:"stay_days"`
	Guidance         string `json:"guidance,omitempty"`
}

// Metadata converts a record into its resolved view, selecting the
// guidance bucket for the record's own recoveryMax.
func (r *CategoryRecovery) Metadata() *RecoveryMetadata {
	return &RecoveryMetadata{
		GroupKey:         r.GroupKey,
		Label:            r.Label,
		Language:         r.Language,
		RecoveryMinDays:  r.RecoveryMinDays,
		RecoveryMaxDays:  r.RecoveryMaxDays,
		ProcedureTimeMin: r.ProcedureTimeMin,
		ProcedureTimeMax: r.ProcedureTimeMax,
		StayDays:         r.StayDays,
		Guidance:         r.GuidanceFor(r.RecoveryMaxDays),
	}
}

// FitDays returns the day count that drives the itinerary decision.
// With preferStayDays set and a known recommended stay, the stay value
// wins; otherwise the maximum recovery days apply.
func (m *RecoveryMetadata) FitDays(preferStayDays bool) int {
	if preferStayDays && m.StayDays > 0 {
		return m.StayDays
	}
	return m.RecoveryMaxDays
}

// AverageRecoveryDays returns the midpoint of the recovery range, used as
// the ranking tie-breaker.
func (m *RecoveryMetadata) AverageRecoveryDays() float64 {
	if m.RecoveryMaxDays == 0 {
		return 0
	}
	return (float64(m.RecoveryMinDays) + float64(m.RecoveryMaxDays)) / 2
}
