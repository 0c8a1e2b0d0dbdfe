package services

import (
	"regexp"
	"strconv"

	"github.com/glowtrip/procedure-recommender/pkg/labels"
)

// Legacy catalog rows carry free-text recovery periods ("3일", "1~2주",
// "2 weeks", "1개월") predating the category-level metadata tables. The
// parser recovers a day count from them when the resolver finds nothing
// for the owning group.

var legacyDurationRe = regexp.MustCompile(`(\d+)(?:[~\-～](\d+))?(일|주|개월|달|days?|weeks?|months?|d|w|m)`)

var legacyNoDowntime = map[string]struct{}{
	"당일":        {},
	"당일회복":      {},
	"즉시":        {},
	"없음":        {},
	"sameday":   {},
	"none":      {},
	"immediate": {},
}

var legacyUnitDays = map[string]int{
	"일": 1, "d": 1, "day": 1, "days": 1,
	"주": 7, "w": 7, "week": 7, "weeks": 7,
	"개월": 30, "달": 30, "m": 30, "month": 30, "months": 30,
}

// parseLegacyRecoveryDays extracts the maximum recovery day count from a
// legacy free-text duration. The second return is false when the text
// holds nothing parseable; callers then treat the item as unconstrained.
func parseLegacyRecoveryDays(text string) (int, bool) {
	normalized := labels.Normalize(text)
	if normalized == "" {
		return 0, false
	}

	if _, ok := legacyNoDowntime[normalized]; ok {
		return 0, true
	}

	m := legacyDurationRe.FindStringSubmatch(normalized)
	if m == nil {
		return 0, false
	}

	unit, ok := legacyUnitDays[m[3]]
	if !ok {
		return 0, false
	}

	// Ranges like "1~2주" resolve to their upper bound.
	value, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	if m[2] != "" {
		upper, err := strconv.Atoi(m[2])
		if err == nil && upper > value {
			value = upper
		}
	}

	return value * unit, true
}
