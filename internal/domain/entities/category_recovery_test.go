package entities_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/glowtrip/procedure-recommender/internal/domain/entities"
)

func bucketedRecord() *entities.CategoryRecovery {
	return &entities.CategoryRecovery{
		Guidance1To3:   "b1",
		Guidance4To7:   "b2",
		Guidance8To14:  "b3",
		Guidance15To21: "b4",
	}
}

func TestGuidanceFor_PartitionsWithoutGaps(t *testing.T) {
	r := bucketedRecord()

	// Every recoveryMax in [1,21] lands in exactly one bucket.
	counts := map[string]int{}
	for days := 1; days <= 21; days++ {
		g := r.GuidanceFor(days)
		assert.NotEmpty(t, g, "days=%d", days)
		counts[g]++
	}
	assert.Equal(t, map[string]int{"b1": 3, "b2": 4, "b3": 7, "b4": 7}, counts)
}

func TestGuidanceFor_OutsidePartition(t *testing.T) {
	r := bucketedRecord()

	assert.Empty(t, r.GuidanceFor(0), "0 means unknown, no bucket")
	assert.Empty(t, r.GuidanceFor(22))
	assert.Empty(t, r.GuidanceFor(-1))
}

func TestMetadata_SelectsGuidanceForOwnRecoveryMax(t *testing.T) {
	r := bucketedRecord()
	r.GroupKey = "K1"
	r.RecoveryMinDays = 3
	r.RecoveryMaxDays = 6

	m := r.Metadata()
	assert.Equal(t, "K1", m.GroupKey)
	assert.Equal(t, "b2", m.Guidance)
	assert.InDelta(t, 4.5, m.AverageRecoveryDays(), 1e-9)
}

func TestFitDays_StayDaysPolicy(t *testing.T) {
	m := &entities.RecoveryMetadata{RecoveryMaxDays: 5, StayDays: 9}

	assert.Equal(t, 5, m.FitDays(false))
	assert.Equal(t, 9, m.FitDays(true))

	// Unknown stay keeps recoveryMax even under the stay-days policy.
	m.StayDays = 0
	assert.Equal(t, 5, m.FitDays(true))
}
