package entities

import (
	"time"

	apperrors "github.com/glowtrip/procedure-recommender/pkg/errors"
)

// TravelWindow is a traveler's available date range. Both endpoints are
// treated as whole days in the traveler's itinerary, so the day count is
// inclusive of start and end.
type TravelWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Validate rejects windows whose end precedes their start. The itinerary
// filter must never see a negative day count.
func (w TravelWindow) Validate() error {
	if w.Start.IsZero() || w.End.IsZero() {
		return apperrors.NewValidationError("travel window requires both start and end dates")
	}
	if dateOf(w.End).Before(dateOf(w.Start)) {
		return apperrors.NewValidationError("travel window end date is before start date")
	}
	return nil
}

// Days returns the inclusive day count of the window. A window starting
// and ending on the same date counts as one day.
func (w TravelWindow) Days() int {
	start := dateOf(w.Start)
	end := dateOf(w.End)
	return int(end.Sub(start).Hours()/24) + 1
}

// dateOf truncates a timestamp to its calendar date in UTC so that
// time-of-day noise never changes the day count.
func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
