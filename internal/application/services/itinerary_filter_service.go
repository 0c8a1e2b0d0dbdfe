package services

import (
	"github.com/rs/zerolog/log"

	"github.com/glowtrip/procedure-recommender/internal/domain/entities"
)

// ItineraryFilterService decides whether category groups and individual
// procedures fit a traveler's date window.
type ItineraryFilterService struct {
	// preferStayDays makes a positive recommended-stay value drive the
	// fit decision instead of the maximum recovery days.
	preferStayDays bool
}

// NewItineraryFilterService creates a new itinerary filter
func NewItineraryFilterService(preferStayDays bool) *ItineraryFilterService {
	return &ItineraryFilterService{preferStayDays: preferStayDays}
}

// Fits reports whether a group with resolved recovery metadata fits the
// window. The day the procedure is performed counts against the window,
// so a group needs fitDays+1 travel days. Unknown recovery (0) never
// constrains.
func (s *ItineraryFilterService) Fits(meta *entities.RecoveryMetadata, window entities.TravelWindow) bool {
	if meta == nil {
		return true
	}

	fitDays := meta.FitDays(s.preferStayDays)
	if fitDays <= 0 {
		return true
	}

	totalDaysNeeded := fitDays + 1
	return totalDaysNeeded <= window.Days()
}

// FilterByLegacyDuration filters items of an unresolved group against
// their own legacy recovery text. Items whose text cannot be parsed are
// kept; only a parseable recovery period that cannot fit excludes an
// item.
func (s *ItineraryFilterService) FilterByLegacyDuration(items []*entities.Procedure, window entities.TravelWindow) []*entities.Procedure {
	travelDays := window.Days()

	kept := make([]*entities.Procedure, 0, len(items))
	for _, item := range items {
		recoveryDays, ok := parseLegacyRecoveryDays(item.RecoveryText)
		if !ok {
			if item.RecoveryText != "" {
				log.Debug().
					Str("procedure_id", item.ID).
					Str("recovery_text", item.RecoveryText).
					Msg("unparseable legacy recovery text, keeping item unconstrained")
			}
			kept = append(kept, item)
			continue
		}
		if recoveryDays > 0 && recoveryDays+1 > travelDays {
			continue
		}
		kept = append(kept, item)
	}
	return kept
}
