package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/glowtrip/procedure-recommender/internal/domain/entities"
)

const dateLayout = "2006-01-02"

// Recommender defines the handler dependency for recommendations.
type Recommender interface {
	RecommendForLanguage(ctx context.Context, uiCategory string, window entities.TravelWindow, language string) ([]*entities.CategoryGroup, error)
}

// RecommendationHandler handles recommendation requests
type RecommendationHandler struct {
	recommender     Recommender
	defaultLanguage string
}

// NewRecommendationHandler creates a new recommendation handler
func NewRecommendationHandler(recommender Recommender, defaultLanguage string) *RecommendationHandler {
	return &RecommendationHandler{
		recommender:     recommender,
		defaultLanguage: defaultLanguage,
	}
}

// GetRecommendations handles GET /api/recommendations
func (h *RecommendationHandler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	start, err := time.Parse(dateLayout, query.Get("start"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "start must be a date in YYYY-MM-DD form")
		return
	}
	end, err := time.Parse(dateLayout, query.Get("end"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "end must be a date in YYYY-MM-DD form")
		return
	}

	category := query.Get("category")
	language := query.Get("lang")
	if language == "" {
		language = h.defaultLanguage
	}

	window := entities.TravelWindow{Start: start, End: end}
	groups, err := h.recommender.RecommendForLanguage(r.Context(), category, window, language)
	if err != nil {
		respondWithAppError(w, err, "failed to compute recommendations")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"groups":      groups,
		"count":       len(groups),
		"travel_days": window.Days(),
	})
}
