package handlers

import (
	"context"
	"net/http"
)

// KeywordLookup defines the handler dependency for keyword resolution.
type KeywordLookup interface {
	LookupGroupKey(ctx context.Context, keyword, language string) (string, error)
}

// CategoryHandler handles category taxonomy requests
type CategoryHandler struct {
	lookup          KeywordLookup
	defaultLanguage string
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(lookup KeywordLookup, defaultLanguage string) *CategoryHandler {
	return &CategoryHandler{
		lookup:          lookup,
		defaultLanguage: defaultLanguage,
	}
}

// LookupCategory handles GET /api/categories/lookup
func (h *CategoryHandler) LookupCategory(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	keyword := query.Get("keyword")
	if keyword == "" {
		respondWithError(w, http.StatusBadRequest, "keyword is required")
		return
	}

	language := query.Get("lang")
	if language == "" {
		language = h.defaultLanguage
	}

	groupKey, err := h.lookup.LookupGroupKey(r.Context(), keyword, language)
	if err != nil {
		respondWithAppError(w, err, "keyword lookup unavailable")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{
		"keyword":   keyword,
		"language":  language,
		"group_key": groupKey,
	})
}
