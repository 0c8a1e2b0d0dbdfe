package handlers

import (
	"net/http"
	"strconv"

	"github.com/glowtrip/procedure-recommender/internal/domain/repositories"
)

// ProcedureHandler handles catalog browsing requests
type ProcedureHandler struct {
	repo            repositories.ProcedureRepository
	search          repositories.ProcedureSearchRepository
	defaultLanguage string
}

// NewProcedureHandler creates a new procedure handler. search may be nil,
// in which case free-text search falls back to the database.
func NewProcedureHandler(repo repositories.ProcedureRepository, search repositories.ProcedureSearchRepository, defaultLanguage string) *ProcedureHandler {
	return &ProcedureHandler{
		repo:            repo,
		search:          search,
		defaultLanguage: defaultLanguage,
	}
}

// ListProcedures handles GET /api/procedures
func (h *ProcedureHandler) ListProcedures(w http.ResponseWriter, r *http.Request) {
	filter := h.filterFromQuery(r)

	procedures, err := h.repo.List(r.Context(), filter)
	if err != nil {
		respondWithAppError(w, err, "failed to list procedures")
		return
	}

	total, err := h.repo.Count(r.Context(), filter)
	if err != nil {
		respondWithAppError(w, err, "failed to count procedures")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"procedures": procedures,
		"count":      len(procedures),
		"total":      total,
	})
}

// GetProcedure handles GET /api/procedures/{id}
func (h *ProcedureHandler) GetProcedure(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "procedure ID is required")
		return
	}

	procedure, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		respondWithAppError(w, err, "failed to load procedure")
		return
	}

	respondWithJSON(w, http.StatusOK, procedure)
}

// SearchProcedures handles GET /api/procedures/search
func (h *ProcedureHandler) SearchProcedures(w http.ResponseWriter, r *http.Request) {
	filter := h.filterFromQuery(r)
	if filter.Search == "" {
		respondWithError(w, http.StatusBadRequest, "q is required")
		return
	}

	var err error
	procedures := []interface{}{}
	if h.search != nil {
		results, searchErr := h.search.Search(r.Context(), filter)
		err = searchErr
		for _, p := range results {
			procedures = append(procedures, p)
		}
	} else {
		results, listErr := h.repo.List(r.Context(), filter)
		err = listErr
		for _, p := range results {
			procedures = append(procedures, p)
		}
	}
	if err != nil {
		respondWithAppError(w, err, "search unavailable")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"procedures": procedures,
		"count":      len(procedures),
	})
}

func (h *ProcedureHandler) filterFromQuery(r *http.Request) repositories.ProcedureFilter {
	query := r.URL.Query()

	language := query.Get("lang")
	if language == "" {
		language = h.defaultLanguage
	}

	limit, _ := strconv.Atoi(query.Get("limit"))
	offset, _ := strconv.Atoi(query.Get("offset"))

	return repositories.ProcedureFilter{
		Language:      language,
		LargeCategory: query.Get("large_category"),
		MidCategory:   query.Get("mid_category"),
		SmallCategory: query.Get("small_category"),
		Search:        query.Get("q"),
		Limit:         limit,
		Offset:        offset,
	}
}
