package handlers

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/glowtrip/procedure-recommender/pkg/errors"
)

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// respondWithAppError maps application error types onto HTTP statuses.
func respondWithAppError(w http.ResponseWriter, err error, fallback string) {
	if appErr, ok := err.(*apperrors.AppError); ok {
		switch appErr.Type {
		case apperrors.ErrorTypeNotFound:
			respondWithError(w, http.StatusNotFound, appErr.Message)
			return
		case apperrors.ErrorTypeValidation:
			respondWithError(w, http.StatusBadRequest, appErr.Message)
			return
		case apperrors.ErrorTypeExternal:
			respondWithError(w, http.StatusServiceUnavailable, fallback)
			return
		}
	}
	respondWithError(w, http.StatusInternalServerError, fallback)
}
