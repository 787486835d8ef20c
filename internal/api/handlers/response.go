package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
	apperrors "github.com/zatekoja/ai-event-scanner/backend/pkg/errors"
)

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error      bool   `json:"error"`
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Path       string `json:"path"`
}

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Warn().Err(err).Msg("Failed to encode response")
	}
}

func respondWithError(w http.ResponseWriter, r *http.Request, statusCode int, message string) {
	respondWithJSON(w, statusCode, ErrorResponse{
		Error:      true,
		StatusCode: statusCode,
		Message:    message,
		Path:       r.URL.Path,
	})
}

// respondWithAppError maps err onto a status code. Client errors carry their
// own message; everything else replies with fallback and logs the detail.
func respondWithAppError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg(fallback)
		respondWithError(w, r, status, fallback)
		return
	}
	respondWithError(w, r, status, apperrors.MessageOf(err, fallback))
}
