package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"phonebook-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}

// respondServiceError maps service layer errors onto HTTP status codes.
// Unexpected errors are logged and surfaced as a generic 500.
func respondServiceError(w http.ResponseWriter, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		respondError(w, verr.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrInvalidCredentials):
		respondError(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, services.ErrForbidden):
		respondError(w, "You are not authorized to access this contact.", http.StatusForbidden)
	case errors.Is(err, services.ErrNotFound):
		respondError(w, "Not found.", http.StatusNotFound)
	default:
		log.Error().Err(err).Msg("Unexpected error")
		respondError(w, "Server Error", http.StatusInternalServerError)
	}
}
