package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/kozaktomas/facegate/internal/access"
	"github.com/kozaktomas/facegate/internal/database"
	"github.com/kozaktomas/facegate/internal/encoding"
	"github.com/kozaktomas/facegate/internal/web/middleware"
)

// errInvalidRequestBody is a shared error message for invalid JSON request bodies.
const errInvalidRequestBody = "invalid request body"

// maxBodyBytes bounds request bodies; an encoding is a few KB of text.
const maxBodyBytes = 1 << 20

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// actor names the admin behind a request for audit logs. Requests without
// claims only reach admin handlers when admin auth is disabled.
func actor(r *http.Request) string {
	if claims := middleware.GetClaimsFromContext(r.Context()); claims != nil && claims.Subject != "" {
		return claims.Subject
	}
	return "anonymous"
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// decodeJSON reads a JSON request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return false
	}
	return true
}

// respondServiceError maps access and storage errors to HTTP responses.
// Storage causes are logged, never returned to the client.
func respondServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var formatErr *encoding.FormatError
	var validationErr *access.ValidationError

	switch {
	case errors.As(err, &formatErr):
		respondError(w, http.StatusBadRequest, formatErr.Error())
	case errors.As(err, &validationErr):
		respondError(w, http.StatusBadRequest, validationErr.Error())
	case errors.Is(err, database.ErrNotFound):
		respondError(w, http.StatusNotFound, "identity not found")
	case errors.Is(err, database.ErrDuplicateIdentifier):
		respondError(w, http.StatusConflict, "card id already enrolled")
	case errors.Is(err, access.ErrStorageUnavailable):
		logger.Error("storage unavailable", "error", err)
		respondError(w, http.StatusServiceUnavailable, "storage unavailable")
	default:
		logger.Error("request failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
