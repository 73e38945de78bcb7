package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/kozaktomas/facegate/internal/access"
	"github.com/kozaktomas/facegate/internal/database"
)

// EventsHandler exposes the scan audit log
type EventsHandler struct {
	registry *access.Registry
	logger   *slog.Logger
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(registry *access.Registry, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{
		registry: registry,
		logger:   logger,
	}
}

// EventListResponse wraps the recent events feed
type EventListResponse struct {
	Events []database.ScanEvent `json:"events"`
	Limit  int                  `json:"limit"`
}

// List returns the newest scan events; ?limit= defaults to 50, capped at 500
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			respondError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}

	events, err := h.registry.RecentEvents(r.Context(), limit)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, EventListResponse{Events: events, Limit: database.ClampEventLimit(limit)})
}

// Stats returns event counts by status; ?since= takes an RFC 3339 timestamp
func (h *EventsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	var since *time.Time
	if s := r.URL.Query().Get("since"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			respondError(w, http.StatusBadRequest, "since must be an RFC 3339 timestamp")
			return
		}
		since = &t
	}

	stats, err := h.registry.EventStats(r.Context(), since)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, stats)
}
