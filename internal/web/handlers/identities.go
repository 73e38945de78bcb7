package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/facegate/internal/access"
	"github.com/kozaktomas/facegate/internal/database"
	"github.com/kozaktomas/facegate/internal/facematch"
)

// IdentitiesHandler handles the identity directory endpoints
type IdentitiesHandler struct {
	registry             *access.Registry
	lookalikeMaxDistance float64
	logger               *slog.Logger
}

// NewIdentitiesHandler creates a new identities handler
func NewIdentitiesHandler(registry *access.Registry, lookalikeMaxDistance float64, logger *slog.Logger) *IdentitiesHandler {
	return &IdentitiesHandler{
		registry:             registry,
		lookalikeMaxDistance: lookalikeMaxDistance,
		logger:               logger,
	}
}

// IdentityListResponse wraps a directory listing
type IdentityListResponse struct {
	Identities []database.Identity `json:"identities"`
	Count      int                 `json:"count"`
}

// List returns identities, optionally filtered by ?q= and ?classification=
func (h *IdentitiesHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := access.ListFilter{Query: r.URL.Query().Get("q")}
	if c := r.URL.Query().Get("classification"); c != "" {
		class, err := database.ParseClassification(c)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter.Classification = class
	}

	identities, err := h.registry.List(r.Context(), filter)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	if filter.Query != "" {
		h.logger.Debug("identity search", "query", sanitizeForLog(filter.Query), "results", len(identities))
	}

	respondJSON(w, http.StatusOK, IdentityListResponse{Identities: identities, Count: len(identities)})
}

// Get returns one identity with its recent scan events
func (h *IdentitiesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "id is required")
		return
	}

	detail, err := h.registry.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, detail)
}

// Create enrolls a new identity
func (h *IdentitiesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req access.IdentityInput
	if !decodeJSON(w, r, &req) {
		return
	}

	identity, err := h.registry.Enroll(r.Context(), req)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	h.logger.InfoContext(r.Context(), "identity enrolled", "id", identity.ID, "actor", actor(r))

	respondJSON(w, http.StatusCreated, identity)
}

// Update changes an identity. Omitted fields keep their value; expires_at is
// always replaced.
func (h *IdentitiesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "id is required")
		return
	}

	var req access.IdentityInput
	if !decodeJSON(w, r, &req) {
		return
	}

	identity, err := h.registry.Update(r.Context(), id, req)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	h.logger.InfoContext(r.Context(), "identity updated", "id", identity.ID, "actor", actor(r))

	respondJSON(w, http.StatusOK, identity)
}

// Delete removes an identity; its scan events stay in the log
func (h *IdentitiesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := h.registry.Delete(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	h.logger.InfoContext(r.Context(), "identity deleted", "id", sanitizeForLog(id), "actor", actor(r))

	w.WriteHeader(http.StatusNoContent)
}

// NearestRequest is the body of POST /identities/nearest
type NearestRequest struct {
	FaceEncoding string `json:"face_encoding"`
	Limit        int    `json:"limit"`
}

// NearestResponse lists the closest enrolled identities
type NearestResponse struct {
	Results []NearestResult `json:"results"`
}

// NearestResult is one ranked identity
type NearestResult struct {
	Identity   database.Identity `json:"identity"`
	Distance   float64           `json:"distance"`
	Confidence float64           `json:"confidence"`
}

// Nearest ranks enrolled identities by distance to an encoding without
// recording a scan event
func (h *IdentitiesHandler) Nearest(w http.ResponseWriter, r *http.Request) {
	var req NearestRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	nearest, err := h.registry.Nearest(r.Context(), req.FaceEncoding, req.Limit)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	results := make([]NearestResult, len(nearest))
	for i, n := range nearest {
		results[i] = NearestResult{
			Identity:   n.Identity,
			Distance:   n.Distance,
			Confidence: facematch.Confidence(n.Distance),
		}
	}
	respondJSON(w, http.StatusOK, NearestResponse{Results: results})
}

// LookalikePairResponse is one pair of enrolled identities that are hard to
// tell apart
type LookalikePairResponse struct {
	A        database.Identity `json:"a"`
	B        database.Identity `json:"b"`
	Distance float64           `json:"distance"`
}

// LookalikesResponse is the lookalike report
type LookalikesResponse struct {
	MaxDistance float64                 `json:"max_distance"`
	Pairs       []LookalikePairResponse `json:"pairs"`
}

// Lookalikes reports enrolled pairs within ?max_distance= (default from config)
func (h *IdentitiesHandler) Lookalikes(w http.ResponseWriter, r *http.Request) {
	maxDistance := h.lookalikeMaxDistance
	if s := r.URL.Query().Get("max_distance"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "max_distance must be a number")
			return
		}
		maxDistance = v
	}

	pairs, err := h.registry.Lookalikes(r.Context(), maxDistance)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	response := LookalikesResponse{
		MaxDistance: maxDistance,
		Pairs:       make([]LookalikePairResponse, len(pairs)),
	}
	for i, p := range pairs {
		response.Pairs[i] = LookalikePairResponse{A: p.A, B: p.B, Distance: p.Distance}
	}
	respondJSON(w, http.StatusOK, response)
}
