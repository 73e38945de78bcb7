package handlers

import (
	"log/slog"
	"net/http"

	"github.com/kozaktomas/facegate/internal/access"
)

// ScanHandler handles scans from the door readers
type ScanHandler struct {
	scanner *access.Scanner
	logger  *slog.Logger
}

// NewScanHandler creates a new scan handler
func NewScanHandler(scanner *access.Scanner, logger *slog.Logger) *ScanHandler {
	return &ScanHandler{
		scanner: scanner,
		logger:  logger,
	}
}

// ScanRequest is the body of POST /scan
type ScanRequest struct {
	FaceEncoding string `json:"face_encoding"`
}

// Scan evaluates one presented encoding and returns the access decision
func (h *ScanHandler) Scan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.scanner.Scan(r.Context(), req.FaceEncoding)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}
