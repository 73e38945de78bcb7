package handlers

import (
	"errors"
	"net/http"

	"github.com/kozaktomas/facegate/internal/encoding"
)

// ValidateEncodingRequest is the body of POST /encodings/validate
type ValidateEncodingRequest struct {
	FaceEncoding string `json:"face_encoding"`
}

// ValidateEncodingResponse reports whether an encoding would be accepted
type ValidateEncodingResponse struct {
	Valid     bool   `json:"valid"`
	Dimension int    `json:"dimension"`
	Reason    string `json:"reason,omitempty"`
}

// ValidateEncoding checks an encoding without matching or storing it.
// A malformed encoding is a 200 with valid=false.
func ValidateEncoding(w http.ResponseWriter, r *http.Request) {
	var req ValidateEncodingRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	response := ValidateEncodingResponse{Valid: true, Dimension: encoding.Dim}
	if _, err := encoding.Check(req.FaceEncoding); err != nil {
		response.Valid = false
		var formatErr *encoding.FormatError
		if errors.As(err, &formatErr) {
			response.Reason = formatErr.Reason
		}
	}

	respondJSON(w, http.StatusOK, response)
}
