package handlers

import (
	"net/http"

	"github.com/kozaktomas/facegate/internal/config"
	"github.com/kozaktomas/facegate/internal/encoding"
)

// ConfigHandler handles configuration endpoints
type ConfigHandler struct {
	config *config.Config
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(cfg *config.Config) *ConfigHandler {
	return &ConfigHandler{
		config: cfg,
	}
}

// ConfigResponse represents the configuration response
type ConfigResponse struct {
	Threshold            float64 `json:"threshold"`
	Dimension            int     `json:"dimension"`
	Driver               string  `json:"driver"`
	LookalikeMaxDistance float64 `json:"lookalike_max_distance"`
	AdminAuth            bool    `json:"admin_auth"`
}

// Get returns the matching configuration. Secrets and DSNs are never included.
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	response := ConfigResponse{
		Threshold:            h.config.Match.Threshold,
		Dimension:            encoding.Dim,
		Driver:               h.config.Database.Driver,
		LookalikeMaxDistance: h.config.Match.LookalikeMaxDistance,
		AdminAuth:            h.config.Admin.AuthEnabled(),
	}

	respondJSON(w, http.StatusOK, response)
}
