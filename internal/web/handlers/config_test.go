package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kozaktomas/facegate/internal/config"
)

func TestNewConfigHandler(t *testing.T) {
	cfg := &config.Config{}

	handler := NewConfigHandler(cfg)

	if handler == nil {
		t.Fatal("expected non-nil handler")
		return
	}

	if handler.config != cfg {
		t.Error("expected handler to hold reference to config")
	}
}

func TestConfigHandler_Get_ReturnsJSON(t *testing.T) {
	handler := NewConfigHandler(testConfig())

	req := httptest.NewRequest("GET", "/api/v1/config", nil)
	recorder := httptest.NewRecorder()

	handler.Get(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)
	assertContentType(t, recorder, "application/json")
}

func TestConfigHandler_Get_ReportsMatching(t *testing.T) {
	cfg := testConfig()
	cfg.Match.Threshold = 0.72
	handler := NewConfigHandler(cfg)

	req := httptest.NewRequest("GET", "/api/v1/config", nil)
	recorder := httptest.NewRecorder()

	handler.Get(recorder, req)

	var result ConfigResponse
	parseJSONResponse(t, recorder, &result)

	if result.Threshold != 0.72 {
		t.Errorf("expected threshold 0.72, got %v", result.Threshold)
	}
	if result.Dimension != 128 {
		t.Errorf("expected dimension 128, got %d", result.Dimension)
	}
	if result.Driver != "sqlite" {
		t.Errorf("expected driver 'sqlite', got '%s'", result.Driver)
	}
	if result.LookalikeMaxDistance != 0.4 {
		t.Errorf("expected lookalike max distance 0.4, got %v", result.LookalikeMaxDistance)
	}
}

func TestConfigHandler_Get_AdminAuth(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		want   bool
	}{
		{"disabled", "", false},
		{"enabled", "s3cret-signing-key", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Admin.JWTSecret = tc.secret
			handler := NewConfigHandler(cfg)

			recorder := httptest.NewRecorder()
			handler.Get(recorder, httptest.NewRequest("GET", "/api/v1/config", nil))

			var result ConfigResponse
			parseJSONResponse(t, recorder, &result)
			if result.AdminAuth != tc.want {
				t.Errorf("expected admin_auth %v, got %v", tc.want, result.AdminAuth)
			}
		})
	}
}

func TestConfigHandler_Get_NoSecrets(t *testing.T) {
	cfg := testConfig()
	cfg.Admin.JWTSecret = "s3cret-signing-key"
	cfg.Database.URL = "postgres://user:hunter2@db/facegate"
	handler := NewConfigHandler(cfg)

	recorder := httptest.NewRecorder()
	handler.Get(recorder, httptest.NewRequest("GET", "/api/v1/config", nil))

	body := recorder.Body.String()
	for _, secret := range []string{"s3cret", "hunter2"} {
		if strings.Contains(body, secret) {
			t.Errorf("response leaks %q: %s", secret, body)
		}
	}
}
