package web

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kozaktomas/facegate/internal/auth"
	"github.com/kozaktomas/facegate/internal/config"
	"github.com/kozaktomas/facegate/internal/database"
	"github.com/kozaktomas/facegate/internal/database/mock"
	"github.com/kozaktomas/facegate/internal/encoding/encodingtest"
	"github.com/kozaktomas/facegate/internal/metrics"
)

const testSecret = "route-test-secret"

func newTestServer(t *testing.T, secret string) (*Server, *mock.MockStore) {
	t.Helper()
	cfg := &config.Config{
		Database: config.DatabaseConfig{Driver: "sqlite", URL: "file::memory:"},
		Match:    config.MatchConfig{Threshold: 0.6, LookalikeMaxDistance: 0.4},
		Admin:    config.AdminConfig{JWTSecret: secret, JWTIssuer: "facegate"},
	}
	store := mock.NewMockStore()
	reg := prometheus.NewRegistry()
	s := NewServer(cfg, "127.0.0.1", 0, Dependencies{
		Store:    store,
		Metrics:  metrics.New(reg),
		Gatherer: reg,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return s, store
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	s.Router().ServeHTTP(recorder, req)
	return recorder
}

func TestRoutes_OpenEndpoints(t *testing.T) {
	s, store := newTestServer(t, testSecret)
	enc := encodingtest.Text(t, encodingtest.FromSeed("kiosk"))
	store.AddIdentity(database.Identity{CardID: "K-1", Name: "Kiosk User", Classification: database.ClassPermanent, Encoding: enc})

	recorder := serve(s, httptest.NewRequest("GET", "/api/v1/health", nil))
	if recorder.Code != http.StatusOK {
		t.Errorf("health: expected 200, got %d", recorder.Code)
	}

	body := strings.NewReader(`{"face_encoding":"` + enc + `"}`)
	recorder = serve(s, httptest.NewRequest("POST", "/api/v1/scan", body))
	if recorder.Code != http.StatusOK {
		t.Fatalf("scan: expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	var result map[string]any
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse scan response: %v", err)
	}
	if result["status"] != "IDENTIFIED" {
		t.Errorf("expected IDENTIFIED, got %v", result["status"])
	}

	recorder = serve(s, httptest.NewRequest("GET", "/metrics", nil))
	if recorder.Code != http.StatusOK {
		t.Fatalf("metrics: expected 200, got %d", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), `facegate_scan_outcomes_total{status="IDENTIFIED"} 1`) {
		t.Errorf("metrics output missing scan counter:\n%s", recorder.Body.String())
	}
}

func TestRoutes_AdminRequiresToken(t *testing.T) {
	s, _ := newTestServer(t, testSecret)

	adminRoutes := []struct {
		method string
		path   string
	}{
		{"GET", "/api/v1/identities"},
		{"POST", "/api/v1/identities"},
		{"GET", "/api/v1/identities/lookalikes"},
		{"GET", "/api/v1/identities/abc"},
		{"DELETE", "/api/v1/identities/abc"},
		{"GET", "/api/v1/events"},
		{"GET", "/api/v1/events/stats"},
		{"POST", "/api/v1/encodings/validate"},
		{"GET", "/api/v1/config"},
	}

	for _, route := range adminRoutes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			recorder := serve(s, httptest.NewRequest(route.method, route.path, nil))
			if recorder.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", recorder.Code)
			}
		})
	}
}

func TestRoutes_AdminWithToken(t *testing.T) {
	s, _ := newTestServer(t, testSecret)
	token, err := auth.NewTokenService(testSecret, "facegate").IssueAdminToken("ops", time.Hour)
	if err != nil {
		t.Fatalf("IssueAdminToken() error = %v", err)
	}

	req := httptest.NewRequest("GET", "/api/v1/identities", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	recorder := serve(s, req)
	if recorder.Code != http.StatusOK {
		t.Errorf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	req = httptest.NewRequest("GET", "/api/v1/identities/lookalikes", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	recorder = serve(s, req)
	if recorder.Code != http.StatusOK {
		t.Errorf("lookalikes must not be captured by /identities/{id}: got %d", recorder.Code)
	}
}

func TestRoutes_AuthDisabled(t *testing.T) {
	s, _ := newTestServer(t, "")

	recorder := serve(s, httptest.NewRequest("GET", "/api/v1/config", nil))
	if recorder.Code != http.StatusOK {
		t.Errorf("expected 200 without a configured secret, got %d", recorder.Code)
	}
	if recorder.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("expected security headers")
	}
}
