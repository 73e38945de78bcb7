package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/facegate/internal/database"
	"github.com/kozaktomas/facegate/internal/encoding/encodingtest"
)

func TestEventsHandler_List(t *testing.T) {
	store, scanner, registry := testServices()
	enc := encodingtest.Text(t, encodingtest.FromSeed("regular"))
	seedIdentity(store, "CARD-1", "Regular", enc)

	for _, text := range []string{enc, encodingtest.Text(t, encodingtest.Random(1)), enc} {
		if _, err := scanner.Scan(t.Context(), text); err != nil {
			t.Fatalf("Scan() error = %v", err)
		}
	}

	handler := NewEventsHandler(registry, testLogger())

	tests := []struct {
		name      string
		query     string
		wantCount int
		wantLimit int
	}{
		{"default limit", "", 3, database.DefaultEventLimit},
		{"explicit limit", "?limit=2", 2, 2},
		{"capped limit", "?limit=100000", 3, database.MaxEventLimit},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			handler.List(recorder, httptest.NewRequest("GET", "/api/v1/events"+tc.query, nil))

			assertStatusCode(t, recorder, http.StatusOK)
			var result EventListResponse
			parseJSONResponse(t, recorder, &result)
			if len(result.Events) != tc.wantCount {
				t.Errorf("expected %d events, got %d", tc.wantCount, len(result.Events))
			}
			if result.Limit != tc.wantLimit {
				t.Errorf("expected limit %d, got %d", tc.wantLimit, result.Limit)
			}
		})
	}

	recorder := httptest.NewRecorder()
	handler.List(recorder, httptest.NewRequest("GET", "/api/v1/events?limit=ten", nil))
	assertStatusCode(t, recorder, http.StatusBadRequest)
}

func TestEventsHandler_List_EmptyIsArray(t *testing.T) {
	_, _, registry := testServices()
	handler := NewEventsHandler(registry, testLogger())

	recorder := httptest.NewRecorder()
	handler.List(recorder, httptest.NewRequest("GET", "/api/v1/events", nil))

	var result map[string]any
	parseJSONResponse(t, recorder, &result)
	if events, ok := result["events"].([]any); !ok || len(events) != 0 {
		t.Errorf("expected empty events array, got %v", result["events"])
	}
}

func TestEventsHandler_Stats(t *testing.T) {
	store, scanner, registry := testServices()
	enc := encodingtest.Text(t, encodingtest.FromSeed("stats"))
	seedIdentity(store, "CARD-1", "Stats", enc)

	for _, text := range []string{enc, encodingtest.Text(t, encodingtest.Random(2))} {
		if _, err := scanner.Scan(t.Context(), text); err != nil {
			t.Fatalf("Scan() error = %v", err)
		}
	}

	handler := NewEventsHandler(registry, testLogger())

	recorder := httptest.NewRecorder()
	handler.Stats(recorder, httptest.NewRequest("GET", "/api/v1/events/stats", nil))
	assertStatusCode(t, recorder, http.StatusOK)
	var stats database.EventStats
	parseJSONResponse(t, recorder, &stats)
	if stats != (database.EventStats{Total: 2, Identified: 1, Denied: 1}) {
		t.Errorf("unexpected stats %+v", stats)
	}

	recorder = httptest.NewRecorder()
	handler.Stats(recorder, httptest.NewRequest("GET", "/api/v1/events/stats?since=2999-01-01T00:00:00Z", nil))
	parseJSONResponse(t, recorder, &stats)
	if stats.Total != 0 {
		t.Errorf("expected no events in the future, got %d", stats.Total)
	}

	recorder = httptest.NewRecorder()
	handler.Stats(recorder, httptest.NewRequest("GET", "/api/v1/events/stats?since=yesterday", nil))
	assertStatusCode(t, recorder, http.StatusBadRequest)

	store.StatsError = errors.New("timeout")
	recorder = httptest.NewRecorder()
	handler.Stats(recorder, httptest.NewRequest("GET", "/api/v1/events/stats", nil))
	assertStatusCode(t, recorder, http.StatusServiceUnavailable)
}
