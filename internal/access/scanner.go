package access

import (
	"context"
	"log/slog"
	"time"

	"github.com/kozaktomas/facegate/internal/database"
	"github.com/kozaktomas/facegate/internal/encoding"
	"github.com/kozaktomas/facegate/internal/facematch"
	"github.com/kozaktomas/facegate/internal/metrics"
)

// CandidateLoader supplies the match candidate set
type CandidateLoader interface {
	LoadEligibleCandidates(ctx context.Context, now time.Time) ([]database.Identity, error)
}

// EventAppender records scan outcomes
type EventAppender interface {
	AppendScanEvent(ctx context.Context, event *database.ScanEvent) (string, error)
}

// ScanStore is the storage a Scanner needs
type ScanStore interface {
	CandidateLoader
	EventAppender
}

// ScanResult is the outcome of one scan. Identity, Confidence, Distance and
// Quality are set only when a candidate was accepted.
type ScanResult struct {
	EventID    string                `json:"event_id"`
	Status     database.AccessStatus `json:"status"`
	Identity   *database.Identity    `json:"identity,omitempty"`
	Confidence *float64              `json:"confidence,omitempty"`
	Distance   *float64              `json:"distance,omitempty"`
	Quality    string                `json:"quality,omitempty"`
	Timestamp  time.Time             `json:"timestamp"`
}

// Scanner runs the scan pipeline: validate, load candidates, match, decide,
// record. It holds no mutable state and is safe for concurrent use.
type Scanner struct {
	store   ScanStore
	matcher facematch.Matcher
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewScanner creates a scanner. m may be nil.
func NewScanner(store ScanStore, matcher facematch.Matcher, m *metrics.Metrics, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{
		store:   store,
		matcher: matcher,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// Threshold returns the matcher's acceptance threshold.
func (s *Scanner) Threshold() float64 {
	return s.matcher.Threshold
}

// Scan evaluates one presented encoding and appends exactly one event on
// success. A format error or storage failure returns an error and writes nothing.
func (s *Scanner) Scan(ctx context.Context, text string) (*ScanResult, error) {
	start := time.Now()

	input, err := encoding.Check(text)
	if err != nil {
		s.metrics.IncrementRejected("format")
		return nil, err
	}

	now := s.now().UTC()
	loaded, err := s.store.LoadEligibleCandidates(ctx, now)
	if err != nil {
		s.metrics.IncrementRejected("storage")
		s.logger.Error("scan failed", "op", "load candidates", "error", err)
		return nil, &StorageError{Op: "load candidates", Err: err}
	}
	candidates := database.EligibleCandidates(loaded, now)
	s.metrics.ObserveCandidates(len(candidates))

	match := s.matcher.Match(input, candidates)
	status := Decide(match)

	event := &database.ScanEvent{Timestamp: now, Status: status}
	if match != nil {
		id := match.Identity.ID
		confidence := match.Confidence
		event.IdentityID = &id
		event.Confidence = &confidence
	}

	eventID, err := s.store.AppendScanEvent(ctx, event)
	if err != nil {
		s.metrics.IncrementRejected("storage")
		s.logger.Error("scan failed", "op", "append event", "status", status, "error", err)
		return nil, &StorageError{Op: "append event", Err: err}
	}

	result := &ScanResult{
		EventID:   eventID,
		Status:    status,
		Timestamp: now,
	}
	if match != nil {
		identity := match.Identity
		confidence := match.Confidence
		distance := match.Distance
		result.Identity = &identity
		result.Confidence = &confidence
		result.Distance = &distance
		result.Quality = facematch.QualityLabel(confidence)
		s.metrics.ObserveConfidence(confidence)
	}

	s.metrics.IncrementOutcome(string(status))
	s.metrics.ObserveScanLatency(time.Since(start))

	attrs := []any{"event_id", eventID, "status", status, "candidates", len(candidates)}
	if match != nil {
		attrs = append(attrs, "identity_id", match.Identity.ID, "confidence", match.Confidence)
	}
	s.logger.Info("scan completed", attrs...)

	return result, nil
}
