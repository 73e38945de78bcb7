package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kozaktomas/facegate/internal/database"
)

const eventSelect = `
	SELECT e.id, e.occurred_at, e.status, e.identity_id, e.confidence,
	       i.id, i.card_id, i.name, i.email, i.classification, i.expires_at, i.created_at, i.updated_at
	FROM scan_events e
	LEFT JOIN identities i ON i.id = e.identity_id
`

func scanEvent(scanner interface{ Scan(...any) error }) (database.ScanEvent, error) {
	var event database.ScanEvent
	var occurredAt int64
	var status string
	var identityID sql.NullString
	var confidence sql.NullFloat64
	var joinedID, cardID, name, email, classification sql.NullString
	var expiresAt, createdAt, updatedAt sql.NullInt64

	err := scanner.Scan(
		&event.ID, &occurredAt, &status, &identityID, &confidence,
		&joinedID, &cardID, &name, &email, &classification, &expiresAt, &createdAt, &updatedAt,
	)
	if err != nil {
		return event, fmt.Errorf("scan event: %w", err)
	}

	event.Timestamp = fromNanos(occurredAt)
	event.Status = database.AccessStatus(status)
	if identityID.Valid {
		id := identityID.String
		event.IdentityID = &id
	}
	if confidence.Valid {
		c := confidence.Float64
		event.Confidence = &c
	}
	if joinedID.Valid {
		identity := &database.Identity{
			ID:             joinedID.String,
			CardID:         cardID.String,
			Name:           name.String,
			Email:          email.String,
			Classification: database.Classification(classification.String),
			CreatedAt:      fromNanos(createdAt.Int64),
			UpdatedAt:      fromNanos(updatedAt.Int64),
		}
		if expiresAt.Valid {
			t := fromNanos(expiresAt.Int64)
			identity.ExpiresAt = &t
		}
		event.Identity = identity
	}
	return event, nil
}

func (s *Store) queryEvents(ctx context.Context, query string, args ...any) ([]database.ScanEvent, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []database.ScanEvent
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// AppendScanEvent stores event and returns its ID
func (s *Store) AppendScanEvent(ctx context.Context, event *database.ScanEvent) (string, error) {
	if !event.Status.Valid() {
		return "", fmt.Errorf("%w: %q", database.ErrInvalidStatus, event.Status)
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now().UTC()
	}

	var identityID sql.NullString
	if event.IdentityID != nil {
		identityID = sql.NullString{String: *event.IdentityID, Valid: true}
	}
	var confidence sql.NullFloat64
	if event.Confidence != nil {
		confidence = sql.NullFloat64{Float64: *event.Confidence, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scan_events (id, occurred_at, status, identity_id, confidence)
		VALUES (?, ?, ?, ?, ?)
	`, event.ID, toNanos(event.Timestamp), string(event.Status), identityID, confidence)
	if err != nil {
		return "", fmt.Errorf("append scan event: %w", err)
	}
	return event.ID, nil
}

// ListScanEvents returns the most recent events, newest first
func (s *Store) ListScanEvents(ctx context.Context, limit int) ([]database.ScanEvent, error) {
	events, err := s.queryEvents(ctx, eventSelect+`
		ORDER BY e.occurred_at DESC, e.id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list scan events: %w", err)
	}
	return events, nil
}

// ListIdentityEvents returns the most recent events for one identity, newest first
func (s *Store) ListIdentityEvents(ctx context.Context, identityID string, limit int) ([]database.ScanEvent, error) {
	events, err := s.queryEvents(ctx, eventSelect+`
		WHERE e.identity_id = ?
		ORDER BY e.occurred_at DESC, e.id DESC
		LIMIT ?
	`, identityID, limit)
	if err != nil {
		return nil, fmt.Errorf("list identity events: %w", err)
	}
	return events, nil
}

// EventStats counts events by status, optionally only those at or after since
func (s *Store) EventStats(ctx context.Context, since *time.Time) (database.EventStats, error) {
	var stats database.EventStats

	query := "SELECT status, COUNT(*) FROM scan_events GROUP BY status"
	args := []any{}
	if since != nil {
		query = "SELECT status, COUNT(*) FROM scan_events WHERE occurred_at >= ? GROUP BY status"
		args = append(args, toNanos(*since))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return stats, fmt.Errorf("event stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return stats, fmt.Errorf("scan event stats: %w", err)
		}
		stats.Add(database.AccessStatus(status), count)
	}
	if err := rows.Err(); err != nil {
		return stats, fmt.Errorf("iterate event stats: %w", err)
	}
	return stats, nil
}
