package database

import (
	"context"
	"time"

	"github.com/kozaktomas/facegate/internal/encoding"
)

// IdentityReader provides read-only access to the identity directory
type IdentityReader interface {
	// GetIdentity retrieves an identity by ID, returns nil if not found
	GetIdentity(ctx context.Context, id string) (*Identity, error)
	// FindIdentityByCardID retrieves an identity by card ID, returns nil if not found
	FindIdentityByCardID(ctx context.Context, cardID string) (*Identity, error)
	// IdentityExists checks whether cardID is taken by any identity other than excludingID
	IdentityExists(ctx context.Context, cardID, excludingID string) (bool, error)
	// ListIdentities returns every identity, newest first
	ListIdentities(ctx context.Context) ([]Identity, error)
	// CountIdentities returns the number of enrolled identities
	CountIdentities(ctx context.Context) (int, error)
	// LoadEligibleCandidates returns the match candidate set at now, in enrollment order
	LoadEligibleCandidates(ctx context.Context, now time.Time) ([]Identity, error)
	// FindNearest returns up to limit identities ordered by L2 distance to enc
	FindNearest(ctx context.Context, enc encoding.Encoding, limit int) ([]NearestIdentity, error)
}

// IdentityWriter provides write access to the identity directory
type IdentityWriter interface {
	IdentityReader

	// CreateIdentity inserts identity, assigning ID and timestamps.
	// Returns ErrDuplicateIdentifier when the card ID is taken.
	CreateIdentity(ctx context.Context, identity *Identity) error

	// UpdateIdentity replaces the mutable fields of an existing identity.
	// Returns ErrNotFound or ErrDuplicateIdentifier; nothing is written on error.
	UpdateIdentity(ctx context.Context, identity *Identity) error

	// DeleteIdentity removes an identity. Scan events that reference it are kept.
	DeleteIdentity(ctx context.Context, id string) error
}

// EventReader provides read-only access to the scan audit log
type EventReader interface {
	// ListScanEvents returns the most recent events, newest first
	ListScanEvents(ctx context.Context, limit int) ([]ScanEvent, error)
	// ListIdentityEvents returns the most recent events for one identity, newest first
	ListIdentityEvents(ctx context.Context, identityID string, limit int) ([]ScanEvent, error)
	// EventStats counts events by status, optionally only those at or after since
	EventStats(ctx context.Context, since *time.Time) (EventStats, error)
}

// EventWriter appends to the scan audit log. There is no update or delete.
type EventWriter interface {
	EventReader

	// AppendScanEvent stores event, assigning ID and timestamp when empty, and returns the ID
	AppendScanEvent(ctx context.Context, event *ScanEvent) (string, error)
}

// Store is a complete storage backend
type Store interface {
	IdentityWriter
	EventWriter

	// Driver names the backend ("postgres", "sqlite", "mysql", "mock")
	Driver() string
	Close() error
}
