package sqlstore

import (
	"context"
	"fmt"

	"github.com/kozaktomas/facegate/internal/database"
)

// Times are stored as Unix nanoseconds so both dialects keep full precision.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS identities (
		id             TEXT PRIMARY KEY,
		card_id        TEXT NOT NULL UNIQUE,
		name           TEXT NOT NULL,
		email          TEXT NOT NULL DEFAULT '',
		classification TEXT NOT NULL CHECK (classification IN ('PERMANENT', 'TEMPORARY')),
		expires_at     INTEGER,
		encoding       TEXT NOT NULL DEFAULT '',
		created_at     INTEGER NOT NULL,
		updated_at     INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_identities_enrollment ON identities (created_at, id)`,
	`CREATE TABLE IF NOT EXISTS scan_events (
		id          TEXT PRIMARY KEY,
		occurred_at INTEGER NOT NULL,
		status      TEXT NOT NULL CHECK (status IN ('IDENTIFIED', 'VISITOR', 'DENIED')),
		identity_id TEXT,
		confidence  REAL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_scan_events_occurred ON scan_events (occurred_at)`,
	`CREATE INDEX IF NOT EXISTS idx_scan_events_identity ON scan_events (identity_id, occurred_at)`,
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS identities (
		id             VARCHAR(36)  NOT NULL PRIMARY KEY,
		card_id        VARCHAR(255) NOT NULL,
		name           VARCHAR(255) NOT NULL,
		email          VARCHAR(255) NOT NULL DEFAULT '',
		classification VARCHAR(16)  NOT NULL,
		expires_at     BIGINT NULL,
		encoding       TEXT NOT NULL,
		created_at     BIGINT NOT NULL,
		updated_at     BIGINT NOT NULL,
		UNIQUE KEY uq_identities_card_id (card_id),
		KEY idx_identities_enrollment (created_at, id),
		CONSTRAINT chk_identities_classification CHECK (classification IN ('PERMANENT', 'TEMPORARY'))
	) DEFAULT CHARSET = utf8mb4`,
	`CREATE TABLE IF NOT EXISTS scan_events (
		id          VARCHAR(36) NOT NULL PRIMARY KEY,
		occurred_at BIGINT NOT NULL,
		status      VARCHAR(16) NOT NULL,
		identity_id VARCHAR(36) NULL,
		confidence  DOUBLE NULL,
		KEY idx_scan_events_occurred (occurred_at),
		KEY idx_scan_events_identity (identity_id, occurred_at),
		CONSTRAINT chk_scan_events_status CHECK (status IN ('IDENTIFIED', 'VISITOR', 'DENIED'))
	) DEFAULT CHARSET = utf8mb4`,
}

// ApplySchema creates the tables and indexes if they do not exist.
func (s *Store) ApplySchema(ctx context.Context) error {
	statements := sqliteSchema
	if s.driver == database.DriverMySQL {
		statements = mysqlSchema
	}
	for i, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
