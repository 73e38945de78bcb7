package sqlstore

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/kozaktomas/facegate/internal/database"
	"github.com/kozaktomas/facegate/internal/encoding"
	"github.com/kozaktomas/facegate/internal/facematch"
)

const identityColumns = `id, card_id, name, email, classification, expires_at, encoding, created_at, updated_at`

func scanIdentity(scanner interface{ Scan(...any) error }) (database.Identity, error) {
	var identity database.Identity
	var classification string
	var expiresAt sql.NullInt64
	var createdAt, updatedAt int64

	err := scanner.Scan(
		&identity.ID, &identity.CardID, &identity.Name, &identity.Email, &classification,
		&expiresAt, &identity.Encoding, &createdAt, &updatedAt,
	)
	if err != nil {
		return identity, fmt.Errorf("scan identity: %w", err)
	}

	identity.Classification = database.Classification(classification)
	if expiresAt.Valid {
		t := fromNanos(expiresAt.Int64)
		identity.ExpiresAt = &t
	}
	identity.CreatedAt = fromNanos(createdAt)
	identity.UpdatedAt = fromNanos(updatedAt)
	return identity, nil
}

func scanIdentities(rows *sql.Rows) ([]database.Identity, error) {
	var identities []database.Identity
	for rows.Next() {
		identity, err := scanIdentity(rows)
		if err != nil {
			return nil, err
		}
		identities = append(identities, identity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate identities: %w", err)
	}
	return identities, nil
}

func (s *Store) queryIdentities(ctx context.Context, query string, args ...any) ([]database.Identity, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIdentities(rows)
}

// GetIdentity retrieves an identity by ID, returns nil if not found
func (s *Store) GetIdentity(ctx context.Context, id string) (*database.Identity, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+identityColumns+` FROM identities WHERE id = ?`, id)
	identity, err := scanIdentity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get identity: %w", err)
	}
	return &identity, nil
}

// FindIdentityByCardID retrieves an identity by card ID, returns nil if not found
func (s *Store) FindIdentityByCardID(ctx context.Context, cardID string) (*database.Identity, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+identityColumns+` FROM identities WHERE card_id = ?`, cardID)
	identity, err := scanIdentity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find identity by card id: %w", err)
	}
	return &identity, nil
}

// IdentityExists checks whether cardID is taken by an identity other than excludingID
func (s *Store) IdentityExists(ctx context.Context, cardID, excludingID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM identities WHERE card_id = ? AND id <> ?", cardID, excludingID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check identity exists: %w", err)
	}
	return count > 0, nil
}

// ListIdentities returns all identities, newest first
func (s *Store) ListIdentities(ctx context.Context) ([]database.Identity, error) {
	identities, err := s.queryIdentities(ctx, `SELECT `+identityColumns+` FROM identities ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	return identities, nil
}

// CountIdentities returns the number of identities
func (s *Store) CountIdentities(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM identities").Scan(&count); err != nil {
		return 0, fmt.Errorf("count identities: %w", err)
	}
	return count, nil
}

// LoadEligibleCandidates returns PERMANENT identities and unexpired TEMPORARY
// ones, in enrollment order.
func (s *Store) LoadEligibleCandidates(ctx context.Context, now time.Time) ([]database.Identity, error) {
	identities, err := s.queryIdentities(ctx, `
		SELECT `+identityColumns+`
		FROM identities
		WHERE classification = 'PERMANENT'
		   OR expires_at IS NULL
		   OR expires_at > ?
		ORDER BY created_at, id
	`, toNanos(now))
	if err != nil {
		return nil, fmt.Errorf("load candidates: %w", err)
	}
	return identities, nil
}

// FindNearest ranks every decodable identity by exact distance to enc.
func (s *Store) FindNearest(ctx context.Context, enc encoding.Encoding, limit int) ([]database.NearestIdentity, error) {
	if limit <= 0 {
		return nil, nil
	}
	identities, err := s.queryIdentities(ctx, `SELECT `+identityColumns+` FROM identities WHERE encoding <> '' ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("find nearest: %w", err)
	}

	results := make([]database.NearestIdentity, 0, len(identities))
	for _, identity := range identities {
		stored, err := encoding.Check(identity.Encoding)
		if err != nil {
			continue
		}
		results = append(results, database.NearestIdentity{
			Identity: identity,
			Distance: facematch.Distance(enc, stored),
		})
	}
	slices.SortStableFunc(results, func(a, b database.NearestIdentity) int {
		return cmp.Compare(a.Distance, b.Distance)
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// CreateIdentity inserts identity, assigning ID and timestamps
func (s *Store) CreateIdentity(ctx context.Context, identity *database.Identity) error {
	id := uuid.NewString()
	now := s.now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO identities (id, card_id, name, email, classification, expires_at, encoding, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, identity.CardID, identity.Name, identity.Email, string(identity.Classification),
		nullNanos(identity.ExpiresAt), identity.Encoding, toNanos(now), toNanos(now))
	if isUniqueViolation(err) {
		return database.ErrDuplicateIdentifier
	}
	if err != nil {
		return fmt.Errorf("insert identity: %w", err)
	}

	identity.ID = id
	identity.CreatedAt = now
	identity.UpdatedAt = now
	return nil
}

// UpdateIdentity replaces the mutable fields of an existing identity
func (s *Store) UpdateIdentity(ctx context.Context, identity *database.Identity) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var createdAt int64
	err = tx.QueryRowContext(ctx, "SELECT created_at FROM identities WHERE id = ?", identity.ID).Scan(&createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return database.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load identity: %w", err)
	}

	now := s.now().UTC()
	_, err = tx.ExecContext(ctx, `
		UPDATE identities
		SET card_id = ?, name = ?, email = ?, classification = ?, expires_at = ?, encoding = ?, updated_at = ?
		WHERE id = ?
	`, identity.CardID, identity.Name, identity.Email, string(identity.Classification),
		nullNanos(identity.ExpiresAt), identity.Encoding, toNanos(now), identity.ID)
	if isUniqueViolation(err) {
		return database.ErrDuplicateIdentifier
	}
	if err != nil {
		return fmt.Errorf("update identity: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	identity.CreatedAt = fromNanos(createdAt)
	identity.UpdatedAt = now
	return nil
}

// DeleteIdentity removes an identity; scan events keep its ID
func (s *Store) DeleteIdentity(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM identities WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	if n == 0 {
		return database.ErrNotFound
	}
	return nil
}
