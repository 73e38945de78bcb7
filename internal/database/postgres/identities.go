package postgres

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/kozaktomas/facegate/internal/database"
	"github.com/kozaktomas/facegate/internal/encoding"
	"github.com/kozaktomas/facegate/internal/facematch"
)

const identityColumns = `id, card_id, name, email, classification, expires_at, encoding, created_at, updated_at`

// scanIdentity scans identityColumns, with optional extra scan destinations
// appended after them (e.g., a distance column).
func scanIdentity(scanner interface{ Scan(...any) error }, extraDest ...any) (database.Identity, error) {
	var identity database.Identity
	var classification string
	var expiresAt sql.NullTime

	dest := make([]any, 0, 9+len(extraDest))
	dest = append(dest,
		&identity.ID,
		&identity.CardID,
		&identity.Name,
		&identity.Email,
		&classification,
		&expiresAt,
		&identity.Encoding,
		&identity.CreatedAt,
		&identity.UpdatedAt,
	)
	dest = append(dest, extraDest...)

	if err := scanner.Scan(dest...); err != nil {
		return identity, fmt.Errorf("scan identity: %w", err)
	}

	identity.Classification = database.Classification(classification)
	if expiresAt.Valid {
		t := expiresAt.Time
		identity.ExpiresAt = &t
	}
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

// embeddingArg returns the pgvector value for an encoding, or nil (NULL) when
// the text does not pass the codec range check.
func embeddingArg(text string) *pgvector.Vector {
	values, err := encoding.Check(text)
	if err != nil {
		return nil
	}
	vec := pgvector.NewVector(values.Float32())
	return &vec
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

// GetIdentity retrieves an identity by ID, returns nil if not found
func (s *Store) GetIdentity(ctx context.Context, id string) (*database.Identity, error) {
	if uuid.Validate(id) != nil {
		return nil, nil
	}
	row := s.pool.QueryRow(ctx, `SELECT `+identityColumns+` FROM identities WHERE id = $1`, id)
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
	row := s.pool.QueryRow(ctx, `SELECT `+identityColumns+` FROM identities WHERE card_id = $1`, cardID)
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
	var exists bool
	var err error
	if uuid.Validate(excludingID) == nil {
		err = s.pool.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM identities WHERE card_id = $1 AND id <> $2)", cardID, excludingID,
		).Scan(&exists)
	} else {
		err = s.pool.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM identities WHERE card_id = $1)", cardID,
		).Scan(&exists)
	}
	if err != nil {
		return false, fmt.Errorf("check identity exists: %w", err)
	}
	return exists, nil
}

// ListIdentities returns all identities, newest first
func (s *Store) ListIdentities(ctx context.Context) ([]database.Identity, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+identityColumns+` FROM identities ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	defer rows.Close()
	return scanIdentities(rows)
}

// CountIdentities returns the number of identities
func (s *Store) CountIdentities(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM identities").Scan(&count); err != nil {
		return 0, fmt.Errorf("count identities: %w", err)
	}
	return count, nil
}

// LoadEligibleCandidates returns PERMANENT identities and unexpired TEMPORARY
// ones, in enrollment order.
func (s *Store) LoadEligibleCandidates(ctx context.Context, now time.Time) ([]database.Identity, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+identityColumns+`
		FROM identities
		WHERE classification = 'PERMANENT'
		   OR expires_at IS NULL
		   OR expires_at > $1
		ORDER BY created_at, id
	`, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("load candidates: %w", err)
	}
	defer rows.Close()
	return scanIdentities(rows)
}

// FindNearest returns up to limit identities ordered by L2 distance to enc.
// pgvector selects the neighbours; distances are recomputed exactly.
func (s *Store) FindNearest(ctx context.Context, enc encoding.Encoding, limit int) ([]database.NearestIdentity, error) {
	if limit <= 0 {
		return nil, nil
	}
	vec := pgvector.NewVector(enc.Float32())

	rows, err := s.pool.Query(ctx, `
		SELECT `+identityColumns+`
		FROM identities
		WHERE embedding IS NOT NULL
		ORDER BY embedding <-> $1
		LIMIT $2
	`, vec, limit)
	if err != nil {
		return nil, fmt.Errorf("find nearest: %w", err)
	}
	defer rows.Close()

	identities, err := scanIdentities(rows)
	if err != nil {
		return nil, err
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
	return results, nil
}

// CreateIdentity inserts identity, assigning ID and timestamps
func (s *Store) CreateIdentity(ctx context.Context, identity *database.Identity) error {
	id := uuid.NewString()
	now := s.timestamp()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO identities (id, card_id, name, email, classification, expires_at, encoding, embedding, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
	`, id, identity.CardID, identity.Name, identity.Email, string(identity.Classification),
		nullTime(identity.ExpiresAt), identity.Encoding, embeddingArg(identity.Encoding), now)
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
	if uuid.Validate(identity.ID) != nil {
		return database.ErrNotFound
	}
	now := s.timestamp()

	var createdAt time.Time
	err := s.pool.QueryRow(ctx, `
		UPDATE identities
		SET card_id = $2, name = $3, email = $4, classification = $5, expires_at = $6,
		    encoding = $7, embedding = $8, updated_at = $9
		WHERE id = $1
		RETURNING created_at
	`, identity.ID, identity.CardID, identity.Name, identity.Email, string(identity.Classification),
		nullTime(identity.ExpiresAt), identity.Encoding, embeddingArg(identity.Encoding), now,
	).Scan(&createdAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return database.ErrNotFound
	case isUniqueViolation(err):
		return database.ErrDuplicateIdentifier
	case err != nil:
		return fmt.Errorf("update identity: %w", err)
	}

	identity.CreatedAt = createdAt
	identity.UpdatedAt = now
	return nil
}

// DeleteIdentity removes an identity; scan events keep its ID
func (s *Store) DeleteIdentity(ctx context.Context, id string) error {
	if uuid.Validate(id) != nil {
		return database.ErrNotFound
	}
	result, err := s.pool.Exec(ctx, "DELETE FROM identities WHERE id = $1", id)
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
