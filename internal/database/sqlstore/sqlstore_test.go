package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kozaktomas/facegate/internal/config"
	"github.com/kozaktomas/facegate/internal/database"
	"github.com/kozaktomas/facegate/internal/encoding/encodingtest"
)

// openTestStore opens a private in-memory SQLite database with a clock that
// advances one second per call.
func openTestStore(t *testing.T) (*Store, *time.Time) {
	t.Helper()

	cfg := &config.DatabaseConfig{
		Driver: database.DriverSQLite,
		URL:    fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()),
	}
	s, err := open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	clock := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return s, &clock
}

func mustCreate(t *testing.T, s *Store, identity *database.Identity) *database.Identity {
	t.Helper()
	require.NoError(t, s.CreateIdentity(context.Background(), identity))
	return identity
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), &config.DatabaseConfig{Driver: "oracle", URL: "x"})
	assert.ErrorIs(t, err, database.ErrUnknownDriver)

	_, err = Open(context.Background(), &config.DatabaseConfig{Driver: database.DriverSQLite})
	assert.Error(t, err)
}

func TestApplySchema_Idempotent(t *testing.T) {
	s, _ := openTestStore(t)
	require.NoError(t, s.ApplySchema(context.Background()))
	assert.Equal(t, database.DriverSQLite, s.Driver())
}

func TestIdentityCRUD(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	expires := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	alice := mustCreate(t, s, &database.Identity{
		CardID: "CARD-001", Name: "Alice", Email: "alice@example.com",
		Classification: database.ClassTemporary, ExpiresAt: &expires,
		Encoding: encodingtest.Text(t, encodingtest.FromSeed("alice")),
	})
	require.NotEmpty(t, alice.ID)
	assert.False(t, alice.CreatedAt.IsZero())

	got, err := s.GetIdentity(ctx, alice.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Alice", got.Name)
	assert.Equal(t, "alice@example.com", got.Email)
	assert.Equal(t, database.ClassTemporary, got.Classification)
	require.NotNil(t, got.ExpiresAt)
	assert.True(t, got.ExpiresAt.Equal(expires))
	assert.Equal(t, alice.Encoding, got.Encoding)
	assert.True(t, got.CreatedAt.Equal(alice.CreatedAt))

	missing, err := s.GetIdentity(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	byCard, err := s.FindIdentityByCardID(ctx, "CARD-001")
	require.NoError(t, err)
	require.NotNil(t, byCard)
	assert.Equal(t, alice.ID, byCard.ID)

	got.Name = "Alice Updated"
	got.ExpiresAt = nil
	require.NoError(t, s.UpdateIdentity(ctx, got))
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))

	reread, err := s.GetIdentity(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice Updated", reread.Name)
	assert.Nil(t, reread.ExpiresAt)

	count, err := s.CountIdentities(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, s.DeleteIdentity(ctx, alice.ID))
	assert.ErrorIs(t, s.DeleteIdentity(ctx, alice.ID), database.ErrNotFound)
	assert.ErrorIs(t, s.UpdateIdentity(ctx, got), database.ErrNotFound)
}

func TestDuplicateCardID(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	first := mustCreate(t, s, &database.Identity{CardID: "CARD-1", Name: "First", Classification: database.ClassPermanent})
	second := mustCreate(t, s, &database.Identity{CardID: "CARD-2", Name: "Second", Classification: database.ClassPermanent})

	err := s.CreateIdentity(ctx, &database.Identity{CardID: "CARD-1", Name: "Impostor", Classification: database.ClassPermanent})
	assert.ErrorIs(t, err, database.ErrDuplicateIdentifier)

	changed := *second
	changed.CardID = "CARD-1"
	changed.Name = "Renamed"
	assert.ErrorIs(t, s.UpdateIdentity(ctx, &changed), database.ErrDuplicateIdentifier)

	reread, err := s.GetIdentity(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, "CARD-2", reread.CardID)
	assert.Equal(t, "Second", reread.Name)

	exists, err := s.IdentityExists(ctx, "CARD-1", "")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = s.IdentityExists(ctx, "CARD-1", first.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	// Keeping the same card ID on update is not a conflict.
	first.Name = "First Renamed"
	assert.NoError(t, s.UpdateIdentity(ctx, first))
}

func TestListAndCandidates(t *testing.T) {
	s, clock := openTestStore(t)
	ctx := context.Background()

	past := clock.Add(-time.Hour)
	future := clock.Add(24 * time.Hour)

	permanent := mustCreate(t, s, &database.Identity{CardID: "P", Name: "Permanent", Classification: database.ClassPermanent})
	expired := mustCreate(t, s, &database.Identity{CardID: "E", Name: "Expired", Classification: database.ClassTemporary, ExpiresAt: &past})
	visitor := mustCreate(t, s, &database.Identity{CardID: "V", Name: "Visitor", Classification: database.ClassTemporary, ExpiresAt: &future})
	unbounded := mustCreate(t, s, &database.Identity{CardID: "O", Name: "Open Visitor", Classification: database.ClassTemporary})

	all, err := s.ListIdentities(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, unbounded.ID, all[0].ID, "newest first")
	assert.Equal(t, permanent.ID, all[3].ID)

	candidates, err := s.LoadEligibleCandidates(ctx, *clock)
	require.NoError(t, err)
	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{permanent.ID, visitor.ID, unbounded.ID}, ids, "enrollment order without expired")
	assert.NotContains(t, ids, expired.ID)

	// Expiry is exclusive: at the expiry instant the visitor is out.
	later, err := s.LoadEligibleCandidates(ctx, future)
	require.NoError(t, err)
	assert.Len(t, later, 2)
}

func TestFindNearest(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	base := encodingtest.Zero()
	near := mustCreate(t, s, &database.Identity{CardID: "N", Name: "Near", Classification: database.ClassPermanent,
		Encoding: encodingtest.Text(t, encodingtest.Offset(base, 0, 0.1))})
	mustCreate(t, s, &database.Identity{CardID: "F", Name: "Far", Classification: database.ClassPermanent,
		Encoding: encodingtest.Text(t, encodingtest.Offset(base, 0, 0.5))})
	mustCreate(t, s, &database.Identity{CardID: "X", Name: "No encoding", Classification: database.ClassPermanent})
	legacy := encodingtest.Offset(base, 0, 0.05)
	legacy[1] = 1.2
	mustCreate(t, s, &database.Identity{CardID: "L", Name: "Out of range", Classification: database.ClassPermanent,
		Encoding: encodingtest.Text(t, legacy)})

	results, err := s.FindNearest(ctx, base, 5)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, near.ID, results[0].Identity.ID)
	assert.InDelta(t, 0.1, results[0].Distance, 1e-12)
	assert.InDelta(t, 0.5, results[1].Distance, 1e-12)

	results, err = s.FindNearest(ctx, base, 1)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestScanEvents(t *testing.T) {
	s, clock := openTestStore(t)
	ctx := context.Background()

	alice := mustCreate(t, s, &database.Identity{CardID: "A", Name: "Alice", Classification: database.ClassPermanent})
	confidence := 0.87

	start := *clock
	for i := range 3 {
		_, err := s.AppendScanEvent(ctx, &database.ScanEvent{
			Status: database.StatusIdentified, IdentityID: &alice.ID, Confidence: &confidence,
		})
		require.NoError(t, err, "append %d", i)
	}
	deniedID, err := s.AppendScanEvent(ctx, &database.ScanEvent{Status: database.StatusDenied})
	require.NoError(t, err)
	require.NotEmpty(t, deniedID)

	events, err := s.ListScanEvents(ctx, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, deniedID, events[0].ID)
	assert.Nil(t, events[0].IdentityID)
	assert.Nil(t, events[0].Confidence)
	require.NotNil(t, events[1].Identity)
	assert.Equal(t, "Alice", events[1].Identity.Name)
	require.NotNil(t, events[1].Confidence)
	assert.InDelta(t, 0.87, *events[1].Confidence, 1e-12)

	own, err := s.ListIdentityEvents(ctx, alice.ID, 5)
	require.NoError(t, err)
	assert.Len(t, own, 3)

	stats, err := s.EventStats(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, database.EventStats{Total: 4, Identified: 3, Denied: 1}, stats)

	since := start.Add(3 * time.Second)
	recent, err := s.EventStats(ctx, &since)
	require.NoError(t, err)
	assert.Equal(t, 2, recent.Total)

	// Deleting the identity keeps its events with a dangling reference.
	require.NoError(t, s.DeleteIdentity(ctx, alice.ID))
	own, err = s.ListIdentityEvents(ctx, alice.ID, 5)
	require.NoError(t, err)
	require.Len(t, own, 3)
	assert.Nil(t, own[0].Identity)
	assert.Equal(t, alice.ID, *own[0].IdentityID)
}

func TestAppendScanEvent_RejectsUnknownStatus(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	for _, status := range []database.AccessStatus{"", "GRANTED", "identified"} {
		_, err := s.AppendScanEvent(ctx, &database.ScanEvent{Status: status})
		assert.ErrorIs(t, err, database.ErrInvalidStatus, "status %q", status)
	}

	stats, err := s.EventStats(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, stats.Total)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, isUniqueViolation(nil))
	assert.False(t, isUniqueViolation(errors.New("disk I/O error")))
	assert.True(t, isUniqueViolation(errors.New("constraint failed: UNIQUE constraint failed: identities.card_id (2067)")))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})))
	assert.False(t, isUniqueViolation(&mysql.MySQLError{Number: 1452, Message: "foreign key"}))
}
