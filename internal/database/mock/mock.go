// Package mock provides an in-memory implementation of database.Store for testing.
package mock

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kozaktomas/facegate/internal/database"
	"github.com/kozaktomas/facegate/internal/encoding"
	"github.com/kozaktomas/facegate/internal/facematch"
)

// MockStore is a mock implementation of database.Store.
// Identities are kept in enrollment order; events in append order.
type MockStore struct {
	mu         sync.RWMutex
	identities []*database.Identity
	events     []database.ScanEvent

	// Now stamps created records; defaults to time.Now
	Now func() time.Time

	// Error injection
	GetError        error
	FindError       error
	ExistsError     error
	ListError       error
	CountError      error
	CandidatesError error
	NearestError    error
	CreateError     error
	UpdateError     error
	DeleteError     error
	AppendError     error
	EventsError     error
	StatsError      error

	// Call counters
	AppendCalls     int
	CandidatesCalls int
}

var _ database.Store = (*MockStore)(nil)

// NewMockStore creates an empty mock store
func NewMockStore() *MockStore {
	return &MockStore{Now: time.Now}
}

func (m *MockStore) now() time.Time {
	if m.Now == nil {
		return time.Now()
	}
	return m.Now()
}

// Driver returns "mock"
func (m *MockStore) Driver() string { return "mock" }

// Close is a no-op
func (m *MockStore) Close() error { return nil }

// AddIdentity stores identity as-is, bypassing uniqueness checks. Missing
// IDs and timestamps are filled in.
func (m *MockStore) AddIdentity(identity database.Identity) *database.Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	if identity.ID == "" {
		identity.ID = uuid.NewString()
	}
	if identity.CreatedAt.IsZero() {
		identity.CreatedAt = m.now()
	}
	if identity.UpdatedAt.IsZero() {
		identity.UpdatedAt = identity.CreatedAt
	}
	stored := identity
	m.identities = append(m.identities, &stored)
	return &stored
}

// Events returns a copy of all appended events, oldest first
func (m *MockStore) Events() []database.ScanEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.events)
}

func (m *MockStore) find(id string) (int, *database.Identity) {
	for i, identity := range m.identities {
		if identity.ID == id {
			return i, identity
		}
	}
	return -1, nil
}

func (m *MockStore) cardTaken(cardID, excludingID string) bool {
	for _, identity := range m.identities {
		if identity.CardID == cardID && identity.ID != excludingID {
			return true
		}
	}
	return false
}

// GetIdentity retrieves an identity by ID
func (m *MockStore) GetIdentity(ctx context.Context, id string) (*database.Identity, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, identity := m.find(id); identity != nil {
		result := *identity
		return &result, nil
	}
	return nil, nil
}

// FindIdentityByCardID retrieves an identity by card ID
func (m *MockStore) FindIdentityByCardID(ctx context.Context, cardID string) (*database.Identity, error) {
	if m.FindError != nil {
		return nil, m.FindError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, identity := range m.identities {
		if identity.CardID == cardID {
			result := *identity
			return &result, nil
		}
	}
	return nil, nil
}

// IdentityExists checks whether cardID belongs to an identity other than excludingID
func (m *MockStore) IdentityExists(ctx context.Context, cardID, excludingID string) (bool, error) {
	if m.ExistsError != nil {
		return false, m.ExistsError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cardTaken(cardID, excludingID), nil
}

// ListIdentities returns all identities, newest first
func (m *MockStore) ListIdentities(ctx context.Context) ([]database.Identity, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]database.Identity, 0, len(m.identities))
	for i := len(m.identities) - 1; i >= 0; i-- {
		result = append(result, *m.identities[i])
	}
	return result, nil
}

// CountIdentities returns the number of identities
func (m *MockStore) CountIdentities(ctx context.Context) (int, error) {
	if m.CountError != nil {
		return 0, m.CountError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.identities), nil
}

// LoadEligibleCandidates returns eligible identities in enrollment order
func (m *MockStore) LoadEligibleCandidates(ctx context.Context, now time.Time) ([]database.Identity, error) {
	m.mu.Lock()
	m.CandidatesCalls++
	m.mu.Unlock()
	if m.CandidatesError != nil {
		return nil, m.CandidatesError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	all := make([]database.Identity, 0, len(m.identities))
	for _, identity := range m.identities {
		all = append(all, *identity)
	}
	return database.EligibleCandidates(all, now), nil
}

// FindNearest ranks identities by exact distance to enc
func (m *MockStore) FindNearest(ctx context.Context, enc encoding.Encoding, limit int) ([]database.NearestIdentity, error) {
	if m.NearestError != nil {
		return nil, m.NearestError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var results []database.NearestIdentity
	for _, identity := range m.identities {
		stored, err := encoding.Check(identity.Encoding)
		if err != nil {
			continue
		}
		results = append(results, database.NearestIdentity{
			Identity: *identity,
			Distance: facematch.Distance(enc, stored),
		})
	}
	slices.SortStableFunc(results, func(a, b database.NearestIdentity) int {
		return cmp.Compare(a.Distance, b.Distance)
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// CreateIdentity inserts identity, enforcing card ID uniqueness
func (m *MockStore) CreateIdentity(ctx context.Context, identity *database.Identity) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cardTaken(identity.CardID, "") {
		return database.ErrDuplicateIdentifier
	}
	identity.ID = uuid.NewString()
	identity.CreatedAt = m.now()
	identity.UpdatedAt = identity.CreatedAt
	stored := *identity
	m.identities = append(m.identities, &stored)
	return nil
}

// UpdateIdentity replaces an identity's mutable fields
func (m *MockStore) UpdateIdentity(ctx context.Context, identity *database.Identity) error {
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, existing := m.find(identity.ID)
	if existing == nil {
		return database.ErrNotFound
	}
	if m.cardTaken(identity.CardID, identity.ID) {
		return database.ErrDuplicateIdentifier
	}
	identity.CreatedAt = existing.CreatedAt
	identity.UpdatedAt = m.now()
	*existing = *identity
	return nil
}

// DeleteIdentity removes an identity; its events are kept
func (m *MockStore) DeleteIdentity(ctx context.Context, id string) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	i, existing := m.find(id)
	if existing == nil {
		return database.ErrNotFound
	}
	m.identities = slices.Delete(m.identities, i, i+1)
	return nil
}

// AppendScanEvent appends event to the log
func (m *MockStore) AppendScanEvent(ctx context.Context, event *database.ScanEvent) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AppendCalls++
	if m.AppendError != nil {
		return "", m.AppendError
	}
	if !event.Status.Valid() {
		return "", fmt.Errorf("%w: %q", database.ErrInvalidStatus, event.Status)
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = m.now()
	}
	stored := *event
	stored.Identity = nil
	m.events = append(m.events, stored)
	return event.ID, nil
}

// withIdentity joins the referenced identity when it still exists
func (m *MockStore) withIdentity(event database.ScanEvent) database.ScanEvent {
	event.Identity = nil
	if event.IdentityID != nil {
		if _, identity := m.find(*event.IdentityID); identity != nil {
			joined := *identity
			event.Identity = &joined
		}
	}
	return event
}

// ListScanEvents returns the newest events first
func (m *MockStore) ListScanEvents(ctx context.Context, limit int) ([]database.ScanEvent, error) {
	if m.EventsError != nil {
		return nil, m.EventsError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []database.ScanEvent
	for i := len(m.events) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, m.withIdentity(m.events[i]))
	}
	return result, nil
}

// ListIdentityEvents returns the newest events for one identity first
func (m *MockStore) ListIdentityEvents(ctx context.Context, identityID string, limit int) ([]database.ScanEvent, error) {
	if m.EventsError != nil {
		return nil, m.EventsError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []database.ScanEvent
	for i := len(m.events) - 1; i >= 0 && len(result) < limit; i-- {
		if id := m.events[i].IdentityID; id != nil && *id == identityID {
			result = append(result, m.withIdentity(m.events[i]))
		}
	}
	return result, nil
}

// EventStats counts events by status
func (m *MockStore) EventStats(ctx context.Context, since *time.Time) (database.EventStats, error) {
	if m.StatsError != nil {
		return database.EventStats{}, m.StatsError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var stats database.EventStats
	for _, event := range m.events {
		if since != nil && event.Timestamp.Before(*since) {
			continue
		}
		stats.Add(event.Status, 1)
	}
	return stats, nil
}
