package access

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/kozaktomas/facegate/internal/database"
	"github.com/kozaktomas/facegate/internal/encoding"
	"github.com/kozaktomas/facegate/internal/facematch"
	"github.com/kozaktomas/facegate/internal/metrics"
)

// IdentityInput carries enrollment and update fields. On update, nil or empty
// card ID, name, classification and encoding keep the stored value; a non-nil
// email replaces it; ExpiresAt always replaces it (nil clears).
type IdentityInput struct {
	CardID         *string    `json:"card_id"`
	Name           *string    `json:"name"`
	Email          *string    `json:"email"`
	Classification *string    `json:"classification"`
	ExpiresAt      *time.Time `json:"expires_at"`
	FaceEncoding   *string    `json:"face_encoding"`
}

// ListFilter narrows ListIdentities. Query matches name (diacritic- and
// case-insensitive), card ID or email.
type ListFilter struct {
	Query          string
	Classification database.Classification
}

// IdentityDetail is an identity with its most recent scan events.
type IdentityDetail struct {
	database.Identity
	RecentEvents []database.ScanEvent `json:"recent_events"`
}

// Registry manages the identity directory and exposes the audit log.
type Registry struct {
	store   database.Store
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewRegistry creates a registry. m may be nil.
func NewRegistry(store database.Store, m *metrics.Metrics, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{store: store, metrics: m, logger: logger}
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// canonicalEncoding validates text and returns its canonical transport form.
func canonicalEncoding(text string) (string, error) {
	values, err := encoding.Check(text)
	if err != nil {
		return "", err
	}
	return encoding.Encode(values)
}

func validateEmail(email string) error {
	if email == "" {
		return nil
	}
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 || strings.ContainsAny(email, " \t") {
		return &ValidationError{Field: "email", Reason: "not an email address"}
	}
	return nil
}

// Enroll creates an identity. Card ID, name and face encoding are required;
// classification defaults to PERMANENT.
func (r *Registry) Enroll(ctx context.Context, in IdentityInput) (*database.Identity, error) {
	identity := &database.Identity{
		CardID:         trimmed(in.CardID),
		Name:           trimmed(in.Name),
		Email:          trimmed(in.Email),
		Classification: database.ClassPermanent,
		ExpiresAt:      in.ExpiresAt,
	}

	if identity.CardID == "" {
		return nil, &ValidationError{Field: "card_id", Reason: "required"}
	}
	if identity.Name == "" {
		return nil, &ValidationError{Field: "name", Reason: "required"}
	}
	if err := validateEmail(identity.Email); err != nil {
		return nil, err
	}
	if c := trimmed(in.Classification); c != "" {
		class, err := database.ParseClassification(c)
		if err != nil {
			return nil, &ValidationError{Field: "classification", Reason: err.Error()}
		}
		identity.Classification = class
	}
	text := trimmed(in.FaceEncoding)
	if text == "" {
		return nil, &ValidationError{Field: "face_encoding", Reason: "required"}
	}
	canonical, err := canonicalEncoding(text)
	if err != nil {
		return nil, err
	}
	identity.Encoding = canonical

	exists, err := r.store.IdentityExists(ctx, identity.CardID, "")
	if err != nil {
		return nil, storageErr("check card id", err)
	}
	if exists {
		return nil, database.ErrDuplicateIdentifier
	}

	if err := r.store.CreateIdentity(ctx, identity); err != nil {
		return nil, storageErr("create identity", err)
	}

	r.metrics.IncrementEnrollment("create")
	r.logger.Info("identity enrolled", "identity_id", identity.ID, "card_id", identity.CardID,
		"classification", identity.Classification)
	return identity, nil
}

// Update changes an existing identity. A changed card ID is checked against
// every other identity; on any error the stored record is unchanged.
func (r *Registry) Update(ctx context.Context, id string, in IdentityInput) (*database.Identity, error) {
	existing, err := r.store.GetIdentity(ctx, id)
	if err != nil {
		return nil, storageErr("get identity", err)
	}
	if existing == nil {
		return nil, database.ErrNotFound
	}

	updated := *existing
	if v := trimmed(in.CardID); v != "" {
		updated.CardID = v
	}
	if v := trimmed(in.Name); v != "" {
		updated.Name = v
	}
	if in.Email != nil {
		updated.Email = trimmed(in.Email)
		if err := validateEmail(updated.Email); err != nil {
			return nil, err
		}
	}
	if v := trimmed(in.Classification); v != "" {
		class, err := database.ParseClassification(v)
		if err != nil {
			return nil, &ValidationError{Field: "classification", Reason: err.Error()}
		}
		updated.Classification = class
	}
	if v := trimmed(in.FaceEncoding); v != "" {
		canonical, err := canonicalEncoding(v)
		if err != nil {
			return nil, err
		}
		updated.Encoding = canonical
	}
	updated.ExpiresAt = in.ExpiresAt

	if updated.CardID != existing.CardID {
		exists, err := r.store.IdentityExists(ctx, updated.CardID, id)
		if err != nil {
			return nil, storageErr("check card id", err)
		}
		if exists {
			return nil, database.ErrDuplicateIdentifier
		}
	}

	if err := r.store.UpdateIdentity(ctx, &updated); err != nil {
		return nil, storageErr("update identity", err)
	}

	r.metrics.IncrementEnrollment("update")
	r.logger.Info("identity updated", "identity_id", updated.ID, "card_id", updated.CardID)
	return &updated, nil
}

// Delete removes an identity. Its scan events are kept.
func (r *Registry) Delete(ctx context.Context, id string) error {
	if err := r.store.DeleteIdentity(ctx, id); err != nil {
		return storageErr("delete identity", err)
	}
	r.metrics.IncrementEnrollment("delete")
	r.logger.Info("identity deleted", "identity_id", id)
	return nil
}

// Get returns an identity with its most recent scan events.
func (r *Registry) Get(ctx context.Context, id string) (*IdentityDetail, error) {
	identity, err := r.store.GetIdentity(ctx, id)
	if err != nil {
		return nil, storageErr("get identity", err)
	}
	if identity == nil {
		return nil, database.ErrNotFound
	}

	events, err := r.store.ListIdentityEvents(ctx, id, database.IdentityEventPreview)
	if err != nil {
		return nil, storageErr("list identity events", err)
	}
	if events == nil {
		events = []database.ScanEvent{}
	}
	return &IdentityDetail{Identity: *identity, RecentEvents: events}, nil
}

// List returns identities newest first, narrowed by filter.
func (r *Registry) List(ctx context.Context, filter ListFilter) ([]database.Identity, error) {
	all, err := r.store.ListIdentities(ctx)
	if err != nil {
		return nil, storageErr("list identities", err)
	}

	query := facematch.NewSearchQuery(filter.Query)
	out := make([]database.Identity, 0, len(all))
	for _, identity := range all {
		if filter.Classification != "" && identity.Classification != filter.Classification {
			continue
		}
		if !query.Matches(identity.Name, identity.CardID, identity.Email) {
			continue
		}
		out = append(out, identity)
	}
	return out, nil
}

// Count returns the number of enrolled identities.
func (r *Registry) Count(ctx context.Context) (int, error) {
	n, err := r.store.CountIdentities(ctx)
	if err != nil {
		return 0, storageErr("count identities", err)
	}
	return n, nil
}

// Nearest returns the enrolled identities closest to the presented encoding.
// It never records an event.
func (r *Registry) Nearest(ctx context.Context, text string, limit int) ([]database.NearestIdentity, error) {
	values, err := encoding.Check(text)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 5
	}
	nearest, err := r.store.FindNearest(ctx, values, min(limit, 50))
	if err != nil {
		return nil, storageErr("find nearest", err)
	}
	return nearest, nil
}

// Lookalikes reports enrolled pairs at or under maxDistance.
func (r *Registry) Lookalikes(ctx context.Context, maxDistance float64) ([]facematch.LookalikePair, error) {
	if maxDistance <= 0 {
		return nil, &ValidationError{Field: "max_distance", Reason: "must be positive"}
	}
	identities, err := r.store.ListIdentities(ctx)
	if err != nil {
		return nil, storageErr("list identities", err)
	}
	pairs := facematch.FindLookalikes(identities, maxDistance)
	if pairs == nil {
		pairs = []facematch.LookalikePair{}
	}
	return pairs, nil
}

// RecentEvents returns the newest scan events; limit is clamped to
// [1, database.MaxEventLimit] with database.DefaultEventLimit for zero.
func (r *Registry) RecentEvents(ctx context.Context, limit int) ([]database.ScanEvent, error) {
	events, err := r.store.ListScanEvents(ctx, database.ClampEventLimit(limit))
	if err != nil {
		return nil, storageErr("list scan events", err)
	}
	if events == nil {
		events = []database.ScanEvent{}
	}
	return events, nil
}

// EventStats counts scan events by status, optionally since a point in time.
func (r *Registry) EventStats(ctx context.Context, since *time.Time) (database.EventStats, error) {
	stats, err := r.store.EventStats(ctx, since)
	if err != nil {
		return stats, storageErr("event stats", err)
	}
	return stats, nil
}
