package database

import (
	"fmt"
	"strings"
	"time"
)

// Classification says how an identity is granted access.
type Classification string

const (
	ClassPermanent Classification = "PERMANENT"
	ClassTemporary Classification = "TEMPORARY"
)

// ParseClassification accepts the canonical names and the legacy
// REGULAR / VISITOR user types (case-insensitive).
func ParseClassification(s string) (Classification, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PERMANENT", "REGULAR":
		return ClassPermanent, nil
	case "TEMPORARY", "VISITOR":
		return ClassTemporary, nil
	default:
		return "", fmt.Errorf("unknown classification %q", s)
	}
}

// AccessStatus is the outcome recorded for one scan.
type AccessStatus string

const (
	StatusIdentified AccessStatus = "IDENTIFIED"
	StatusVisitor    AccessStatus = "VISITOR"
	StatusDenied     AccessStatus = "DENIED"
)

// Valid reports whether s is one of the three access statuses.
func (s AccessStatus) Valid() bool {
	return s == StatusIdentified || s == StatusVisitor || s == StatusDenied
}

// Identity is an enrolled subject
type Identity struct {
	ID             string         `json:"id"`
	CardID         string         `json:"card_id"`
	Name           string         `json:"name"`
	Email          string         `json:"email,omitempty"`
	Classification Classification `json:"classification"`
	ExpiresAt      *time.Time     `json:"expires_at,omitempty"`
	Encoding       string         `json:"-"` // transport text as enrolled, may be malformed in old rows
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// IsEligible reports whether the identity may be matched at now.
// PERMANENT identities always are; TEMPORARY ones only without an expiry or
// with an expiry strictly after now.
func (i *Identity) IsEligible(now time.Time) bool {
	if i.Classification != ClassTemporary {
		return true
	}
	return i.ExpiresAt == nil || i.ExpiresAt.After(now)
}

// EligibleCandidates filters identities down to the match candidate set,
// preserving order.
func EligibleCandidates(identities []Identity, now time.Time) []Identity {
	out := make([]Identity, 0, len(identities))
	for i := range identities {
		if identities[i].IsEligible(now) {
			out = append(out, identities[i])
		}
	}
	return out
}

// ScanEvent is the immutable audit record of one scan.
type ScanEvent struct {
	ID         string       `json:"id"`
	Timestamp  time.Time    `json:"timestamp"`
	Status     AccessStatus `json:"status"`
	IdentityID *string      `json:"identity_id,omitempty"`
	Confidence *float64     `json:"confidence,omitempty"`

	// Identity is populated on read when the referenced identity still exists.
	Identity *Identity `json:"identity,omitempty"`
}

// EventStats counts scan events by status.
type EventStats struct {
	Total      int `json:"total"`
	Identified int `json:"identified"`
	Visitor    int `json:"visitor"`
	Denied     int `json:"denied"`
}

// Add counts n events with the given status.
func (s *EventStats) Add(status AccessStatus, n int) {
	s.Total += n
	switch status {
	case StatusIdentified:
		s.Identified += n
	case StatusVisitor:
		s.Visitor += n
	case StatusDenied:
		s.Denied += n
	}
}

// NearestIdentity pairs an identity with its distance to a probe encoding.
type NearestIdentity struct {
	Identity Identity `json:"identity"`
	Distance float64  `json:"distance"`
}
