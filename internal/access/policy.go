// Package access turns face scans into access decisions and manages the
// identity directory they are matched against.
package access

import (
	"github.com/kozaktomas/facegate/internal/database"
	"github.com/kozaktomas/facegate/internal/facematch"
)

// Decide maps a match to an access status. No match is DENIED; a TEMPORARY
// identity is admitted as VISITOR and anyone else as IDENTIFIED. Expiry is
// enforced earlier, when the candidate set is built.
func Decide(match *facematch.MatchResult) database.AccessStatus {
	if match == nil {
		return database.StatusDenied
	}
	if match.Identity.Classification == database.ClassTemporary {
		return database.StatusVisitor
	}
	return database.StatusIdentified
}
