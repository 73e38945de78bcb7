package facematch

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// FoldName reduces a person name to its search form: no diacritics, lower
// case, dashes read as spaces and runs of whitespace collapsed ("Nováková-Svobodová"
// -> "novakova svobodova").
func FoldName(name string) string {
	folded, _, err := transform.String(stripMarks, name)
	if err != nil {
		folded = name
	}
	folded = strings.ReplaceAll(strings.ToLower(folded), "-", " ")
	return strings.Join(strings.Fields(folded), " ")
}

// FoldIdentifier reduces a card ID or email to its search form. Dashes and
// accents are significant there, so only case and surrounding space go.
func FoldIdentifier(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// SearchQuery is a free-text directory query folded once and matched against
// many identities.
type SearchQuery struct {
	name       string
	identifier string
}

// NewSearchQuery folds q for both name and identifier matching.
func NewSearchQuery(q string) SearchQuery {
	return SearchQuery{name: FoldName(q), identifier: FoldIdentifier(q)}
}

// Empty reports whether the query matches everything.
func (q SearchQuery) Empty() bool {
	return q.identifier == ""
}

// Matches reports whether name or any identifier contains the query.
func (q SearchQuery) Matches(name string, identifiers ...string) bool {
	if q.Empty() {
		return true
	}
	if q.name != "" && strings.Contains(FoldName(name), q.name) {
		return true
	}
	for _, id := range identifiers {
		if strings.Contains(FoldIdentifier(id), q.identifier) {
			return true
		}
	}
	return false
}
