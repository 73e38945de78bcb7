package facematch

import (
	"github.com/kozaktomas/facegate/internal/database"
	"github.com/kozaktomas/facegate/internal/encoding"
)

// DefaultThreshold is the minimum confidence accepted as a match
const DefaultThreshold = 0.6

// MatchResult is the best candidate for one scan
type MatchResult struct {
	Identity   database.Identity
	Distance   float64
	Confidence float64
}

// FindBestMatch compares input against every candidate in order and returns the
// closest one when its confidence is at least threshold, otherwise nil.
// Candidates without an encoding are skipped; one that fails the codec range
// check scores MaxDistance. On equal distances the earlier candidate wins.
func FindBestMatch(input encoding.Encoding, candidates []database.Identity, threshold float64) *MatchResult {
	bestIdx := -1
	bestDistance := 0.0

	for i := range candidates {
		if candidates[i].Encoding == "" {
			continue
		}

		d := MaxDistance
		if stored, err := encoding.Check(candidates[i].Encoding); err == nil {
			d = Distance(input, stored)
		}

		if bestIdx < 0 || d < bestDistance {
			bestIdx = i
			bestDistance = d
		}
	}

	if bestIdx < 0 {
		return nil
	}

	confidence := Confidence(bestDistance)
	if confidence < threshold {
		return nil
	}

	return &MatchResult{
		Identity:   candidates[bestIdx],
		Distance:   bestDistance,
		Confidence: confidence,
	}
}

// Matcher holds the acceptance threshold. The zero value is not useful; use
// NewMatcher or set Threshold explicitly.
type Matcher struct {
	Threshold float64
}

// NewMatcher returns a Matcher with the given threshold, or DefaultThreshold
// when threshold is negative.
func NewMatcher(threshold float64) Matcher {
	if threshold < 0 {
		threshold = DefaultThreshold
	}
	return Matcher{Threshold: threshold}
}

// Match runs FindBestMatch with the matcher's threshold.
func (m Matcher) Match(input encoding.Encoding, candidates []database.Identity) *MatchResult {
	return FindBestMatch(input, candidates, m.Threshold)
}
