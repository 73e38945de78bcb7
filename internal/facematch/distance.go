// Package facematch compares face encodings against the identity directory.
// Matching is shared between the scan service, the CLI and the web handlers.
package facematch

import (
	"math"

	"github.com/kozaktomas/facegate/internal/encoding"
)

// MaxDistance is returned for inputs that cannot be compared
const MaxDistance = 1.0

// Distance computes the Euclidean distance between two encodings.
// Returns MaxDistance when either encoding does not have encoding.Dim values
// or the result is not finite.
func Distance(a, b encoding.Encoding) float64 {
	if len(a) != encoding.Dim || len(b) != encoding.Dim {
		return MaxDistance
	}

	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}

	dist := math.Sqrt(sum)
	if math.IsNaN(dist) || math.IsInf(dist, 0) {
		return MaxDistance
	}
	return dist
}

// Confidence maps a distance to a score in [0, 1]: 1 - d, clamped.
func Confidence(distance float64) float64 {
	c := 1 - distance
	switch {
	case math.IsNaN(c), c < 0:
		return 0
	case c > 1:
		return 1
	}
	return c
}
