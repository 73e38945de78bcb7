// Package encodingtest builds deterministic face encodings for tests.
// Nothing outside _test.go files should import it.
package encodingtest

import (
	"math/rand/v2"
	"testing"

	"github.com/kozaktomas/facegate/internal/encoding"
)

// FromSeed derives a reproducible in-range encoding from a seed string.
// Each value is the seed byte at i%len mapped from [0,255] to [-1,1].
func FromSeed(seed string) encoding.Encoding {
	if seed == "" {
		seed = "0"
	}
	values := make(encoding.Encoding, encoding.Dim)
	for i := range values {
		b := seed[i%len(seed)]
		values[i] = float64(b)/255*2 - 1
	}
	return values
}

// Random returns an in-range encoding drawn from a PCG source seeded with seed.
func Random(seed uint64) encoding.Encoding {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	values := make(encoding.Encoding, encoding.Dim)
	for i := range values {
		values[i] = r.Float64()*2 - 1
	}
	return values
}

// Zero returns the all-zero encoding.
func Zero() encoding.Encoding {
	return make(encoding.Encoding, encoding.Dim)
}

// Offset returns a copy of base with dimension dim shifted by delta.
// The Euclidean distance between base and the result is |delta| as long as the
// shifted value stays representable.
func Offset(base encoding.Encoding, dim int, delta float64) encoding.Encoding {
	out := make(encoding.Encoding, len(base))
	copy(out, base)
	out[dim] += delta
	return out
}

// Text encodes values and fails the test on error.
func Text(t testing.TB, values encoding.Encoding) string {
	t.Helper()
	text, err := encoding.Encode(values)
	if err != nil {
		t.Fatalf("encode test encoding: %v", err)
	}
	return text
}
