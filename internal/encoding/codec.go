// Package encoding converts face encodings between their numeric form and the
// base64 transport text accepted by the API and stored in the directory.
package encoding

import (
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Dim is the fixed number of values in a face encoding.
const Dim = 128

// Bounds of every value in a valid encoding (inclusive).
const (
	MinValue = -1.0
	MaxValue = 1.0
)

// ErrFormat is matched by every FormatError.
var ErrFormat = errors.New("invalid face encoding")

// FormatError reports why a transport text or vector is not a usable encoding.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return "invalid face encoding: " + e.Reason
}

// Is makes errors.Is(err, ErrFormat) true for any *FormatError.
func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

func formatErrorf(format string, args ...any) *FormatError {
	return &FormatError{Reason: fmt.Sprintf(format, args...)}
}

// Encoding is an ordered vector of Dim values.
type Encoding []float64

// Float32 returns the encoding as float32 values (pgvector, HNSW graph).
func (e Encoding) Float32() []float32 {
	out := make([]float32, len(e))
	for i, v := range e {
		out[i] = float32(v)
	}
	return out
}

// InRange reports whether every value lies in [MinValue, MaxValue].
func (e Encoding) InRange() bool {
	for _, v := range e {
		if v < MinValue || v > MaxValue || math.IsNaN(v) {
			return false
		}
	}
	return true
}

// Encode renders values as base64 over comma-separated decimals.
// The shortest round-trip formatting makes Decode(Encode(e)) reproduce e exactly.
func Encode(values Encoding) (string, error) {
	if len(values) != Dim {
		return "", formatErrorf("expected %d values, got %d", Dim, len(values))
	}

	var sb strings.Builder
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return "", formatErrorf("value %d is not finite", i)
		}
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
	}
	return base64.StdEncoding.EncodeToString([]byte(sb.String())), nil
}

// Decode parses transport text into exactly Dim finite values.
// Range is not checked here; see Check.
func Decode(text string) (Encoding, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, formatErrorf("empty encoding")
	}

	raw, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil, formatErrorf("not valid base64")
	}

	fields := strings.Split(string(raw), ",")
	if len(fields) != Dim {
		return nil, formatErrorf("expected %d values, got %d", Dim, len(fields))
	}

	values := make(Encoding, Dim)
	for i, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			return nil, formatErrorf("value %d is empty", i)
		}
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, formatErrorf("value %d is not a number", i)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, formatErrorf("value %d is not finite", i)
		}
		values[i] = v
	}
	return values, nil
}

// Check decodes text and verifies every value lies in [-1, 1].
// It is the precondition gate in front of matching and enrollment.
func Check(text string) (Encoding, error) {
	values, err := Decode(text)
	if err != nil {
		return nil, err
	}
	for i, v := range values {
		if v < MinValue || v > MaxValue {
			return nil, formatErrorf("value %d (%g) outside [%g, %g]", i, v, MinValue, MaxValue)
		}
	}
	return values, nil
}

// Validate reports whether text is a well-formed, in-range encoding.
func Validate(text string) bool {
	_, err := Check(text)
	return err == nil
}
