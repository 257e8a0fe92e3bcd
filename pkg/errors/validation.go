package errors

import (
	"math"
	"strings"
	"unicode"
)

// maxIDLength bounds node and edge identifiers.
const maxIDLength = 256

// ValidateID validates a node or edge identifier.
// kind names the element in the message ("node", "edge").
//
// The validation rules are intentionally conservative:
//   - No empty identifiers
//   - No control characters
//   - Maximum length of 256 characters
func ValidateID(kind, id string) error {
	if id == "" {
		return New(ErrCodeInvalidGraph, "%s id cannot be empty", kind)
	}

	if len(id) > maxIDLength {
		return New(ErrCodeInvalidGraph, "%s id too long (max %d characters)", kind, maxIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidGraph, "%s id %q contains control characters", kind, id)
		}
	}

	return nil
}

// ValidateSize validates the width and height of a node rectangle.
func ValidateSize(id string, width, height float64) error {
	for _, v := range []float64{width, height} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return New(ErrCodeInvalidGraph, "node %q must have a positive finite size, got %gx%g", id, width, height)
		}
	}
	return nil
}

// ValidateCoordinate rejects NaN and infinite coordinates.
func ValidateCoordinate(id string, x, y float64) error {
	if math.IsNaN(x) || math.IsInf(x, 0) || math.IsNaN(y) || math.IsInf(y, 0) {
		return New(ErrCodeInvalidGraph, "node %q has a non-finite position", id)
	}
	return nil
}

// ValidateURL validates a connection URL against a set of allowed schemes,
// for example "redis" and "rediss".
func ValidateURL(rawURL string, schemes ...string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidConfig, "URL cannot be empty")
	}

	for _, s := range schemes {
		if strings.HasPrefix(rawURL, s+"://") {
			return nil
		}
	}
	return New(ErrCodeInvalidConfig, "URL %q must use one of the schemes %s", rawURL, strings.Join(schemes, ", "))
}
