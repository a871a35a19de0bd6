package pipeline

import (
	"strconv"
	"strings"
)

// coerceBool converts a loosely-typed JSON value to a bool pointer.
// Booleans pass through. Strings compare case-insensitively against "true";
// any other string is false, not an error. Everything else is unknown.
func coerceBool(v any) *bool {
	switch t := v.(type) {
	case bool:
		b := t
		return &b
	case string:
		b := strings.EqualFold(strings.TrimSpace(t), "true")
		return &b
	default:
		return nil
	}
}

// clampScore converts a loosely-typed JSON score to an int in [0,100].
// Fractional values truncate toward zero; out-of-range values clamp; values
// that cannot be read as a number come back as 0.
func clampScore(v any) int {
	var n int
	switch t := v.(type) {
	case float64:
		n = int(t)
	case int:
		n = t
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		n = int(f)
	default:
		return 0
	}
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}
