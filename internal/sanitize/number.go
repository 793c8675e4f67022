// Package sanitize converts untrusted calculator input into safe numeric
// values. Anything that is not a finite number coerces to zero so downstream
// arithmetic never sees NaN, Inf, or a type assertion panic.
package sanitize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Float coerces an arbitrary decoded JSON value to a float64.
// Untyped, non-numeric, and non-finite inputs all yield 0.
func Float(v any) float64 {
	switch n := v.(type) {
	case float64:
		return finite(n)
	case float32:
		return finite(float64(n))
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0
		}
		return finite(f)
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return finite(f)
	case bool:
		if n {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// Int coerces an arbitrary decoded JSON value to an int, truncating
// fractional parts.
func Int(v any) int {
	return int(Float(v))
}

// NonNegative coerces like Float and clamps negative values to 0. Calculator
// inputs are magnitudes; a negative value is always bad input.
func NonNegative(v any) float64 {
	f := Float(v)
	if f < 0 {
		return 0
	}
	return f
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
