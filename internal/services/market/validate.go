// Package market implements the multi-source quote pipeline: value
// validation, record normalization, provider fallback and TTL-cached
// segment queries.
package market

import (
	"math"
	"strconv"
	"strings"
)

// MaxPlausiblePrice rejects unit-confusion parses; a "price" of fifty
// million is a volume or a market cap that landed in the wrong field.
const MaxPlausiblePrice = 10_000_000

// IsValidPrice reports whether x is a plausible price value. Accepts
// numeric types and numeric strings (with or without thousands separators).
// Total: any input yields a bool, never a panic.
func IsValidPrice(x interface{}) bool {
	v, ok := toFloat(x)
	if !ok {
		return false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	if v <= 0 {
		return false
	}
	if v > MaxPlausiblePrice {
		return false
	}
	return true
}

// toFloat coerces the value shapes providers actually produce: JSON
// numbers, Go numerics, and formatted strings like "2,500.58".
func toFloat(x interface{}) (float64, bool) {
	switch v := x.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	case string:
		cleaned := strings.ReplaceAll(strings.TrimSpace(v), ",", "")
		if cleaned == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	case nil:
		return 0, false
	default:
		return 0, false
	}
}
