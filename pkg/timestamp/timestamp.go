// Package timestamp provides standardized Unix timestamp handling for
// payload fields.
//
// The canonical format is float64 seconds since the Unix epoch (UTC),
// matching the timestamp fields carried by bus payloads. A value of 0
// means "not set".
package timestamp

import (
	"strconv"
	"time"
)

// Now returns the current time as Unix seconds.
func Now() float64 {
	return FromTime(time.Now())
}

// FromTime converts a time.Time to Unix seconds.
func FromTime(t time.Time) float64 {
	if t.IsZero() {
		return 0
	}
	return float64(t.UnixNano()) / float64(time.Second)
}

// ToTime converts Unix seconds to time.Time.
// Returns zero time if the timestamp is 0.
func ToTime(sec float64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(0, int64(sec*float64(time.Second)))
}

// Format converts Unix seconds to an RFC3339 string for display.
// Returns empty string if the timestamp is 0.
func Format(sec float64) string {
	if sec == 0 {
		return ""
	}
	return ToTime(sec).UTC().Format(time.RFC3339)
}

// Parse converts various timestamp representations to Unix seconds.
// Supports:
//   - float64 / int64 / int seconds
//   - string (RFC3339 or numeric Unix timestamp)
//   - time.Time
//   - nil (returns 0)
//
// Returns 0 for invalid input.
func Parse(input any) float64 {
	if input == nil {
		return 0
	}

	switch v := input.(type) {
	case float64:
		return v

	case int64:
		return float64(v)

	case int:
		return float64(v)

	case string:
		if v == "" {
			return 0
		}
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return FromTime(t)
		}
		if sec, err := strconv.ParseFloat(v, 64); err == nil {
			return sec
		}
		return 0

	case time.Time:
		return FromTime(v)

	case *time.Time:
		if v == nil {
			return 0
		}
		return FromTime(*v)

	default:
		return 0
	}
}

// IsZero checks if a timestamp is unset.
func IsZero(sec float64) bool {
	return sec == 0
}

// Since returns the duration since the given timestamp.
// Returns 0 if the timestamp is zero.
func Since(sec float64) time.Duration {
	if sec == 0 {
		return 0
	}
	return time.Since(ToTime(sec))
}

// Between returns the duration between two timestamps.
// Returns 0 if either timestamp is zero.
func Between(start, end float64) time.Duration {
	if start == 0 || end == 0 {
		return 0
	}
	return ToTime(end).Sub(ToTime(start))
}
