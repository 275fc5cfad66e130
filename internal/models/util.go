package models

import (
	"strings"
	"time"
)

// ParseRFC3339 parses an RFC 3339 timestamp. Returns the zero time if the
// input is empty, whitespace-only, or not a valid RFC 3339 string.
func ParseRFC3339(raw string) time.Time {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

// ClampPct clamps a percentage to the range [0, 100].
func ClampPct(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// UnixMilli converts epoch milliseconds to a UTC time. Zero maps to the zero time.
func UnixMilli(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
