package utils

import (
	"fmt"
	"time"
)

// ParseRFC3339 returns a time from the provided string or an error.
func ParseRFC3339(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("empty time value")
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time: %w", err)
	}
	return t, nil
}

// WindowStart returns the inclusive start of a lookback window ending at now.
// A non-positive lookback falls back to the provided default.
func WindowStart(now time.Time, lookback, fallback time.Duration) time.Time {
	if lookback <= 0 {
		lookback = fallback
	}
	return now.Add(-lookback)
}
