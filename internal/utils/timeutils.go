package utils

import (
	"fmt"
	"time"
)

// Feed timestamps arrive in a handful of shapes depending on the collector
// that produced the event.
var alertTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// ParseAlertTime returns a time from the provided feed value or an error.
func ParseAlertTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("empty time value")
	}
	for _, layout := range alertTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported time value %q", value)
}

// WithinWindow reports whether ts falls inside the trailing window ending at
// now. The boundary instant itself is included. The window is bounded on both
// sides: timestamps after now are deliberately out, so records dated ahead of
// the wall clock never count as recent.
func WithinWindow(ts, now time.Time, window time.Duration) bool {
	if ts.IsZero() {
		return false
	}
	cutoff := now.Add(-window)
	return !ts.Before(cutoff) && !ts.After(now)
}
