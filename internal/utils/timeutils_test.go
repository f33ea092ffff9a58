package utils

import (
	"testing"
	"time"
)

func TestParseAlertTimeLayouts(t *testing.T) {
	for _, value := range []string{
		"2026-03-10T11:00:00.123456789Z",
		"2026-03-10T11:00:00Z",
		"2026-03-10 11:00:00.123456",
		"2026-03-10 11:00:00",
	} {
		if _, err := ParseAlertTime(value); err != nil {
			t.Fatalf("ParseAlertTime(%q) failed: %v", value, err)
		}
	}

	if _, err := ParseAlertTime("10/03/2026"); err == nil {
		t.Fatal("expected error for unsupported layout")
	}
	if _, err := ParseAlertTime(""); err == nil {
		t.Fatal("expected error for empty value")
	}
}

func TestWithinWindowBoundary(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	window := 7 * 24 * time.Hour

	if !WithinWindow(now.Add(-window), now, window) {
		t.Fatal("cutoff instant itself must be inside the window")
	}
	if WithinWindow(now.Add(-window-time.Second), now, window) {
		t.Fatal("one second past the cutoff must be outside")
	}
	if !WithinWindow(now, now, window) {
		t.Fatal("now must be inside the window")
	}
	if WithinWindow(now.Add(time.Minute), now, window) {
		t.Fatal("future timestamps must be outside")
	}
}
