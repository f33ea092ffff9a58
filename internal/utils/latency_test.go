package utils

import (
	"testing"
	"time"
)

func TestLatencyTrackerPercentile(t *testing.T) {
	tracker := NewLatencyTracker(10)
	for _, d := range []time.Duration{
		12 * time.Millisecond,
		25 * time.Millisecond,
		31 * time.Millisecond,
		48 * time.Millisecond,
		120 * time.Millisecond,
	} {
		tracker.Observe(d)
	}

	if tracker.Count() != 5 {
		t.Fatalf("expected 5 samples, got %d", tracker.Count())
	}
	if p95 := tracker.Percentile(95); p95 < 48*time.Millisecond {
		t.Fatalf("expected p95 >= 48ms, got %v", p95)
	}
	if p0 := tracker.Percentile(0); p0 != 12*time.Millisecond {
		t.Fatalf("percentile 0 must be the minimum, got %v", p0)
	}
	if p100 := tracker.Percentile(100); p100 != 120*time.Millisecond {
		t.Fatalf("percentile 100 must be the maximum, got %v", p100)
	}
}

func TestLatencyTrackerEmpty(t *testing.T) {
	tracker := NewLatencyTracker(10)
	if got := tracker.Percentile(95); got != 0 {
		t.Fatalf("expected zero without samples, got %v", got)
	}
}

func TestLatencyTrackerBoundedWindow(t *testing.T) {
	tracker := NewLatencyTracker(3)
	for i := 0; i < 10; i++ {
		tracker.Observe(time.Duration(i) * time.Millisecond)
	}
	if tracker.Count() != 3 {
		t.Fatalf("expected window of 3, got %d", tracker.Count())
	}
	if min := tracker.Percentile(0); min != 7*time.Millisecond {
		t.Fatalf("oldest samples must be evicted first, got min %v", min)
	}
}
