package risk

import (
	"math"
	"testing"
)

func TestBadgeThresholds(t *testing.T) {
	cases := []struct {
		score float64
		label string
	}{
		{0, LabelLow},
		{39.9, LabelLow},
		{40, LabelMedium},
		{59.9, LabelMedium},
		{60, LabelHigh},
		{79.9, LabelHigh},
		{80, LabelCritical},
		{175, LabelCritical},
	}
	for _, tc := range cases {
		if got := Badge(tc.score); got.Label != tc.label {
			t.Fatalf("Badge(%v) = %s, want %s", tc.score, got.Label, tc.label)
		}
	}
}

func TestGaugeThresholds(t *testing.T) {
	cases := []struct {
		score float64
		label string
	}{
		{0, LabelLow},
		{49, LabelLow},
		{50, LabelMedium},
		{99, LabelMedium},
		{100, LabelHigh},
		{149, LabelHigh},
		{150, LabelCritical},
		{500, LabelCritical},
	}
	for _, tc := range cases {
		score := tc.score
		if got := Gauge(&score); got.Label != tc.label {
			t.Fatalf("Gauge(%v) = %s, want %s", tc.score, got.Label, tc.label)
		}
	}
}

func TestGaugeAbsentScore(t *testing.T) {
	band := Gauge(nil)
	if band.Label != LabelUnknown {
		t.Fatalf("expected Unknown for nil score, got %s", band.Label)
	}
	if band.FillPercent != 0 || band.Pulse {
		t.Fatalf("Unknown band must render empty and static, got %+v", band)
	}

	nan := math.NaN()
	if got := Gauge(&nan); got.Label != LabelUnknown {
		t.Fatalf("expected Unknown for NaN score, got %s", got.Label)
	}
}

func TestOnlyCriticalPulses(t *testing.T) {
	if !Badge(95).Pulse {
		t.Fatalf("critical badge must pulse")
	}
	for _, score := range []float64{0, 45, 65} {
		if Badge(score).Pulse {
			t.Fatalf("non-critical score %v must not pulse", score)
		}
	}
}

func TestFillPercentClamped(t *testing.T) {
	if got := Badge(1000).FillPercent; got != 100 {
		t.Fatalf("off-scale score must clamp to a full bar, got %v", got)
	}
	if got := Badge(-5).FillPercent; got != 0 {
		t.Fatalf("negative score must render empty, got %v", got)
	}

	// Midpoint of the Medium badge band [40, 60).
	if got := Badge(50).FillPercent; got != 50 {
		t.Fatalf("expected 50%% fill at band midpoint, got %v", got)
	}
}

func TestBadgePtrDefaultsToZero(t *testing.T) {
	if got := BadgePtr(nil); got.Label != LabelLow {
		t.Fatalf("nil score must classify as Low on the badge scale, got %s", got.Label)
	}
}
