package risk

import "math"

// Band is a named severity tier with the display attributes the widgets
// need: a label, a color token, how far to fill the bar within the band's
// sub-range, and whether the badge should pulse.
type Band struct {
	Label       string  `json:"label"`
	Color       string  `json:"color"`
	FillPercent float64 `json:"fill_percent"`
	Pulse       bool    `json:"pulse"`
}

const (
	LabelUnknown  = "Unknown"
	LabelLow      = "Low"
	LabelMedium   = "Medium"
	LabelHigh     = "High"
	LabelCritical = "Critical"
)

const (
	colorUnknown  = "#8c8c8c"
	colorLow      = "#52c41a"
	colorMedium   = "#ffc53d"
	colorHigh     = "#ff7a45"
	colorCritical = "#ff4d4f"
)

type cutoff struct {
	min, max float64
	label    string
	color    string
}

// Two threshold tables coexist: the compact badge scale and the wider gauge
// scale. Both are kept as independent strategies until product settles on a
// single canonical table.
var badgeCutoffs = []cutoff{
	{80, 100, LabelCritical, colorCritical},
	{60, 80, LabelHigh, colorHigh},
	{40, 60, LabelMedium, colorMedium},
	{0, 40, LabelLow, colorLow},
}

var gaugeCutoffs = []cutoff{
	{150, 200, LabelCritical, colorCritical},
	{100, 150, LabelHigh, colorHigh},
	{50, 100, LabelMedium, colorMedium},
	{0, 50, LabelLow, colorLow},
}

// Badge classifies a score on the compact 4-band scale used by table badges.
// Absent scores are classified as 0.
func Badge(score float64) Band {
	return classify(score, badgeCutoffs)
}

// BadgePtr classifies an optional score on the badge scale; nil means 0.
func BadgePtr(score *float64) Band {
	if score == nil {
		return Badge(0)
	}
	return Badge(*score)
}

// Gauge classifies an optional score on the 5-band gauge scale. An absent or
// non-numeric score yields the Unknown band with no fill.
func Gauge(score *float64) Band {
	if score == nil || math.IsNaN(*score) {
		return Band{Label: LabelUnknown, Color: colorUnknown}
	}
	return classify(*score, gaugeCutoffs)
}

func classify(score float64, cutoffs []cutoff) Band {
	if math.IsNaN(score) {
		score = 0
	}
	for _, c := range cutoffs {
		if score >= c.min {
			return Band{
				Label:       c.label,
				Color:       c.color,
				FillPercent: fillPercent(score, c.min, c.max),
				Pulse:       c.label == LabelCritical,
			}
		}
	}
	// Negative scores land in the lowest band with an empty bar.
	last := cutoffs[len(cutoffs)-1]
	return Band{Label: last.label, Color: last.color}
}

// fillPercent interpolates the score's position inside [min, max), clamped
// so an off-scale score still renders a full bar.
func fillPercent(score, min, max float64) float64 {
	if max <= min {
		return 100
	}
	pct := (score - min) / (max - min) * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
