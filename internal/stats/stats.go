// Package stats derives the cross-cutting widget feeds (distribution charts,
// per-user risk aggregation) from the session's cumulative alert view.
package stats

import (
	"sort"
	"strings"

	"github.com/sigmalens/sigmalens/internal/mitre"
	"github.com/sigmalens/sigmalens/internal/models"
	"github.com/sigmalens/sigmalens/internal/risk"
)

// UserRisk aggregates one origin user's alert activity.
type UserRisk struct {
	UserID     string    `json:"user_id"`
	AlertCount int       `json:"alert_count"`
	TotalRisk  float64   `json:"total_risk"`
	MaxRisk    float64   `json:"max_risk"`
	Band       risk.Band `json:"band"`
}

// TopUsersByRisk ranks origin users by summed risk score. Alerts without a
// user land under "unknown".
func TopUsersByRisk(alerts []models.Alert, limit int) []UserRisk {
	byUser := make(map[string]*UserRisk)
	for _, alert := range alerts {
		user := alert.UserID
		if strings.TrimSpace(user) == "" {
			user = "unknown"
		}
		agg, ok := byUser[user]
		if !ok {
			agg = &UserRisk{UserID: user}
			byUser[user] = agg
		}
		agg.AlertCount++
		score := alert.RiskScore()
		agg.TotalRisk += score
		if score > agg.MaxRisk {
			agg.MaxRisk = score
		}
	}

	ranked := make([]UserRisk, 0, len(byUser))
	for _, agg := range byUser {
		agg.Band = risk.Badge(agg.MaxRisk)
		ranked = append(ranked, *agg)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].TotalRisk != ranked[j].TotalRisk {
			return ranked[i].TotalRisk > ranked[j].TotalRisk
		}
		return ranked[i].UserID < ranked[j].UserID
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// LabelCount is one bucket of a distribution chart.
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// LevelDistribution buckets alerts by their source-reported rule level.
func LevelDistribution(alerts []models.Alert) []LabelCount {
	counts := make(map[string]int)
	for _, alert := range alerts {
		level := strings.ToLower(strings.TrimSpace(alert.RuleLevel))
		if level == "" {
			level = "unknown"
		}
		counts[level]++
	}
	return sortCounts(counts)
}

// TacticDistribution buckets alerts by the ATT&CK tactics parsed from their
// tags. An alert carrying several tactics counts once per tactic.
func TacticDistribution(alerts []models.Alert) []LabelCount {
	counts := make(map[string]int)
	for _, alert := range alerts {
		for _, tactic := range mitre.ParseTags(alert.Tags).Tactics {
			counts[tactic]++
		}
	}
	return sortCounts(counts)
}

func sortCounts(counts map[string]int) []LabelCount {
	out := make([]LabelCount, 0, len(counts))
	for label, count := range counts {
		out = append(out, LabelCount{Label: label, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}
