package stats

import (
	"testing"

	"github.com/sigmalens/sigmalens/internal/models"
)

func riskPtr(v float64) *float64 { return &v }

func TestTopUsersByRisk(t *testing.T) {
	alerts := []models.Alert{
		{UserID: "alice", Risk: riskPtr(90)},
		{UserID: "alice", Risk: riskPtr(30)},
		{UserID: "bob", Risk: riskPtr(50)},
		{UserID: "", Risk: riskPtr(10)},
		{UserID: "carol"},
	}

	ranked := TopUsersByRisk(alerts, 10)
	if len(ranked) != 4 {
		t.Fatalf("expected 4 users, got %d", len(ranked))
	}
	if ranked[0].UserID != "alice" || ranked[0].TotalRisk != 120 || ranked[0].AlertCount != 2 {
		t.Fatalf("unexpected top user: %+v", ranked[0])
	}
	if ranked[0].Band.Label != "Critical" {
		t.Fatalf("max risk 90 must band Critical, got %s", ranked[0].Band.Label)
	}
	if ranked[1].UserID != "bob" {
		t.Fatalf("expected bob second, got %s", ranked[1].UserID)
	}

	var foundUnknown bool
	for _, user := range ranked {
		if user.UserID == "unknown" {
			foundUnknown = true
		}
	}
	if !foundUnknown {
		t.Fatal("blank user ids must aggregate under unknown")
	}
}

func TestTopUsersByRiskLimit(t *testing.T) {
	alerts := []models.Alert{
		{UserID: "a", Risk: riskPtr(3)},
		{UserID: "b", Risk: riskPtr(2)},
		{UserID: "c", Risk: riskPtr(1)},
	}
	if got := len(TopUsersByRisk(alerts, 2)); got != 2 {
		t.Fatalf("expected limit 2, got %d ranked users", got)
	}
}

func TestLevelDistribution(t *testing.T) {
	alerts := []models.Alert{
		{RuleLevel: "High"},
		{RuleLevel: "high"},
		{RuleLevel: "medium"},
		{RuleLevel: ""},
	}

	dist := LevelDistribution(alerts)
	if len(dist) != 3 {
		t.Fatalf("expected 3 buckets, got %d", len(dist))
	}
	if dist[0].Label != "high" || dist[0].Count != 2 {
		t.Fatalf("levels must be case-folded: %+v", dist[0])
	}
	var foundUnknown bool
	for _, bucket := range dist {
		if bucket.Label == "unknown" && bucket.Count == 1 {
			foundUnknown = true
		}
	}
	if !foundUnknown {
		t.Fatal("blank level must bucket under unknown")
	}
}

func TestTacticDistribution(t *testing.T) {
	alerts := []models.Alert{
		{Tags: "attack.initial_access,T1078"},
		{Tags: "attack.initial_access,attack.execution"},
		{Tags: "T1059"},
		{Tags: ""},
	}

	dist := TacticDistribution(alerts)
	if len(dist) != 2 {
		t.Fatalf("expected 2 tactics, got %+v", dist)
	}
	if dist[0].Label != "Initial Access" || dist[0].Count != 2 {
		t.Fatalf("unexpected top tactic: %+v", dist[0])
	}
	if dist[1].Label != "Execution" || dist[1].Count != 1 {
		t.Fatalf("unexpected second tactic: %+v", dist[1])
	}
}
