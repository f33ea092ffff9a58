package models

import (
	"fmt"
	"strings"
	"time"
)

// EntityClass selects which actor axis a timeline is scoped to.
type EntityClass string

const (
	EntityUserOrigin        EntityClass = "userorigin"
	EntityUserImpacted      EntityClass = "userimpacted"
	EntityComputersImpacted EntityClass = "computersimpacted"
)

// ParseEntityClass validates a classification string coming from a caller.
func ParseEntityClass(value string) (EntityClass, error) {
	switch EntityClass(strings.ToLower(strings.TrimSpace(value))) {
	case EntityUserOrigin:
		return EntityUserOrigin, nil
	case EntityUserImpacted:
		return EntityUserImpacted, nil
	case EntityComputersImpacted:
		return EntityComputersImpacted, nil
	}
	return "", fmt.Errorf("unrecognized entity classification %q", value)
}

// Timeframe is the query-scoping window for entity-timeline lookups. Only two
// granularities exist; anything else falls back to 24h.
type Timeframe string

const (
	Timeframe24h Timeframe = "24h"
	Timeframe7d  Timeframe = "7d"
)

// ParseTimeframe never fails; unknown values default to the 24h window.
func ParseTimeframe(value string) Timeframe {
	if Timeframe(strings.ToLower(strings.TrimSpace(value))) == Timeframe7d {
		return Timeframe7d
	}
	return Timeframe24h
}

// Duration returns the window length the timeframe covers.
func (t Timeframe) Duration() time.Duration {
	if t == Timeframe7d {
		return 7 * 24 * time.Hour
	}
	return 24 * time.Hour
}

// EventSummary is a de-duplicated rollup of alerts sharing an entity and a
// title. first/last bounds and the count come from the backing query.
type EventSummary struct {
	Entity        string    `json:"entity"`
	Title         string    `json:"title"`
	Tags          string    `json:"tags,omitempty"`
	Description   string    `json:"description,omitempty"`
	RuleLevel     string    `json:"rule_level,omitempty"`
	Risk          *float64  `json:"risk,omitempty"`
	FirstTimeSeen time.Time `json:"first_time_seen"`
	LastTimeSeen  time.Time `json:"last_time_seen"`
	TotalEvents   int       `json:"total_events"`
}

// TimelineRequest carries everything the resolver needs for one lookup. The
// correlation keys mirror the fields of the alert the user selected.
type TimelineRequest struct {
	Class        EntityClass
	UserID       string
	ComputerName string
	Title        string
	Timeframe    Timeframe
}
