package models

import (
	"encoding/json"
	"time"
)

// Alert is one detection record from the security-event store. Only the
// identifier and system time are guaranteed; every other field may be empty
// depending on the source feed.
type Alert struct {
	ID               string    `json:"id"`
	SystemTime       time.Time `json:"system_time"`
	Title            string    `json:"title,omitempty"`
	Description      string    `json:"description,omitempty"`
	Tags             string    `json:"tags,omitempty"`
	Raw              string    `json:"raw,omitempty"`
	UserID           string    `json:"user_id,omitempty"`
	TargetUserName   string    `json:"target_user_name,omitempty"`
	TargetDomainName string    `json:"target_domain_name,omitempty"`
	ComputerName     string    `json:"computer_name,omitempty"`
	RuleLevel        string    `json:"rule_level,omitempty"`
	Risk             *float64  `json:"risk,omitempty"`
	RuleID           string    `json:"ruleid,omitempty"`
	ProviderName     string    `json:"provider_name,omitempty"`
	EventID          string    `json:"event_id,omitempty"`
	Task             string    `json:"task,omitempty"`
	IPAddress        string    `json:"ip_address,omitempty"`
	DBSCANCluster    *int      `json:"dbscan_cluster,omitempty"`
}

// RiskScore returns the numeric score, or 0 when the feed omitted one.
func (a Alert) RiskScore() float64 {
	if a.Risk == nil {
		return 0
	}
	return *a.Risk
}

// PrettyRaw re-indents the opaque original payload for detail views. A raw
// field that is not valid JSON is reported as malformed without touching the
// rest of the record.
func (a Alert) PrettyRaw() (string, error) {
	if a.Raw == "" {
		return "", nil
	}
	var buf json.RawMessage
	if err := json.Unmarshal([]byte(a.Raw), &buf); err != nil {
		return "", err
	}
	out, err := json.MarshalIndent(buf, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// AlertPage is one normalized page of feed results.
type AlertPage struct {
	Alerts       []Alert
	TotalRecords int
}

// PaginationState tracks progress through the paginated feed.
type PaginationState struct {
	CurrentPage  int  `json:"current_page"`
	PerPage      int  `json:"per_page"`
	TotalRecords int  `json:"total_records"`
	HasMore      bool `json:"has_more"`
}

// ComputeHasMore reports whether pages remain past currentPage.
func ComputeHasMore(currentPage, perPage, totalRecords int) bool {
	if perPage <= 0 || totalRecords <= 0 {
		return false
	}
	totalPages := (totalRecords + perPage - 1) / perPage
	return currentPage < totalPages
}
