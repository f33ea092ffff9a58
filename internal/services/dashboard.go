// Package services ties the session accumulator, the timeline resolver, and
// the widget aggregates into the facade the API layer calls.
package services

import (
	"context"
	"log/slog"

	"github.com/sigmalens/sigmalens/internal/models"
	"github.com/sigmalens/sigmalens/internal/notify"
	"github.com/sigmalens/sigmalens/internal/session"
	"github.com/sigmalens/sigmalens/internal/stats"
	"github.com/sigmalens/sigmalens/internal/timeline"
)

// Dashboard is the per-session service facade.
type Dashboard struct {
	logger   *slog.Logger
	session  *session.Accumulator
	resolver *timeline.Resolver
	notices  *notify.Recorder
}

// NewDashboard constructs the facade. The recorder may be nil when the
// deployment has no notification surface.
func NewDashboard(logger *slog.Logger, sess *session.Accumulator, resolver *timeline.Resolver, notices *notify.Recorder) *Dashboard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dashboard{
		logger:   logger,
		session:  sess,
		resolver: resolver,
		notices:  notices,
	}
}

// LoadAlerts merges one feed page into the session and returns the updated
// snapshot. On failure the previous snapshot comes back with the error.
func (d *Dashboard) LoadAlerts(ctx context.Context, page int) (session.Snapshot, error) {
	return d.session.LoadPage(ctx, page)
}

// Alerts returns the current session snapshot without touching the feed.
func (d *Dashboard) Alerts() session.Snapshot {
	return d.session.Snapshot()
}

// ResetSession clears both alert views, superseding any in-flight load.
func (d *Dashboard) ResetSession() {
	d.session.Reset()
}

// WidgetStats summarises the cumulative view for the distribution widgets.
type WidgetStats struct {
	TopUsers []stats.UserRisk   `json:"top_users"`
	Levels   []stats.LabelCount `json:"levels"`
	Tactics  []stats.LabelCount `json:"tactics"`
}

// Stats derives the widget aggregates from the cumulative view.
func (d *Dashboard) Stats(topUsers int) WidgetStats {
	snapshot := d.session.Snapshot()
	return WidgetStats{
		TopUsers: stats.TopUsersByRisk(snapshot.Cumulative, topUsers),
		Levels:   stats.LevelDistribution(snapshot.Cumulative),
		Tactics:  stats.TacticDistribution(snapshot.Cumulative),
	}
}

// EntityTimeline resolves one entity's event timeline.
func (d *Dashboard) EntityTimeline(ctx context.Context, req models.TimelineRequest) (timeline.Result, error) {
	return d.resolver.Resolve(ctx, req)
}

// DrainNotices hands out and clears pending transient notices.
func (d *Dashboard) DrainNotices() []notify.Notice {
	if d.notices == nil {
		return nil
	}
	return d.notices.Drain()
}
