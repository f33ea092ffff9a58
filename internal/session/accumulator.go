// Package session maintains the growing alert views behind one dashboard
// session: a current table view that page-1 loads rebuild, and a cumulative
// view that only ever appends across pages.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/sigmalens/sigmalens/internal/metrics"
	"github.com/sigmalens/sigmalens/internal/models"
	"github.com/sigmalens/sigmalens/internal/notify"
	"github.com/sigmalens/sigmalens/internal/utils"
)

// AlertSource is the paginated feed collaborator.
type AlertSource interface {
	FetchAlertPage(ctx context.Context, page, perPage int) (models.AlertPage, error)
}

// ErrSuperseded reports that a newer load or reset started while this one
// was in flight; its result was discarded without touching either view.
var ErrSuperseded = errors.New("page load superseded")

// Config controls accumulation behavior.
type Config struct {
	PerPage       int
	RecencyWindow time.Duration
}

// Accumulator merges successive page loads into the session's views. Loads
// for one accumulator are serialized by request order: a completion that
// arrives after a newer request began is dropped, so views only ever advance.
type Accumulator struct {
	source   AlertSource
	perPage  int
	window   time.Duration
	now      func() time.Time
	notifier notify.Notifier
	logger   *slog.Logger

	mu         sync.Mutex
	reqSeq     uint64
	version    uint64
	tableView  []models.Alert
	cumulative []models.Alert
	pagination models.PaginationState
}

// New constructs an accumulator over the given feed.
func New(source AlertSource, cfg Config, notifier notify.Notifier, logger *slog.Logger) *Accumulator {
	if cfg.PerPage <= 0 {
		cfg.PerPage = 50
	}
	if cfg.RecencyWindow <= 0 {
		cfg.RecencyWindow = 7 * 24 * time.Hour
	}
	if notifier == nil {
		notifier = notify.NewSlogNotifier(logger)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Accumulator{
		source:     source,
		perPage:    cfg.PerPage,
		window:     cfg.RecencyWindow,
		now:        time.Now,
		notifier:   notifier,
		logger:     logger,
		pagination: models.PaginationState{CurrentPage: 1, PerPage: cfg.PerPage},
	}
}

// SetClock overrides the recency-filter clock.
func (a *Accumulator) SetClock(now func() time.Time) {
	a.mu.Lock()
	a.now = now
	a.mu.Unlock()
}

// Snapshot is a point-in-time copy of the session state. Observers poll the
// version counter to notice progress.
type Snapshot struct {
	Version    uint64                 `json:"version"`
	TableView  []models.Alert         `json:"table_view"`
	Cumulative []models.Alert         `json:"cumulative"`
	Pagination models.PaginationState `json:"pagination"`
}

// Snapshot returns the current state.
func (a *Accumulator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshotLocked()
}

func (a *Accumulator) snapshotLocked() Snapshot {
	return Snapshot{
		Version:    a.version,
		TableView:  append([]models.Alert(nil), a.tableView...),
		Cumulative: append([]models.Alert(nil), a.cumulative...),
		Pagination: a.pagination,
	}
}

// Reset clears both views and restarts the page counter. Any in-flight load
// is superseded.
func (a *Accumulator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reqSeq++
	a.version++
	a.tableView = nil
	a.cumulative = nil
	a.pagination = models.PaginationState{CurrentPage: 1, PerPage: a.perPage}
}

// LoadPage fetches one feed page and merges it. Page 1 replaces both views;
// later pages append in arrival order. A failed fetch leaves both views
// exactly as they were and surfaces the tagged error.
func (a *Accumulator) LoadPage(ctx context.Context, page int) (Snapshot, error) {
	if page < 1 {
		page = 1
	}

	a.mu.Lock()
	a.reqSeq++
	mySeq := a.reqSeq
	a.mu.Unlock()

	start := time.Now()
	result, err := a.source.FetchAlertPage(ctx, page, a.perPage)
	elapsed := time.Since(start)

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.reqSeq != mySeq {
		a.logger.Debug("discarding superseded page load", slog.Int("page", page))
		return a.snapshotLocked(), ErrSuperseded
	}

	if err != nil {
		metrics.ObservePageLoad(elapsed, metrics.OutcomeError)
		a.notifyFailure(err)
		a.logger.Error("page load failed", slog.Int("page", page), slog.Any("error", err))
		return a.snapshotLocked(), err
	}

	// The recency window is evaluated against "now" on every successful
	// load, not against the fetch time, so stale windows never stick.
	now := a.now()
	fresh := make([]models.Alert, 0, len(result.Alerts))
	for _, alert := range result.Alerts {
		if utils.WithinWindow(alert.SystemTime, now, a.window) {
			fresh = append(fresh, alert)
		}
	}

	if page == 1 {
		a.tableView = fresh
		a.cumulative = append([]models.Alert(nil), fresh...)
	} else {
		a.tableView = append(a.tableView, fresh...)
		a.cumulative = append(a.cumulative, fresh...)
	}

	a.pagination = models.PaginationState{
		CurrentPage:  page,
		PerPage:      a.perPage,
		TotalRecords: result.TotalRecords,
		HasMore:      models.ComputeHasMore(page, a.perPage, result.TotalRecords),
	}
	a.version++

	metrics.ObservePageLoad(elapsed, metrics.OutcomeSuccess)
	a.logger.Debug("page merged",
		slog.Int("page", page),
		slog.Int("fresh", len(fresh)),
		slog.Int("cumulative", len(a.cumulative)))

	return a.snapshotLocked(), nil
}

func (a *Accumulator) notifyFailure(err error) {
	switch utils.KindOf(err) {
	case utils.KindTimeout:
		a.notifier.Notify(notify.LevelError, "alert feed timed out; showing last loaded data")
	case utils.KindTransport:
		a.notifier.Notify(notify.LevelError, "alert feed unreachable; showing last loaded data")
	default:
		a.notifier.Notify(notify.LevelWarning, "alert feed request failed")
	}
}
