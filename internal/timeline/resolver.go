// Package timeline resolves per-entity event timelines: route the entity
// classification to its backing query, validate the correlation key, and
// reshape the rows into one enriched event-summary sequence.
package timeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/sigmalens/sigmalens/internal/metrics"
	"github.com/sigmalens/sigmalens/internal/mitre"
	"github.com/sigmalens/sigmalens/internal/models"
	"github.com/sigmalens/sigmalens/internal/risk"
	"github.com/sigmalens/sigmalens/internal/store"
	"github.com/sigmalens/sigmalens/internal/utils"
)

// Source is the timeline query collaborator.
type Source interface {
	FetchTimeline(ctx context.Context, source store.TimelineSource, key, title string, timeframe models.Timeframe) ([]models.EventSummary, error)
}

// State names one phase of a per-entity resolution.
type State string

const (
	StateIdle      State = "idle"
	StateResolving State = "resolving"
	StateSuccess   State = "success"
	StateEmpty     State = "empty"
	StateFailed    State = "failed"
)

// ErrSuperseded reports that a newer resolution for the same entity started
// while this one was in flight; its result was discarded.
var ErrSuperseded = errors.New("timeline resolution superseded")

// Entry is one timeline row enriched with the display attributes the
// presentation layer renders directly.
type Entry struct {
	models.EventSummary
	Band       risk.Band `json:"band"`
	Tactics    []string  `json:"tactics"`
	Techniques []string  `json:"techniques"`
}

// Result is the terminal (or current) value of one entity's state machine.
type Result struct {
	State   State   `json:"state"`
	Entries []Entry `json:"entries,omitempty"`
	ErrKind string  `json:"error_kind,omitempty"`
	ErrMsg  string  `json:"error,omitempty"`
}

type slot struct {
	seq    uint64
	result Result
}

// Resolver owns one state machine per (classification, entity) key.
// Resolutions for different entities proceed independently; a new resolution
// for the same key supersedes the in-flight one by request order.
type Resolver struct {
	source    Source
	logger    *slog.Logger
	latencies *utils.LatencyTracker

	mu    sync.Mutex
	slots map[string]*slot
}

// NewResolver constructs a resolver over the given timeline source.
func NewResolver(source Source, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		source:    source,
		logger:    logger,
		latencies: utils.NewLatencyTracker(1024),
		slots:     make(map[string]*slot),
	}
}

// route maps a classification to its backing source and required key.
// Impacted-user timelines request logs by computer name, the same backing
// key the computer timeline uses. That mirrors the observed endpoint
// routing; see the routing test before changing it.
func route(req models.TimelineRequest) (store.TimelineSource, string, error) {
	switch req.Class {
	case models.EntityUserOrigin:
		if req.UserID == "" {
			return "", "", utils.E(utils.KindValidation, "timeline.resolve", "alert has no origin user to correlate on", nil)
		}
		return store.SourceUserOrigin, req.UserID, nil
	case models.EntityUserImpacted, models.EntityComputersImpacted:
		if req.ComputerName == "" {
			return "", "", utils.E(utils.KindValidation, "timeline.resolve", "alert has no computer name to correlate on", nil)
		}
		return store.SourceComputer, req.ComputerName, nil
	default:
		return "", "", utils.E(utils.KindValidation, "timeline.resolve", fmt.Sprintf("unrecognized entity classification %q", req.Class), nil)
	}
}

// Resolve runs one resolution to its terminal state and returns the result.
// Validation failures short-circuit before any query is issued.
func (r *Resolver) Resolve(ctx context.Context, req models.TimelineRequest) (Result, error) {
	source, key, err := route(req)
	if err != nil {
		metrics.ObserveTimelineResolve(string(req.Class), 0, metrics.OutcomeError)
		return Result{State: StateFailed, ErrKind: utils.KindOf(err).String(), ErrMsg: err.Error()}, err
	}

	slotKey := string(req.Class) + "|" + key

	r.mu.Lock()
	s, ok := r.slots[slotKey]
	if !ok {
		s = &slot{result: Result{State: StateIdle}}
		r.slots[slotKey] = s
	}
	s.seq++
	mySeq := s.seq
	s.result = Result{State: StateResolving}
	r.mu.Unlock()

	timeframe := req.Timeframe
	if timeframe != models.Timeframe7d {
		timeframe = models.Timeframe24h
	}

	start := time.Now()
	summaries, err := r.source.FetchTimeline(ctx, source, key, req.Title, timeframe)
	elapsed := time.Since(start)

	r.mu.Lock()
	defer r.mu.Unlock()

	if s.seq != mySeq {
		r.logger.Debug("discarding superseded resolution", slog.String("entity", key))
		return s.result, ErrSuperseded
	}

	if err != nil {
		metrics.ObserveTimelineResolve(string(req.Class), elapsed, metrics.OutcomeError)
		s.result = Result{State: StateFailed, ErrKind: utils.KindOf(err).String(), ErrMsg: err.Error()}
		r.logger.Error("timeline resolution failed",
			slog.String("class", string(req.Class)),
			slog.String("entity", key),
			slog.Any("error", err))
		return s.result, err
	}

	entries := enrich(summaries)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].LastTimeSeen.After(entries[j].LastTimeSeen)
	})

	state := StateSuccess
	if len(entries) == 0 {
		// No events in the window is a valid terminal state, not an error.
		state = StateEmpty
	}
	s.result = Result{State: state, Entries: entries}

	metrics.ObserveTimelineResolve(string(req.Class), elapsed, metrics.OutcomeSuccess)
	r.latencies.Observe(elapsed)
	if count := r.latencies.Count(); count >= 20 && count%20 == 0 {
		r.logger.Info("timeline resolution latency",
			slog.Duration("p95", r.latencies.Percentile(95)),
			slog.Int("samples", count))
	}

	return s.result, nil
}

// State returns the current state machine snapshot for an entity key, or an
// Idle result when the entity has never been resolved.
func (r *Resolver) State(class models.EntityClass, entity string) Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.slots[string(class)+"|"+entity]; ok {
		return s.result
	}
	return Result{State: StateIdle}
}

// LatencyP95 returns the current p95 resolution latency.
func (r *Resolver) LatencyP95() time.Duration {
	return r.latencies.Percentile(95)
}

func enrich(summaries []models.EventSummary) []Entry {
	entries := make([]Entry, 0, len(summaries))
	for _, summary := range summaries {
		tags := mitre.ParseTags(summary.Tags)
		entries = append(entries, Entry{
			EventSummary: summary,
			Band:         risk.Gauge(summary.Risk),
			Tactics:      tags.Tactics,
			Techniques:   tags.Techniques,
		})
	}
	return entries
}
