package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels operations that completed.
	OutcomeSuccess = "success"
	// OutcomeError labels failed operations (transport or dependency issues).
	OutcomeError = "error"
)

var (
	pageLoadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sigmalens",
			Name:      "page_loads_total",
			Help:      "Total number of alert feed page loads, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	pageLoadSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "sigmalens",
			Name:      "page_load_seconds",
			Help:      "Alert feed page load latency in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 15},
		},
	)

	timelineResolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sigmalens",
			Name:      "timeline_resolutions_total",
			Help:      "Total number of entity timeline resolutions, partitioned by classification and outcome.",
		},
		[]string{"class", "outcome"},
	)

	timelineResolveSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "sigmalens",
			Name:      "timeline_resolve_seconds",
			Help:      "Entity timeline resolution latency in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
	)

	malformedRecordsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "sigmalens",
			Name:      "malformed_records_total",
			Help:      "Feed or timeline records dropped because a field failed to parse.",
		},
	)

	timelineCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sigmalens",
			Name:      "timeline_cache_total",
			Help:      "Timeline query cache lookups, partitioned by result.",
		},
		[]string{"result"},
	)
)

// Register attaches sigmalens collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		pageLoadsTotal,
		pageLoadSeconds,
		timelineResolutionsTotal,
		timelineResolveSeconds,
		malformedRecordsTotal,
		timelineCacheTotal,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObservePageLoad records a page load duration and outcome label.
func ObservePageLoad(duration time.Duration, outcome string) {
	pageLoadsTotal.WithLabelValues(normalizeOutcome(outcome)).Inc()
	if duration < 0 {
		duration = 0
	}
	pageLoadSeconds.Observe(duration.Seconds())
}

// ObserveTimelineResolve records one resolution per classification.
func ObserveTimelineResolve(class string, duration time.Duration, outcome string) {
	timelineResolutionsTotal.WithLabelValues(class, normalizeOutcome(outcome)).Inc()
	if duration < 0 {
		duration = 0
	}
	timelineResolveSeconds.Observe(duration.Seconds())
}

// IncMalformedRecord counts one dropped record.
func IncMalformedRecord() {
	malformedRecordsTotal.Inc()
}

// IncTimelineCache counts one cache lookup.
func IncTimelineCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	timelineCacheTotal.WithLabelValues(result).Inc()
}

func normalizeOutcome(outcome string) string {
	if outcome == OutcomeError {
		return OutcomeError
	}
	return OutcomeSuccess
}
