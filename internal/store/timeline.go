package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sigmalens/sigmalens/internal/cache"
	"github.com/sigmalens/sigmalens/internal/metrics"
	"github.com/sigmalens/sigmalens/internal/models"
	"github.com/sigmalens/sigmalens/internal/utils"
)

// TimelineSource identifies one of the three backing timeline endpoints.
// Each returns the same semantic columns under a different entity key name.
type TimelineSource string

const (
	SourceUserOrigin   TimelineSource = "user_origin"
	SourceUserImpacted TimelineSource = "user_impacted"
	SourceComputer     TimelineSource = "computer_name"
)

// KeyColumn is the entity key column name the endpoint expects and returns.
func (s TimelineSource) KeyColumn() string { return string(s) }

// TimelineConfig configures access to the entity-timeline endpoints.
type TimelineConfig struct {
	BaseURL          string
	UserOriginPath   string
	UserImpactedPath string
	ComputerPath     string
	Timeout          time.Duration
	CacheTTL         time.Duration
}

// TimelineClient queries the timeframe-scoped entity timeline endpoints and
// normalizes their differently-named row shapes into EventSummary. Results
// are cached; cache failures fall through to the network, never to the
// caller.
type TimelineClient struct {
	baseURL    string
	paths      map[TimelineSource]string
	httpClient *http.Client
	cache      cache.Provider
	cacheTTL   time.Duration
	logger     *slog.Logger
}

// NewTimelineClient constructs a client over the configured endpoints.
func NewTimelineClient(cfg TimelineConfig, provider cache.Provider, logger *slog.Logger) *TimelineClient {
	if logger == nil {
		logger = slog.Default()
	}
	if provider == nil {
		provider = cache.NoopProvider{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &TimelineClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		paths: map[TimelineSource]string{
			SourceUserOrigin:   cfg.UserOriginPath,
			SourceUserImpacted: cfg.UserImpactedPath,
			SourceComputer:     cfg.ComputerPath,
		},
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cache:      provider,
		cacheTTL:   cfg.CacheTTL,
		logger:     logger,
	}
}

type timelineRow struct {
	UserOrigin    string   `json:"user_origin"`
	UserImpacted  string   `json:"user_impacted"`
	ComputerName  string   `json:"computer_name"`
	Title         string   `json:"title"`
	Tags          string   `json:"tags"`
	Description   string   `json:"description"`
	RuleLevel     string   `json:"rule_level"`
	Risk          *float64 `json:"risk"`
	FirstTimeSeen string   `json:"first_time_seen"`
	LastTimeSeen  string   `json:"last_time_seen"`
	TotalEvents   int      `json:"total_events"`
}

// FetchTimeline queries one timeline source for the given correlation key.
// The backing query performs the grouping; this client only renames and
// unions the row shape into the canonical EventSummary.
func (c *TimelineClient) FetchTimeline(ctx context.Context, source TimelineSource, key, title string, timeframe models.Timeframe) ([]models.EventSummary, error) {
	const op = "timeline.fetch"
	if c.baseURL == "" {
		return nil, utils.E(utils.KindValidation, op, "alert store base URL not configured", nil)
	}
	p, ok := c.paths[source]
	if !ok || p == "" {
		return nil, utils.E(utils.KindValidation, op, fmt.Sprintf("no endpoint for source %q", source), nil)
	}

	cacheKey := fmt.Sprintf("timeline:%s:%s:%s:%s", source, key, title, timeframe)
	if cached, err := c.cache.Get(ctx, cacheKey); err == nil {
		var summaries []models.EventSummary
		if err := json.Unmarshal(cached, &summaries); err == nil {
			metrics.IncTimelineCache(true)
			return summaries, nil
		}
		// A corrupt entry is evicted and refetched.
		_ = c.cache.Del(ctx, cacheKey)
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		c.logger.Debug("timeline cache read failed", slog.Any("error", err))
	}
	metrics.IncTimelineCache(false)

	payload := map[string]any{
		source.KeyColumn(): key,
		"timeframe":        string(timeframe),
	}
	if title != "" {
		payload["title"] = title
	}

	var response struct {
		Rows []timelineRow `json:"rows"`
	}
	if err := c.postJSON(ctx, resolvePath(c.baseURL, p), payload, &response); err != nil {
		return nil, err
	}

	summaries := make([]models.EventSummary, 0, len(response.Rows))
	for _, row := range response.Rows {
		summary, err := c.normalizeRow(source, row)
		if err != nil {
			metrics.IncMalformedRecord()
			c.logger.Warn("dropping malformed timeline row",
				slog.String("title", row.Title), slog.Any("error", err))
			continue
		}
		summaries = append(summaries, summary)
	}

	if encoded, err := json.Marshal(summaries); err == nil {
		if err := c.cache.Set(ctx, cacheKey, encoded, c.cacheTTL); err != nil {
			c.logger.Debug("timeline cache write failed", slog.Any("error", err))
		}
	}

	return summaries, nil
}

func (c *TimelineClient) normalizeRow(source TimelineSource, row timelineRow) (models.EventSummary, error) {
	first, err := utils.ParseAlertTime(row.FirstTimeSeen)
	if err != nil {
		return models.EventSummary{}, utils.E(utils.KindMalformedData, "timeline.normalize", "unparseable first_time_seen", err)
	}
	last, err := utils.ParseAlertTime(row.LastTimeSeen)
	if err != nil {
		return models.EventSummary{}, utils.E(utils.KindMalformedData, "timeline.normalize", "unparseable last_time_seen", err)
	}
	if last.Before(first) {
		first, last = last, first
	}

	entity := row.UserOrigin
	switch source {
	case SourceUserImpacted:
		entity = row.UserImpacted
	case SourceComputer:
		entity = row.ComputerName
	}

	total := row.TotalEvents
	if total < 1 {
		total = 1
	}

	return models.EventSummary{
		Entity:        entity,
		Title:         row.Title,
		Tags:          row.Tags,
		Description:   row.Description,
		RuleLevel:     row.RuleLevel,
		Risk:          row.Risk,
		FirstTimeSeen: first,
		LastTimeSeen:  last,
		TotalEvents:   total,
	}, nil
}

func (c *TimelineClient) postJSON(ctx context.Context, endpoint string, payload any, out any) error {
	const op = "timeline.fetch"

	body, err := json.Marshal(payload)
	if err != nil {
		return utils.E(utils.KindValidation, op, "marshal payload", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return utils.E(utils.KindValidation, op, "bad request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return utils.ClassifyFetchError(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return utils.E(utils.KindTransport, op, fmt.Sprintf("alert store returned %s", resp.Status), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return utils.E(utils.KindMalformedData, op, "decode response", err)
	}
	return nil
}
