// Package store wraps the alert-store query endpoints the dashboard reads
// from: the paginated sigma-alert feed and the per-entity timeline queries.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"

	"github.com/sigmalens/sigmalens/internal/metrics"
	"github.com/sigmalens/sigmalens/internal/models"
	"github.com/sigmalens/sigmalens/internal/utils"
)

// FeedConfig configures access to the paginated alert feed.
type FeedConfig struct {
	BaseURL         string
	AlertsPath      string
	Timeout         time.Duration
	MaxAttempts     uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// FeedClient fetches alert pages over HTTP JSON. Transient failures are
// retried with exponential backoff; the per-attempt deadline stays fixed so
// a hung store surfaces as a timeout rather than an open-ended stall.
type FeedClient struct {
	baseURL         string
	alertsPath      string
	httpClient      *http.Client
	maxAttempts     uint
	initialInterval time.Duration
	maxInterval     time.Duration
	logger          *slog.Logger
	newID           func() string
}

// NewFeedClient constructs a client targeting the configured alert store.
func NewFeedClient(cfg FeedConfig, logger *slog.Logger) *FeedClient {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = 250 * time.Millisecond
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = 5 * time.Second
	}
	return &FeedClient{
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		alertsPath:      cfg.AlertsPath,
		httpClient:      &http.Client{Timeout: cfg.Timeout},
		maxAttempts:     cfg.MaxAttempts,
		initialInterval: cfg.InitialInterval,
		maxInterval:     cfg.MaxInterval,
		logger:          logger,
		newID:           func() string { return uuid.NewString() },
	}
}

type rawAlert struct {
	ID               string   `json:"id"`
	SystemTime       string   `json:"system_time"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Tags             string   `json:"tags"`
	Raw              string   `json:"raw"`
	UserID           string   `json:"user_id"`
	TargetUserName   string   `json:"target_user_name"`
	TargetDomainName string   `json:"target_domain_name"`
	ComputerName     string   `json:"computer_name"`
	RuleLevel        string   `json:"rule_level"`
	Risk             *float64 `json:"risk"`
	RuleID           string   `json:"ruleid"`
	ProviderName     string   `json:"provider_name"`
	EventID          string   `json:"event_id"`
	Task             string   `json:"task"`
	IPAddress        string   `json:"ip_address"`
	DBSCANCluster    *int     `json:"dbscan_cluster"`
}

type feedResponse struct {
	Alerts     []rawAlert `json:"alerts"`
	Pagination struct {
		CurrentPage  int `json:"current_page"`
		PerPage      int `json:"per_page"`
		TotalPages   int `json:"total_pages"`
		TotalRecords int `json:"total_records"`
	} `json:"pagination"`
}

// FetchAlertPage queries one page of the alert feed and normalizes the
// result. A record whose timestamp cannot be parsed is dropped and counted;
// the rest of the batch survives.
func (c *FeedClient) FetchAlertPage(ctx context.Context, page, perPage int) (models.AlertPage, error) {
	const op = "feed.fetch_page"
	if c.baseURL == "" {
		return models.AlertPage{}, utils.E(utils.KindValidation, op, "alert store base URL not configured", nil)
	}

	endpoint := resolvePath(c.baseURL, c.alertsPath)

	operation := func() (feedResponse, error) {
		var decoded feedResponse
		if err := c.getJSON(ctx, endpoint, page, perPage, &decoded); err != nil {
			return feedResponse{}, err
		}
		return decoded, nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.initialInterval
	bo.MaxInterval = c.maxInterval

	decoded, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(c.maxAttempts),
	)
	if err != nil {
		return models.AlertPage{}, err
	}

	alerts := make([]models.Alert, 0, len(decoded.Alerts))
	for _, raw := range decoded.Alerts {
		alert, err := c.normalize(raw)
		if err != nil {
			metrics.IncMalformedRecord()
			c.logger.Warn("dropping malformed alert record",
				slog.String("id", raw.ID), slog.Any("error", err))
			continue
		}
		alerts = append(alerts, alert)
	}

	// The reported total passes through verbatim; pagination decisions
	// always follow the latest upstream count.
	return models.AlertPage{Alerts: alerts, TotalRecords: decoded.Pagination.TotalRecords}, nil
}

func (c *FeedClient) getJSON(ctx context.Context, endpoint string, page, perPage int, out *feedResponse) error {
	const op = "feed.fetch_page"

	u, err := url.Parse(endpoint)
	if err != nil {
		return backoff.Permanent(utils.E(utils.KindValidation, op, "bad endpoint", err))
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return backoff.Permanent(utils.E(utils.KindValidation, op, "bad request", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return utils.ClassifyFetchError(op, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= http.StatusInternalServerError:
		return utils.E(utils.KindTransport, op, fmt.Sprintf("alert store returned %s", resp.Status), nil)
	default:
		return backoff.Permanent(utils.E(utils.KindValidation, op, fmt.Sprintf("alert store rejected request: %s", resp.Status), nil))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return backoff.Permanent(utils.E(utils.KindMalformedData, op, "decode response", err))
	}
	return nil
}

func (c *FeedClient) normalize(raw rawAlert) (models.Alert, error) {
	ts, err := utils.ParseAlertTime(raw.SystemTime)
	if err != nil {
		return models.Alert{}, utils.E(utils.KindMalformedData, "feed.normalize", "unparseable system_time", err)
	}
	id := raw.ID
	if strings.TrimSpace(id) == "" {
		id = c.newID()
	}
	return models.Alert{
		ID:               id,
		SystemTime:       ts,
		Title:            raw.Title,
		Description:      raw.Description,
		Tags:             raw.Tags,
		Raw:              raw.Raw,
		UserID:           raw.UserID,
		TargetUserName:   raw.TargetUserName,
		TargetDomainName: raw.TargetDomainName,
		ComputerName:     raw.ComputerName,
		RuleLevel:        raw.RuleLevel,
		Risk:             raw.Risk,
		RuleID:           raw.RuleID,
		ProviderName:     raw.ProviderName,
		EventID:          raw.EventID,
		Task:             raw.Task,
		IPAddress:        raw.IPAddress,
		DBSCANCluster:    raw.DBSCANCluster,
	}, nil
}

func resolvePath(baseURL, p string) string {
	cleaned := "/" + strings.TrimLeft(p, "/")
	u, err := url.Parse(baseURL)
	if err != nil {
		return baseURL + cleaned
	}
	u.Path = path.Join(u.Path, cleaned)
	return u.String()
}
