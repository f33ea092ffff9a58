package store

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sigmalens/sigmalens/internal/utils"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newTestClient(fn roundTripFunc) *http.Client {
	return &http.Client{Transport: fn}
}

func jsonBody(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       readCloser(body),
	}
}

func readCloser(s string) *nopCloser {
	return &nopCloser{Reader: strings.NewReader(s)}
}

type nopCloser struct {
	*strings.Reader
}

func (nopCloser) Close() error { return nil }

func testFeedClient(fn roundTripFunc) *FeedClient {
	c := NewFeedClient(FeedConfig{
		BaseURL:         "http://store.local",
		AlertsPath:      "/api/v1/alerts",
		MaxAttempts:     3,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
	}, nil)
	c.httpClient = newTestClient(fn)
	return c
}

const feedPage = `{
  "alerts": [
    {"id": "a-1", "system_time": "2026-03-10T11:00:00Z", "title": "First", "risk": 75.5},
    {"id": "a-2", "system_time": "2026-03-10 10:30:00", "title": "Second"}
  ],
  "pagination": {"current_page": 1, "per_page": 50, "total_pages": 3, "total_records": 101}
}`

func TestFetchAlertPageDecodesAndNormalizes(t *testing.T) {
	client := testFeedClient(func(req *http.Request) (*http.Response, error) {
		if got := req.URL.Query().Get("page"); got != "2" {
			t.Fatalf("expected page=2 query, got %q", got)
		}
		if got := req.URL.Query().Get("per_page"); got != "50" {
			t.Fatalf("expected per_page=50 query, got %q", got)
		}
		return jsonBody(http.StatusOK, feedPage), nil
	})

	page, err := client.FetchAlertPage(context.Background(), 2, 50)
	if err != nil {
		t.Fatalf("FetchAlertPage failed: %v", err)
	}
	if len(page.Alerts) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(page.Alerts))
	}
	if page.TotalRecords != 101 {
		t.Fatalf("expected 101 total records, got %d", page.TotalRecords)
	}
	if page.Alerts[0].RiskScore() != 75.5 {
		t.Fatalf("expected risk 75.5, got %v", page.Alerts[0].RiskScore())
	}
	if page.Alerts[1].RiskScore() != 0 {
		t.Fatalf("absent risk must default to 0, got %v", page.Alerts[1].RiskScore())
	}
	want := time.Date(2026, 3, 10, 10, 30, 0, 0, time.UTC)
	if !page.Alerts[1].SystemTime.Equal(want) {
		t.Fatalf("space-separated timestamp not parsed: %v", page.Alerts[1].SystemTime)
	}
}

func TestFetchAlertPageDropsMalformedRecords(t *testing.T) {
	const body = `{
  "alerts": [
    {"id": "good", "system_time": "2026-03-10T11:00:00Z"},
    {"id": "bad", "system_time": "not a timestamp"},
    {"id": "", "system_time": "2026-03-10T10:00:00Z"}
  ],
  "pagination": {"total_records": 3}
}`
	client := testFeedClient(func(req *http.Request) (*http.Response, error) {
		return jsonBody(http.StatusOK, body), nil
	})
	client.newID = func() string { return "generated-id" }

	page, err := client.FetchAlertPage(context.Background(), 1, 50)
	if err != nil {
		t.Fatalf("FetchAlertPage failed: %v", err)
	}
	if len(page.Alerts) != 2 {
		t.Fatalf("malformed record must be dropped, got %d alerts", len(page.Alerts))
	}
	if page.Alerts[1].ID != "generated-id" {
		t.Fatalf("blank id must be replaced, got %q", page.Alerts[1].ID)
	}
}

func TestFetchAlertPageReportsUpstreamTotalVerbatim(t *testing.T) {
	const body = `{
  "alerts": [
    {"id": "a-1", "system_time": "2026-03-10T11:00:00Z"},
    {"id": "a-2", "system_time": "2026-03-10T10:00:00Z"}
  ],
  "pagination": {"total_records": 1}
}`
	client := testFeedClient(func(req *http.Request) (*http.Response, error) {
		return jsonBody(http.StatusOK, body), nil
	})

	page, err := client.FetchAlertPage(context.Background(), 1, 50)
	if err != nil {
		t.Fatalf("FetchAlertPage failed: %v", err)
	}
	if len(page.Alerts) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(page.Alerts))
	}
	if page.TotalRecords != 1 {
		t.Fatalf("reported total must pass through unchanged, got %d", page.TotalRecords)
	}
}

func TestFetchAlertPageRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	client := testFeedClient(func(req *http.Request) (*http.Response, error) {
		if calls.Add(1) < 3 {
			return jsonBody(http.StatusBadGateway, "upstream down"), nil
		}
		return jsonBody(http.StatusOK, feedPage), nil
	})

	page, err := client.FetchAlertPage(context.Background(), 1, 50)
	if err != nil {
		t.Fatalf("expected retries to recover, got %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls.Load())
	}
	if len(page.Alerts) != 2 {
		t.Fatalf("expected 2 alerts after recovery, got %d", len(page.Alerts))
	}
}

func TestFetchAlertPageRetryBound(t *testing.T) {
	var calls atomic.Int32
	client := testFeedClient(func(req *http.Request) (*http.Response, error) {
		calls.Add(1)
		return jsonBody(http.StatusServiceUnavailable, "down"), nil
	})

	_, err := client.FetchAlertPage(context.Background(), 1, 50)
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if !utils.IsTransport(err) {
		t.Fatalf("expected transport kind, got %v", utils.KindOf(err))
	}
	if calls.Load() != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", calls.Load())
	}
}

func TestFetchAlertPageClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	client := testFeedClient(func(req *http.Request) (*http.Response, error) {
		calls.Add(1)
		return jsonBody(http.StatusNotFound, "no such endpoint"), nil
	})

	_, err := client.FetchAlertPage(context.Background(), 1, 50)
	if !utils.IsValidation(err) {
		t.Fatalf("expected validation kind for 4xx, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("4xx must not be retried, got %d attempts", calls.Load())
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "deadline exceeded" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestFetchAlertPageTaggedKinds(t *testing.T) {
	timeoutClient := testFeedClient(func(req *http.Request) (*http.Response, error) {
		return nil, timeoutErr{}
	})
	if _, err := timeoutClient.FetchAlertPage(context.Background(), 1, 50); !utils.IsTimeout(err) {
		t.Fatalf("expected timeout kind, got %v", err)
	}

	transportClient := testFeedClient(func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})
	if _, err := transportClient.FetchAlertPage(context.Background(), 1, 50); !utils.IsTransport(err) {
		t.Fatalf("expected transport kind, got %v", err)
	}

	malformedClient := testFeedClient(func(req *http.Request) (*http.Response, error) {
		return jsonBody(http.StatusOK, "<html>not json</html>"), nil
	})
	if _, err := malformedClient.FetchAlertPage(context.Background(), 1, 50); !utils.IsMalformedData(err) {
		t.Fatalf("expected malformed-data kind, got %v", err)
	}
}

func TestFetchAlertPageRequiresBaseURL(t *testing.T) {
	client := NewFeedClient(FeedConfig{AlertsPath: "/alerts"}, nil)
	if _, err := client.FetchAlertPage(context.Background(), 1, 50); !utils.IsValidation(err) {
		t.Fatalf("expected validation error without base URL, got %v", err)
	}
}
