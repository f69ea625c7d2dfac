package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/careerpilot/jobscout/internal/aggregator"
	"github.com/careerpilot/jobscout/internal/history"
	"github.com/careerpilot/jobscout/internal/jobs"
	"github.com/careerpilot/jobscout/internal/ratelimit"
)

type fakeScraper struct {
	name     string
	platform string
	count    int
}

func (f *fakeScraper) Name() string { return f.name }

func (f *fakeScraper) Scrape(_ context.Context, role, _ string) []jobs.Listing {
	out := make([]jobs.Listing, 0, f.count)
	for i := 0; i < f.count; i++ {
		out = append(out, jobs.Listing{
			ID:       f.name + "-" + strings.Repeat("x", i+1),
			Title:    role,
			Company:  "Acme",
			Platform: f.platform,
		})
	}
	return out
}

type stubClock struct {
	now time.Time
}

func (c *stubClock) Now() time.Time { return c.now }

func newTestServer(t *testing.T, maxRequests int) (*httptest.Server, *history.MemoryStore) {
	t.Helper()

	agg := aggregator.New(nil,
		&fakeScraper{name: "linkedin", platform: "LinkedIn", count: 2},
		&fakeScraper{name: "indeed", platform: "Indeed" + jobs.SuggestedSuffix, count: 5},
	)
	clock := &stubClock{now: time.Unix(1700000000, 0).UTC()}
	limiter := ratelimit.New(ratelimit.Config{Window: 10 * time.Second, MaxRequests: maxRequests}, clock)
	hist := history.NewMemoryStore()

	srv := NewServer(agg, limiter, hist, clock, 30*time.Second, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, hist
}

func postSearch(t *testing.T, ts *httptest.Server, body string, headers map[string]string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/v1/jobs/search", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeResult(t *testing.T, resp *http.Response) jobs.SearchResult {
	t.Helper()
	defer resp.Body.Close()

	var result jobs.SearchResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return result
}

func TestSearchJobsSuccess(t *testing.T) {
	t.Parallel()

	ts, _ := newTestServer(t, 100)
	resp := postSearch(t, ts, `{"role":"golang developer","location":"Bangalore"}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	result := decodeResult(t, resp)
	require.Len(t, result.Jobs, 7)
	require.Equal(t, 7, result.Stats.Total)
	require.Equal(t, 2, result.Stats.Sources["linkedin"])
	require.Equal(t, 5, result.Stats.Sources["indeed"])
	require.Equal(t, jobs.SourceStat{Suggested: 5}, result.Stats.Breakdown["indeed"])
	require.Equal(t, "golang developer", result.Jobs[0].Title)
}

func TestSearchJobsPlatformFilter(t *testing.T) {
	t.Parallel()

	ts, _ := newTestServer(t, 100)
	resp := postSearch(t, ts, `{"role":"golang","platforms":["indeed"]}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	result := decodeResult(t, resp)
	require.Len(t, result.Jobs, 5)
	require.NotContains(t, result.Stats.Sources, "linkedin")
}

func TestSearchJobsValidation(t *testing.T) {
	t.Parallel()

	ts, _ := newTestServer(t, 100)

	resp := postSearch(t, ts, `{"role":"   "}`, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeMessage(t, resp)
	require.Equal(t, "job role is required", body["message"])

	resp = postSearch(t, ts, `{"role":"golang","platforms":["monster"]}`, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body = decodeMessage(t, resp)
	require.Equal(t, "no valid platforms specified", body["message"])

	resp = postSearch(t, ts, `{not json`, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSearchJobsRateLimited(t *testing.T) {
	t.Parallel()

	ts, _ := newTestServer(t, 2)
	headers := map[string]string{"X-Forwarded-For": "10.0.0.1"}

	for i := 0; i < 2; i++ {
		resp := postSearch(t, ts, `{"role":"golang"}`, headers)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}

	resp := postSearch(t, ts, `{"role":"golang"}`, headers)
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	require.Equal(t, "0", resp.Header.Get("X-RateLimit-Remaining"))
	body := decodeMessage(t, resp)
	require.Equal(t, rateLimitedMessage, body["message"])

	// A different caller is unaffected.
	resp = postSearch(t, ts, `{"role":"golang"}`, map[string]string{"X-Forwarded-For": "10.0.0.2, 172.16.0.1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestSearchRecordedInHistory(t *testing.T) {
	t.Parallel()

	ts, hist := newTestServer(t, 100)
	resp := postSearch(t, ts, `{"role":"golang"}`, map[string]string{"X-Forwarded-For": "10.1.1.1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	require.Eventually(t, func() bool {
		return len(hist.Records()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	rec := hist.Records()[0]
	require.Equal(t, "golang", rec.Role)
	require.Equal(t, "10.1.1.1", rec.Identity)
	require.Equal(t, 7, rec.Total)
	require.Equal(t, 5, rec.Suggested)
	require.NotEmpty(t, rec.ID)
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	ts, _ := newTestServer(t, 100)
	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := ts.Client().Get(ts.URL + path)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	ts, _ := newTestServer(t, 100)
	resp, err := ts.Client().Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListPlatforms(t *testing.T) {
	t.Parallel()

	ts, _ := newTestServer(t, 100)
	resp, err := ts.Client().Get(ts.URL + "/v1/platforms")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string][]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, []string{"linkedin", "indeed"}, body["platforms"])
}

func TestClientIdentity(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/v1/jobs/search", nil)
	require.Equal(t, "anonymous", clientIdentity(req))

	req.Header.Set("X-Forwarded-For", "1.2.3.4, 5.6.7.8")
	require.Equal(t, "1.2.3.4", clientIdentity(req))

	req.Header.Set("X-Forwarded-For", "  ,  ")
	require.Equal(t, "anonymous", clientIdentity(req))
}

func decodeMessage(t *testing.T, resp *http.Response) map[string]string {
	t.Helper()
	defer resp.Body.Close()

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}
