package jobs

import (
	"context"
	"net/http"
	"time"
)

// Scraper produces listings for one external job board. Scrape never fails:
// every error path degrades to the source's fallback generator, so callers
// treat the returned slice as authoritative.
type Scraper interface {
	Name() string
	Scrape(ctx context.Context, role, location string) []Listing
}

// FetchRequest captures everything needed to fetch one page.
type FetchRequest struct {
	URL     string
	Referer string
	Headers http.Header
}

// Fetcher fetches a URL and returns the raw body.
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) ([]byte, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
