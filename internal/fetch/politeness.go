package fetch

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// domainLimiter manages per-domain token buckets for outbound requests.
type domainLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

func newDomainLimiter(rps float64, burst int) *domainLimiter {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}
	return &domainLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      limit,
		burst:    burst,
	}
}

// Wait blocks until a token is available for the URL's domain, respecting the
// context.
func (d *domainLimiter) Wait(ctx context.Context, rawURL string) error {
	domain := "unknown"
	if u, err := url.Parse(rawURL); err == nil && u.Hostname() != "" {
		domain = u.Hostname()
	}

	d.mu.Lock()
	limiter, ok := d.limiters[domain]
	if !ok {
		limiter = rate.NewLimiter(d.rps, d.burst)
		d.limiters[domain] = limiter
	}
	d.mu.Unlock()

	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("politeness wait for %s: %w", domain, err)
	}
	return nil
}
