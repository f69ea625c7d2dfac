// Package fetch implements the outbound page fetcher using gocolly.
package fetch

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/careerpilot/jobscout/internal/jobs"
)

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Referer   string
	Timeout   time.Duration
}

// Fetcher implements jobs.Fetcher using the Colly collector. One politeness
// limiter per target domain keeps secondary-pass fetches from hammering a
// board that already answered the primary pass.
type Fetcher struct {
	cfg           Config
	limiter       *domainLimiter
	baseCollector *colly.Collector
}

// New builds a Fetcher. rps and burst configure the per-domain politeness
// limiter; rps <= 0 disables it.
func New(cfg Config, rps float64, burst int) *Fetcher {
	c := colly.NewCollector(colly.Async(false))
	c.WithTransport(newHTTPTransport())

	return &Fetcher{
		cfg:           cfg,
		limiter:       newDomainLimiter(rps, burst),
		baseCollector: c,
	}
}

// Fetch executes a single HTTP GET and returns the response body. Non-2xx
// statuses surface as errors through Colly's error callback.
func (f *Fetcher) Fetch(ctx context.Context, request jobs.FetchRequest) ([]byte, error) {
	if err := f.limiter.Wait(ctx, request.URL); err != nil {
		return nil, err
	}

	var (
		body     []byte
		fetchErr error
	)
	collector := f.buildCollector(request, &body, &fetchErr)

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(request.URL)
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return nil, fmt.Errorf("visit %s: %w", request.URL, err)
		}
		if fetchErr != nil {
			return nil, fmt.Errorf("fetch %s: %w", request.URL, fetchErr)
		}
		return body, nil
	}
}

func (f *Fetcher) buildCollector(request jobs.FetchRequest, body *[]byte, fetchErr *error) *colly.Collector {
	collector := f.baseCollector.Clone()
	collector.IgnoreRobotsTxt = true
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	timeout := f.cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	collector.SetRequestTimeout(timeout)

	collector.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept",
			"text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,image/apng,*/*;q=0.8")
		r.Headers.Set("Accept-Language", "en-US,en;q=0.9")
		r.Headers.Set("Upgrade-Insecure-Requests", "1")
		referer := request.Referer
		if referer == "" {
			referer = f.cfg.Referer
		}
		if referer != "" {
			r.Headers.Set("Referer", referer)
		}
		for key, values := range request.Headers {
			for _, v := range values {
				r.Headers.Add(key, v)
			}
		}
	})

	collector.OnResponse(func(r *colly.Response) {
		*body = append([]byte(nil), r.Body...)
	})

	collector.OnError(func(_ *colly.Response, err error) {
		*fetchErr = err
	})

	return collector
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
