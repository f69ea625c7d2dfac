// Package aggregator fans one search request out to the registered source
// scrapers and merges their results.
package aggregator

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/careerpilot/jobscout/internal/jobs"
	"github.com/careerpilot/jobscout/internal/metrics"
)

// Aggregator validates requests, dispatches scrapers concurrently, and folds
// their outcomes into one ordered result.
type Aggregator struct {
	order    []string
	registry map[string]jobs.Scraper
	logger   *zap.Logger
}

// New builds an Aggregator. Scraper registration order fixes the dispatch
// order, which in turn fixes the output order.
func New(logger *zap.Logger, scrapers ...jobs.Scraper) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Aggregator{
		registry: make(map[string]jobs.Scraper, len(scrapers)),
		logger:   logger.Named("aggregator"),
	}
	for _, s := range scrapers {
		name := s.Name()
		if _, dup := a.registry[name]; dup {
			continue
		}
		a.registry[name] = s
		a.order = append(a.order, name)
	}
	return a
}

// Platforms returns the registered source names in dispatch order.
func (a *Aggregator) Platforms() []string {
	return append([]string(nil), a.order...)
}

// sourceOutcome is the explicit result of one scraper dispatch. Scrapers
// self-degrade to fallback data, so Err is only set by the panic backstop.
type sourceOutcome struct {
	name     string
	listings []jobs.Listing
	err      error
}

// Aggregate runs the search. It returns jobs.ErrValidation (wrapped) for an
// empty role or when no requested platform is known; scraper-level failures
// never surface.
func (a *Aggregator) Aggregate(ctx context.Context, req jobs.SearchRequest) (jobs.SearchResult, error) {
	role := strings.TrimSpace(req.Role)
	if role == "" {
		return jobs.SearchResult{}, fmt.Errorf("%w: job role is required", jobs.ErrValidation)
	}

	resolved := a.resolve(req.Platforms)
	if len(resolved) == 0 {
		return jobs.SearchResult{}, fmt.Errorf("%w: no valid platforms specified", jobs.ErrValidation)
	}

	a.logger.Info("searching",
		zap.String("role", role),
		zap.String("location", req.Location),
		zap.Strings("platforms", resolved),
	)

	outcomes := a.dispatch(ctx, resolved, role, req.Location)
	return a.merge(resolved, outcomes), nil
}

// resolve filters the requested platform names against the registry,
// dropping unknown names and duplicates. An empty request selects every
// registered source.
func (a *Aggregator) resolve(requested []string) []string {
	if len(requested) == 0 {
		return a.Platforms()
	}
	seen := make(map[string]bool, len(requested))
	var out []string
	for _, name := range requested {
		name = strings.ToLower(strings.TrimSpace(name))
		if _, known := a.registry[name]; !known || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

// dispatch runs one goroutine per resolved platform. Each invocation is
// wrapped so a panicking scraper yields an empty outcome instead of taking
// the request down; scrapers already degrade to fallback internally, so this
// is a backstop, not the primary failure path.
func (a *Aggregator) dispatch(ctx context.Context, resolved []string, role, location string) []sourceOutcome {
	outcomes := make([]sourceOutcome, len(resolved))
	var wg sync.WaitGroup
	for i, name := range resolved {
		wg.Add(1)
		go func(i int, scraper jobs.Scraper) {
			defer wg.Done()
			defer func() {
				if rec := recover(); rec != nil {
					outcomes[i].err = fmt.Errorf("scraper %s panicked: %v", scraper.Name(), rec)
				}
			}()
			outcomes[i] = sourceOutcome{
				name:     scraper.Name(),
				listings: scraper.Scrape(ctx, role, location),
			}
		}(i, a.registry[name])
	}
	wg.Wait()
	return outcomes
}

// merge folds the per-source outcomes into one result. Output order is the
// concatenation of per-source results in dispatch order; stats count every
// listing whose platform label belongs to the source, fallback-generated
// variants included.
func (a *Aggregator) merge(resolved []string, outcomes []sourceOutcome) jobs.SearchResult {
	flattened := make([]jobs.Listing, 0, 32)
	for _, outcome := range outcomes {
		if outcome.err != nil {
			a.logger.Warn("scraper dispatch failed", zap.String("platform", outcome.name), zap.Error(outcome.err))
			continue
		}
		flattened = append(flattened, outcome.listings...)
	}

	stats := jobs.Stats{
		Total:     len(flattened),
		Sources:   make(map[string]int, len(resolved)),
		Breakdown: make(map[string]jobs.SourceStat, len(resolved)),
	}
	for _, name := range resolved {
		breakdown := jobs.SourceStat{}
		for _, l := range flattened {
			base, suggested := strings.CutSuffix(l.Platform, jobs.SuggestedSuffix)
			if !strings.EqualFold(base, name) {
				continue
			}
			if suggested {
				breakdown.Suggested++
			} else {
				breakdown.Real++
			}
		}
		stats.Sources[name] = breakdown.Real + breakdown.Suggested
		stats.Breakdown[name] = breakdown
		metrics.ObserveListings(name, metrics.KindReal, breakdown.Real)
		metrics.ObserveListings(name, metrics.KindSuggested, breakdown.Suggested)
	}

	result := jobs.SearchResult{Jobs: flattened, Stats: stats}
	if len(flattened) == 0 {
		// Should not occur: every scraper's fallback yields at least one entry.
		result.Jobs = []jobs.Listing{}
		result.Message = "No jobs found at this time. Our scrapers could not retrieve " +
			"real-time job listings. Please try a different job role or location, or check back later."
	}
	return result
}
