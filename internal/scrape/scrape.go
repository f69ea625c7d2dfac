// Package scrape holds helpers shared by the per-source scrapers: text
// cleanup, link resolution, extraction passes, deduplication, fallback
// generation, and currency rewriting.
package scrape

import (
	"context"
	"strings"
	"sync"

	"math/rand"

	"github.com/careerpilot/jobscout/internal/jobs"
)

// Pass is one extraction strategy for a source. Passes run in declaration
// order; passes after the first are best-effort secondary attempts.
type Pass struct {
	Name string
	Run  func(ctx context.Context) []jobs.Listing
}

// Collect runs passes in order and accumulates their listings. The first pass
// always runs; later passes run only while fewer than threshold listings have
// accumulated.
func Collect(ctx context.Context, passes []Pass, threshold int) []jobs.Listing {
	var out []jobs.Listing
	for i, pass := range passes {
		if i > 0 && len(out) >= threshold {
			break
		}
		if ctx.Err() != nil {
			break
		}
		out = append(out, pass.Run(ctx)...)
	}
	return out
}

// DedupeByLink drops listings whose apply link was already seen, keeping the
// first occurrence and preserving order.
func DedupeByLink(listings []jobs.Listing) []jobs.Listing {
	seen := make(map[string]bool, len(listings))
	out := listings[:0]
	for _, l := range listings {
		if seen[l.ApplyLink] {
			continue
		}
		seen[l.ApplyLink] = true
		out = append(out, l)
	}
	return out
}

// CleanText collapses whitespace runs (including non-breaking spaces) into
// single spaces and trims the result.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	return strings.Join(strings.Fields(s), " ")
}

// AbsoluteURL resolves href against base unless it is already absolute.
// Empty hrefs become the "#" placeholder.
func AbsoluteURL(href, base string) string {
	href = strings.TrimSpace(href)
	switch {
	case href == "" || href == "#":
		return "#"
	case strings.HasPrefix(href, "http://"), strings.HasPrefix(href, "https://"):
		return href
	case strings.HasPrefix(href, "/"):
		return strings.TrimSuffix(base, "/") + href
	default:
		return strings.TrimSuffix(base, "/") + "/" + href
	}
}

const tokenAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// Rand is a mutex-guarded pseudo-random source shared by a scraper and its
// fallback generator. The seed is injectable so tests are deterministic.
type Rand struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRand creates a Rand from the given seed.
func NewRand(seed int64) *Rand {
	return &Rand{rng: rand.New(rand.NewSource(seed))}
}

// Intn returns a uniform value in [0, n).
func (r *Rand) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Intn(n)
}

// Token returns an 8-character base36 token for listing IDs with no stable
// source-native identifier.
func (r *Rand) Token() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := make([]byte, 8)
	for i := range b {
		b[i] = tokenAlphabet[r.rng.Intn(len(tokenAlphabet))]
	}
	return string(b)
}

// Pick returns a uniformly chosen element of values.
func (r *Rand) Pick(values []string) string {
	return values[r.Intn(len(values))]
}
