package scrape

import (
	"fmt"

	"github.com/careerpilot/jobscout/internal/jobs"
)

// FallbackPool fixes the value pools one source draws from when synthesizing
// placeholder listings. Salaries is used by job boards; Stipends and
// Durations by internship boards.
type FallbackPool struct {
	Platform      string
	ApplyLink     string
	Companies     []string
	Locations     []string
	PostedDates   []string
	TitleSuffixes []string
	Salaries      []string
	Stipends      []string
	Durations     []string
}

// Fallback synthesizes plausible placeholder listings for one source. It
// never fails and never returns an empty slice.
type Fallback struct {
	pool FallbackPool
	rng  *Rand
}

// NewFallback creates a Fallback drawing from pool via rng.
func NewFallback(pool FallbackPool, rng *Rand) *Fallback {
	return &Fallback{pool: pool, rng: rng}
}

// Generate returns 5 to 8 synthetic listings for the role. The platform label
// carries the suggested suffix so callers can tell synthetic data apart from
// scraped listings.
func (f *Fallback) Generate(role string) []jobs.Listing {
	count := f.rng.Intn(4) + 5
	out := make([]jobs.Listing, 0, count)
	for i := 0; i < count; i++ {
		listing := jobs.Listing{
			ID:         fmt.Sprintf("%s-fallback-%d-%s", platformSlug(f.pool.Platform), i, f.rng.Token()),
			Title:      role + " " + f.rng.Pick(f.pool.TitleSuffixes),
			Company:    f.rng.Pick(f.pool.Companies),
			Location:   f.rng.Pick(f.pool.Locations),
			PostedDate: f.rng.Pick(f.pool.PostedDates),
			ApplyLink:  f.pool.ApplyLink,
			Platform:   f.pool.Platform + jobs.SuggestedSuffix,
		}
		if len(f.pool.Salaries) > 0 {
			listing.Salary = f.rng.Pick(f.pool.Salaries)
		}
		if len(f.pool.Stipends) > 0 {
			listing.Stipend = f.rng.Pick(f.pool.Stipends)
		}
		if len(f.pool.Durations) > 0 {
			listing.Duration = f.rng.Pick(f.pool.Durations)
		}
		out = append(out, listing)
	}
	return out
}

func platformSlug(platform string) string {
	b := make([]byte, 0, len(platform))
	for i := 0; i < len(platform); i++ {
		c := platform[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			b = append(b, c)
		}
	}
	return string(b)
}
