package indeed

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/careerpilot/jobscout/internal/jobs"
)

type stubFetcher struct {
	pages map[string][]byte
	err   error
	urls  []string
}

func (f *stubFetcher) Fetch(_ context.Context, req jobs.FetchRequest) ([]byte, error) {
	f.urls = append(f.urls, req.URL)
	if f.err != nil {
		return nil, f.err
	}
	for fragment, body := range f.pages {
		if strings.Contains(req.URL, fragment) {
			return body, nil
		}
	}
	return nil, errors.New("no fixture for " + req.URL)
}

const resultsPage = `<html><body>
<div class="job_seen_beacon">
  <h2 class="jobTitle"><a href="/rc/clk?jk=abc123&amp;from=serp"><span>Go Developer</span></a></h2>
  <span class="companyName">Acme Corp</span>
  <div class="companyLocation">Bangalore, Karnataka</div>
  <span class="date">3 days ago</span>
  <div class="salary-snippet-container">$1,000 - $2,000 a month</div>
</div>
<div class="job_seen_beacon">
  <h2 class="jobTitle"><a href="/rc/clk?jk=def456"><span>Backend Engineer</span></a></h2>
  <span class="companyName">Beta Ltd</span>
</div>
<div class="job_seen_beacon">
  <h2 class="jobTitle"><a href="/rc/clk?jk=abc123&amp;from=serp"><span>Go Developer</span></a></h2>
  <span class="companyName">Acme Corp</span>
</div>
<div class="job_seen_beacon">
  <h2 class="jobTitle"><a href="/broken"><span></span></a></h2>
</div>
</body></html>`

func newTestScraper(fetcher jobs.Fetcher) *Scraper {
	return New(fetcher, Config{Seed: 1}, nil)
}

func TestScrapeExtractsCards(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{pages: map[string][]byte{"/jobs": []byte(resultsPage)}}
	s := newTestScraper(fetcher)

	got := s.Scrape(context.Background(), "golang", "Bangalore")
	require.Len(t, got, 2)

	first := got[0]
	require.Equal(t, "indeed-abc123", first.ID)
	require.Equal(t, "Go Developer", first.Title)
	require.Equal(t, "Acme Corp", first.Company)
	require.Equal(t, "Bangalore, Karnataka", first.Location)
	require.Equal(t, "3 days ago", first.PostedDate)
	require.Equal(t, "https://in.indeed.com/rc/clk?jk=abc123&from=serp", first.ApplyLink)
	require.Equal(t, "₹83,000 - ₹1,66,000 a month", first.Salary)
	require.Equal(t, Platform, first.Platform)

	second := got[1]
	require.Equal(t, "indeed-def456", second.ID)
	require.Equal(t, "India", second.Location)
	require.Equal(t, "Recently", second.PostedDate)
	require.Equal(t, "Salary not specified", second.Salary)
}

func TestScrapeRunsSecondPageBelowThreshold(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{pages: map[string][]byte{"/jobs": []byte(resultsPage)}}
	s := newTestScraper(fetcher)

	s.Scrape(context.Background(), "golang", "")
	require.Len(t, fetcher.urls, 2)
	require.Contains(t, fetcher.urls[0], "q=golang")
	require.Contains(t, fetcher.urls[0], "l=India")
	require.Contains(t, fetcher.urls[0], "fromage=7")
	require.Contains(t, fetcher.urls[1], "start=10")
}

func TestScrapeFallsBackOnFetchFailure(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{err: errors.New("connection refused")}
	s := newTestScraper(fetcher)

	got := s.Scrape(context.Background(), "Data Analyst", "")
	require.GreaterOrEqual(t, len(got), 5)
	require.LessOrEqual(t, len(got), 8)
	for _, l := range got {
		require.Equal(t, Platform+jobs.SuggestedSuffix, l.Platform)
		require.True(t, strings.HasPrefix(l.Title, "Data Analyst "))
	}
}

func TestScrapeFallsBackOnEmptyPage(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{pages: map[string][]byte{"/jobs": []byte("<html><body></body></html>")}}
	s := newTestScraper(fetcher)

	got := s.Scrape(context.Background(), "golang", "")
	require.NotEmpty(t, got)
	require.Equal(t, Platform+jobs.SuggestedSuffix, got[0].Platform)
}

func TestListingKey(t *testing.T) {
	t.Parallel()

	s := newTestScraper(&stubFetcher{})
	require.Equal(t, "abc123", s.listingKey("/rc/clk?jk=abc123&from=serp"))
	require.Equal(t, "abc123", s.listingKey("/rc/clk?jk=abc123"))
	require.Len(t, s.listingKey("/no-job-key"), 8)
}
