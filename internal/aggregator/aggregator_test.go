package aggregator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/careerpilot/jobscout/internal/jobs"
)

type fakeScraper struct {
	name     string
	listings []jobs.Listing
	panics   bool
}

func (f *fakeScraper) Name() string { return f.name }

func (f *fakeScraper) Scrape(context.Context, string, string) []jobs.Listing {
	if f.panics {
		panic("selector blew up")
	}
	return f.listings
}

func listing(id, platform string) jobs.Listing {
	return jobs.Listing{ID: id, Title: "t", Company: "c", Platform: platform}
}

func newTestAggregator() *Aggregator {
	return New(nil,
		&fakeScraper{name: "linkedin", listings: []jobs.Listing{
			listing("li-1", "LinkedIn"),
			listing("li-2", "LinkedIn" + jobs.SuggestedSuffix),
		}},
		&fakeScraper{name: "indeed", listings: []jobs.Listing{
			listing("in-1", "Indeed"),
		}},
		&fakeScraper{name: "internshala", listings: []jobs.Listing{
			listing("is-1", "Internshala"),
			listing("is-2", "Internshala"),
		}},
	)
}

func TestAggregateAllPlatforms(t *testing.T) {
	t.Parallel()

	agg := newTestAggregator()
	result, err := agg.Aggregate(context.Background(), jobs.SearchRequest{Role: "golang"})
	require.NoError(t, err)

	require.Len(t, result.Jobs, 5)
	require.Equal(t, 5, result.Stats.Total)
	require.Empty(t, result.Message)

	// Output preserves dispatch order: linkedin, indeed, internshala.
	require.Equal(t, "li-1", result.Jobs[0].ID)
	require.Equal(t, "in-1", result.Jobs[2].ID)
	require.Equal(t, "is-2", result.Jobs[4].ID)

	require.Equal(t, map[string]int{"linkedin": 2, "indeed": 1, "internshala": 2}, result.Stats.Sources)
	require.Equal(t, jobs.SourceStat{Real: 1, Suggested: 1}, result.Stats.Breakdown["linkedin"])
	require.Equal(t, jobs.SourceStat{Real: 1}, result.Stats.Breakdown["indeed"])
}

func TestAggregateFiltersPlatforms(t *testing.T) {
	t.Parallel()

	agg := newTestAggregator()
	result, err := agg.Aggregate(context.Background(), jobs.SearchRequest{
		Role:      "golang",
		Platforms: []string{"Indeed", "indeed", " bogus ", "LINKEDIN"},
	})
	require.NoError(t, err)

	require.Len(t, result.Jobs, 3)
	require.Equal(t, "in-1", result.Jobs[0].ID)
	require.Equal(t, "li-1", result.Jobs[1].ID)
	require.NotContains(t, result.Stats.Sources, "internshala")
	require.NotContains(t, result.Stats.Sources, "bogus")
}

func TestAggregateRejectsEmptyRole(t *testing.T) {
	t.Parallel()

	agg := newTestAggregator()
	_, err := agg.Aggregate(context.Background(), jobs.SearchRequest{Role: "   "})
	require.ErrorIs(t, err, jobs.ErrValidation)
}

func TestAggregateRejectsUnknownPlatforms(t *testing.T) {
	t.Parallel()

	agg := newTestAggregator()
	_, err := agg.Aggregate(context.Background(), jobs.SearchRequest{
		Role:      "golang",
		Platforms: []string{"monster", "glassdoor"},
	})
	require.ErrorIs(t, err, jobs.ErrValidation)
}

func TestAggregateSurvivesPanickingScraper(t *testing.T) {
	t.Parallel()

	agg := New(nil,
		&fakeScraper{name: "linkedin", panics: true},
		&fakeScraper{name: "indeed", listings: []jobs.Listing{listing("in-1", "Indeed")}},
	)
	result, err := agg.Aggregate(context.Background(), jobs.SearchRequest{Role: "golang"})
	require.NoError(t, err)
	require.Len(t, result.Jobs, 1)
	require.Equal(t, "in-1", result.Jobs[0].ID)
	require.Equal(t, 0, result.Stats.Sources["linkedin"])
}

func TestAggregateEmptyResultCarriesMessage(t *testing.T) {
	t.Parallel()

	agg := New(nil, &fakeScraper{name: "indeed"})
	result, err := agg.Aggregate(context.Background(), jobs.SearchRequest{Role: "golang"})
	require.NoError(t, err)
	require.NotNil(t, result.Jobs)
	require.Empty(t, result.Jobs)
	require.Contains(t, result.Message, "No jobs found")
	require.Equal(t, 0, result.Stats.Total)
}

func TestPlatformsReturnsDispatchOrder(t *testing.T) {
	t.Parallel()

	agg := newTestAggregator()
	require.Equal(t, []string{"linkedin", "indeed", "internshala"}, agg.Platforms())
}
