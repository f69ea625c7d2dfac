// Package internshala scrapes internship listings from an Internshala-style
// board.
package internshala

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/careerpilot/jobscout/internal/jobs"
	"github.com/careerpilot/jobscout/internal/metrics"
	"github.com/careerpilot/jobscout/internal/scrape"
)

// Platform is the label carried by genuinely scraped listings.
const Platform = "Internshala"

const defaultBaseURL = "https://internshala.com"

// Config controls the scraper.
type Config struct {
	BaseURL            string
	SecondaryThreshold int
	Seed               int64
}

// Scraper extracts internship cards and degrades to synthetic suggestions on
// failure.
type Scraper struct {
	cfg      Config
	fetcher  jobs.Fetcher
	rng      *scrape.Rand
	fallback *scrape.Fallback
	logger   *zap.Logger
}

// New builds a Scraper.
func New(fetcher jobs.Fetcher, cfg Config, logger *zap.Logger) *Scraper {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.SecondaryThreshold <= 0 {
		cfg.SecondaryThreshold = 30
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	rng := scrape.NewRand(cfg.Seed)
	return &Scraper{
		cfg:     cfg,
		fetcher: fetcher,
		rng:     rng,
		fallback: scrape.NewFallback(scrape.FallbackPool{
			Platform:  Platform,
			ApplyLink: "https://internshala.com/internships",
			Companies: []string{
				"InnovateX", "TechSprout", "DataMinds", "CodeVenture",
				"GrowthHackers", "CloudNative", "AIFuture", "BlockchainLabs",
				"GreenTech", "EdTechPioneers", "HealthTechNow", "FinTechWave",
			},
			Locations:     []string{"Remote", "Bangalore", "Mumbai", "Delhi", "Hyderabad", "Pune", "Work from Home"},
			PostedDates:   []string{"Just now", "Today", "Yesterday", "2 days ago", "3 days ago"},
			TitleSuffixes: []string{"Intern", "Trainee", "Associate", "Assistant"},
			Stipends: []string{
				"₹5,000-10,000 /month", "₹10,000-15,000 /month", "₹15,000-20,000 /month",
				"₹20,000-25,000 /month", "Performance Based", "Unpaid (with certification)",
			},
			Durations: []string{"2 Months", "3 Months", "6 Months", "Flexible"},
		}, rng),
		logger: logger.Named("internshala"),
	}
}

// Name returns the registry key for this source.
func (s *Scraper) Name() string { return "internshala" }

// Scrape fetches and extracts internships for the role. It never fails:
// network or parse errors degrade to the fallback generator.
func (s *Scraper) Scrape(ctx context.Context, role, location string) []jobs.Listing {
	start := time.Now()

	passes := []scrape.Pass{
		{Name: "latest", Run: func(ctx context.Context) []jobs.Listing {
			return s.fetchPage(ctx, role, location, 1)
		}},
		{Name: "latest-page-2", Run: func(ctx context.Context) []jobs.Listing {
			return s.fetchPage(ctx, role, location, 2)
		}},
	}

	listings := scrape.DedupeByLink(scrape.Collect(ctx, passes, s.cfg.SecondaryThreshold))
	degraded := len(listings) == 0
	if degraded {
		s.logger.Info("no internships extracted, generating suggestions", zap.String("role", role))
		listings = s.fallback.Generate(role)
	}
	metrics.ObserveScrape(s.Name(), time.Since(start), degraded)
	return listings
}

func (s *Scraper) fetchPage(ctx context.Context, role, location string, page int) []jobs.Listing {
	searchURL := s.searchURL(role, location, page)
	body, err := s.fetcher.Fetch(ctx, jobs.FetchRequest{URL: searchURL})
	if err != nil {
		s.logger.Warn("fetch failed", zap.String("url", searchURL), zap.Error(err))
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		s.logger.Warn("parse failed", zap.String("url", searchURL), zap.Error(err))
		return nil
	}

	var out []jobs.Listing
	doc.Find("div.internship_meta").Each(func(_ int, card *goquery.Selection) {
		if listing, ok := s.extract(card); ok {
			out = append(out, listing)
		}
	})
	return out
}

func (s *Scraper) searchURL(role, location string, page int) string {
	path := fmt.Sprintf("%s/internships/keywords-%s", s.cfg.BaseURL, url.QueryEscape(role))
	if location != "" {
		path += "&location_names=" + url.QueryEscape(location)
	}
	path += "/sort-latest/"
	if page > 1 {
		path += fmt.Sprintf("page-%d/", page)
	}
	return path
}

// extract maps one internship card to a Listing. Cards missing a title or
// company are rejected, not errors.
func (s *Scraper) extract(card *goquery.Selection) (jobs.Listing, bool) {
	titleLink := card.Find("h3.heading_4_5 a, div.internship_meta .profile a").First()
	title := scrape.CleanText(titleLink.Text())
	company := scrape.CleanText(card.Find("div.heading_6 a, div.company_name a").First().Text())
	if title == "" || company == "" {
		return jobs.Listing{}, false
	}

	href, _ := titleLink.Attr("href")
	location := scrape.CleanText(card.Find("a.location_link").Text())
	if location == "" {
		location = "India"
	}
	stipend := scrape.CleanText(card.Find(".stipend").Text())
	if stipend == "" {
		stipend = "Not specified"
	}
	duration := s.duration(card)
	posted := s.postedDate(card)

	return jobs.Listing{
		ID:         "internshala-" + s.listingKey(href),
		Title:      title,
		Company:    company,
		Location:   location,
		PostedDate: posted,
		ApplyLink:  scrape.AbsoluteURL(href, s.cfg.BaseURL),
		Stipend:    stipend,
		Duration:   duration,
		Platform:   Platform,
	}, true
}

func (s *Scraper) duration(card *goquery.Selection) string {
	if d := scrape.CleanText(card.Find(".item_body").FilterFunction(containsText("Duration")).Text()); d != "" {
		return d
	}
	row := scrape.CleanText(card.Find(".other_detail_item_row").FilterFunction(containsText("Duration")).Text())
	if row = strings.TrimSpace(strings.ReplaceAll(row, "Duration", "")); row != "" {
		return row
	}
	return "Not specified"
}

// postedDate keeps recency labels the board renders ("3 days ago", "Be an
// early applicant") and collapses anything else to "Recently".
func (s *Scraper) postedDate(card *goquery.Selection) string {
	posted := scrape.CleanText(card.Find(".status-container .status.status-small").Text())
	if posted == "" {
		posted = scrape.CleanText(card.Find(".posted_immediately").Text())
	}
	switch {
	case posted == "":
		return "Recently"
	case strings.Contains(posted, "ago"),
		strings.Contains(posted, "day"),
		posted == "Just Applied",
		posted == "Be an early applicant":
		return posted
	default:
		return "Recently"
	}
}

func (s *Scraper) listingKey(href string) string {
	parts := strings.Split(strings.TrimSuffix(href, "/"), "/")
	if last := parts[len(parts)-1]; last != "" {
		return last
	}
	return s.rng.Token()
}

func containsText(needle string) func(int, *goquery.Selection) bool {
	return func(_ int, sel *goquery.Selection) bool {
		return strings.Contains(sel.Text(), needle)
	}
}
