// Package indeed scrapes job listings from an Indeed-style board.
package indeed

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
const Platform = "Indeed"

const defaultBaseURL = "https://in.indeed.com"

// Config controls the scraper.
type Config struct {
	BaseURL            string
	USDToINR           float64
	SecondaryThreshold int
	Seed               int64
}

// Scraper extracts Indeed job cards and degrades to synthetic suggestions on
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
	if cfg.USDToINR <= 0 {
		cfg.USDToINR = scrape.DefaultUSDToINR
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
			ApplyLink: "https://www.indeed.com/jobs",
			Companies: []string{
				"TechNova", "GrowthLabs", "FutureStack", "InnovateCo",
				"DataSphere", "CodeCraft", "QuantumLeap", "NexGen Solutions",
				"BlueOcean AI", "CloudPulse", "DevSprint", "EcoTech Innovations",
			},
			Locations:     []string{"Remote", "Bangalore", "Mumbai", "Delhi NCR", "Hyderabad", "Pune"},
			PostedDates:   []string{"1 day ago", "2 days ago", "3 days ago", "This week", "Recently"},
			TitleSuffixes: []string{"Developer", "Engineer", "Specialist", "Expert", "Professional"},
			Salaries: []string{
				"₹5-8 LPA", "₹8-12 LPA", "₹10-15 LPA", "₹15-20 LPA",
				"₹20-30 LPA", "Competitive Salary",
			},
		}, rng),
		logger: logger.Named("indeed"),
	}
}

// Name returns the registry key for this source.
func (s *Scraper) Name() string { return "indeed" }

// Scrape fetches and extracts listings for the role. It never fails: network
// or parse errors degrade to the fallback generator.
func (s *Scraper) Scrape(ctx context.Context, role, location string) []jobs.Listing {
	start := time.Now()

	passes := []scrape.Pass{
		{Name: "results", Run: func(ctx context.Context) []jobs.Listing {
			return s.fetchPage(ctx, role, location, 0)
		}},
		{Name: "results-page-2", Run: func(ctx context.Context) []jobs.Listing {
			return s.fetchPage(ctx, role, location, 10)
		}},
	}

	listings := scrape.DedupeByLink(scrape.Collect(ctx, passes, s.cfg.SecondaryThreshold))
	degraded := len(listings) == 0
	if degraded {
		s.logger.Info("no listings extracted, generating suggestions", zap.String("role", role))
		listings = s.fallback.Generate(role)
	}
	metrics.ObserveScrape(s.Name(), time.Since(start), degraded)
	return listings
}

func (s *Scraper) fetchPage(ctx context.Context, role, location string, offset int) []jobs.Listing {
	searchURL := s.searchURL(role, location, offset)
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
	doc.Find("div.job_seen_beacon").Each(func(_ int, card *goquery.Selection) {
		if listing, ok := s.extract(card); ok {
			out = append(out, listing)
		}
	})
	return out
}

func (s *Scraper) searchURL(role, location string, offset int) string {
	q := url.Values{}
	q.Set("q", role)
	if location != "" {
		q.Set("l", location)
	} else {
		q.Set("l", "India")
	}
	q.Set("sort", "date")
	q.Set("fromage", "7")
	if offset > 0 {
		q.Set("start", fmt.Sprintf("%d", offset))
	}
	return s.cfg.BaseURL + "/jobs?" + q.Encode()
}

// extract maps one job card to a Listing. Cards missing a title or company
// are rejected, not errors.
func (s *Scraper) extract(card *goquery.Selection) (jobs.Listing, bool) {
	titleLink := card.Find("h2.jobTitle > a").First()
	title := scrape.CleanText(titleLink.Text())
	company := scrape.CleanText(card.Find("span.companyName").Text())
	if title == "" || company == "" {
		return jobs.Listing{}, false
	}

	href, _ := titleLink.Attr("href")
	salary := scrape.CleanText(card.Find("div.salary-snippet-container").Text())
	if salary == "" {
		salary = scrape.CleanText(card.Find("span.estimated-salary").Text())
	}
	if salary == "" {
		salary = "Salary not specified"
	} else {
		salary = scrape.RewriteDollars(salary, s.cfg.USDToINR)
	}

	location := scrape.CleanText(card.Find("div.companyLocation").Text())
	if location == "" {
		location = "India"
	}
	posted := scrape.CleanText(card.Find("span.date").Text())
	if posted == "" {
		posted = "Recently"
	}

	return jobs.Listing{
		ID:         "indeed-" + s.listingKey(href),
		Title:      title,
		Company:    company,
		Location:   location,
		PostedDate: posted,
		ApplyLink:  scrape.AbsoluteURL(href, s.cfg.BaseURL),
		Salary:     salary,
		Platform:   Platform,
	}, true
}

// listingKey prefers Indeed's jk= job key from the apply link and falls back
// to a random token.
func (s *Scraper) listingKey(href string) string {
	if _, after, found := strings.Cut(href, "jk="); found {
		if key, _, _ := strings.Cut(after, "&"); key != "" {
			return key
		}
	}
	return s.rng.Token()
}
