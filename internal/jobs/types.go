// Package jobs defines core types shared across the aggregation pipeline.
package jobs

// Listing is one normalized job or internship posting returned to callers.
// Compensation is source-specific: job boards fill Salary, internship boards
// fill Stipend and Duration.
type Listing struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Company    string `json:"company"`
	Location   string `json:"location"`
	PostedDate string `json:"postedDate"`
	ApplyLink  string `json:"applyLink"`
	Salary     string `json:"salary,omitempty"`
	Stipend    string `json:"stipend,omitempty"`
	Duration   string `json:"duration,omitempty"`
	Platform   string `json:"platform"`
}

// SuggestedSuffix marks fallback-generated listings in the Platform field.
const SuggestedSuffix = " (Suggested)"

// SearchRequest is the inbound aggregation request.
type SearchRequest struct {
	Role      string   `json:"role"`
	Location  string   `json:"location,omitempty"`
	Platforms []string `json:"platforms,omitempty"`
}

// SourceStat breaks one platform's contribution into genuine and
// fallback-generated listings.
type SourceStat struct {
	Real      int `json:"real"`
	Suggested int `json:"suggested"`
}

// Stats summarizes a search result. Sources holds the combined per-platform
// count (real plus suggested); Breakdown separates the two.
type Stats struct {
	Total     int                   `json:"total"`
	Sources   map[string]int        `json:"sources"`
	Breakdown map[string]SourceStat `json:"breakdown,omitempty"`
}

// SearchResult is the aggregated response for one search.
type SearchResult struct {
	Jobs    []Listing `json:"jobs"`
	Message string    `json:"message,omitempty"`
	Stats   Stats     `json:"stats"`
}
