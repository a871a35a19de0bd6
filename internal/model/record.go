package model

import (
	"time"
)

// CrawlStatus is the terminal outcome tag for a row's pipeline execution.
type CrawlStatus string

const (
	StatusNotAttempted  CrawlStatus = "not_attempted"
	StatusNoURL         CrawlStatus = "no_url"
	StatusFetchError    CrawlStatus = "fetch_error"
	StatusParseError    CrawlStatus = "parse_error"
	StatusClassifyError CrawlStatus = "classification_error"
	StatusSuccess       CrawlStatus = "success"
)

// CompanySize is the extractor's size estimate.
type CompanySize string

const (
	SizeSmall  CompanySize = "small"
	SizeMedium CompanySize = "medium"
	SizeLarge  CompanySize = "large"
)

// OwnerNotFound is the heuristic extractor's sentinel when no owner name
// pattern matched. Never empty: downstream display relies on it.
const OwnerNotFound = "Not found"

// Record is the enrichment result for a single lead. Boolean signals use
// *bool so "unknown" is distinct from false. Score uses *int: the heuristic
// profile produces no score at all, while the LLM profile always sets one,
// clamped into [0,100].
type Record struct {
	RowIndex int `json:"row_index"`

	FitsNiche  *bool  `json:"fits_niche"`
	SkipReason string `json:"skip_reason,omitempty"`
	OwnerName  string `json:"owner_name,omitempty"`

	CompanySize CompanySize `json:"estimated_company_size,omitempty"`
	SiteActive  *bool       `json:"site_appears_active"`

	// LLM profile signals.
	MultiPlatform  *bool    `json:"multi_platform_mentions"`
	PlatformsFound []string `json:"platforms_found,omitempty"`

	// Heuristic profile signals.
	MultiLocation string   `json:"multi_location,omitempty"` // "Yes" / "No"
	ReviewTools   []string `json:"review_tools,omitempty"`

	Score *int `json:"score,omitempty"`

	Status       CrawlStatus `json:"crawl_status"`
	StatusDetail string      `json:"status_detail,omitempty"`
}

// NewRecord returns the default record for a row that has not been crawled.
func NewRecord(rowIndex int) *Record {
	return &Record{
		RowIndex:   rowIndex,
		SkipReason: "Not crawled",
		Status:     StatusNotAttempted,
	}
}

// ScoreValue returns the clamped score, or 0 when no score was produced.
func (r *Record) ScoreValue() int {
	if r.Score == nil {
		return 0
	}
	return *r.Score
}

// Override is a human decision on a niche-rejected row.
type Override string

const (
	OverrideSkip    Override = "skip"
	OverrideInclude Override = "include_anyway"
)

// RunStatus tracks the lifecycle of a batch enrichment run.
type RunStatus string

const (
	RunStatusQueued   RunStatus = "queued"
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is one batch enrichment run over a lead sheet. Overrides belong to a
// run and start empty: starting a new run never inherits earlier decisions.
type Run struct {
	ID        string    `json:"id"`
	Status    RunStatus `json:"status"`
	Niche     string    `json:"niche"`
	Strategy  string    `json:"strategy"`
	Threshold int       `json:"threshold"`
	Header    []string  `json:"header"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Bool returns a pointer to b. Convenience for building records and tests.
func Bool(b bool) *bool { return &b }

// Int returns a pointer to n.
func Int(n int) *int { return &n }
