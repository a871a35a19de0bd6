package pipeline

import (
	"context"
	"regexp"
	"strings"

	"github.com/sells-group/leadenrich/internal/model"
)

// MultiLocationKeywords are phrases whose presence marks a business as
// multi-location. Matching is case-insensitive substring.
var MultiLocationKeywords = []string{
	"locations",
	"our branches",
	"areas we serve",
	"service areas",
	"multiple locations",
	"franchise",
	"nationwide",
}

// ReviewPlatformKeywords are review platforms worth flagging when a site
// mentions or links to them.
var ReviewPlatformKeywords = []string{
	"yelp",
	"thumbtack",
	"google reviews",
	"angi",
	"homeadvisor",
	"bbb",
	"houzz",
}

// ownerPatterns are tried in order; the first capturing-group match wins.
// The lead-in keywords match case-insensitively but the name itself must be
// capitalized, so trailing lowercase words are not swallowed.
var ownerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i:founded|owned|started|established) by (` + namePattern + `)`),
	regexp.MustCompile(`(?i:meet) (` + namePattern + `), (?i:owner|founder|president)`),
	regexp.MustCompile(`(?i:owner|founder|president)[,:]? (` + namePattern + `)`),
	regexp.MustCompile(`(` + namePattern + `) is the (?i:owner|founder)`),
}

const namePattern = `[A-Z][a-zA-Z'-]+(?: [A-Z][a-zA-Z'-]+)+`

// HeuristicExtractor is the no-cost extraction profile: fixed keyword sets
// and regex patterns, no external calls. Deterministic: the same text always
// produces the same record. It emits no fits-niche judgment and no score;
// qualification in this profile is signal-driven.
type HeuristicExtractor struct{}

// NewHeuristicExtractor creates a HeuristicExtractor.
func NewHeuristicExtractor() *HeuristicExtractor { return &HeuristicExtractor{} }

func (h *HeuristicExtractor) Name() string { return "heuristic" }

// Extract never fails: with no collaborator there is nothing to error.
func (h *HeuristicExtractor) Extract(_ context.Context, lead model.Lead, _ string, pageText string) (*model.Record, error) {
	rec := model.NewRecord(lead.RowIndex)
	rec.SkipReason = ""
	lower := strings.ToLower(pageText)

	rec.MultiLocation = "No"
	for _, kw := range MultiLocationKeywords {
		if strings.Contains(lower, kw) {
			rec.MultiLocation = "Yes"
			break
		}
	}

	for _, platform := range ReviewPlatformKeywords {
		if strings.Contains(lower, platform) {
			rec.ReviewTools = append(rec.ReviewTools, platform)
		}
	}

	rec.OwnerName = findOwnerName(pageText)
	return rec, nil
}

// findOwnerName returns the first capturing-group match across the
// prioritized pattern list, or the OwnerNotFound sentinel. Never empty.
func findOwnerName(text string) string {
	for _, re := range ownerPatterns {
		if m := re.FindStringSubmatch(text); len(m) > 1 {
			return strings.TrimSpace(m[1])
		}
	}
	return model.OwnerNotFound
}
