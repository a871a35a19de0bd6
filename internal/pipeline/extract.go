package pipeline

import (
	"context"

	"github.com/sells-group/leadenrich/internal/model"
)

// Extractor turns fetched page text into enrichment signals. The caller owns
// crawl_status: an extractor fills the signal fields and leaves status alone.
type Extractor interface {
	Name() string
	Extract(ctx context.Context, lead model.Lead, pageURL, pageText string) (*model.Record, error)
}

// ExtractError carries the crawl status an extraction failure maps to, so
// the runner can record parse failures and collaborator failures distinctly.
type ExtractError struct {
	Status model.CrawlStatus
	Err    error
}

func (e *ExtractError) Error() string { return e.Err.Error() }

func (e *ExtractError) Unwrap() error { return e.Err }
