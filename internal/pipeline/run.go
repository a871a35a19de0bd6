package pipeline

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/sells-group/leadenrich/internal/model"
)

// Reason-string limits match what the review surface can display.
const (
	fetchReasonLimit    = 60
	parseReasonLimit    = 40
	classifyReasonLimit = 60
)

// Progress is called after each row completes. i is 1-based.
type Progress func(i, total int, url string)

// Runner drives the full lead set through normalize → fetch → extract,
// strictly sequentially and in input order. Sequential processing caps
// outbound concurrency at one request: polite to target sites and immune to
// collaborator rate limits, at the cost of linear wall-clock time.
type Runner struct {
	Fetcher    SiteFetcher
	Extractor  Extractor
	OnProgress Progress
}

// Run processes every lead and returns one record per lead, index-aligned
// with the input. A failure on any row never aborts the batch; it becomes
// that row's crawl status. Cancelling the context stops between rows and
// leaves the remaining rows at their not-attempted defaults.
func (r *Runner) Run(ctx context.Context, leads []model.Lead) []model.Record {
	total := len(leads)
	records := make([]model.Record, total)

	for i, lead := range leads {
		if ctx.Err() != nil {
			zap.L().Warn("run: cancelled between rows",
				zap.Int("completed", i),
				zap.Int("total", total),
			)
			for j := i; j < total; j++ {
				records[j] = *model.NewRecord(leads[j].RowIndex)
			}
			return records
		}

		records[i] = *r.processRow(ctx, lead)

		zap.L().Info("run: row complete",
			zap.Int("row", i+1),
			zap.Int("total", total),
			zap.String("url", lead.RawURL),
			zap.String("status", string(records[i].Status)),
		)
		if r.OnProgress != nil {
			r.OnProgress(i+1, total, lead.RawURL)
		}
	}

	return records
}

// processRow runs one lead through the pipeline and converts every stage
// failure into the record's crawl status.
func (r *Runner) processRow(ctx context.Context, lead model.Lead) *model.Record {
	rec := model.NewRecord(lead.RowIndex)

	u := model.NormalizeURL(lead.RawURL)
	if u.IsAbsent() {
		rec.SkipReason = "No URL provided"
		rec.Status = model.StatusNoURL
		return rec
	}

	pageText, err := r.Fetcher.Fetch(ctx, u.String())
	if err != nil {
		rec.Status = model.StatusFetchError
		rec.StatusDetail = failureReason(err, fetchReasonLimit)
		return rec
	}

	out, err := r.Extractor.Extract(ctx, lead, u.String(), pageText)
	if err != nil {
		var xerr *ExtractError
		if errors.As(err, &xerr) {
			rec.Status = xerr.Status
			limit := classifyReasonLimit
			if xerr.Status == model.StatusParseError {
				limit = parseReasonLimit
			}
			rec.StatusDetail = failureReason(xerr.Err, limit)
		} else {
			rec.Status = model.StatusClassifyError
			rec.StatusDetail = failureReason(err, classifyReasonLimit)
		}
		return rec
	}

	out.RowIndex = lead.RowIndex
	out.Status = model.StatusSuccess
	return out
}
