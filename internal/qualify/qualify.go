// Package qualify partitions enriched records for review and derives the
// qualified set from records, human overrides, and a score threshold.
package qualify

import (
	"sort"

	"github.com/sells-group/leadenrich/internal/model"
)

// Overrides maps row index to a human decision. Absent entries mean Skip.
// An override map belongs to a single run and starts empty.
type Overrides map[int]model.Override

// Include reports whether the row was overridden to be included anyway.
func (o Overrides) Include(rowIndex int) bool {
	return o[rowIndex] == model.OverrideInclude
}

// Set records a decision. Setting Skip removes the entry: absent and Skip
// are the same state, which keeps setting idempotent and reversible.
func (o Overrides) Set(rowIndex int, d model.Override) {
	if d == model.OverrideInclude {
		o[rowIndex] = d
		return
	}
	delete(o, rowIndex)
}

// Ranked pairs a lead with its record for ordered output.
type Ranked struct {
	Lead   model.Lead   `json:"lead"`
	Record model.Record `json:"record"`
}

// Qualified derives the qualified set: rows whose business fits the niche
// (or were overridden to include) and whose score meets the threshold,
// sorted by score descending with original row order breaking ties. Records
// without a score (heuristic profile) skip the threshold check. Pure: the
// same inputs always yield the same ordered output.
func Qualified(leads []model.Lead, records []model.Record, overrides Overrides, threshold int) []Ranked {
	var out []Ranked
	for i, rec := range records {
		fits := rec.FitsNiche != nil && *rec.FitsNiche
		if !fits && !overrides.Include(rec.RowIndex) {
			continue
		}
		if rec.Score != nil && *rec.Score < threshold {
			continue
		}
		out = append(out, Ranked{Lead: leads[i], Record: rec})
	}

	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Record.ScoreValue() > out[b].Record.ScoreValue()
	})
	return out
}

// Partition buckets records by the fits-niche judgment. DoesNotFit rows are
// the ones surfaced for human review.
type Partition struct {
	Fits       []model.Record `json:"fits"`
	DoesNotFit []model.Record `json:"does_not_fit"`
	Unclear    []model.Record `json:"unclear"`
}

// PartitionRecords splits records into fits / does-not-fit / unclear.
func PartitionRecords(records []model.Record) Partition {
	var p Partition
	for _, rec := range records {
		switch {
		case rec.FitsNiche == nil:
			p.Unclear = append(p.Unclear, rec)
		case *rec.FitsNiche:
			p.Fits = append(p.Fits, rec)
		default:
			p.DoesNotFit = append(p.DoesNotFit, rec)
		}
	}
	return p
}

// Summary holds the review-panel counts for a run.
type Summary struct {
	Fits          int `json:"fits"`
	DoesNotFit    int `json:"does_not_fit"`
	Unclear       int `json:"unclear"`
	HighScore     int `json:"high_score"`
	MultiPlatform int `json:"multi_platform"`
}

// Summarize computes the review counts over a run's records.
func Summarize(records []model.Record, threshold int) Summary {
	p := PartitionRecords(records)
	s := Summary{
		Fits:       len(p.Fits),
		DoesNotFit: len(p.DoesNotFit),
		Unclear:    len(p.Unclear),
	}
	for _, rec := range records {
		if rec.Score != nil && *rec.Score >= threshold {
			s.HighScore++
		}
		if rec.MultiPlatform != nil && *rec.MultiPlatform {
			s.MultiPlatform++
		}
	}
	return s
}
