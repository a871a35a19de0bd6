package qualify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadenrich/internal/model"
)

func fixture() ([]model.Lead, []model.Record) {
	leads := []model.Lead{
		{RowIndex: 0, Name: "Alpha"},
		{RowIndex: 1, Name: "Bravo"},
		{RowIndex: 2, Name: "Charlie"},
		{RowIndex: 3, Name: "Delta"},
		{RowIndex: 4, Name: "Echo"},
	}
	records := []model.Record{
		{RowIndex: 0, FitsNiche: model.Bool(true), Score: model.Int(80), Status: model.StatusSuccess},
		{RowIndex: 1, FitsNiche: model.Bool(false), SkipReason: "Not a cleaning business", Score: model.Int(90), Status: model.StatusSuccess},
		{RowIndex: 2, FitsNiche: model.Bool(true), Score: model.Int(40), Status: model.StatusSuccess},
		{RowIndex: 3, Status: model.StatusFetchError},
		{RowIndex: 4, FitsNiche: model.Bool(true), Score: model.Int(80), Status: model.StatusSuccess},
	}
	return leads, records
}

func rowIndexes(ranked []Ranked) []int {
	out := make([]int, len(ranked))
	for i, r := range ranked {
		out[i] = r.Record.RowIndex
	}
	return out
}

func TestQualified_FitsAndThreshold(t *testing.T) {
	leads, records := fixture()

	q := Qualified(leads, records, Overrides{}, 60)
	// Row 1 fits=false, row 2 under threshold, row 3 unknown fit.
	assert.Equal(t, []int{0, 4}, rowIndexes(q))
}

func TestQualified_SortedWithStableTies(t *testing.T) {
	leads, records := fixture()

	q := Qualified(leads, records, Overrides{}, 30)
	// 80, 80, 40 — equal scores keep original row order.
	assert.Equal(t, []int{0, 4, 2}, rowIndexes(q))
}

func TestQualified_OverrideIncludes(t *testing.T) {
	leads, records := fixture()
	ov := Overrides{}
	ov.Set(1, model.OverrideInclude)

	q := Qualified(leads, records, ov, 60)
	assert.Equal(t, []int{1, 0, 4}, rowIndexes(q))
}

func TestQualified_OverrideStillBelowThreshold(t *testing.T) {
	leads, records := fixture()
	ov := Overrides{}
	ov.Set(2, model.OverrideInclude) // score 40: already fits, threshold still applies

	q := Qualified(leads, records, ov, 60)
	assert.Equal(t, []int{0, 4}, rowIndexes(q))
}

func TestQualified_Deterministic(t *testing.T) {
	leads, records := fixture()
	ov := Overrides{}
	ov.Set(1, model.OverrideInclude)

	first := Qualified(leads, records, ov, 30)
	second := Qualified(leads, records, ov, 30)
	assert.Equal(t, first, second)
}

func TestOverride_Reversible(t *testing.T) {
	leads, records := fixture()
	ov := Overrides{}

	before := Qualified(leads, records, ov, 60)
	ov.Set(1, model.OverrideInclude)
	ov.Set(1, model.OverrideInclude) // idempotent
	assert.Equal(t, []int{1, 0, 4}, rowIndexes(Qualified(leads, records, ov, 60)))

	ov.Set(1, model.OverrideSkip)
	after := Qualified(leads, records, ov, 60)
	assert.Equal(t, before, after)
	assert.Empty(t, ov) // skip removes the entry entirely
}

func TestQualified_HeuristicRecordsSkipThreshold(t *testing.T) {
	leads := []model.Lead{{RowIndex: 0}, {RowIndex: 1}}
	records := []model.Record{
		{RowIndex: 0, Status: model.StatusSuccess, MultiLocation: "Yes"},
		{RowIndex: 1, Status: model.StatusSuccess, MultiLocation: "No"},
	}
	// No fits judgment and no score: only overrides can include rows.
	assert.Empty(t, Qualified(leads, records, Overrides{}, 60))

	ov := Overrides{}
	ov.Set(0, model.OverrideInclude)
	q := Qualified(leads, records, ov, 60)
	require.Len(t, q, 1)
	assert.Equal(t, 0, q[0].Record.RowIndex)
}

func TestPartitionRecords(t *testing.T) {
	_, records := fixture()
	p := PartitionRecords(records)
	assert.Len(t, p.Fits, 3)
	assert.Len(t, p.DoesNotFit, 1)
	assert.Len(t, p.Unclear, 1)
	assert.Equal(t, "Not a cleaning business", p.DoesNotFit[0].SkipReason)
}

func TestSummarize(t *testing.T) {
	_, records := fixture()
	records[0].MultiPlatform = model.Bool(true)

	s := Summarize(records, 60)
	assert.Equal(t, Summary{
		Fits:          3,
		DoesNotFit:    1,
		Unclear:       1,
		HighScore:     3,
		MultiPlatform: 1,
	}, s)
}
