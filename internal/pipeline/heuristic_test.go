package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadenrich/internal/model"
)

func heuristicExtract(t *testing.T, text string) *model.Record {
	t.Helper()
	rec, err := NewHeuristicExtractor().Extract(context.Background(),
		model.Lead{RowIndex: 0, Name: "Acme Movers"}, "https://acmemovers.com", text)
	require.NoError(t, err)
	return rec
}

func TestHeuristic_MultiLocation(t *testing.T) {
	rec := heuristicExtract(t, "Acme Movers — Serving 5 locations nationwide since 1990.")
	assert.Equal(t, "Yes", rec.MultiLocation)

	rec = heuristicExtract(t, "A single neighborhood shop.")
	assert.Equal(t, "No", rec.MultiLocation)
}

func TestHeuristic_ReviewPlatforms(t *testing.T) {
	rec := heuristicExtract(t, "Find us on Yelp and HomeAdvisor. Rated A+ by the BBB.")
	assert.Equal(t, []string{"yelp", "homeadvisor", "bbb"}, rec.ReviewTools)

	rec = heuristicExtract(t, "No platforms here.")
	assert.Empty(t, rec.ReviewTools)
}

func TestHeuristic_OwnerName(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"The company was founded by Jane Smith in 2001.", "Jane Smith"},
		{"Meet Bob O'Brien, owner and lead technician.", "Bob O'Brien"},
		{"Owner: Maria Garcia Lopez", "Maria Garcia Lopez"},
		{"John Doe is the owner of this shop.", "John Doe"},
		{"We clean carpets.", model.OwnerNotFound},
	}
	for _, tc := range cases {
		rec := heuristicExtract(t, tc.text)
		assert.Equal(t, tc.want, rec.OwnerName, "text=%q", tc.text)
	}
}

func TestHeuristic_PatternPriority(t *testing.T) {
	// "founded by" outranks the bare owner pattern.
	rec := heuristicExtract(t, "Owner: Alice Adams. Originally founded by Carol Chen.")
	assert.Equal(t, "Carol Chen", rec.OwnerName)
}

func TestHeuristic_Deterministic(t *testing.T) {
	text := "Founded by Jane Smith. Serving multiple locations. Reviews on Yelp and Angi."
	first := heuristicExtract(t, text)
	second := heuristicExtract(t, text)
	assert.Equal(t, first, second)
}

func TestHeuristic_NoScoreNoFitsJudgment(t *testing.T) {
	rec := heuristicExtract(t, "anything")
	assert.Nil(t, rec.Score)
	assert.Nil(t, rec.FitsNiche)
	assert.Empty(t, rec.SkipReason)
}
