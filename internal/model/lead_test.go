package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeURL_Blank(t *testing.T) {
	for _, raw := range []string{"", "   ", "\t\n", "nan", "NaN", "null"} {
		u := NormalizeURL(raw)
		assert.True(t, u.IsAbsent(), "raw=%q", raw)
	}
}

func TestNormalizeURL_PrependsScheme(t *testing.T) {
	assert.Equal(t, NormalizedURL("https://example.com"), NormalizeURL("example.com"))
	assert.Equal(t, NormalizedURL("https://example.com"), NormalizeURL("  example.com  "))
}

func TestNormalizeURL_KeepsExistingScheme(t *testing.T) {
	assert.Equal(t, NormalizedURL("http://example.com"), NormalizeURL("http://example.com"))
	assert.Equal(t, NormalizedURL("https://example.com"), NormalizeURL("https://example.com"))
}

func TestNormalizeURL_Idempotent(t *testing.T) {
	first := NormalizeURL("example.com")
	second := NormalizeURL(first.String())
	assert.Equal(t, first, second)
}

func TestNormalizeURL_MalformedPassesThrough(t *testing.T) {
	// Validation happens at fetch time, not here.
	assert.Equal(t, NormalizedURL("https://not a url"), NormalizeURL("not a url"))
}

func TestNewRecord_Defaults(t *testing.T) {
	r := NewRecord(7)
	assert.Equal(t, 7, r.RowIndex)
	assert.Equal(t, StatusNotAttempted, r.Status)
	assert.Equal(t, "Not crawled", r.SkipReason)
	assert.Nil(t, r.FitsNiche)
	assert.Nil(t, r.Score)
	assert.Equal(t, 0, r.ScoreValue())
}
