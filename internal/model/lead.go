package model

import "strings"

// Lead is a single input row from the uploaded lead sheet. It is immutable
// once read; RowIndex is the original position in the sheet and is the key
// used for override lookups and result alignment.
type Lead struct {
	RowIndex int      `json:"row_index"`
	Name     string   `json:"name"`
	RawURL   string   `json:"raw_url"`
	Cells    []string `json:"cells"` // original row, header-aligned
}

// Sheet holds the parsed lead sheet: the header row plus the sampled leads.
type Sheet struct {
	Header  []string `json:"header"`
	URLCol  int      `json:"url_col"`
	NameCol int      `json:"name_col"`
	Leads   []Lead   `json:"leads"`
}

// NormalizedURL is either an absolute URL with an explicit scheme, or the
// zero value meaning no usable URL was supplied.
type NormalizedURL string

// AbsentURL is the sentinel for rows with no usable URL.
const AbsentURL NormalizedURL = ""

// IsAbsent reports whether no usable URL was supplied.
func (u NormalizedURL) IsAbsent() bool { return u == AbsentURL }

func (u NormalizedURL) String() string { return string(u) }

// NormalizeURL canonicalizes a raw spreadsheet cell into a fetchable URL.
// Blank, whitespace-only, and NaN-like cells map to AbsentURL. Anything else
// is trimmed and given an https scheme if none is present. Malformed URLs
// pass through; they fail at fetch time, not here.
func NormalizeURL(raw string) NormalizedURL {
	s := strings.TrimSpace(raw)
	if s == "" {
		return AbsentURL
	}
	// Spreadsheet exports render missing cells as "nan" / "NaN".
	if strings.EqualFold(s, "nan") || strings.EqualFold(s, "null") {
		return AbsentURL
	}
	if !strings.HasPrefix(s, "http") {
		s = "https://" + s
	}
	return NormalizedURL(s)
}
