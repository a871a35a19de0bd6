// Package fetcher parses lead sheets (CSV and XLSX) into the model types the
// pipeline consumes.
package fetcher

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadenrich/internal/model"
)

// LeadSheetOptions configures lead-sheet parsing.
type LeadSheetOptions struct {
	URLColumn  string // header name; auto-detected when empty
	NameColumn string // header name; auto-detected when empty
	SampleSize int    // max rows to keep; 0 = all
}

// urlColumnHints and nameColumnHints drive column auto-detection: the first
// header containing one of these substrings (case-insensitive) wins.
var (
	urlColumnHints  = []string{"web", "url", "site"}
	nameColumnHints = []string{"name"}
)

// findColumn resolves a column either by explicit header name or by hint
// substrings, falling back to the first column.
func findColumn(header []string, explicit string, hints []string) (int, error) {
	if explicit != "" {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), explicit) {
				return i, nil
			}
		}
		return 0, eris.Errorf("leads: column %q not found in header", explicit)
	}
	for i, h := range header {
		lower := strings.ToLower(h)
		for _, hint := range hints {
			if strings.Contains(lower, hint) {
				return i, nil
			}
		}
	}
	return 0, nil
}

// buildSheet assembles the parsed header and data rows into a Sheet,
// resolving the URL and name columns and applying the sample limit. Rows
// shorter than the header are padded so cells stay header-aligned.
func buildSheet(header []string, rows [][]string, opts LeadSheetOptions) (*model.Sheet, error) {
	if len(header) == 0 {
		return nil, eris.New("leads: sheet has no header row")
	}

	urlCol, err := findColumn(header, opts.URLColumn, urlColumnHints)
	if err != nil {
		return nil, err
	}
	nameCol, err := findColumn(header, opts.NameColumn, nameColumnHints)
	if err != nil {
		return nil, err
	}

	if opts.SampleSize > 0 && opts.SampleSize < len(rows) {
		rows = rows[:opts.SampleSize]
	}

	sheet := &model.Sheet{
		Header:  header,
		URLCol:  urlCol,
		NameCol: nameCol,
		Leads:   make([]model.Lead, 0, len(rows)),
	}
	for i, row := range rows {
		cells := make([]string, len(header))
		copy(cells, row)
		sheet.Leads = append(sheet.Leads, model.Lead{
			RowIndex: i,
			Name:     cells[nameCol],
			RawURL:   cells[urlCol],
			Cells:    cells,
		})
	}
	return sheet, nil
}

// ReadLeadSheet parses a lead sheet, dispatching on the file extension.
func ReadLeadSheet(path string, opts LeadSheetOptions) (*model.Sheet, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrap(err, "leads: open csv")
		}
		defer func() { _ = f.Close() }()
		return ReadCSVLeads(f, opts)
	case ".xlsx":
		return ReadXLSXLeads(path, opts)
	default:
		return nil, eris.Errorf("leads: unsupported file type %q", filepath.Ext(path))
	}
}
