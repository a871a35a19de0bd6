package fetcher

import (
	"encoding/csv"
	"io"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadenrich/internal/model"
)

// ReadCSVLeads parses a CSV lead sheet. The first row is the header; field
// counts may vary between rows (short rows are padded to the header width).
func ReadCSVLeads(r io.Reader, opts LeadSheetOptions) (*model.Sheet, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // allow variable fields
	reader.LazyQuotes = true

	var header []string
	var rows [][]string
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "leads: read csv row")
		}
		if first {
			header = record
			first = false
			continue
		}
		rows = append(rows, record)
	}

	return buildSheet(header, rows, opts)
}
