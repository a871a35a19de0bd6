// Package export writes enrichment results to XLSX workbooks: one with every
// input row plus its enrichment columns, and one holding only the qualified
// leads in ranked order.
package export

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/leadenrich/internal/model"
	"github.com/sells-group/leadenrich/internal/qualify"
)

// enrichmentColumns are appended after the original input columns.
var enrichmentColumns = []string{
	"Fits Niche",
	"Skip Reason",
	"Multiple Locations",
	"Review Tools",
	"Owner Name",
	"Company Size",
	"Site Active",
	"Multi-Platform",
	"Platforms Found",
	"Score",
	"Crawl Status",
	"Status Detail",
}

// WriteAllResults writes every input row, in input order, with the original
// columns followed by the enrichment columns.
func WriteAllResults(path string, header []string, leads []model.Lead, records []model.Record) error {
	if len(leads) != len(records) {
		return eris.Errorf("export: %d leads but %d records", len(leads), len(records))
	}

	f := xlsx.NewFile()
	sheet, err := f.AddSheet("All Results")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	writeHeader(sheet, header)
	for i := range leads {
		writeRow(sheet, header, leads[i], records[i])
	}

	return eris.Wrapf(f.Save(path), "export: save %s", path)
}

// WriteQualified writes the ranked qualified leads with the same column
// layout as the all-results workbook.
func WriteQualified(path string, header []string, ranked []qualify.Ranked) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Qualified Leads")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	writeHeader(sheet, header)
	for _, r := range ranked {
		writeRow(sheet, header, r.Lead, r.Record)
	}

	return eris.Wrapf(f.Save(path), "export: save %s", path)
}

func writeHeader(sheet *xlsx.Sheet, header []string) {
	row := sheet.AddRow()
	for _, name := range header {
		row.AddCell().SetString(name)
	}
	for _, name := range enrichmentColumns {
		row.AddCell().SetString(name)
	}
}

func writeRow(sheet *xlsx.Sheet, header []string, lead model.Lead, record model.Record) {
	row := sheet.AddRow()
	for i := range header {
		var cell string
		if i < len(lead.Cells) {
			cell = lead.Cells[i]
		}
		row.AddCell().SetString(cell)
	}
	for _, value := range recordCells(record) {
		row.AddCell().SetString(value)
	}
}

func recordCells(record model.Record) []string {
	return []string{
		boolCell(record.FitsNiche),
		record.SkipReason,
		record.MultiLocation,
		strings.Join(record.ReviewTools, ", "),
		record.OwnerName,
		string(record.CompanySize),
		boolCell(record.SiteActive),
		boolCell(record.MultiPlatform),
		strings.Join(record.PlatformsFound, ", "),
		scoreCell(record.Score),
		string(record.Status),
		record.StatusDetail,
	}
}

func boolCell(b *bool) string {
	if b == nil {
		return ""
	}
	if *b {
		return "Yes"
	}
	return "No"
}

func scoreCell(score *int) string {
	if score == nil {
		return ""
	}
	return strconv.Itoa(*score)
}
