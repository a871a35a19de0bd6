package fetcher

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

const sampleCSV = `Company Name,Website URL,City
Acme Movers,acmemovers.com,Denver
Bravo Cleaning,https://bravoclean.example,Austin
Charlie Roofing,,Boise
`

func TestReadCSVLeads_AutoDetectColumns(t *testing.T) {
	sheet, err := ReadCSVLeads(strings.NewReader(sampleCSV), LeadSheetOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"Company Name", "Website URL", "City"}, sheet.Header)
	assert.Equal(t, 1, sheet.URLCol)
	assert.Equal(t, 0, sheet.NameCol)
	require.Len(t, sheet.Leads, 3)

	assert.Equal(t, 0, sheet.Leads[0].RowIndex)
	assert.Equal(t, "Acme Movers", sheet.Leads[0].Name)
	assert.Equal(t, "acmemovers.com", sheet.Leads[0].RawURL)
	assert.Equal(t, []string{"Acme Movers", "acmemovers.com", "Denver"}, sheet.Leads[0].Cells)
	assert.Equal(t, "", sheet.Leads[2].RawURL)
}

func TestReadCSVLeads_ExplicitColumns(t *testing.T) {
	sheet, err := ReadCSVLeads(strings.NewReader(sampleCSV), LeadSheetOptions{
		URLColumn:  "website url",
		NameColumn: "Company Name",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, sheet.URLCol)
	assert.Equal(t, 0, sheet.NameCol)
}

func TestReadCSVLeads_MissingColumn(t *testing.T) {
	_, err := ReadCSVLeads(strings.NewReader(sampleCSV), LeadSheetOptions{URLColumn: "Homepage"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `column "Homepage" not found`)
}

func TestReadCSVLeads_SampleSize(t *testing.T) {
	sheet, err := ReadCSVLeads(strings.NewReader(sampleCSV), LeadSheetOptions{SampleSize: 2})
	require.NoError(t, err)
	require.Len(t, sheet.Leads, 2)
	assert.Equal(t, "Bravo Cleaning", sheet.Leads[1].Name)
}

func TestReadCSVLeads_ShortRowsPadded(t *testing.T) {
	csv := "Name,Website,Notes\nAcme,acme.com\n"
	sheet, err := ReadCSVLeads(strings.NewReader(csv), LeadSheetOptions{})
	require.NoError(t, err)
	require.Len(t, sheet.Leads, 1)
	assert.Equal(t, []string{"Acme", "acme.com", ""}, sheet.Leads[0].Cells)
}

func TestReadCSVLeads_Empty(t *testing.T) {
	_, err := ReadCSVLeads(strings.NewReader(""), LeadSheetOptions{})
	require.Error(t, err)
}

func writeTestXLSX(t *testing.T, rows [][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Leads")
	require.NoError(t, err)
	for _, row := range rows {
		r := sheet.AddRow()
		for _, cell := range row {
			r.AddCell().SetString(cell)
		}
	}
	path := filepath.Join(t.TempDir(), "leads.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestReadXLSXLeads(t *testing.T) {
	path := writeTestXLSX(t, [][]string{
		{"Business", "Site"},
		{"Acme Movers", "acmemovers.com"},
		{"Bravo Cleaning", "bravoclean.example"},
	})

	sheet, err := ReadXLSXLeads(path, LeadSheetOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, sheet.URLCol)
	assert.Equal(t, 0, sheet.NameCol)
	require.Len(t, sheet.Leads, 2)
	assert.Equal(t, "acmemovers.com", sheet.Leads[0].RawURL)
}

func TestReadLeadSheet_Dispatch(t *testing.T) {
	path := writeTestXLSX(t, [][]string{{"Name", "URL"}, {"Acme", "acme.com"}})
	sheet, err := ReadLeadSheet(path, LeadSheetOptions{})
	require.NoError(t, err)
	assert.Len(t, sheet.Leads, 1)

	_, err = ReadLeadSheet("leads.parquet", LeadSheetOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")
}
