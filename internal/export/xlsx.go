// Package export renders business records to spreadsheet files for handoff
// to sales and canvassing teams.
package export

import (
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/fieldstone-group/tradeintel/internal/model"
)

// sheetName is the single worksheet written per export.
const sheetName = "Businesses"

var header = []string{
	"Company Name", "Industry", "Address", "Postcode", "Phone", "Website",
	"Rating", "Total Ratings", "Company Number", "Registry Status",
	"Verification", "Latitude", "Longitude", "Scraped",
}

// WriteXLSX writes the records to an XLSX workbook at path.
func WriteXLSX(path string, records []model.BusinessRecord) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	hr := sheet.AddRow()
	for _, h := range header {
		hr.AddCell().Value = h
	}

	for i := range records {
		writeRow(sheet.AddRow(), &records[i])
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}

func writeRow(row *xlsx.Row, rec *model.BusinessRecord) {
	cells := []string{
		rec.CompanyName,
		rec.PrimaryIndustry,
		rec.FullAddress,
		strOrEmpty(rec.Postcode),
		strOrEmpty(rec.PhoneNumber),
		strOrEmpty(rec.WebsiteURL),
		floatOrEmpty(rec.Rating),
		intOrEmpty(rec.TotalRatings),
	}
	if rec.RegistryMatch != nil {
		cells = append(cells, rec.RegistryMatch.CompanyNumber, rec.RegistryMatch.Status)
	} else {
		cells = append(cells, "", "")
	}
	cells = append(cells,
		string(rec.Verification),
		strconv.FormatFloat(rec.Location.Coordinates[1], 'f', 6, 64),
		strconv.FormatFloat(rec.Location.Coordinates[0], 'f', 6, 64),
		rec.DateOfScraping,
	)
	for _, c := range cells {
		row.AddCell().Value = c
	}
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func floatOrEmpty(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', 1, 64)
}

func intOrEmpty(i *int) string {
	if i == nil {
		return ""
	}
	return strconv.Itoa(*i)
}
