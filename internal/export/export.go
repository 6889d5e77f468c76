// Package export renders the visible cohort rows as CSV or XLSX.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/readiness-cli/internal/model"
)

// SheetName is the worksheet written by WriteXLSX.
const SheetName = "Cohort"

// NoDrivers is reported when a record triggers none of the driver rules.
const NoDrivers = "No major drivers"

const maxDrivers = 3

// Header is the fixed export header.
var Header = []string{
	"Child DCN",
	"County",
	"Risk Score",
	"Risk Tier",
	"Stability",
	"Engagement",
	"Developmental",
	"Context",
	"Top Risk Drivers",
}

// FileName is the download name for an export taken at t, e.g.
// cohort-explorer-2024-03-01.csv.
func FileName(t time.Time, ext string) string {
	return fmt.Sprintf("cohort-explorer-%s.%s", t.Format(time.DateOnly), strings.TrimPrefix(ext, "."))
}

// TopRiskDrivers lists up to three plain-language drivers for a record, in
// rule order.
func TopRiskDrivers(r model.ChildRecord) []string {
	var out []string
	if s := r.Risk; s != nil {
		if s.NumEnrollmentGaps > 1 {
			out = append(out, fmt.Sprintf("%d enrollment gaps", s.NumEnrollmentGaps))
		}
		if s.NumScreeningsCompleted < 4 {
			out = append(out, fmt.Sprintf("Missed %d screenings", 6-s.NumScreeningsCompleted))
		}
		if s.AvgAttendanceDays < 80 {
			out = append(out, "Low attendance")
		}
	}
	if r.Flags.DeepPoverty {
		out = append(out, "Deep poverty")
	}
	if s := r.Risk; s != nil && s.NumHouseholdStressors > 2 {
		out = append(out, fmt.Sprintf("%d household stressors", s.NumHouseholdStressors))
	}

	if len(out) > maxDrivers {
		out = out[:maxDrivers]
	}
	return out
}

// DriverSummary joins TopRiskDrivers, or returns NoDrivers.
func DriverSummary(r model.ChildRecord) string {
	drivers := TopRiskDrivers(r)
	if len(drivers) == 0 {
		return NoDrivers
	}
	return strings.Join(drivers, ", ")
}

// Row renders one record. Records without a risk row get blank numerics.
func Row(r model.ChildRecord) []string {
	row := []string{r.ChildDCN, r.CountyName, "", "", "", "", "", "", DriverSummary(r)}
	if s := r.Risk; s != nil {
		row[2] = decimal(s.CompositeScore)
		row[3] = string(s.Tier)
		row[4] = decimal(s.StabilityScore)
		row[5] = decimal(s.EngagementScore)
		row[6] = decimal(s.DevelopmentalScore)
		row[7] = decimal(s.ContextScore)
	}
	return row
}

func decimal(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// WriteCSV writes the header and one row per record in input order.
func WriteCSV(w io.Writer, records []model.ChildRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}
	for _, r := range records {
		if err := cw.Write(Row(r)); err != nil {
			return eris.Wrapf(err, "export: write csv row %s", r.ChildDCN)
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

// WriteXLSX writes the same rows as WriteCSV to a single-sheet workbook.
func WriteXLSX(w io.Writer, records []model.ChildRecord) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	addRow(sheet, Header)
	for _, r := range records {
		addRow(sheet, Row(r))
	}

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "export: write xlsx")
	}
	return nil
}

func addRow(sheet *xlsx.Sheet, cells []string) {
	row := sheet.AddRow()
	for _, c := range cells {
		row.AddCell().SetString(c)
	}
}
