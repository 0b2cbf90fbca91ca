package dataset

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"workorder-intake-go/internal/types"
)

const (
	resultsSheet = "Results"
	summarySheet = "Summary"
)

// ResultRow is one extraction outcome to be written to the results workbook.
type ResultRow struct {
	ID       string
	Result   types.ExtractionResult
	Decision string
	Reasons  []string
	Error    string
}

// SummaryLine is a label/value pair on the summary sheet.
type SummaryLine struct {
	Label string
	Value string
}

var resultHeader = append([]string{"id", "source", "confidence", "decision", "reasons", "error"}, types.RecordFields...)

// WriteResults writes one row per result plus a summary sheet to a new workbook at path.
func WriteResults(path string, rows []ResultRow, summary []SummaryLine) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), resultsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := setRow(f, resultsSheet, 1, toCells(resultHeader)); err != nil {
		return err
	}
	for i, r := range rows {
		if err := setRow(f, resultsSheet, i+2, resultCells(r)); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}
	for i, line := range summary {
		if err := setRow(f, summarySheet, i+1, []any{line.Label, line.Value}); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func resultCells(r ResultRow) []any {
	cells := []any{r.ID, "", "", r.Decision, strings.Join(r.Reasons, "; "), r.Error}
	if r.Error != "" {
		return cells
	}
	cells[1] = string(r.Result.Source)
	cells[2] = r.Result.Confidence

	rec := r.Result.Record
	return append(cells,
		rec.JobTitle, rec.Description, string(rec.TradeCategory), rec.ServiceAddress, rec.ScheduledStart,
		rec.Urgency, rec.DurationEstimate, rec.BudgetMin, rec.BudgetMax, rec.PayRate,
		rec.ContactName, rec.ContactPhone, rec.ContactEmail,
	)
}

func setRow(f *excelize.File, sheet string, row int, cells []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func toCells(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
