// Package dataset reads job descriptions from spreadsheets and writes extraction results back out.
package dataset

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// JobRow is one job description read from a workbook.
type JobRow struct {
	ID      string
	RawText string
	// Row is the 1-based sheet row the text came from.
	Row int
}

// Load reads the first sheet of an .xlsx, detecting the text and id columns from the header.
// Rows with a blank description are skipped; rows without an id get a generated one.
func Load(path string) ([]JobRow, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) <= 1 {
		return nil, fmt.Errorf("no data rows")
	}

	textIdx, idIdx := detectColumns(rows[0])

	var out []JobRow
	for i, r := range rows {
		if i == 0 {
			continue
		}
		job := JobRow{Row: i + 1}
		if textIdx < len(r) {
			job.RawText = r[textIdx]
		}
		if strings.TrimSpace(job.RawText) == "" {
			continue
		}
		if idIdx >= 0 && idIdx < len(r) {
			job.ID = strings.TrimSpace(r[idIdx])
		}
		if job.ID == "" {
			job.ID = uuid.New().String()
		}
		out = append(out, job)
	}
	return out, nil
}

// detectColumns finds the description and id columns by header name.
// Without a recognizable description header the first column is used.
func detectColumns(header []string) (textIdx, idIdx int) {
	textIdx, idIdx = -1, -1
	for i, h := range header {
		l := strings.ToLower(strings.TrimSpace(h))
		switch {
		case strings.Contains(l, "description") || strings.Contains(l, "text") || strings.Contains(l, "raw"):
			if textIdx == -1 {
				textIdx = i
			}
		case l == "id" || strings.Contains(l, "ref") || strings.Contains(l, "order") && strings.Contains(l, "id"):
			if idIdx == -1 {
				idIdx = i
			}
		case strings.Contains(l, "job"):
			if textIdx == -1 {
				textIdx = i
			}
		}
	}
	if textIdx == -1 {
		textIdx = 0
		if idIdx == 0 {
			idIdx = -1
		}
	}
	return textIdx, idIdx
}
