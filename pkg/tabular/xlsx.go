package tabular

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/matzehuels/stackreport/pkg/report"
)

// DefaultSheet is the worksheet name used when none is given.
const DefaultSheet = "Report"

// maxSheetName is the spreadsheet limit on worksheet name length.
const maxSheetName = 31

// BuildXLSX writes the projection into a single-sheet workbook: a header row
// followed by one row per record. Cells hold the same strings as the CSV.
func BuildXLSX(rows []report.Row, columns []report.Column, sheet string) ([]byte, error) {
	sheet = sheetName(sheet)

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}

	header, cells := Project(rows, columns)
	if err := writeRow(f, sheet, 1, header); err != nil {
		return nil, err
	}
	for i, line := range cells {
		if err := writeRow(f, sheet, i+2, line); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, fields []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	values := make([]any, len(fields))
	for i, v := range fields {
		values[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write row %d: %w", row, err)
	}
	return nil
}

func sheetName(s string) string {
	if s == "" {
		return DefaultSheet
	}
	r := []rune(s)
	if len(r) > maxSheetName {
		r = r[:maxSheetName]
	}
	for i, c := range r {
		switch c {
		case ':', '\\', '/', '?', '*', '[', ']':
			r[i] = '_'
		}
	}
	return string(r)
}
