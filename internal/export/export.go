// Package export renders extraction results as downloadable spreadsheets.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/fieldlens/fieldlens/internal/extract"
)

var columns = []string{"Label", "Value", "Type", "Confidence", "Position", "X", "Y", "Width", "Height"}

func fieldRow(f extract.ExtractedField) []string {
	return []string{
		f.Label,
		f.Value,
		string(f.Type),
		strconv.FormatFloat(f.Confidence, 'f', 2, 64),
		f.Position,
		strconv.FormatFloat(f.BoundingBox.X, 'f', 4, 64),
		strconv.FormatFloat(f.BoundingBox.Y, 'f', 4, 64),
		strconv.FormatFloat(f.BoundingBox.Width, 'f', 4, 64),
		strconv.FormatFloat(f.BoundingBox.Height, 'f', 4, 64),
	}
}

// CSV renders one row per extracted field with a header row.
func CSV(res *extract.ExtractionResult) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(columns); err != nil {
		return nil, fmt.Errorf("csv write: %w", err)
	}
	for _, f := range res.ExtractedFields {
		if err := w.Write(fieldRow(f)); err != nil {
			return nil, fmt.Errorf("csv write: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("csv flush: %w", err)
	}
	return buf.Bytes(), nil
}

// XLSX renders the same table as a single-sheet workbook.
func XLSX(res *extract.ExtractionResult) ([]byte, error) {
	f := excelize.NewFile()
	const sheet = "Fields"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	if index, err := f.GetSheetIndex("Sheet1"); err == nil && index != -1 {
		_ = f.DeleteSheet("Sheet1")
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	for i, h := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for row, field := range res.ExtractedFields {
		values := fieldRow(field)
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if col == 3 || col >= 5 {
				// Numeric columns stay numeric in the sheet.
				n, err := strconv.ParseFloat(v, 64)
				if err == nil {
					_ = f.SetCellValue(sheet, cell, n)
					continue
				}
			}
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 28)
	_ = f.SetColWidth(sheet, "B", "B", 40)
	_ = f.SetColWidth(sheet, "C", "E", 12)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
