package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/fieldlens/fieldlens/internal/extract"
)

func sampleResult() *extract.ExtractionResult {
	return &extract.ExtractionResult{
		DocumentType: "invoice",
		ExtractedFields: []extract.ExtractedField{
			{
				Label:       "Total",
				Value:       "99.50",
				Confidence:  0.95,
				Type:        extract.FieldText,
				Position:    "bottom-right",
				BoundingBox: extract.Rect{X: 0.6, Y: 0.8, Width: 0.2, Height: 0.05},
			},
			{
				Label:      "Value, with commas",
				Value:      `quoted "value"`,
				Confidence: 0.5,
				Type:       extract.FieldText,
				Position:   "top",
			},
		},
	}
}

func TestCSVExport(t *testing.T) {
	out, err := CSV(sampleResult())
	if err != nil {
		t.Fatalf("CSV: %v", err)
	}

	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("re-read: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("rows = %d", len(records))
	}
	if records[0][0] != "Label" || records[0][3] != "Confidence" {
		t.Errorf("header = %v", records[0])
	}
	if records[1][0] != "Total" || records[1][1] != "99.50" {
		t.Errorf("row 1 = %v", records[1])
	}
	if records[1][3] != "0.95" {
		t.Errorf("confidence cell = %q", records[1][3])
	}
	// Commas and quotes in values survive the round trip.
	if records[2][0] != "Value, with commas" || records[2][1] != `quoted "value"` {
		t.Errorf("row 2 = %v", records[2])
	}
}

func TestCSVExportEmptyResult(t *testing.T) {
	out, err := CSV(extract.ValidateResult(nil))
	if err != nil {
		t.Fatalf("CSV: %v", err)
	}
	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("re-read: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("empty result should emit only the header, got %d rows", len(records))
	}
}

func TestXLSXExport(t *testing.T) {
	out, err := XLSX(sampleResult())
	if err != nil {
		t.Fatalf("XLSX: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("re-open: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Fields")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d", len(rows))
	}
	if rows[0][0] != "Label" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][0] != "Total" || rows[1][1] != "99.50" {
		t.Errorf("row 1 = %v", rows[1])
	}
}
