package extract

import (
	"encoding/json"
	"testing"
)

func TestValidateResultNil(t *testing.T) {
	res := ValidateResult(nil)
	if res == nil {
		t.Fatal("nil result")
	}
	if res.DocumentType != "unknown" {
		t.Errorf("documentType = %q", res.DocumentType)
	}
	if res.ExtractedFields == nil || len(res.ExtractedFields) != 0 {
		t.Errorf("fields should be empty, got %v", res.ExtractedFields)
	}
	if res.Tables == nil || res.Logos == nil || res.Signatures == nil {
		t.Error("arrays should be coerced to empty")
	}
	if res.Error != "" {
		t.Errorf("empty result is not an error result, got %q", res.Error)
	}
}

func TestValidateResultDefaults(t *testing.T) {
	p := &Payload{
		Fields: []RawField{
			{},
			{Label: "Total", Value: "99.50", Type: "squiggle", Position: "bottom"},
		},
		FullText: "some document text",
	}
	res := ValidateResult(p)

	f0 := res.ExtractedFields[0]
	if f0.Label != "Field 1" {
		t.Errorf("default label = %q", f0.Label)
	}
	if f0.Confidence != defaultConfidence {
		t.Errorf("default confidence = %v", f0.Confidence)
	}
	if f0.Type != FieldText {
		t.Errorf("default type = %q", f0.Type)
	}
	if f0.Position != "unknown" {
		t.Errorf("default position = %q", f0.Position)
	}
	// No box: field 0 sits on the fallback grid.
	if f0.BoundingBox != Canonicalize(FallbackBox(0), "Field 1") {
		t.Errorf("fallback box = %+v", f0.BoundingBox)
	}

	f1 := res.ExtractedFields[1]
	if f1.Type != FieldText {
		t.Errorf("unknown type should coerce to text, got %q", f1.Type)
	}
	if res.Content != "some document text" {
		t.Errorf("content = %q", res.Content)
	}
}

func TestValidateResultConfidenceClamp(t *testing.T) {
	p := &Payload{
		Fields: []RawField{
			{Label: "A", Confidence: FlexFloat{Value: 1.7, Set: true}},
			{Label: "B", Confidence: FlexFloat{Value: -0.3, Set: true}},
			{Label: "C", Confidence: FlexFloat{Value: 0, Set: true}},
		},
	}
	res := ValidateResult(p)
	if res.ExtractedFields[0].Confidence != 1 {
		t.Errorf("over-1 confidence = %v", res.ExtractedFields[0].Confidence)
	}
	if res.ExtractedFields[1].Confidence != 0 {
		t.Errorf("negative confidence = %v", res.ExtractedFields[1].Confidence)
	}
	// Explicit zero is kept, not replaced by the default.
	if res.ExtractedFields[2].Confidence != 0 {
		t.Errorf("explicit zero confidence = %v", res.ExtractedFields[2].Confidence)
	}
}

func TestValidateResultContentFallsBackToContentKey(t *testing.T) {
	res := ValidateResult(&Payload{Content: "body text"})
	if res.Content != "body text" {
		t.Errorf("content = %q", res.Content)
	}
	res = ValidateResult(&Payload{FullText: "full", Content: "body"})
	if res.Content != "full" {
		t.Errorf("fullText should win, got %q", res.Content)
	}
}

func TestErrorResult(t *testing.T) {
	res := ErrorResult("scan.png")
	if res.Error == "" {
		t.Error("error marker missing")
	}
	if res.DocumentType != "error" {
		t.Errorf("documentType = %q", res.DocumentType)
	}
	if len(res.ExtractedFields) != 1 {
		t.Fatalf("fields = %d", len(res.ExtractedFields))
	}
	f := res.ExtractedFields[0]
	if f.Label != "EXTRACTION ERROR" || f.Type != FieldError || f.Confidence != 0 {
		t.Errorf("synthetic field = %+v", f)
	}
	if f.BoundingBox != (Rect{X: 0.1, Y: 0.1, Width: 0.8, Height: 0.15}) {
		t.Errorf("placeholder box = %+v", f.BoundingBox)
	}

	// The result must serialize like any other.
	if _, err := json.Marshal(res); err != nil {
		t.Fatalf("marshal: %v", err)
	}
}
