package extract

import (
	"encoding/json"
	"fmt"
)

const defaultConfidence = 0.7

// NormalizeField converts one raw field into its validated form: defaulted
// label, clamped confidence, coerced type, canonical bounding box.
func NormalizeField(raw RawField, index int) ExtractedField {
	label := raw.Label.String()
	if label == "" {
		label = fmt.Sprintf("Field %d", index+1)
	}

	confidence := defaultConfidence
	if raw.Confidence.Set {
		confidence = clamp(finite(raw.Confidence.Value), 0, 1)
	}

	fieldType := FieldType(raw.Type.String())
	if !validFieldTypes[fieldType] {
		fieldType = FieldText
	}

	position := raw.Position.String()
	if position == "" {
		position = "unknown"
	}

	return ExtractedField{
		Label:       label,
		Value:       raw.Value.String(),
		Confidence:  confidence,
		Type:        fieldType,
		Position:    position,
		BoundingBox: NormalizeBox(raw.BoundingBox, label, index),
	}
}

// ValidateResult builds a well-formed ExtractionResult from whichever
// payload survived the pipeline stages. It accepts nil (a stage that
// degraded to nothing) and never fails: arrays are coerced to empty, and
// every field passes through the total normalizer.
func ValidateResult(p *Payload) *ExtractionResult {
	if p == nil {
		p = &Payload{}
	}

	docType := p.DocumentType.String()
	if docType == "" {
		docType = "unknown"
	}

	fields := make([]ExtractedField, 0, len(p.Fields))
	for i, raw := range p.Fields {
		fields = append(fields, NormalizeField(raw, i))
	}

	content := p.FullText.String()
	if content == "" {
		content = p.Content.String()
	}

	return &ExtractionResult{
		DocumentType:    docType,
		ExtractedFields: fields,
		Tables:          coerceArray(p.Tables),
		Logos:           coerceArray(p.Logos),
		Signatures:      coerceArray(p.Signatures),
		Content:         content,
	}
}

// ErrorResult is the terminal failure shape: a single visibly-labeled
// synthetic field with a fixed placeholder rectangle, inside an otherwise
// valid result. The pipeline returns this instead of ever surfacing an
// error past its boundary.
func ErrorResult(fileName string) *ExtractionResult {
	return &ExtractionResult{
		DocumentType: "error",
		ExtractedFields: []ExtractedField{
			{
				Label:       "EXTRACTION ERROR",
				Value:       fmt.Sprintf("Failed to process %s. Please try a higher quality image.", fileName),
				Confidence:  0,
				Type:        FieldError,
				Position:    "unknown",
				BoundingBox: Rect{X: 0.1, Y: 0.1, Width: 0.8, Height: 0.15},
			},
		},
		Tables:     []json.RawMessage{},
		Logos:      []json.RawMessage{},
		Signatures: []json.RawMessage{},
		Error:      "Processing failed",
	}
}

func coerceArray(v []json.RawMessage) []json.RawMessage {
	if v == nil {
		return []json.RawMessage{}
	}
	return v
}
