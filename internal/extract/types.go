// Package extract defines the field-extraction data model, the prompt set
// for the staged inference calls, and the normalization that turns untrusted
// service output into canonical, renderable field records.
package extract

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// FieldType classifies an extracted field.
type FieldType string

const (
	FieldText      FieldType = "text"
	FieldLogo      FieldType = "logo"
	FieldSignature FieldType = "signature"
	FieldStamp     FieldType = "stamp"
	FieldError     FieldType = "error"
)

var validFieldTypes = map[FieldType]bool{
	FieldText:      true,
	FieldLogo:      true,
	FieldSignature: true,
	FieldStamp:     true,
	FieldError:     true,
}

// Rect is the canonical bounding box: unit-square coordinates relative to
// the document image, with a margin reserved at the right/bottom edges so
// highlight borders never clip. This is the only coordinate representation
// that survives normalization.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ExtractedField is one labeled value located on the document. Coordinates
// are canonical once the field leaves validation; the struct is not mutated
// afterwards.
type ExtractedField struct {
	Label       string    `json:"label"`
	Value       string    `json:"value"`
	Confidence  float64   `json:"confidence"`
	Type        FieldType `json:"type"`
	Position    string    `json:"position"`
	BoundingBox Rect      `json:"boundingBox"`
}

// ExtractionResult is the complete outcome for one document. ExtractedFields
// is never nil; absence is an empty slice. Error is set only when the whole
// pipeline, fallback included, failed.
type ExtractionResult struct {
	DocumentType    string            `json:"documentType"`
	ExtractedFields []ExtractedField  `json:"extractedFields"`
	Tables          []json.RawMessage `json:"tables"`
	Logos           []json.RawMessage `json:"logos"`
	Signatures      []json.RawMessage `json:"signatures"`
	Content         string            `json:"content"`
	Error           string            `json:"error,omitempty"`
}

// Payload is the leniently-decoded shape of one inference stage's JSON
// output. Every leaf is optional or flexible: the service emits free text
// and the decode must not fail on shape drift in individual fields.
type Payload struct {
	DocumentType FlexString        `json:"documentType"`
	Fields       []RawField        `json:"extractedFields"`
	Tables       []json.RawMessage `json:"tables"`
	Logos        []json.RawMessage `json:"logos"`
	Signatures   []json.RawMessage `json:"signatures"`
	FullText     FlexString        `json:"fullText"`
	Content      FlexString        `json:"content"`
}

// RawField is an extracted field as the service reported it, before
// normalization. The bounding box stays raw bytes so the normalizer can sniff
// its shape.
type RawField struct {
	Label       FlexString      `json:"label"`
	Value       FlexString      `json:"value"`
	Confidence  FlexFloat       `json:"confidence"`
	Type        FlexString      `json:"type"`
	Position    FlexString      `json:"position"`
	BoundingBox json.RawMessage `json:"boundingBox"`
}

// FlexString decodes JSON strings, numbers, and booleans into a string, and
// null into "". Models routinely emit numbers where the prompt asked for
// strings; a stray type must not discard the whole stage.
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = FlexString(v)
		return nil
	}
	// Numbers, booleans: keep the literal text.
	*s = FlexString(strings.TrimSpace(string(data)))
	return nil
}

func (s FlexString) String() string { return string(s) }

// FlexFloat decodes JSON numbers and numeric strings, tracking presence so
// callers can tell "absent" from zero.
type FlexFloat struct {
	Value float64
	Set   bool
}

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	raw := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		raw = strings.TrimSpace(s)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	f.Value = v
	f.Set = true
	return nil
}

func (f FlexFloat) MarshalJSON() ([]byte, error) {
	if !f.Set {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}
