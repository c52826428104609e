package extract

import (
	"fmt"
	"strings"
)

// GroundingPrompt is the first-stage instruction. The image it accompanies
// carries a 10x10 reference grid; the prompt teaches the service to read the
// grid as a ruler and answer with normalized unit-square coordinates.
const GroundingPrompt = `You are analyzing a scanned document image that has a reference GRID OVERLAY.

COORDINATE SYSTEM:
- The image is divided into a 10x10 grid (100 cells total)
- Cells are indexed 0-9 horizontally (X) and 0-9 vertically (Y)
- Each grid cell spans exactly 0.1 units of the normalized coordinate space
- Use the grid lines as a ruler to measure positions precisely

For every labeled field on the document, measure its bounding box and convert
to normalized coordinates in the range 0.0-1.0:
- x: left edge (0.0 = image left, 1.0 = image right)
- y: top edge (0.0 = image top, 1.0 = image bottom)
- width: horizontal span of the text
- height: vertical span of the text

Example: text spanning grid cells (2,3) to (4,3) has
{"x": 0.2, "y": 0.3, "width": 0.2, "height": 0.1}

Return exactly one JSON object with this structure:
{
  "documentType": "invoice|receipt|form|contract|other",
  "extractedFields": [
    {
      "label": "exact field label",
      "value": "exact field value",
      "confidence": 0.95,
      "boundingBox": {"x": 0.200, "y": 0.300, "width": 0.200, "height": 0.100}
    }
  ],
  "fullText": "complete text content"
}

Use 3 decimal places for coordinates. Respond with ONLY the JSON object.`

// RefinementPrompt asks the service to tighten stage-one coordinates against
// the original, non-gridded image. Same output shape as grounding.
const RefinementPrompt = `You are reviewing bounding box coordinates produced for a document image.
Improve their accuracy so each box frames its text tightly:
- Adjust x/y to align with the text edges
- Adjust width/height to cover the text exactly, with minimal padding
- Keep every coordinate within 0.0-1.0
- Do not drop, merge, or invent fields

Return the same JSON structure with improved coordinates, and nothing else.`

// FallbackPrompt is the simplified single-shot instruction used when the
// grounding call itself fails. No grid, no refinement, fewer output tokens.
const FallbackPrompt = `Extract all visible labeled fields from this document image. Return JSON:
{
  "extractedFields": [
    {
      "label": "field name",
      "value": "field value",
      "confidence": 0.8,
      "boundingBox": {"x": 0.1, "y": 0.1, "width": 0.8, "height": 0.1}
    }
  ]
}
Respond with ONLY the JSON object.`

// TextPrompt is the system instruction for text-only documents (PDF, DOCX,
// and friends) where no geometry is available.
const TextPrompt = `Extract all label-value pairs from the document text the user provides.
Identify actual field labels and their corresponding values.
Return JSON: {"documentType": "invoice|receipt|form|contract|other", "extractedFields": [{"label": "field name", "value": "field value", "confidence": 0.95}]}`

// BuildRefinementPrompt appends the stage-one extraction to the refinement
// instruction.
func BuildRefinementPrompt(stageOne string) string {
	var sb strings.Builder
	sb.WriteString(RefinementPrompt)
	sb.WriteString("\n\nORIGINAL EXTRACTION TO REFINE:\n")
	sb.WriteString(stageOne)
	return sb.String()
}

// maxTextPromptBytes caps the document text sent to the model in one call.
const maxTextPromptBytes = 48 * 1024

// BuildTextPrompt packages parsed document text for the text-extraction
// call, truncating oversized documents rather than splitting them.
func BuildTextPrompt(title, text string) string {
	if len(text) > maxTextPromptBytes {
		text = text[:maxTextPromptBytes]
	}
	var sb strings.Builder
	if title != "" {
		sb.WriteString(fmt.Sprintf("Document: %q\n---\n", title))
	}
	sb.WriteString(text)
	return sb.String()
}
