package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// stageSchema describes the shape the stage prompts ask for. It is advisory:
// a payload that fails it still flows through the total normalizer, but the
// violation is worth logging because it usually precedes degraded geometry.
const stageSchema = `{
  "type": "object",
  "required": ["extractedFields"],
  "properties": {
    "documentType": {"type": "string"},
    "extractedFields": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["label", "value"],
        "properties": {
          "label": {"type": "string"},
          "value": {"type": "string"},
          "confidence": {"type": "number", "minimum": 0, "maximum": 1},
          "boundingBox": {
            "type": "object",
            "properties": {
              "x": {"type": "number"},
              "y": {"type": "number"},
              "width": {"type": "number"},
              "height": {"type": "number"}
            }
          }
        }
      }
    },
    "tables": {"type": "array"},
    "logos": {"type": "array"},
    "signatures": {"type": "array"},
    "fullText": {"type": "string"}
  }
}`

var compiledStageSchema = jsonschema.MustCompileString("stage.schema.json", stageSchema)

// CheckStageShape validates raw stage JSON against the prompt's declared
// shape. Callers log the returned error and proceed regardless.
func CheckStageShape(doc string) error {
	obj, ok := FirstJSONObject(StripCodeFences(doc))
	if !ok {
		return fmt.Errorf("no JSON object to check")
	}
	var v any
	if err := json.Unmarshal([]byte(obj), &v); err != nil {
		return err
	}
	if err := compiledStageSchema.Validate(v); err != nil {
		// The validator's multi-line output is too noisy for one log line.
		msg := strings.ReplaceAll(err.Error(), "\n", "; ")
		return fmt.Errorf("stage shape: %s", truncate(msg, 300))
	}
	return nil
}
