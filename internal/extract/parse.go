package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var codeFenceRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

// StripCodeFences removes a surrounding ```json fence, which models add
// despite instructions.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if m := codeFenceRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}

// FirstJSONObject returns the substring from the first '{' through the last
// '}' of s. The stage prompts ask for exactly one JSON object; anything the
// model wraps around it (prose, fences) is discarded.
func FirstJSONObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

// ParsePayload decodes one stage's free-text output into a Payload. The
// returned error is a parse failure, never fatal to the pipeline: callers
// degrade to an empty field list and continue.
func ParsePayload(text string) (*Payload, error) {
	text = StripCodeFences(text)
	obj, ok := FirstJSONObject(text)
	if !ok {
		return nil, fmt.Errorf("no JSON object in response (%s)", truncate(text, 120))
	}

	var p Payload
	if err := json.Unmarshal([]byte(obj), &p); err != nil {
		return nil, fmt.Errorf("decode stage payload: %w (raw: %s)", err, truncate(obj, 120))
	}
	return &p, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
