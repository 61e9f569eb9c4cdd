package inference

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeError reports a model reply that could not be turned into the
// expected JSON shape. It carries the raw reply for diagnostics.
type DecodeError struct {
	Raw string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("malformed model response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// DecodeJSON parses a model reply into v, tolerating markdown fencing and
// prose around the JSON object. Any parse failure is a *DecodeError.
func DecodeJSON(raw string, v any) error {
	cleaned := stripFences(raw)

	// Models occasionally wrap the object in prose; cut to the outermost
	// braces before giving up.
	if start, end := strings.Index(cleaned, "{"), strings.LastIndex(cleaned, "}"); start >= 0 && end > start {
		cleaned = cleaned[start : end+1]
	}

	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return &DecodeError{Raw: raw, Err: err}
	}
	return nil
}

func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		// Drop the language tag on the opening fence.
		s = s[idx+1:]
	}
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
