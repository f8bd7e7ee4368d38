package llm

import (
	"encoding/json"
	"strings"
)

// StripCodeFence removes markdown code block wrappers from a response.
// Assistants often wrap JSON in ```json ... ``` even when told not to.
func StripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
	}
	if strings.HasSuffix(text, "```") {
		text = strings.TrimSuffix(text, "```")
	}
	return strings.TrimSpace(text)
}

// ParseLenientJSON decodes an assistant response as a JSON object, accepting
// both fenced and unfenced payloads. Both pipeline stages go through here so
// the tolerance lives in exactly one place. Anything that is not a JSON
// object after unfencing reports ok=false.
func ParseLenientJSON(text string) (map[string]any, bool) {
	cleaned := StripCodeFence(text)
	if cleaned == "" {
		return nil, false
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(cleaned), &m); err != nil {
		return nil, false
	}
	return m, true
}
