package ai

import (
	"encoding/json"
	"strings"
)

// ParseJSON parses a model reply as a JSON object, tolerating markdown
// code fences around the payload. Returns nil when the reply is not
// valid JSON; callers fall back to defined defaults.
func ParseJSON(text string) map[string]any {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	if strings.HasPrefix(text, "```") {
		lines := strings.Split(text, "\n")
		end := len(lines) - 1
		for i := len(lines) - 1; i > 0; i-- {
			if strings.TrimSpace(lines[i]) == "```" {
				end = i
				break
			}
		}
		text = strings.Join(lines[1:end], "\n")
	}

	var result map[string]any
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil
	}
	return result
}

// GetString reads a string field from a parsed reply, or fallback.
func GetString(m map[string]any, key, fallback string) string {
	if m == nil {
		return fallback
	}
	if s, ok := m[key].(string); ok && s != "" {
		return s
	}
	return fallback
}

// GetInt reads a numeric field from a parsed reply, or fallback. JSON
// numbers decode as float64.
func GetInt(m map[string]any, key string, fallback int) int {
	if m == nil {
		return fallback
	}
	if f, ok := m[key].(float64); ok {
		return int(f)
	}
	return fallback
}

// GetBool reads a boolean field from a parsed reply, or fallback.
func GetBool(m map[string]any, key string, fallback bool) bool {
	if m == nil {
		return fallback
	}
	if b, ok := m[key].(bool); ok {
		return b
	}
	return fallback
}

// GetStrings reads a string array field from a parsed reply. Non-string
// elements are skipped.
func GetStrings(m map[string]any, key string) []string {
	if m == nil {
		return nil
	}
	raw, ok := m[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
