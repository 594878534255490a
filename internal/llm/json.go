package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

var fencePattern = regexp.MustCompile("(?s)^```(\\w*)?\\s*\\n?(.*?)\\n?\\s*```$")

// StripCodeFence removes a surrounding ``` block, optionally tagged with a
// language name, from a model response.
func StripCodeFence(raw string) string {
	text := strings.TrimSpace(raw)
	match := fencePattern.FindStringSubmatch(text)
	if len(match) == 3 && match[2] != "" {
		return strings.TrimSpace(match[2])
	}
	return text
}

// ParseJSON decodes a model response into T. On failure it returns fallback
// and the decode error.
func ParseJSON[T any](raw string, fallback T) (T, error) {
	var out T
	if err := json.Unmarshal([]byte(StripCodeFence(raw)), &out); err != nil {
		return fallback, err
	}
	return out, nil
}
