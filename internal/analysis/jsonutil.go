package analysis

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	// fencePattern matches a JSON value inside a markdown code block.
	fencePattern         = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?([\\[{].*[\\]}])\\s*```")
	trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)
)

// extractJSON returns the JSON value carried by a model response, tolerating
// code fences, surrounding prose and trailing commas.
func extractJSON(content string) string {
	content = strings.TrimSpace(content)
	if m := fencePattern.FindStringSubmatch(content); len(m) > 1 {
		content = m[1]
	} else {
		start := strings.IndexAny(content, "{[")
		if start < 0 {
			return ""
		}
		end := strings.LastIndexAny(content, "}]")
		if end < start {
			return ""
		}
		content = content[start : end+1]
	}
	return trailingCommaPattern.ReplaceAllString(content, "$1")
}

// decodeObject unmarshals a response that must be a JSON object.
func decodeObject(content string, v any) error {
	raw := extractJSON(content)
	if raw == "" {
		return fmt.Errorf("no JSON in response")
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeList unmarshals a response that is either a bare JSON array or an
// object wrapping the array under key.
func decodeList[T any](content, key string) ([]T, error) {
	raw := extractJSON(content)
	if raw == "" {
		return nil, fmt.Errorf("no JSON in response")
	}
	if strings.HasPrefix(raw, "[") {
		var list []T
		if err := json.Unmarshal([]byte(raw), &list); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		return list, nil
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &wrapper); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	inner, ok := wrapper[key]
	if !ok {
		return nil, fmt.Errorf("response has no %q field", key)
	}
	var list []T
	if err := json.Unmarshal(inner, &list); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return list, nil
}
