package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var jsonBlockRegex = regexp.MustCompile("```(?:json)?\\s*")

// removes markdown formatting from the response
func cleanJSONResponse(s string) string {
	s = strings.TrimSpace(s)
	s = jsonBlockRegex.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// extractObject returns the first JSON object in text that satisfies schema.
// Models often wrap the object in prose or code fences.
func extractObject(text string, schema Schema) (json.RawMessage, error) {
	text = cleanJSONResponse(text)

	var lastErr error
	for i := 0; i < len(text); i++ {
		if text[i] != '{' {
			continue
		}
		decoder := json.NewDecoder(strings.NewReader(text[i:]))
		var raw json.RawMessage
		if err := decoder.Decode(&raw); err != nil {
			continue
		}
		if err := schema.Validate(raw); err != nil {
			lastErr = err
			continue
		}
		return raw, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf(
			"no JSON object matching schema in response: %w (response: %s)",
			lastErr,
			truncateString(text, 200),
		)
	}
	return nil, fmt.Errorf(
		"no JSON object found in response (response: %s)",
		truncateString(text, 200),
	)
}

// truncates a string to maxLen bytes
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
