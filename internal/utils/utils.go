package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"prompt2app/internal/types"
)

var (
	ErrEmptyOutput   = errors.New("model output is empty")
	ErrMissingCode   = errors.New("model output has no code field")
	ErrMalformedJSON = errors.New("model output is not valid JSON")
)

// StripCodeFences removes a surrounding markdown fence (```json ... ``` or
// ``` ... ```) that some models wrap around JSON replies.
func StripCodeFences(output string) string {
	cleaned := strings.TrimSpace(output)
	if !strings.HasPrefix(cleaned, "```") {
		return cleaned
	}
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```JSON")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	return strings.TrimSpace(cleaned)
}

// ExtractCode parses the model's JSON reply and returns the HTML held in its
// "code" field. The HTML itself is returned untouched.
func ExtractCode(llmOutput string) (string, error) {
	cleaned := StripCodeFences(llmOutput)
	if cleaned == "" {
		return "", ErrEmptyOutput
	}

	var out types.GenerateAppOutput
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	if strings.TrimSpace(out.Code) == "" {
		return "", ErrMissingCode
	}
	return out.Code, nil
}
