package ai

import (
	"errors"
	"strings"
)

// ErrNoPayload is returned when the model output contains nothing that parses
// as the requested structure.
var ErrNoPayload = errors.New("no structured payload found in model output")

// ExtractJSONPayload pulls the JSON body out of a model response. Models often
// wrap structured answers in a fenced code block; precedence is a "json"-tagged
// fence, then a bare fence, then the raw text.
func ExtractJSONPayload(content string) string {
	content = strings.TrimSpace(content)

	if inner, ok := extractFence(content, "```json"); ok {
		return inner
	}
	if inner, ok := extractFence(content, "```"); ok {
		return inner
	}
	return content
}

func extractFence(content, marker string) (string, bool) {
	start := strings.Index(content, marker)
	if start == -1 {
		return "", false
	}
	start += len(marker)

	end := strings.Index(content[start:], "```")
	if end == -1 {
		return "", false
	}
	return strings.TrimSpace(content[start : start+end]), true
}
