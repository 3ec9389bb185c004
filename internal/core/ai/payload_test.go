package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractJSONPayload(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected string
	}{
		{
			name:     "json tagged fence",
			content:  "```json\n[{\"original\":\"Sucre\",\"korean\":\"설탕\"}]\n```",
			expected: `[{"original":"Sucre","korean":"설탕"}]`,
		},
		{
			name:     "bare fence",
			content:  "```\n[1, 2, 3]\n```",
			expected: "[1, 2, 3]",
		},
		{
			name:     "tagged fence wins over bare fence",
			content:  "```\nignored\n```\n```json\n{\"a\":1}\n```",
			expected: `{"a":1}`,
		},
		{
			name:     "raw text passes through",
			content:  `[{"original":"Salt"}]`,
			expected: `[{"original":"Salt"}]`,
		},
		{
			name:     "surrounding prose around fence",
			content:  "Here is the translation:\n```json\n[]\n```\nLet me know if you need more.",
			expected: "[]",
		},
		{
			name:     "whitespace trimmed",
			content:  "  \n {\"a\":1} \n ",
			expected: `{"a":1}`,
		},
		{
			name:     "unterminated fence falls back to raw",
			content:  "```json\n[1,2",
			expected: "```json\n[1,2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractJSONPayload(tt.content))
		})
	}
}
