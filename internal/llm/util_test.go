package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanJSONBlock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "json code block",
			input:    "```json\n{\"content_tags\": [\"ai\"]}\n```",
			expected: `{"content_tags": ["ai"]}`,
		},
		{
			name:     "generic code block",
			input:    "```\n{\"urgency\": \"high\"}\n```",
			expected: `{"urgency": "high"}`,
		},
		{
			name:     "plain JSON",
			input:    `  {"urgency": "low"}  `,
			expected: `{"urgency": "low"}`,
		},
		{
			name:     "preamble and trailing text",
			input:    "Here is the analysis:\n{\"power_map\": {\"controls\": [], \"seeks\": []}}\nHope this helps!",
			expected: `{"power_map": {"controls": [], "seeks": []}}`,
		},
		{
			name:     "braces inside strings",
			input:    `{"trend_alignment": "Bets on {tokenized} credit \"rails}\""}`,
			expected: `{"trend_alignment": "Bets on {tokenized} credit \"rails}\""}`,
		},
		{
			name:     "no object",
			input:    "  not json  ",
			expected: "not json",
		},
		{
			name:     "unterminated object",
			input:    `{"a": 1`,
			expected: `{"a": 1`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanJSONBlock(tt.input))
		})
	}
}

func TestExtractJSONObject(t *testing.T) {
	assert.Equal(t, `{"a": {"b": 1}}`, extractJSONObject(`{"a": {"b": 1}} trailing`))
	assert.Equal(t, "", extractJSONObject(""))
	assert.Equal(t, "", extractJSONObject("[1, 2]"))
	assert.Equal(t, "", extractJSONObject(`{"open": true`))
}
