package strings

import (
	"strings"
	"testing"
)

func TestTruncateLabel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxLen   int
		expected string
	}{
		{name: "short string unchanged", input: "hello", maxLen: 10, expected: "hello"},
		{name: "exact length unchanged", input: "hello", maxLen: 5, expected: "hello"},
		{name: "long string truncated", input: "hello world this is a long string", maxLen: 15, expected: "hello world ..."},
		{name: "newlines replaced with spaces", input: "hello\nworld", maxLen: 20, expected: "hello world"},
		{name: "multiple newlines collapsed", input: "hello\n\n\nworld", maxLen: 20, expected: "hello world"},
		{name: "carriage returns handled", input: "hello\r\nworld", maxLen: 20, expected: "hello world"},
		{name: "multiple spaces collapsed", input: "hello    world", maxLen: 20, expected: "hello world"},
		{name: "tabs collapsed", input: "hello\t\tworld", maxLen: 20, expected: "hello world"},
		{name: "leading and trailing whitespace trimmed", input: "  hello world  ", maxLen: 20, expected: "hello world"},
		{name: "emoji handled correctly", input: "hello ðŸ‘‹ world", maxLen: 20, expected: "hello ðŸ‘‹ world"},
		{name: "empty string", input: "", maxLen: 10, expected: ""},
		{name: "whitespace only becomes empty", input: "   \n\t  ", maxLen: 10, expected: ""},
		{
			name:     "complex whitespace normalization with truncation",
			input:    "This is\na multiline\n\ndescription with   extra   spaces",
			maxLen:   30,
			expected: "This is a multiline descrip...",
		},
		{name: "maxLen less than minLabelLen clamped to 4", input: "hello", maxLen: 2, expected: "h..."},
		{name: "maxLen of 0 clamped to minLabelLen", input: "hello", maxLen: 0, expected: "h..."},
		{name: "negative maxLen clamped to minLabelLen", input: "hello", maxLen: -5, expected: "h..."},
		{name: "maxLen exactly at minLabelLen", input: "hello", maxLen: 4, expected: "h..."},
		{name: "short string with small maxLen unchanged", input: "hi", maxLen: 3, expected: "hi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := TruncateLabel(tt.input, tt.maxLen)
			if result != tt.expected {
				t.Errorf("TruncateLabel(%q, %d) = %q, want %q", tt.input, tt.maxLen, result, tt.expected)
			}
		})
	}
}

func TestTruncateLabel_RuneLength(t *testing.T) {
	input := "日本語テスト" // 6 runes, 18 bytes in UTF-8
	result := TruncateLabel(input, 5)

	expected := "日本..."
	if result != expected {
		t.Errorf("expected %q but got %q", expected, result)
	}

	runeCount := 0
	for range result {
		runeCount++
	}
	if runeCount != 5 {
		t.Errorf("expected 5 runes but got %d", runeCount)
	}
}

func TestFormatServiceLabel(t *testing.T) {
	long := strings.Repeat("x", DefaultLabelMaxLen+10)
	got := FormatServiceLabel(long)
	if len(got) != DefaultLabelMaxLen {
		t.Errorf("expected length %d, got %d", DefaultLabelMaxLen, len(got))
	}
	if got[len(got)-3:] != "..." {
		t.Errorf("expected truncated label to end in \"...\", got %q", got)
	}
}
