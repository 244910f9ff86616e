package strutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxLen   int
		expected string
	}{
		{"empty string", "", 10, ""},
		{"short string", "hello", 10, "hello"},
		{"exact length", "hello", 5, "hello"},
		{"needs truncation", "hello world", 5, "hello..."},
		{"single char truncated", "ab", 1, "a..."},

		{"negative maxLen", "hello", -1, ""},
		{"zero maxLen", "hello", 0, ""},

		// Multi-byte runes are never split.
		{"rupee exact", "₹250", 4, "₹250"},
		{"rupee truncated", "₹250.00 Cr", 4, "₹250..."},
		{"devanagari", "धनसंपत्ति", 2, "धन..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Truncate(tt.input, tt.maxLen))
		})
	}
}
