package strutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{"empty string", "", 10, ""},
		{"short string", "cozy loft", 20, "cozy loft"},
		{"exact length", "loft", 4, "loft"},
		{"needs truncation", "Title: Sunny Loft", 5, "Title..."},
		{"zero maxLen", "loft", 0, ""},
		{"negative maxLen", "loft", -1, ""},
		{"multi-byte runes", "Café Montréal", 4, "Café..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Truncate(tt.input, tt.maxLen))
		})
	}
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "Title: Loft", FirstLine("Title: Loft\nType: Entire loft"))
	assert.Equal(t, "Title: Loft", FirstLine("Title: Loft"))
	assert.Equal(t, "", FirstLine("\nType: Entire loft"))
	assert.Equal(t, "", FirstLine(""))
}
