package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		valid bool
	}{
		{"simple single word", "Falcon", "Falcon", true},
		{"two words", "CCP Falcon", "CCP Falcon", true},
		{"three words", "Chribba De Luxe", "Chribba De Luxe", true},
		{"digits and dots", "Agent.99", "Agent.99", true},
		{"inner apostrophe", "D'Artagnan", "D'Artagnan", true},
		{"inner hyphen", "Jean-Luc", "Jean-Luc", true},
		{"trims whitespace", "  Falcon  ", "Falcon", true},
		{"too short", "ab", "ab", false},
		{"empty", "", "", false},
		{"blank", "   ", "", false},
		{"double space", "CCP  Falcon", "CCP  Falcon", false},
		{"leading apostrophe", "'Falcon", "'Falcon", false},
		{"trailing hyphen", "Falcon-", "Falcon-", false},
		{"illegal character", "Fal#con", "Fal#con", false},
		{"single word at cap", "Abcdefghijklmnopqrstuvwx", "Abcdefghijklmnopqrstuvwx", true},
		{"single word over cap", "Abcdefghijklmnopqrstuvwxy", "Abcdefghijklmnopqrstuvwxy", false},
		{"last word at cap", "First Abcdefghijkl", "First Abcdefghijkl", true},
		{"last word over cap", "First Abcdefghijklm", "First Abcdefghijklm", false},
		{"overall too long", "Abcdefghijklmnopqrstuvwx Abcdefghijklm", "Abcdefghijklmnopqrstuvwx Abcdefghijklm", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, valid := ValidateName(tt.input)
			assert.Equal(t, tt.valid, valid)
			assert.Equal(t, tt.want, got)
		})
	}
}
