package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContainsPattern(t *testing.T) {
	tests := []struct {
		name     string
		search   string
		expected string
	}{
		{name: "plain text is lowered", search: "Alice", expected: "%alice%"},
		{name: "underscore", search: "_", expected: `%\_%`},
		{name: "percent", search: "100%", expected: `%100\%%`},
		{name: "backslash", search: `a\b`, expected: `%a\\b%`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, containsPattern(tt.search))
		})
	}
}
