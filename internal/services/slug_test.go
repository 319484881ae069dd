package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Starfall Tactics", "starfall-tactics"},
		{"  Spaced   Out  ", "spaced-out"},
		{"C++ & Dragons!", "c-dragons"},
		{"Already-Slugged", "already-slugged"},
		{"UPPER case 42", "upper-case-42"},
		{"---", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}
