package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFold(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"   ", ""},
		{"  Pharmacie  Sainte-THÉRÈSE ", "pharmacie sainte-therese"},
		{"Clinique Àgoué", "clinique agoue"},
		{"CHU\tde  Cotonou", "chu de cotonou"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Fold(tt.in), "input %q", tt.in)
	}
}
