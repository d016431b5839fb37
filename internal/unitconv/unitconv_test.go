// internal/unitconv/unitconv_test.go
package unitconv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    interface{}
		expected float64
		unit     string
	}{
		{"bare number is canonical", "pipe_diameter", 2.0, 2.0, "in"},
		{"int value", "pipe_diameter", 3, 3.0, "in"},
		{"mm to inches", "pipe_diameter", "25.4mm", 1.0, "in"},
		{"fractional inches", "insulation_thickness", "1/2 in", 0.5, "in"},
		{"quoted inches", "pipe_diameter", `3"`, 3.0, "in"},
		{"meters to feet", "length", "2m", 6.56168, "ft"},
		{"inches to feet", "length", "6in", 0.5, "ft"},
		{"kg to pounds", "weight", "10kg", 22.0462, "lb"},
		{"unknown key bare parse", "custom_rating", "42", 42.0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, unit, err := Normalize(tt.key, tt.value)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, value, 1e-6)
			assert.Equal(t, tt.unit, unit)
		})
	}
}

func TestNormalizeErrors(t *testing.T) {
	_, _, err := Normalize("pipe_diameter", "25 furlongs")
	assert.Error(t, err)

	_, _, err = Normalize("pipe_diameter", "not-a-number")
	assert.Error(t, err)

	_, _, err = Normalize("pipe_diameter", []string{"2"})
	assert.Error(t, err)

	_, _, err = Normalize("length", "")
	assert.Error(t, err)
}
