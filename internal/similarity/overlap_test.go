package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetOverlapRatio(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []string
		expected float64
	}{
		{"both empty", nil, nil, 0.0},
		{"one empty", []string{"x"}, []string{}, 0.0},
		{"identical", []string{"x", "y"}, []string{"y", "x"}, 1.0},
		{"disjoint", []string{"x"}, []string{"y"}, 0.0},
		{"partial", []string{"x", "y"}, []string{"y", "z"}, 1.0 / 3.0},
		{"duplicates ignored", []string{"x", "x", "y"}, []string{"x"}, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, SetOverlapRatio(tt.a, tt.b), 1e-9)
		})
	}
}

func TestSetOverlapRatio_Properties(t *testing.T) {
	sets := [][]string{
		nil,
		{"Capital formation"},
		{"Capital formation", "Strategic M&A"},
		{"Strategic M&A", "Cross-border expansion", "Capital formation"},
		{"Regulatory positioning", "Regulatory positioning"},
	}

	for _, a := range sets {
		if len(a) > 0 {
			assert.InDelta(t, 1.0, SetOverlapRatio(a, a), 1e-9, "self overlap of %v", a)
		}
		for _, b := range sets {
			ratio := SetOverlapRatio(a, b)
			assert.GreaterOrEqual(t, ratio, 0.0)
			assert.LessOrEqual(t, ratio, 1.0)
			assert.Equal(t, ratio, SetOverlapRatio(b, a), "symmetry for %v / %v", a, b)
		}
	}
}

func TestSetDifferenceRatio(t *testing.T) {
	assert.InDelta(t, 0.0, SetDifferenceRatio([]string{"a"}, []string{"a"}), 1e-9)
	assert.InDelta(t, 1.0, SetDifferenceRatio([]string{"a"}, []string{"b"}), 1e-9)
	assert.InDelta(t, 1.0, SetDifferenceRatio(nil, nil), 1e-9)
	assert.InDelta(t, 2.0/3.0, SetDifferenceRatio([]string{"a", "b"}, []string{"b", "c"}), 1e-9)
}
