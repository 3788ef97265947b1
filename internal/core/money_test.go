package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out float64
		ok  bool
	}{
		{"1", 1, true},
		{"1.0", 1, true},
		{"1.23", 1.23, true},
		{"1,23", 1.23, true},
		{"0.01", 0.01, true},
		{" 2.50 ", 2.5, true},
		{"1200", 1200, true},
		{"-1", 0, false},
		{"0", 0, false},
		{"0.00", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"NaN", 0, false},
		{"1e400", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseAmount(tc.in)
			if !tc.ok {
				assert.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tc.out, float64(got), 1e-9)
		})
	}
}

func TestAmountValueCoercesNonFinite(t *testing.T) {
	assert.Equal(t, 0.0, Amount(math.NaN()).Value())
	assert.Equal(t, 0.0, Amount(math.Inf(1)).Value())
	assert.Equal(t, 0.0, Amount(math.Inf(-1)).Value())
	assert.Equal(t, 12.5, Amount(12.5).Value())
}

func TestSum(t *testing.T) {
	assert.Equal(t, 0.3, Sum(0.1, 0.2))
	assert.Equal(t, 1400.0, Sum(200, 1200, Amount(math.NaN())))
	assert.Equal(t, 0.0, Sum())
}
