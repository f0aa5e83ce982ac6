package series

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digitrend/internal/errs"
)

func TestPercentGrowth(t *testing.T) {
	s := Series{Name: "Fintech Startups", Years: []int{2025, 2026}, Values: []float64{100, 200}}

	growth, err := PercentGrowth(s, 2025, 2026)
	require.NoError(t, err)
	assert.Equal(t, 100.0, growth)
}

func TestPercentGrowth_Decline(t *testing.T) {
	s := Series{Name: "x", Years: []int{2025, 2026, 2027}, Values: []float64{200, 150, 50}}

	growth, err := PercentGrowth(s, 2025, 2027)
	require.NoError(t, err)
	assert.Equal(t, -75.0, growth)
}

func TestPercentGrowth_ZeroBase(t *testing.T) {
	s := Series{Name: "x", Years: []int{2025, 2026}, Values: []float64{0, 50}}

	growth, err := PercentGrowth(s, 2025, 2026)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrZeroBase)
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
	assert.Zero(t, growth)
	assert.Contains(t, err.Error(), "cannot divide by zero")
}

func TestPercentGrowth_LengthMismatch(t *testing.T) {
	s := Series{Name: "x", Years: []int{2025, 2026, 2027}, Values: []float64{100, 200}}

	_, err := PercentGrowth(s, 2025, 2027)
	require.ErrorIs(t, err, errs.ErrInvalidInput)
	assert.Contains(t, err.Error(), "3 years but 2 values")

	_, ok := s.ValueAt(2027)
	assert.False(t, ok)
}

func TestPercentGrowth_InvalidYears(t *testing.T) {
	s := Series{Name: "x", Years: []int{2025, 2026}, Values: []float64{100, 200}}

	tests := []struct {
		name       string
		start, end int
		wantInMsg  string
	}{
		{"start equals end", 2025, 2025, "end year must be greater"},
		{"start after end", 2026, 2025, "end year must be greater"},
		{"start missing", 2020, 2026, "year 2020"},
		{"end missing", 2025, 2031, "year 2031"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PercentGrowth(s, tt.start, tt.end)
			require.ErrorIs(t, err, errs.ErrInvalidInput)
			assert.NotErrorIs(t, err, errs.ErrZeroBase)
			assert.Contains(t, err.Error(), tt.wantInMsg)
		})
	}
}

func TestPercentGrowth_OrderCheckedBeforeLookup(t *testing.T) {
	// Neither year exists; the inverted range must be reported, not the lookup.
	_, err := PercentGrowth(Series{Name: "empty"}, 2030, 2025)
	require.ErrorIs(t, err, errs.ErrInvalidInput)
	assert.Contains(t, err.Error(), "end year must be greater")
}

func TestCAGR(t *testing.T) {
	tests := []struct {
		name       string
		start, end float64
		periods    int
		expected   float64
		tolerance  float64
	}{
		{"doubling in one period", 100, 200, 1, 1.0, 1e-12},
		{"twenty percent over five periods", 100, 248.832, 5, 0.2, 1e-9},
		{"flat", 100, 100, 5, 0, 1e-12},
		{"decline", 100, 25, 2, -0.5, 1e-12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CAGR(tt.start, tt.end, tt.periods)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, got, tt.tolerance)
		})
	}

	_, err := CAGR(0, 100, 5)
	assert.ErrorIs(t, err, errs.ErrZeroBase)
	_, err = CAGR(100, 200, 0)
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
	_, err = CAGR(-1, 200, 3)
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestSummarize(t *testing.T) {
	s := Series{Name: "x", Years: []int{2025, 2026, 2027}, Values: []float64{100, 150, 400}}

	sum, err := Summarize(s)
	require.NoError(t, err)
	assert.InDelta(t, 216.6667, sum.Average, 1e-3)
	assert.Equal(t, 400.0, sum.Max)
	assert.Equal(t, 100.0, sum.Min)
	require.NotNil(t, sum.CAGR)
	assert.InDelta(t, 1.0, *sum.CAGR, 1e-12)

	single, err := Summarize(Series{Name: "one", Years: []int{2025}, Values: []float64{5}})
	require.NoError(t, err)
	assert.Nil(t, single.CAGR)

	_, err = Summarize(Series{Name: "none"})
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}
