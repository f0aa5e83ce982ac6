package series

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"digitrend/internal/errs"
)

// PercentGrowth returns (v_end - v_start) / v_start * 100 for two years of s.
func PercentGrowth(s Series, start, end int) (float64, error) {
	if len(s.Years) != len(s.Values) {
		return 0, errs.Invalid("series %q has %d years but %d values", s.Name, len(s.Years), len(s.Values))
	}
	if start >= end {
		return 0, errs.Invalid("end year must be greater than start year (start %d, end %d)", start, end)
	}
	from, ok := s.ValueAt(start)
	if !ok {
		return 0, errs.Invalid("year %d is not in series %q", start, s.Name)
	}
	to, ok := s.ValueAt(end)
	if !ok {
		return 0, errs.Invalid("year %d is not in series %q", end, s.Name)
	}
	if from == 0 {
		return 0, fmt.Errorf("%s in %d: %w", s.Name, start, errs.ErrZeroBase)
	}
	return (to - from) / from * 100, nil
}

// CAGR is the constant per-period rate taking start to end over periods,
// as a decimal (0.2 means 20%).
func CAGR(start, end float64, periods int) (float64, error) {
	if periods <= 0 {
		return 0, errs.Invalid("CAGR needs at least one period, got %d", periods)
	}
	if start == 0 {
		return 0, fmt.Errorf("CAGR: %w", errs.ErrZeroBase)
	}
	if start < 0 || end < 0 {
		return 0, errs.Invalid("CAGR needs non-negative values (start %v, end %v)", start, end)
	}
	return math.Pow(end/start, 1/float64(periods)) - 1, nil
}

// Summary mirrors the summary rows of the exported sheets.
type Summary struct {
	Average float64  `json:"average"`
	Max     float64  `json:"max"`
	Min     float64  `json:"min"`
	CAGR    *float64 `json:"cagr,omitempty"` // nil when undefined
}

// Summarize computes average, max, min and the realised CAGR of s.
func Summarize(s Series) (Summary, error) {
	if len(s.Values) == 0 {
		return Summary{}, errs.Invalid("series %q is empty", s.Name)
	}
	sum := Summary{
		Average: stat.Mean(s.Values, nil),
		Max:     floats.Max(s.Values),
		Min:     floats.Min(s.Values),
	}
	if len(s.Values) > 1 {
		if cagr, err := CAGR(s.Values[0], s.Values[len(s.Values)-1], len(s.Values)-1); err == nil {
			sum.CAGR = &cagr
		}
	}
	return sum, nil
}
