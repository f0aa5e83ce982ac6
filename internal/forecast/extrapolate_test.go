package forecast

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digitrend/internal/errs"
	"digitrend/internal/series"
)

func generated(t *testing.T, name string, percent float64) series.Series {
	t.Helper()
	table, err := series.Generate([]series.Rate{{Name: name, Percent: percent}}, nil, series.YearRange(2025, 2030), series.Options{})
	require.NoError(t, err)
	s, ok := table.Column(name)
	require.True(t, ok)
	return s
}

func TestExtrapolate_RecoversExactLogLinearTrend(t *testing.T) {
	years := series.YearRange(2020, 2029)
	alpha := math.Log1p(100) - 0.1*2020
	values := make([]float64, len(years))
	for i, y := range years {
		values[i] = math.Expm1(alpha + 0.1*float64(y))
	}

	res, err := Extrapolate(series.Series{Name: "exact", Years: years, Values: values}, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, res.Points, 3)

	for i, p := range res.Points {
		assert.Equal(t, 2030+i, p.Year)
		want := math.Expm1(alpha + 0.1*float64(p.Year))
		assert.InEpsilon(t, want, p.Estimate, 1e-6)
	}
	assert.InDelta(t, 0, res.Sigma, 1e-9)
	assert.InDelta(t, 1, res.R2, 1e-9)
	assert.InDelta(t, 0.1, res.Coefficients[1], 1e-9)
}

func TestExtrapolate_RoundTripsGeneratedSeries(t *testing.T) {
	for _, percent := range []float64{12, 20, 40} {
		s := generated(t, "category", percent)

		res, err := Extrapolate(s, Options{Horizon: 1, Confidence: Confidence95, Model: Linear, Transform: Log1p})
		require.NoError(t, err)
		require.Len(t, res.Points, 1)

		truth := 100 * math.Pow(1+percent/100, 6)
		assert.Equal(t, 2031, res.Points[0].Year)
		assert.InEpsilon(t, truth, res.Points[0].Estimate, 0.02, "rate %v", percent)
		assert.Greater(t, res.R2, 0.99)
		assert.Len(t, res.Fitted, len(s.Values))
	}
}

func TestExtrapolate_BandContainsEstimateAndIsAsymmetric(t *testing.T) {
	res, err := Extrapolate(generated(t, "AI Engineer Jobs", 20), DefaultOptions())
	require.NoError(t, err)

	for _, p := range res.Points {
		assert.LessOrEqual(t, p.Lower, p.Estimate)
		assert.LessOrEqual(t, p.Estimate, p.Upper)
		assert.Greater(t, p.Upper-p.Estimate, p.Estimate-p.Lower, "year %d", p.Year)
	}
	assert.Greater(t, res.Sigma, 0.0)
	assert.Equal(t, 1.96, res.Z)
}

func TestExtrapolate_WiderBandAtHigherConfidence(t *testing.T) {
	s := generated(t, "Fintech Startups", 30)

	opts := DefaultOptions()
	narrow, err := Extrapolate(s, opts)
	require.NoError(t, err)
	opts.Confidence = Confidence99
	wide, err := Extrapolate(s, opts)
	require.NoError(t, err)

	for i := range narrow.Points {
		assert.Equal(t, narrow.Points[i].Estimate, wide.Points[i].Estimate)
		assert.Less(t, wide.Points[i].Lower, narrow.Points[i].Lower)
		assert.Greater(t, wide.Points[i].Upper, narrow.Points[i].Upper)
	}
}

func TestExtrapolate_FlatSeriesHasNoBand(t *testing.T) {
	s := series.Series{Name: "flat", Years: series.YearRange(2025, 2030), Values: []float64{100, 100, 100, 100, 100, 100}}

	res, err := Extrapolate(s, DefaultOptions())
	require.NoError(t, err)

	for _, p := range res.Points {
		assert.InDelta(t, 100, p.Estimate, 1e-9)
		assert.InDelta(t, p.Estimate, p.Lower, 1e-9)
		assert.InDelta(t, p.Estimate, p.Upper, 1e-9)
	}
	assert.Equal(t, 1.0, res.R2)
	assert.False(t, math.IsNaN(res.R2))
}

func TestExtrapolate_Quadratic(t *testing.T) {
	years := series.YearRange(2025, 2032)
	center := 2028.5
	curve := func(y float64) float64 {
		d := y - center
		return math.Expm1(5 + 0.2*d + 0.01*d*d)
	}
	values := make([]float64, len(years))
	for i, y := range years {
		values[i] = curve(float64(y))
	}

	res, err := Extrapolate(series.Series{Name: "curved", Years: years, Values: values}, Options{
		Horizon: 2, Confidence: Confidence90, Model: Quadratic, Transform: Log1p,
	})
	require.NoError(t, err)
	require.Len(t, res.Coefficients, 3)
	assert.InDelta(t, 0.01, res.Coefficients[2], 1e-9)

	for _, p := range res.Points {
		assert.InEpsilon(t, curve(float64(p.Year)), p.Estimate, 1e-6)
	}
}

func TestExtrapolate_QuadraticNeedsThreeYears(t *testing.T) {
	s := series.Series{Name: "short", Years: []int{2025, 2026}, Values: []float64{100, 120}}

	_, err := Extrapolate(s, Options{Horizon: 1, Confidence: Confidence95, Model: Quadratic, Transform: Log1p})
	assert.ErrorIs(t, err, errs.ErrInvalidInput)

	res, err := Extrapolate(s, DefaultOptions())
	require.NoError(t, err)
	assert.InDelta(t, 0, res.Sigma, 1e-12)
}

func TestExtrapolate_LogTransform(t *testing.T) {
	s := generated(t, "Cybersecurity Jobs", 25)

	opts := DefaultOptions()
	opts.Transform = Log
	res, err := Extrapolate(s, opts)
	require.NoError(t, err)
	assert.InEpsilon(t, 100*math.Pow(1.25, 6), res.Points[0].Estimate, 0.02)

	s.Values[0] = 0
	_, err = Extrapolate(s, opts)
	assert.ErrorIs(t, err, errs.ErrInvalidInput)

	opts.Transform = Log1p
	_, err = Extrapolate(s, opts)
	assert.NoError(t, err)
}

func TestExtrapolate_InvalidInput(t *testing.T) {
	good := series.Series{Name: "ok", Years: []int{2025, 2026, 2027}, Values: []float64{100, 110, 121}}

	tests := []struct {
		name    string
		history series.Series
		mutate  func(*Options)
	}{
		{name: "zero horizon", history: good, mutate: func(o *Options) { o.Horizon = 0 }},
		{name: "negative horizon", history: good, mutate: func(o *Options) { o.Horizon = -2 }},
		{name: "horizon past max", history: good, mutate: func(o *Options) { o.Horizon = MaxHorizon + 1 }},
		{name: "huge horizon", history: good, mutate: func(o *Options) { o.Horizon = math.MaxInt }},
		{name: "unknown confidence", history: good, mutate: func(o *Options) { o.Confidence = 80 }},
		{name: "unknown model", history: good, mutate: func(o *Options) { o.Model = "cubic" }},
		{name: "unknown transform", history: good, mutate: func(o *Options) { o.Transform = "sqrt" }},
		{name: "single year", history: series.Series{Years: []int{2025}, Values: []float64{100}}},
		{name: "one distinct year", history: series.Series{Years: []int{2025, 2025}, Values: []float64{100, 105}}},
		{name: "empty", history: series.Series{}},
		{name: "negative value", history: series.Series{Years: []int{2025, 2026}, Values: []float64{100, -1}}},
		{name: "nan value", history: series.Series{Years: []int{2025, 2026}, Values: []float64{math.NaN(), 1}}},
		{name: "length mismatch", history: series.Series{Years: []int{2025, 2026}, Values: []float64{1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			if tt.mutate != nil {
				tt.mutate(&opts)
			}
			res, err := Extrapolate(tt.history, opts)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, errs.ErrInvalidInput)
		})
	}
}

func TestConfidenceZ(t *testing.T) {
	for c, want := range map[Confidence]float64{90: 1.645, 95: 1.96, 99: 2.58} {
		z, err := c.Z()
		require.NoError(t, err)
		assert.Equal(t, want, z)
	}
	_, err := Confidence(50).Z()
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}
