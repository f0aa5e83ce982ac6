package series

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digitrend/internal/errs"
)

func TestGenerate_NoiseFreeMatchesClosedForm(t *testing.T) {
	rates := []Rate{
		{Name: "AI Engineer Jobs", Percent: 40},
		{Name: "Web Developer Jobs", Percent: 18},
		{Name: "IoT Workshops", Percent: 12.5},
		{Name: "Gaming & Entertainment Startups", Percent: 15},
	}
	starts := map[string]float64{"AI Engineer Jobs": 250, "IoT Workshops": 73.9}
	years := YearRange(2025, 2034)

	table, err := Generate(rates, starts, years, Options{})
	require.NoError(t, err)
	require.Equal(t, years, table.Years)
	require.Len(t, table.Columns, len(rates))

	for c, r := range rates {
		start, ok := starts[r.Name]
		if !ok {
			start = DefaultStartValue
		}
		for i := range years {
			want := math.Floor(start * math.Pow(1+r.Percent/100, float64(i)))
			assert.Equal(t, want, table.Values[c][i], "%s step %d", r.Name, i)
		}
	}
}

func TestGenerate_StartFlooredToIntegerAndOne(t *testing.T) {
	rates := []Rate{{Name: "fractional", Percent: 0}, {Name: "tiny", Percent: 0}, {Name: "zero", Percent: 10}}
	starts := map[string]float64{"fractional": 99.9, "tiny": 0.3, "zero": 0}

	table, err := Generate(rates, starts, YearRange(2025, 2027), Options{})
	require.NoError(t, err)

	assert.Equal(t, []float64{99, 99, 99}, table.Values[0])
	assert.Equal(t, []float64{1, 1, 1}, table.Values[1])
	assert.Equal(t, []float64{1, 1, 1}, table.Values[2])
}

func TestGenerate_Deterministic(t *testing.T) {
	rates := []Rate{{Name: "Fintech Startups", Percent: 30}, {Name: "EdTech Startups", Percent: 25}}
	years := YearRange(2025, 2030)

	a, err := Generate(rates, nil, years, Options{})
	require.NoError(t, err)
	b, err := Generate(rates, nil, years, Options{})
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestGenerate_EdgeCases(t *testing.T) {
	years := YearRange(2025, 2030)

	t.Run("zero rate is flat", func(t *testing.T) {
		table, err := Generate([]Rate{{Name: "flat", Percent: 0}}, nil, years, Options{})
		require.NoError(t, err)
		for _, v := range table.Values[0] {
			assert.Equal(t, 100.0, v)
		}
	})

	t.Run("negative rate shrinks toward one", func(t *testing.T) {
		table, err := Generate([]Rate{{Name: "decline", Percent: -50}}, nil, YearRange(2025, 2035), Options{})
		require.NoError(t, err)
		values := table.Values[0]
		assert.Equal(t, 100.0, values[0])
		assert.Equal(t, 50.0, values[1])
		for i := 1; i < len(values); i++ {
			assert.LessOrEqual(t, values[i], values[i-1])
			assert.GreaterOrEqual(t, values[i], 1.0)
		}
		assert.Equal(t, 1.0, values[len(values)-1])
	})

	t.Run("minus one hundred percent floors at one", func(t *testing.T) {
		table, err := Generate([]Rate{{Name: "wiped", Percent: -100}}, nil, years, Options{})
		require.NoError(t, err)
		assert.Equal(t, 100.0, table.Values[0][0])
		assert.Equal(t, 1.0, table.Values[0][1])
	})

	t.Run("empty rates keep the year column", func(t *testing.T) {
		table, err := Generate(nil, nil, years, Options{})
		require.NoError(t, err)
		assert.Equal(t, years, table.Years)
		assert.Empty(t, table.Columns)
		assert.Empty(t, table.Values)
		assert.Equal(t, len(years), table.Len())
	})
}

func TestGenerate_InvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		rates []Rate
		years []int
		opts  Options
	}{
		{"no years", []Rate{{Name: "a", Percent: 1}}, nil, Options{}},
		{"gap in years", []Rate{{Name: "a", Percent: 1}}, []int{2025, 2027}, Options{}},
		{"decreasing years", []Rate{{Name: "a", Percent: 1}}, []int{2026, 2025}, Options{}},
		{"duplicate category", []Rate{{Name: "a", Percent: 1}, {Name: "a", Percent: 2}}, []int{2025}, Options{}},
		{"empty name", []Rate{{Name: "", Percent: 1}}, []int{2025}, Options{}},
		{"rate below -100", []Rate{{Name: "a", Percent: -101}}, []int{2025}, Options{}},
		{"nan rate", []Rate{{Name: "a", Percent: math.NaN()}}, []int{2025}, Options{}},
		{"negative sigma", []Rate{{Name: "a", Percent: 1}}, []int{2025}, Options{Noise: true, Sigma: -0.1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := Generate(tt.rates, nil, tt.years, tt.opts)
			assert.ErrorIs(t, err, errs.ErrInvalidInput)
			assert.Nil(t, table)
		})
	}
}

func TestGenerate_NoiseIsSeededAndBounded(t *testing.T) {
	rates := []Rate{{Name: "Cloud Architect Jobs", Percent: 23}}
	years := YearRange(2025, 2030)

	a, err := Generate(rates, nil, years, Options{Noise: true, Src: rand.NewPCG(7, 11)})
	require.NoError(t, err)
	b, err := Generate(rates, nil, years, Options{Noise: true, Src: rand.NewPCG(7, 11)})
	require.NoError(t, err)
	assert.Equal(t, a.Values, b.Values, "same seed gives the same draw")

	assert.Equal(t, 100.0, a.Values[0][0], "first year carries no noise")
	for _, v := range a.Values[0] {
		assert.GreaterOrEqual(t, v, 1.0)
		assert.Equal(t, math.Floor(v), v)
	}
}

func TestGenerate_NoiseIsCentredOnTheNoiseFreePath(t *testing.T) {
	const n = 2000
	rates := make([]Rate, n)
	starts := make(map[string]float64, n)
	for i := range rates {
		name := "c" + string(rune('A'+i%26)) + string(rune('a'+(i/26)%26)) + string(rune('a'+(i/676)%26))
		rates[i] = Rate{Name: name, Percent: 0}
		starts[name] = 10000
	}

	table, err := Generate(rates, starts, YearRange(2025, 2026), Options{Noise: true, Src: rand.NewPCG(42, 42)})
	require.NoError(t, err)

	var sum float64
	for c := range table.Columns {
		sum += table.Values[c][1]
	}
	mean := sum / n
	assert.InDelta(t, 10000, mean, 100, "mean of step-1 values stays near the noise-free value")
}

func TestYearRange(t *testing.T) {
	assert.Equal(t, []int{2025, 2026, 2027}, YearRange(2025, 2027))
	assert.Equal(t, []int{2030}, YearRange(2030, 2030))
	assert.Nil(t, YearRange(2031, 2030))
}

func TestTableColumnAndRow(t *testing.T) {
	table, err := Generate([]Rate{{Name: "a", Percent: 100}, {Name: "b", Percent: 0}}, nil, YearRange(2025, 2027), Options{})
	require.NoError(t, err)

	col, ok := table.Column("a")
	require.True(t, ok)
	assert.Equal(t, []float64{100, 200, 400}, col.Values)
	assert.Equal(t, []int{2025, 2026, 2027}, col.Years)

	col.Values[0] = -1
	assert.Equal(t, 100.0, table.Values[0][0], "Column returns a copy")

	_, ok = table.Column("missing")
	assert.False(t, ok)

	assert.Equal(t, []float64{200, 100}, table.Row(1))
}
