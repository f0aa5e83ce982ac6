package series

import (
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"digitrend/internal/errs"
)

const (
	// DefaultStartValue is used for categories without an explicit start.
	DefaultStartValue = 100.0
	// DefaultNoiseSigma is the standard deviation of the market-noise factor.
	DefaultNoiseSigma = 0.05
)

// Options controls the optional market noise.
type Options struct {
	Noise bool
	Sigma float64     // zero means DefaultNoiseSigma
	Src   rand.Source // nil means a time-seeded source
}

// Generate projects every rate over years. The first year holds the start
// value and each following year compounds the rate, optionally times a
// Normal(1, sigma) shock per step. Values are truncated to integers and
// never drop below 1.
func Generate(rates []Rate, starts map[string]float64, years []int, opts Options) (*Table, error) {
	if err := validateYears(years); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(rates))
	for _, r := range rates {
		if r.Name == "" {
			return nil, errs.Invalid("category name is empty")
		}
		if _, dup := seen[r.Name]; dup {
			return nil, errs.Invalid("duplicate category %q", r.Name)
		}
		seen[r.Name] = struct{}{}
		if math.IsNaN(r.Percent) || math.IsInf(r.Percent, 0) {
			return nil, errs.Invalid("growth rate of %q is not a number", r.Name)
		}
		if r.Percent < -100 {
			return nil, errs.Invalid("growth rate of %q is below -100%%: %.2f", r.Name, r.Percent)
		}
	}

	var noise *distuv.Normal
	if opts.Noise {
		sigma := opts.Sigma
		if sigma == 0 {
			sigma = DefaultNoiseSigma
		}
		if sigma < 0 || math.IsNaN(sigma) || math.IsInf(sigma, 0) {
			return nil, errs.Invalid("noise sigma must be non-negative, got %v", sigma)
		}
		src := opts.Src
		if src == nil {
			src = rand.NewPCG(uint64(time.Now().UnixNano()), 0x9e3779b97f4a7c15)
		}
		noise = &distuv.Normal{Mu: 1, Sigma: sigma, Src: src}
	}

	table := &Table{
		Years:   append([]int(nil), years...),
		Columns: make([]string, 0, len(rates)),
		Values:  make([][]float64, 0, len(rates)),
	}
	for _, r := range rates {
		start, ok := starts[r.Name]
		if !ok {
			start = DefaultStartValue
		}
		if math.IsNaN(start) || math.IsInf(start, 0) {
			return nil, errs.Invalid("start value of %q is not a number", r.Name)
		}
		table.Columns = append(table.Columns, r.Name)
		table.Values = append(table.Values, project(start, r.Percent, len(years), noise))
	}
	return table, nil
}

func project(start, percent float64, n int, noise *distuv.Normal) []float64 {
	values := make([]float64, n)
	growth := 1 + percent/100
	shock := 1.0
	for i := range values {
		if i > 0 && noise != nil {
			shock *= noise.Rand()
		}
		values[i] = math.Max(math.Floor(start*math.Pow(growth, float64(i))*shock), 1)
	}
	return values
}

func validateYears(years []int) error {
	if len(years) == 0 {
		return errs.Invalid("at least one year is required")
	}
	for i := 1; i < len(years); i++ {
		if years[i] != years[i-1]+1 {
			return errs.Invalid("years must be contiguous and increasing: %d follows %d", years[i], years[i-1])
		}
	}
	return nil
}

// YearRange returns the inclusive range [from, to].
func YearRange(from, to int) []int {
	if to < from {
		return nil
	}
	years := make([]int, 0, to-from+1)
	for y := from; y <= to; y++ {
		years = append(years, y)
	}
	return years
}
