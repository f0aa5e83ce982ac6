package forecast

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"digitrend/internal/errs"
	"digitrend/internal/series"
)

// Point is one projected year.
type Point struct {
	Year     int     `json:"year"`
	Estimate float64 `json:"estimate"`
	Lower    float64 `json:"lower"`
	Upper    float64 `json:"upper"`
}

// Result is a projection plus the diagnostics of the fit behind it.
type Result struct {
	Name       string     `json:"name"`
	Model      Model      `json:"model"`
	Transform  Transform  `json:"transform"`
	Confidence Confidence `json:"confidence"`
	Z          float64    `json:"z"`
	// Sigma is the residual standard deviation in transformed space.
	Sigma        float64   `json:"sigma"`
	R2           float64   `json:"r2"`
	MAE          float64   `json:"mae"`
	Coefficients []float64 `json:"coefficients"`
	Fitted       []float64 `json:"fitted"`
	Points       []Point   `json:"points"`
}

// Extrapolate fits the transformed history against year and projects
// opts.Horizon years past the last observed one. The band is symmetric in
// transformed space, so after back-transformation the upper side is wider
// than the lower side for a growing series.
func Extrapolate(history series.Series, opts Options) (*Result, error) {
	if opts.Horizon <= 0 || opts.Horizon > MaxHorizon {
		return nil, errs.Invalid("horizon must be between 1 and %d years, got %d", MaxHorizon, opts.Horizon)
	}
	z, err := opts.Confidence.Z()
	if err != nil {
		return nil, err
	}
	if len(history.Years) != len(history.Values) {
		return nil, errs.Invalid("series %q has %d years but %d values", history.Name, len(history.Years), len(history.Values))
	}
	distinct := distinctYears(history.Years)
	if distinct < 2 {
		return nil, errs.Invalid("at least 2 distinct years are required to fit a trend, got %d", distinct)
	}

	n := len(history.Years)
	x := make([]float64, n)
	y := make([]float64, n)
	last := history.Years[0]
	for i, v := range history.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return nil, errs.Invalid("value for %d must be a non-negative number, got %v", history.Years[i], v)
		}
		if y[i], err = forward(opts.Transform, v); err != nil {
			return nil, err
		}
		x[i] = float64(history.Years[i])
		if history.Years[i] > last {
			last = history.Years[i]
		}
	}

	f, err := fit(opts.Model, x, y, distinct)
	if err != nil {
		return nil, err
	}

	residuals := make([]float64, n)
	fitted := make([]float64, n)
	for i := range x {
		p := f.predict(x[i])
		residuals[i] = y[i] - p
		fitted[i] = inverse(opts.Transform, p)
	}
	_, sigma := stat.PopMeanStdDev(residuals, nil)

	res := &Result{
		Name:         history.Name,
		Model:        opts.Model,
		Transform:    opts.Transform,
		Confidence:   opts.Confidence,
		Z:            z,
		Sigma:        sigma,
		R2:           rSquared(fitted, history.Values),
		MAE:          meanAbsError(fitted, history.Values),
		Coefficients: f.coefficients(),
		Fitted:       fitted,
		Points:       make([]Point, 0, opts.Horizon),
	}
	for year := last + 1; year <= last+opts.Horizon; year++ {
		p := f.predict(float64(year))
		res.Points = append(res.Points, Point{
			Year:     year,
			Estimate: inverse(opts.Transform, p),
			Lower:    inverse(opts.Transform, p-z*sigma),
			Upper:    inverse(opts.Transform, p+z*sigma),
		})
	}
	return res, nil
}

type curve interface {
	predict(x float64) float64
	coefficients() []float64
}

type line struct {
	alpha, beta float64
}

func (l line) predict(x float64) float64 { return l.alpha + l.beta*x }
func (l line) coefficients() []float64   { return []float64{l.alpha, l.beta} }

// parabola is fitted over years centred on their mean to keep the design
// matrix well conditioned.
type parabola struct {
	center float64
	c      [3]float64
}

func (p parabola) predict(x float64) float64 {
	d := x - p.center
	return p.c[0] + p.c[1]*d + p.c[2]*d*d
}

func (p parabola) coefficients() []float64 { return p.c[:] }

func fit(model Model, x, y []float64, distinct int) (curve, error) {
	switch model {
	case Linear:
		alpha, beta := stat.LinearRegression(x, y, nil, false)
		return line{alpha: alpha, beta: beta}, nil
	case Quadratic:
		if distinct < 3 {
			return nil, errs.Invalid("quadratic model needs at least 3 distinct years, got %d", distinct)
		}
		center := stat.Mean(x, nil)
		design := mat.NewDense(len(x), 3, nil)
		for i, xi := range x {
			d := xi - center
			design.Set(i, 0, 1)
			design.Set(i, 1, d)
			design.Set(i, 2, d*d)
		}
		var coef mat.VecDense
		if err := coef.SolveVec(design, mat.NewVecDense(len(y), append([]float64(nil), y...))); err != nil {
			return nil, errs.Invalid("quadratic fit failed: %v", err)
		}
		return parabola{center: center, c: [3]float64{coef.AtVec(0), coef.AtVec(1), coef.AtVec(2)}}, nil
	}
	return nil, errs.Invalid("unknown model %q", model)
}

func distinctYears(years []int) int {
	seen := make(map[int]struct{}, len(years))
	for _, y := range years {
		seen[y] = struct{}{}
	}
	return len(seen)
}

// rSquared is the coefficient of determination on the original scale. A
// constant history has no variance to explain; it scores 1 when the fit
// reproduces it and 0 otherwise.
func rSquared(fitted, values []float64) float64 {
	if stat.Variance(values, nil) == 0 {
		if meanAbsError(fitted, values) <= 1e-9*math.Max(1, math.Abs(values[0])) {
			return 1
		}
		return 0
	}
	return stat.RSquaredFrom(fitted, values, nil)
}

func meanAbsError(fitted, values []float64) float64 {
	var sum float64
	for i := range values {
		sum += math.Abs(fitted[i] - values[i])
	}
	return sum / float64(len(values))
}
