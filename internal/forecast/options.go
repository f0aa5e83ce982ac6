// Package forecast fits a trend to a yearly series in log space and projects
// it forward with a confidence band.
package forecast

import (
	"math"

	"digitrend/internal/errs"
)

// Model selects the regression over the year feature.
type Model string

const (
	Linear    Model = "linear"
	Quadratic Model = "quadratic"
)

// Transform is the monotonic mapping applied to values before fitting.
type Transform string

const (
	// Log1p fits log(v+1) and back-transforms with exp(p)-1.
	Log1p Transform = "log1p"
	// Log fits log(v); every value must be positive.
	Log Transform = "log"
)

// Confidence is a confidence level in percent.
type Confidence int

const (
	Confidence90 Confidence = 90
	Confidence95 Confidence = 95
	Confidence99 Confidence = 99
)

var zScores = map[Confidence]float64{
	Confidence90: 1.645,
	Confidence95: 1.96,
	Confidence99: 2.58,
}

// Z returns the two-sided z-score for c.
func (c Confidence) Z() (float64, error) {
	z, ok := zScores[c]
	if !ok {
		return 0, errs.Invalid("unsupported confidence level %d (use 90, 95 or 99)", int(c))
	}
	return z, nil
}

// MaxHorizon is the furthest projection, in years past the last observation.
const MaxHorizon = 20

// Options configures one extrapolation.
type Options struct {
	Horizon    int        `json:"horizon"`
	Confidence Confidence `json:"confidence"`
	Model      Model      `json:"model"`
	Transform  Transform  `json:"transform"`
}

// DefaultOptions projects three years with a 95% band on a linear log1p fit.
func DefaultOptions() Options {
	return Options{
		Horizon:    3,
		Confidence: Confidence95,
		Model:      Linear,
		Transform:  Log1p,
	}
}

func forward(t Transform, v float64) (float64, error) {
	switch t {
	case Log1p:
		return math.Log1p(v), nil
	case Log:
		if v <= 0 {
			return 0, errs.Invalid("log transform needs positive values, got %v", v)
		}
		return math.Log(v), nil
	}
	return 0, errs.Invalid("unknown transform %q", t)
}

func inverse(t Transform, v float64) float64 {
	if t == Log {
		return math.Exp(v)
	}
	return math.Expm1(v)
}
