package catalog

import (
	"math"

	"digitrend/internal/errs"
)

// Scenario is a named economic outlook applied uniformly to growth rates.
type Scenario string

const (
	ScenarioBase        Scenario = "base"
	ScenarioOptimistic  Scenario = "optimistic"
	ScenarioPessimistic Scenario = "pessimistic"
	ScenarioDownturn    Scenario = "downturn"
)

var scenarioMultipliers = map[Scenario]float64{
	ScenarioBase:        1.0,
	ScenarioOptimistic:  1.2,
	ScenarioPessimistic: 0.8,
	ScenarioDownturn:    0.5,
}

// Scenarios lists the known scenarios in display order.
func Scenarios() []Scenario {
	return []Scenario{ScenarioBase, ScenarioOptimistic, ScenarioPessimistic, ScenarioDownturn}
}

const (
	MinOptimism = 0.5
	MaxOptimism = 2.0
	MaxYears    = 30
)

// Params are the user-adjustable scenario settings.
type Params struct {
	Optimism  float64  `json:"optimism" msgpack:"optimism"`
	Scenario  Scenario `json:"scenario" msgpack:"scenario"`
	StartYear int      `json:"start_year" msgpack:"start_year"`
	EndYear   int      `json:"end_year" msgpack:"end_year"`
}

// DefaultParams leaves the built-in rates and years unchanged.
func DefaultParams() Params {
	return Params{
		Optimism:  1.0,
		Scenario:  ScenarioBase,
		StartYear: DefaultStartYear,
		EndYear:   DefaultEndYear,
	}
}

// Validate checks ranges; at least two analysis years are required so the
// trend extrapolator always has something to fit.
func (p Params) Validate() error {
	if math.IsNaN(p.Optimism) || p.Optimism < MinOptimism || p.Optimism > MaxOptimism {
		return errs.Invalid("optimism must be between %.1f and %.1f, got %v", MinOptimism, MaxOptimism, p.Optimism)
	}
	if _, ok := scenarioMultipliers[p.Scenario]; !ok {
		return errs.Invalid("unknown scenario %q", p.Scenario)
	}
	if p.StartYear >= p.EndYear {
		return errs.Invalid("end year must be greater than start year (start %d, end %d)", p.StartYear, p.EndYear)
	}
	if p.EndYear-p.StartYear+1 > MaxYears {
		return errs.Invalid("year range may span at most %d years, got %d", MaxYears, p.EndYear-p.StartYear+1)
	}
	return nil
}

// Multiplier is the factor applied to every growth rate.
func (p Params) Multiplier() (float64, error) {
	m, ok := scenarioMultipliers[p.Scenario]
	if !ok {
		return 0, errs.Invalid("unknown scenario %q", p.Scenario)
	}
	return p.Optimism * m, nil
}
