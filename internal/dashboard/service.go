// Package dashboard wires the catalog, generator, cache and extrapolator
// into the operations the HTTP API and the offline exporter serve.
package dashboard

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"digitrend/internal/catalog"
	"digitrend/internal/errs"
	"digitrend/internal/forecast"
	"digitrend/internal/memo"
	"digitrend/internal/metrics"
	"digitrend/internal/series"
)

// RateSource supplies growth-rate overrides, keyed by category name.
type RateSource interface {
	Overrides() map[string]float64
}

// Config controls generation and forecast defaults.
type Config struct {
	Noise      bool
	NoiseSigma float64
	// Seed makes noisy tables reproducible; zero seeds from the clock.
	Seed     uint64
	CacheTTL time.Duration
	Forecast forecast.Options
}

// Service is safe for concurrent use.
type Service struct {
	base  catalog.Catalog
	rates RateSource
	cfg   Config
	cache *memo.Cache[*series.Table]
	log   zerolog.Logger
}

// New creates a service over base. rates may be nil.
func New(base catalog.Catalog, rates RateSource, cfg Config, log zerolog.Logger) *Service {
	if cfg.Forecast.Horizon == 0 {
		cfg.Forecast = forecast.DefaultOptions()
	}
	return &Service{
		base:  base,
		rates: rates,
		cfg:   cfg,
		cache: memo.New[*series.Table](cfg.CacheTTL, log),
		log:   log.With().Str("service", "dashboard").Logger(),
	}
}

// ForecastDefaults returns the configured forecast options.
func (s *Service) ForecastDefaults() forecast.Options {
	return s.cfg.Forecast
}

// Catalog returns the configuration used for p: upstream overrides first,
// then the scenario transform.
func (s *Service) Catalog(p catalog.Params) (catalog.Catalog, error) {
	base := s.base
	if s.rates != nil {
		base = base.WithOverrides(s.rates.Overrides())
	}
	return base.Apply(p)
}

type tableKey struct {
	Group  catalog.Group      `msgpack:"group"`
	Rates  []series.Rate      `msgpack:"rates"`
	Starts map[string]float64 `msgpack:"starts"`
	Years  []int              `msgpack:"years"`
	Noise  bool               `msgpack:"noise"`
	Sigma  float64            `msgpack:"sigma"`
	Seed   uint64             `msgpack:"seed"`
}

func (s *Service) generate(cat catalog.Catalog, index int) (catalog.GroupTable, error) {
	spec := cat.Groups[index]
	key := tableKey{
		Group:  spec.Group,
		Rates:  spec.Rates(),
		Starts: spec.Starts(),
		Years:  cat.Years(),
		Noise:  s.cfg.Noise,
		Sigma:  s.cfg.NoiseSigma,
		Seed:   s.cfg.Seed,
	}
	digest, err := memo.Key(key)
	if err != nil {
		return catalog.GroupTable{}, err
	}

	table, hit, err := s.cache.GetOrCompute(digest, func() (*series.Table, error) {
		opts := series.Options{Noise: s.cfg.Noise, Sigma: s.cfg.NoiseSigma}
		if s.cfg.Noise && s.cfg.Seed != 0 {
			opts.Src = rand.NewPCG(s.cfg.Seed, uint64(index)+1)
		}
		return series.Generate(key.Rates, key.Starts, key.Years, opts)
	})
	metrics.CacheLookup(string(spec.Group), hit)
	if err != nil {
		return catalog.GroupTable{}, fmt.Errorf("generate %s: %w", spec.Group, err)
	}
	return catalog.GroupTable{Spec: spec, Table: table}, nil
}

// Tables generates every group for p.
func (s *Service) Tables(p catalog.Params) ([]catalog.GroupTable, error) {
	cat, err := s.Catalog(p)
	if err != nil {
		return nil, err
	}
	out := make([]catalog.GroupTable, 0, len(cat.Groups))
	for i := range cat.Groups {
		gt, err := s.generate(cat, i)
		if err != nil {
			return nil, err
		}
		out = append(out, gt)
	}
	return out, nil
}

// Table generates one group for p.
func (s *Service) Table(g catalog.Group, p catalog.Params) (catalog.GroupTable, error) {
	cat, err := s.Catalog(p)
	if err != nil {
		return catalog.GroupTable{}, err
	}
	for i, spec := range cat.Groups {
		if spec.Group == g {
			return s.generate(cat, i)
		}
	}
	return catalog.GroupTable{}, fmt.Errorf("group %q: %w", g, errs.ErrNotFound)
}

// Growth ranks every category by scenario-adjusted growth rate, lowest first.
func (s *Service) Growth(p catalog.Params) ([]catalog.GrowthRecord, error) {
	cat, err := s.Catalog(p)
	if err != nil {
		return nil, err
	}
	return cat.GrowthRecords(), nil
}

// Series returns one category column of a group.
func (s *Service) Series(g catalog.Group, item string, p catalog.Params) (series.Series, catalog.GroupSpec, error) {
	gt, err := s.Table(g, p)
	if err != nil {
		return series.Series{}, catalog.GroupSpec{}, err
	}
	col, ok := gt.Table.Column(item)
	if !ok {
		return series.Series{}, catalog.GroupSpec{}, fmt.Errorf("category %q in %s: %w", item, g, errs.ErrNotFound)
	}
	return col, gt.Spec, nil
}

// GrowthCalc is the result of the percentage growth calculator.
type GrowthCalc struct {
	Group      catalog.Group `json:"group"`
	Item       string        `json:"item"`
	StartYear  int           `json:"start_year"`
	EndYear    int           `json:"end_year"`
	StartValue float64       `json:"start_value"`
	EndValue   float64       `json:"end_value"`
	Percent    float64       `json:"percent"`
}

// PercentGrowth compares one category between two years of the generated
// table. Zero years default to the first and last analysis year.
func (s *Service) PercentGrowth(g catalog.Group, item string, start, end int, p catalog.Params) (GrowthCalc, error) {
	col, _, err := s.Series(g, item, p)
	if err != nil {
		return GrowthCalc{}, err
	}
	if start == 0 {
		start = col.Years[0]
	}
	if end == 0 {
		end = col.Years[len(col.Years)-1]
	}
	pct, err := series.PercentGrowth(col, start, end)
	if err != nil {
		return GrowthCalc{}, err
	}
	startValue, _ := col.ValueAt(start)
	endValue, _ := col.ValueAt(end)
	return GrowthCalc{
		Group:      g,
		Item:       item,
		StartYear:  start,
		EndYear:    end,
		StartValue: startValue,
		EndValue:   endValue,
		Percent:    pct,
	}, nil
}

// Projection is a forecast with the history it was fitted on.
type Projection struct {
	Group   catalog.Group    `json:"group"`
	Unit    string           `json:"unit"`
	History series.Series    `json:"history"`
	Result  *forecast.Result `json:"result"`
}

// Forecast extrapolates one category of the generated table.
func (s *Service) Forecast(g catalog.Group, item string, opts forecast.Options, p catalog.Params) (*Projection, error) {
	col, spec, err := s.Series(g, item, p)
	if err != nil {
		return nil, err
	}
	res, err := forecast.Extrapolate(col, opts)
	if err != nil {
		return nil, err
	}
	return &Projection{Group: g, Unit: spec.Unit, History: col, Result: res}, nil
}

// Forecasts extrapolates every category with the default options. A
// category that cannot be fitted is logged and left out.
func (s *Service) Forecasts(p catalog.Params) ([]Projection, error) {
	tables, err := s.Tables(p)
	if err != nil {
		return nil, err
	}
	var out []Projection
	for _, gt := range tables {
		for _, name := range gt.Table.Columns {
			col, _ := gt.Table.Column(name)
			res, err := forecast.Extrapolate(col, s.cfg.Forecast)
			if err != nil {
				s.log.Warn().Err(err).
					Str("group", string(gt.Spec.Group)).
					Str("category", name).
					Msg("Skipping category forecast")
				continue
			}
			out = append(out, Projection{Group: gt.Spec.Group, Unit: gt.Spec.Unit, History: col, Result: res})
		}
	}
	return out, nil
}

// Refresh drops every cached table.
func (s *Service) Refresh() {
	s.cache.Invalidate()
	s.log.Info().Msg("Series cache refreshed")
}

// ExportID tags one export run in logs and file names.
func ExportID() string {
	return uuid.NewString()
}
