package dashboard

import (
	"io"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"

	"digitrend/internal/catalog"
	"digitrend/internal/chart"
	"digitrend/internal/export"
	"digitrend/internal/forecast"
	"digitrend/internal/metrics"
	"digitrend/internal/report"
)

func (s *Service) failed(kind string, err error) error {
	metrics.ExportFailure(kind)
	s.log.Error().Err(err).Str("kind", kind).Msg("Render failed")
	return err
}

// GroupChart renders the line chart of one group as PNG.
func (s *Service) GroupChart(g catalog.Group, p catalog.Params) ([]byte, error) {
	gt, err := s.Table(g, p)
	if err != nil {
		return nil, err
	}
	plt, err := chart.GroupLines(gt)
	if err != nil {
		return nil, s.failed("png", err)
	}
	return s.png(plt, chart.Width, chart.Height)
}

// GrowthChart renders the growth ranking as PNG.
func (s *Service) GrowthChart(p catalog.Params) ([]byte, error) {
	records, err := s.Growth(p)
	if err != nil {
		return nil, err
	}
	plt, err := chart.GrowthRanking(records)
	if err != nil {
		return nil, s.failed("png", err)
	}
	return s.png(plt, chart.RankingWidth, chart.Height)
}

// ForecastChart renders one category's forecast band as PNG.
func (s *Service) ForecastChart(g catalog.Group, item string, opts forecast.Options, p catalog.Params) ([]byte, error) {
	proj, err := s.Forecast(g, item, opts, p)
	if err != nil {
		return nil, err
	}
	plt, err := chart.ForecastBand(proj.History, proj.Result, proj.Unit)
	if err != nil {
		return nil, s.failed("png", err)
	}
	return s.png(plt, chart.Width, chart.Height)
}

func (s *Service) png(plt *plot.Plot, w, h vg.Length) ([]byte, error) {
	img, err := chart.RenderPNG(plt, w, h)
	if err != nil {
		return nil, s.failed("png", err)
	}
	return img, nil
}

// ExportInput gathers the workbook contents for p.
func (s *Service) ExportInput(p catalog.Params, withForecasts bool) (export.Input, error) {
	tables, err := s.Tables(p)
	if err != nil {
		return export.Input{}, err
	}
	records, err := s.Growth(p)
	if err != nil {
		return export.Input{}, err
	}
	in := export.Input{Groups: tables, Growth: records, Params: p, GeneratedAt: time.Now()}
	if withForecasts {
		projections, err := s.Forecasts(p)
		if err != nil {
			return export.Input{}, err
		}
		for _, pr := range projections {
			in.Forecasts = append(in.Forecasts, export.Forecast{Group: pr.Group, Result: pr.Result})
		}
	}
	return in, nil
}

// Workbook streams the xlsx export for p to w.
func (s *Service) Workbook(w io.Writer, p catalog.Params) error {
	id := ExportID()
	in, err := s.ExportInput(p, true)
	if err != nil {
		return err
	}
	if err := export.Write(w, in); err != nil {
		return s.failed("xlsx", err)
	}
	s.log.Info().Str("export_id", id).Int("groups", len(in.Groups)).Msg("Workbook exported")
	return nil
}

// ReportInput gathers the markdown report contents for p.
func (s *Service) ReportInput(p catalog.Params) (report.Input, error) {
	tables, err := s.Tables(p)
	if err != nil {
		return report.Input{}, err
	}
	records, err := s.Growth(p)
	if err != nil {
		return report.Input{}, err
	}
	projections, err := s.Forecasts(p)
	if err != nil {
		return report.Input{}, err
	}
	in := report.Input{Groups: tables, Growth: records, Params: p, GeneratedAt: time.Now()}
	for _, pr := range projections {
		in.Projections = append(in.Projections, report.Projection{Group: pr.Group, Unit: pr.Unit, Result: pr.Result})
	}
	return in, nil
}

// Report renders the markdown report for p.
func (s *Service) Report(p catalog.Params) (string, error) {
	in, err := s.ReportInput(p)
	if err != nil {
		return "", err
	}
	md, err := report.Render(in)
	if err != nil {
		return "", s.failed("md", err)
	}
	return md, nil
}
