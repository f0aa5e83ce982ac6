// Package main writes the dashboard outputs to disk: the workbook, the PNG
// charts and the markdown report.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"digitrend/internal/catalog"
	"digitrend/internal/config"
	"digitrend/internal/dashboard"
	"digitrend/internal/export"
	"digitrend/internal/forecast"
	"digitrend/internal/logger"
	"digitrend/internal/report"
)

var (
	configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")
	outDir     = flag.String("out", "output", "Output directory")
	optimism   = flag.Float64("optimism", 1.0, "Optimism multiplier (0.5-2.0)")
	scenario   = flag.String("scenario", string(catalog.ScenarioBase), "Scenario: base, optimistic, pessimistic or downturn")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fallback := logger.New(logger.Config{Level: "info", Pretty: true})
		fallback.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log := logger.New(logger.Config{Level: cfg.Logging.Level, Pretty: true})
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	p := catalog.DefaultParams()
	p.Optimism = *optimism
	p.Scenario = catalog.Scenario(strings.ToLower(*scenario))
	if err := p.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid scenario parameters")
	}

	svc := dashboard.New(catalog.Default(), nil, dashboard.Config{
		Noise:      cfg.Generator.Noise,
		NoiseSigma: cfg.Generator.NoiseSigma,
		Seed:       cfg.Generator.Seed,
		CacheTTL:   cfg.Generator.CacheTTL,
		Forecast: forecast.Options{
			Horizon:    cfg.Forecast.Horizon,
			Confidence: forecast.Confidence(cfg.Forecast.Confidence),
			Model:      forecast.Model(cfg.Forecast.Model),
			Transform:  forecast.Transform(cfg.Forecast.Transform),
		},
	}, log)

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatal().Err(err).Str("dir", *outDir).Msg("Failed to create output directory")
	}

	fmt.Println("📈 DIGITAL ECONOMY GROWTH DASHBOARD")
	fmt.Printf("Scenario: %s, optimism %.2f, years %d-%d\n", p.Scenario, p.Optimism, p.StartYear, p.EndYear)

	var files []string
	for _, step := range []func(*dashboard.Service, catalog.Params) ([]string, error){
		writeWorkbook,
		writeCharts,
		writeReport,
	} {
		written, err := step(svc, p)
		if err != nil {
			log.Fatal().Err(err).Msg("Export failed")
		}
		files = append(files, written...)
	}

	fmt.Println("\n✅ EXPORT COMPLETE!")
	fmt.Println("📁 Output files:")
	for _, f := range files {
		fmt.Printf("   - %s\n", f)
	}
}

func writeWorkbook(svc *dashboard.Service, p catalog.Params) ([]string, error) {
	in, err := svc.ExportInput(p, true)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(*outDir, "digital_economy_growth.xlsx")
	if err := export.Save(path, in); err != nil {
		return nil, err
	}
	fmt.Printf("📊 Workbook written: %d groups, %d forecasts\n", len(in.Groups), len(in.Forecasts))
	return []string{path}, nil
}

func writeCharts(svc *dashboard.Service, p catalog.Params) ([]string, error) {
	tables, err := svc.Tables(p)
	if err != nil {
		return nil, err
	}

	var files []string
	save := func(name string, img []byte) error {
		path := filepath.Join(*outDir, name)
		if err := os.WriteFile(path, img, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		files = append(files, path)
		return nil
	}

	for _, gt := range tables {
		slug := strings.ToLower(string(gt.Spec.Group))
		img, err := svc.GroupChart(gt.Spec.Group, p)
		if err != nil {
			return nil, err
		}
		if err := save(slug+"_trend.png", img); err != nil {
			return nil, err
		}

		// leading category of each group
		if len(gt.Table.Columns) == 0 {
			continue
		}
		img, err = svc.ForecastChart(gt.Spec.Group, gt.Table.Columns[0], svc.ForecastDefaults(), p)
		if err != nil {
			return nil, err
		}
		if err := save(slug+"_forecast.png", img); err != nil {
			return nil, err
		}
	}

	img, err := svc.GrowthChart(p)
	if err != nil {
		return nil, err
	}
	if err := save("growth_ranking.png", img); err != nil {
		return nil, err
	}

	fmt.Printf("🖼️  Charts rendered: %d\n", len(files))
	return files, nil
}

func writeReport(svc *dashboard.Service, p catalog.Params) ([]string, error) {
	in, err := svc.ReportInput(p)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(*outDir, "growth_report.md")
	if err := report.WriteFile(path, in); err != nil {
		return nil, err
	}
	fmt.Println("📝 Report written")
	return []string{path}, nil
}
