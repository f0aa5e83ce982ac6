// Package main runs the growth dashboard HTTP API.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"digitrend/internal/catalog"
	"digitrend/internal/config"
	"digitrend/internal/dashboard"
	"digitrend/internal/forecast"
	"digitrend/internal/logger"
	"digitrend/internal/server"
	"digitrend/internal/upstream"
)

var configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fallback := logger.New(logger.Config{Level: "info", Pretty: true})
		fallback.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Pretty: cfg.Logging.Pretty,
	})
	logger.SetGlobalLogger(log)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().Str("config", *configPath).Msg("Starting digitrend")

	var fetcher upstream.Fetcher
	if cfg.Upstream.URL != "" {
		fetcher = upstream.NewClient(cfg.Upstream.URL, cfg.Upstream.Timeout, log)
	}
	rates := upstream.NewProvider(fetcher, cfg.Upstream.Timeout, log)

	scheduler := upstream.NewScheduler(log)
	if rates.Enabled() {
		if err := rates.Refresh(context.Background()); err != nil {
			log.Warn().Err(err).Msg("Initial upstream refresh failed, using built-in rates")
		}
		if err := scheduler.AddJob(cfg.Upstream.Schedule, rates); err != nil {
			log.Fatal().Err(err).Msg("Failed to schedule upstream refresh")
		}
		scheduler.Start()
	}

	svc := dashboard.New(catalog.Default(), rates, dashboard.Config{
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

	srv := server.New(server.Config{
		Port:              cfg.Server.Port,
		Log:               log,
		Service:           svc,
		DevMode:           cfg.Server.DevMode,
		RequestTimeout:    cfg.Server.RequestTimeout,
		RequestsPerSecond: cfg.Server.RequestsPerSecond,
		Burst:             cfg.Server.Burst,
	})

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	log.Info().Int("port", cfg.Server.Port).Msg("Server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
