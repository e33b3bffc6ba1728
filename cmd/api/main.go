// Package main provides the entrypoint for the flightscope API server.
package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/flightscope/flightscope/internal/api"
	"github.com/flightscope/flightscope/internal/api/middleware"
	"github.com/flightscope/flightscope/internal/config"
	"github.com/flightscope/flightscope/internal/flights"
	"github.com/flightscope/flightscope/internal/flights/skyscrapper"
	"github.com/flightscope/flightscope/internal/geo/source"
	"github.com/flightscope/flightscope/internal/provider/resilience"
	"github.com/flightscope/flightscope/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const serviceName = "flightscope-api"

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("invalid configuration")
	}

	log := newLogger(os.Stdout, cfg.Server.LogLevel)
	if err := run(cfg, log); err != nil {
		log.Error().Err(err).Msg("server exited")
		os.Exit(1)
	}
}

// newLogger builds the root logger. Unknown or empty levels fall back to info.
func newLogger(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).
		Level(lvl).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()
}

func run(cfg config.Config, log zerolog.Logger) error {
	log.Info().
		Str("build_time", BuildTime).
		Str("environment", cfg.Server.Environment).
		Msg("starting flightscope API")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Server.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		Enabled:        cfg.Telemetry.Enabled,
		SampleRatio:    cfg.Telemetry.SampleRatio,
		MetricInterval: cfg.Telemetry.MetricInterval,
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()
	if cfg.Telemetry.Enabled {
		log.Info().
			Str("otlp_endpoint", cfg.Telemetry.OTLPEndpoint).
			Float64("sample_ratio", cfg.Telemetry.SampleRatio).
			Msg("OpenTelemetry initialized")
	}

	metrics, err := middleware.NewMetrics()
	if err != nil {
		return err
	}
	providerMetrics, err := middleware.NewProviderMetrics()
	if err != nil {
		return err
	}

	registry := resilience.NewRegistry()

	if cfg.SkyScrapper.APIKey == "" {
		log.Warn().Msg("RAPIDAPI_KEY is not set - upstream calls will be rejected")
	}
	client := skyscrapper.NewClient(skyscrapper.ClientConfig{
		APIKey:            cfg.SkyScrapper.APIKey,
		Host:              cfg.SkyScrapper.Host,
		BaseURL:           cfg.SkyScrapper.BaseURL,
		Locale:            cfg.SkyScrapper.Locale,
		Timeout:           cfg.SkyScrapper.Timeout,
		Registry:          registry,
		RequestsPerSecond: cfg.SkyScrapper.RequestsPerSecond,
		Logger:            log,
	})

	service := flights.NewService(flights.ServiceConfig{
		Provider: client,
		Logger:   log,
		Metrics:  providerMetrics,
	})

	src, release, err := source.Open(ctx, cfg.Coordinates, source.Deps{
		Database: cfg.Database,
		Registry: registry,
		Logger:   log,
	})
	if err != nil {
		// An unusable source degrades to an empty table rather than blocking startup.
		log.Error().Err(err).Str("source", cfg.Coordinates.Source).Msg("coordinate source unavailable")
	}
	defer release()
	table := source.LoadOrEmpty(ctx, src, log.With().Str("source", cfg.Coordinates.Source).Logger())

	router := api.NewRouter(api.RouterConfig{
		Version:     Version,
		BuildTime:   BuildTime,
		Logger:      log,
		ServiceName: serviceName,
		Metrics:     metrics,
		Service:     service,
		Table:       table,
		Registry:    registry,
		Locales:     client,
		RateLimits: api.RateLimits{
			Standard: middleware.PerMinute(cfg.RateLimit.RequestsPerMinute),
			Search:   middleware.PerMinute(cfg.RateLimit.SearchesPerMinute),
		},
		RequireTLS: cfg.Server.Environment == "production",
	})

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.SkyScrapper.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", server.Addr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}
