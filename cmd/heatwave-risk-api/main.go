package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	httpapi "github.com/i474232898/heatwave-risk-api/internal/api/http"
	"github.com/i474232898/heatwave-risk-api/internal/config"
	"github.com/i474232898/heatwave-risk-api/internal/heatrisk"
	"github.com/i474232898/heatwave-risk-api/internal/logging"
	"github.com/i474232898/heatwave-risk-api/internal/metrics"
	"github.com/i474232898/heatwave-risk-api/internal/registry"
	"github.com/i474232898/heatwave-risk-api/internal/risk/mlservice"
	"github.com/i474232898/heatwave-risk-api/internal/scheduler"
	"github.com/i474232898/heatwave-risk-api/internal/store"
	"github.com/i474232898/heatwave-risk-api/internal/upstream"
	"github.com/i474232898/heatwave-risk-api/internal/weather"
	"github.com/i474232898/heatwave-risk-api/internal/weather/providers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load config")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	m := metrics.NewMetrics()

	reg, err := registry.Load(cfg.RegistryPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load location registry")
	}
	logging.Info().Str("city", reg.City()).Int("locations", reg.Len()).Msg("registry loaded")

	// Shared HTTP client; its timeout bounds every outbound call.
	httpClient := &http.Client{Timeout: cfg.UpstreamTimeout}

	newExecutor := func(name string) *upstream.Executor {
		return upstream.New(upstream.Config{
			Name:   name,
			Client: httpClient,
			Backoff: upstream.BackoffConfig{
				MaxRetries:      cfg.UpstreamMaxRetries,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
			},
			Breaker: cfg.CircuitBreaker,
			Metrics: m,
		})
	}

	clock := clockwork.NewRealClock()

	var gateway weather.Gateway
	switch cfg.WeatherProvider {
	case config.ProviderWeatherAPI:
		gateway = providers.NewWeatherAPIProvider(newExecutor("weatherapi"), cfg.WeatherAPIURL, cfg.WeatherAPIKey, cfg.Timezone, clock)
	default:
		gateway = providers.NewOpenMeteoProvider(newExecutor("open-meteo"), cfg.OpenMeteoURL, cfg.Timezone, clock)
	}

	classifier := mlservice.NewClient(newExecutor("ml-service"), cfg.MLServiceURL)

	service := heatrisk.NewService(reg, gateway, classifier, heatrisk.Options{
		Concurrency:        cfg.UpstreamConcurrency,
		ReferenceLatitude:  cfg.ReferenceLatitude,
		ReferenceLongitude: cfg.ReferenceLongitude,
		Timezone:           cfg.Timezone,
		Clock:              clock,
		Metrics:            m,
	})

	// Periodic liveness probes feeding /health.
	probes := store.NewMemoryStore(cfg.ProbeHistory)
	sched := scheduler.New([]scheduler.Probe{
		{
			Name: gateway.Name(),
			Check: func(ctx context.Context) error {
				_, err := gateway.FetchDaily(ctx, cfg.ReferenceLatitude, cfg.ReferenceLongitude, 1)
				return err
			},
		},
		{Name: classifier.Name(), Check: classifier.Ping},
	}, cfg.HealthProbeInterval, cfg.UpstreamTimeout, probes, m)
	if err := sched.Start(); err != nil {
		logging.Fatal().Err(err).Msg("failed to start health probes")
	}
	defer sched.Stop()

	app := httpapi.NewApp()
	httpapi.RegisterRoutes(app, service, httpapi.Options{
		DefaultForecastDays: cfg.DefaultForecastDays,
		MaxForecastDays:     cfg.MaxForecastDays,
		RegistrySize:        reg.Len(),
		Probes:              probes,
	})

	go func() {
		logging.Info().Str("port", cfg.Port).Str("weather_provider", gateway.Name()).Msg("listening")
		if err := app.Listen(":" + cfg.Port); err != nil {
			logging.Error().Err(err).Msg("fiber server stopped")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("error during shutdown")
	}
}
