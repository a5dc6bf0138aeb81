package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/i474232898/heatwave-risk-api/internal/logging"
)

const (
	ProviderOpenMeteo  = "openmeteo"
	ProviderWeatherAPI = "weatherapi"
)

type AppConfig struct {
	Port string

	// Weather provider selection and endpoints.
	WeatherProvider string
	OpenMeteoURL    string
	WeatherAPIURL   string
	WeatherAPIKey   string
	Timezone        *time.Location

	// Forecast weather is sampled at this point for every location.
	ReferenceLatitude  float64
	ReferenceLongitude float64

	MLServiceURL string

	// Outbound call behaviour. Retries and the breaker are off unless enabled.
	UpstreamTimeout     time.Duration
	UpstreamConcurrency int
	UpstreamMaxRetries  int
	CircuitBreaker      bool

	// RegistryPath overrides the embedded locality dataset.
	RegistryPath string

	DefaultForecastDays int
	MaxForecastDays     int

	HealthProbeInterval time.Duration // 0 disables probing
	ProbeHistory        int

	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		logging.Debug().Err(err).Msg("no .env file loaded")
	}
	cfg := &AppConfig{}
	var err error

	cfg.Port = getenvDefault("PORT", "3000")

	cfg.WeatherProvider = strings.ToLower(getenvDefault("WEATHER_PROVIDER", ProviderOpenMeteo))
	cfg.OpenMeteoURL = strings.TrimRight(getenvDefault("WEATHER_API_URL", "https://api.open-meteo.com/v1"), "/")
	cfg.WeatherAPIURL = strings.TrimRight(getenvDefault("WEATHERAPI_URL", "https://api.weatherapi.com/v1"), "/")
	cfg.WeatherAPIKey = os.Getenv("WEATHERAPI_API_KEY")
	switch cfg.WeatherProvider {
	case ProviderOpenMeteo:
	case ProviderWeatherAPI:
		if cfg.WeatherAPIKey == "" {
			return nil, fmt.Errorf("WEATHER_PROVIDER=weatherapi requires WEATHERAPI_API_KEY")
		}
	default:
		return nil, fmt.Errorf("invalid WEATHER_PROVIDER %q", cfg.WeatherProvider)
	}

	tzName := getenvDefault("WEATHER_TIMEZONE", "Asia/Kolkata")
	if cfg.Timezone, err = time.LoadLocation(tzName); err != nil {
		return nil, fmt.Errorf("invalid WEATHER_TIMEZONE: %w", err)
	}

	if cfg.ReferenceLatitude, err = getenvFloat("REFERENCE_LATITUDE", 18.52); err != nil {
		return nil, err
	}
	if cfg.ReferenceLongitude, err = getenvFloat("REFERENCE_LONGITUDE", 73.86); err != nil {
		return nil, err
	}
	if cfg.ReferenceLatitude < -90 || cfg.ReferenceLatitude > 90 || cfg.ReferenceLongitude < -180 || cfg.ReferenceLongitude > 180 {
		return nil, fmt.Errorf("reference point %f,%f is out of range", cfg.ReferenceLatitude, cfg.ReferenceLongitude)
	}

	cfg.MLServiceURL = strings.TrimRight(getenvDefault("ML_SERVICE_URL", "http://localhost:5000"), "/")

	if cfg.UpstreamTimeout, err = getenvDuration("UPSTREAM_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.UpstreamTimeout <= 0 {
		return nil, fmt.Errorf("UPSTREAM_TIMEOUT must be positive")
	}
	cfg.UpstreamConcurrency = getenvInt("UPSTREAM_CONCURRENCY", 8)
	if cfg.UpstreamConcurrency <= 0 {
		return nil, fmt.Errorf("UPSTREAM_CONCURRENCY must be positive")
	}
	cfg.UpstreamMaxRetries = getenvInt("UPSTREAM_MAX_RETRIES", 0)
	if cfg.UpstreamMaxRetries < 0 {
		return nil, fmt.Errorf("UPSTREAM_MAX_RETRIES must not be negative")
	}
	cfg.CircuitBreaker = getenvBool("UPSTREAM_CIRCUIT_BREAKER", false)

	cfg.RegistryPath = os.Getenv("REGISTRY_PATH")

	cfg.DefaultForecastDays = getenvInt("DEFAULT_FORECAST_DAYS", 5)
	cfg.MaxForecastDays = getenvInt("MAX_FORECAST_DAYS", 16) // Open-Meteo limit
	if cfg.MaxForecastDays <= 0 || cfg.DefaultForecastDays <= 0 || cfg.DefaultForecastDays > cfg.MaxForecastDays {
		return nil, fmt.Errorf("forecast days must satisfy 0 < DEFAULT_FORECAST_DAYS <= MAX_FORECAST_DAYS")
	}

	if cfg.HealthProbeInterval, err = getenvDuration("HEALTH_PROBE_INTERVAL", "1m"); err != nil {
		return nil, err
	}
	cfg.ProbeHistory = getenvInt("PROBE_HISTORY", 20)

	cfg.LogLevel = getenvDefault("LOG_LEVEL", "info")
	cfg.LogFormat = getenvDefault("LOG_FORMAT", "json")

	if cfg.ShutdownTimeout, err = getenvDuration("SHUTDOWN_TIMEOUT", "10s"); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
