package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir()) // no stray .env

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, ProviderOpenMeteo, cfg.WeatherProvider)
	assert.Equal(t, "https://api.open-meteo.com/v1", cfg.OpenMeteoURL)
	assert.Equal(t, "http://localhost:5000", cfg.MLServiceURL)
	assert.Equal(t, "Asia/Kolkata", cfg.Timezone.String())
	assert.Equal(t, 18.52, cfg.ReferenceLatitude)
	assert.Equal(t, 73.86, cfg.ReferenceLongitude)
	assert.Equal(t, 10*time.Second, cfg.UpstreamTimeout)
	assert.Equal(t, 8, cfg.UpstreamConcurrency)
	assert.Equal(t, 0, cfg.UpstreamMaxRetries)
	assert.False(t, cfg.CircuitBreaker)
	assert.Empty(t, cfg.RegistryPath)
	assert.Equal(t, 5, cfg.DefaultForecastDays)
	assert.Equal(t, 16, cfg.MaxForecastDays)
	assert.Equal(t, time.Minute, cfg.HealthProbeInterval)
	assert.Equal(t, 20, cfg.ProbeHistory)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_Overrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PORT", "8080")
	t.Setenv("ML_SERVICE_URL", "http://ml:5000/")
	t.Setenv("WEATHER_TIMEZONE", "UTC")
	t.Setenv("UPSTREAM_TIMEOUT", "3s")
	t.Setenv("UPSTREAM_CONCURRENCY", "2")
	t.Setenv("UPSTREAM_MAX_RETRIES", "2")
	t.Setenv("UPSTREAM_CIRCUIT_BREAKER", "true")
	t.Setenv("REFERENCE_LATITUDE", "19.07")
	t.Setenv("REFERENCE_LONGITUDE", "72.87")
	t.Setenv("HEALTH_PROBE_INTERVAL", "0s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "http://ml:5000", cfg.MLServiceURL)
	assert.Equal(t, time.UTC, cfg.Timezone)
	assert.Equal(t, 3*time.Second, cfg.UpstreamTimeout)
	assert.Equal(t, 2, cfg.UpstreamConcurrency)
	assert.Equal(t, 2, cfg.UpstreamMaxRetries)
	assert.True(t, cfg.CircuitBreaker)
	assert.Equal(t, 19.07, cfg.ReferenceLatitude)
	assert.Equal(t, 72.87, cfg.ReferenceLongitude)
	assert.Zero(t, cfg.HealthProbeInterval)
}

func TestLoad_WeatherAPIRequiresKey(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("WEATHER_PROVIDER", "weatherapi")

	_, err := Load()
	require.Error(t, err)

	t.Setenv("WEATHERAPI_API_KEY", "k")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ProviderWeatherAPI, cfg.WeatherProvider)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"provider", "WEATHER_PROVIDER", "openweather"},
		{"timezone", "WEATHER_TIMEZONE", "Mars/Olympus"},
		{"timeout", "UPSTREAM_TIMEOUT", "soon"},
		{"zero timeout", "UPSTREAM_TIMEOUT", "0s"},
		{"concurrency", "UPSTREAM_CONCURRENCY", "0"},
		{"retries", "UPSTREAM_MAX_RETRIES", "-1"},
		{"latitude", "REFERENCE_LATITUDE", "north"},
		{"latitude range", "REFERENCE_LATITUDE", "120"},
		{"probe interval", "HEALTH_PROBE_INTERVAL", "often"},
		{"default days", "DEFAULT_FORECAST_DAYS", "30"},
		{"shutdown", "SHUTDOWN_TIMEOUT", "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdir(t, t.TempDir())
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
