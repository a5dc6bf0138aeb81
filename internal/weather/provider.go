package weather

import (
	"context"
	"errors"
)

var (
	// ErrGateway wraps every network, status, and decode failure from a weather provider.
	ErrGateway = errors.New("weather gateway error")

	// ErrMissingMetric marks a day for which temperature or humidity was absent.
	ErrMissingMetric = errors.New("weather metric missing")
)

// Gateway abstracts a daily-forecast source (Open-Meteo, WeatherAPI.com).
type Gateway interface {
	Name() string

	// FetchDaily returns exactly days samples for the given coordinates,
	// indexed by day offset from today.
	FetchDaily(ctx context.Context, lat, lon float64, days int) ([]DailySample, error)
}
