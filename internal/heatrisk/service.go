// Package heatrisk combines the location registry, the weather gateway, and the
// risk classifier into the risk map, forecast, per-location, statistics, and
// high-risk views. Every view is recomputed from upstream on each call.
package heatrisk

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/i474232898/heatwave-risk-api/internal/logging"
	"github.com/i474232898/heatwave-risk-api/internal/metrics"
	"github.com/i474232898/heatwave-risk-api/internal/registry"
	"github.com/i474232898/heatwave-risk-api/internal/risk"
	"github.com/i474232898/heatwave-risk-api/internal/weather"
)

const (
	DefaultConcurrency = 8
	DefaultDetailDays  = 7
)

// ErrInvalidInput is returned for out-of-range arguments such as a non-positive day count.
var ErrInvalidInput = errors.New("invalid input")

// Options configures a Service. Zero values fall back to defaults.
type Options struct {
	// Concurrency bounds in-flight upstream work per request.
	Concurrency int

	// ReferenceLatitude/ReferenceLongitude is the single point whose weather
	// stands in for every location in Forecast.
	ReferenceLatitude  float64
	ReferenceLongitude float64

	DetailDays int
	Timezone   *time.Location
	Clock      clockwork.Clock
	Metrics    *metrics.Metrics
}

// Service orchestrates the weather gateway and risk classifier across the registry.
type Service struct {
	registry   *registry.Registry
	gateway    weather.Gateway
	classifier risk.Classifier
	opts       Options
}

// NewService creates a new Service.
func NewService(reg *registry.Registry, gateway weather.Gateway, classifier risk.Classifier, opts Options) *Service {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.DetailDays <= 0 {
		opts.DetailDays = DefaultDetailDays
	}
	if opts.Timezone == nil {
		opts.Timezone = time.UTC
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &Service{
		registry:   reg,
		gateway:    gateway,
		classifier: classifier,
		opts:       opts,
	}
}

// Registry exposes the read-only location registry.
func (s *Service) Registry() *registry.Registry {
	return s.registry
}

func (s *Service) today() string {
	return s.opts.Clock.Now().In(s.opts.Timezone).Format(time.DateOnly)
}

func (s *Service) group(ctx context.Context) (*errgroup.Group, context.Context) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)
	return g, gctx
}

// RiskMap fetches today's weather at every location and classifies each one.
// Locations whose weather is missing are left out; any upstream error aborts.
func (s *Service) RiskMap(ctx context.Context) (RiskMap, error) {
	date := s.today()
	locs := s.registry.All()
	slots := make([]*RiskRecord, len(locs))

	g, gctx := s.group(ctx)
	for i, loc := range locs {
		i, loc := i, loc
		g.Go(func() error {
			series, err := s.gateway.FetchDaily(gctx, loc.Latitude, loc.Longitude, 1)
			if err != nil {
				return fmt.Errorf("weather for pincode %d: %w", loc.Pincode, err)
			}

			day := weather.Day(series, 0)
			if !day.Present {
				logging.Warn().Int("pincode", loc.Pincode).Str("provider", s.gateway.Name()).
					Msg("weather missing for pincode; skipping")
				if s.opts.Metrics != nil {
					s.opts.Metrics.SkippedLocations.Inc()
				}
				return nil
			}

			a, err := s.classifier.ClassifyOne(gctx, featuresFor(loc, day))
			if err != nil {
				return fmt.Errorf("classify pincode %d: %w", loc.Pincode, err)
			}
			rec := newRiskRecord(loc, day, a)
			slots[i] = &rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return RiskMap{}, err
	}

	records := make([]RiskRecord, 0, len(slots))
	for _, rec := range slots {
		if rec != nil {
			records = append(records, *rec)
		}
	}

	return RiskMap{
		Date:       date,
		TotalAreas: len(records),
		Records:    records,
	}, nil
}

// Forecast classifies every location for each of the next days days.
//
// One weather series is fetched at the reference point and each day's sample is
// shared by all locations; per-location forecast weather would multiply the
// weather calls by the registry size. Each day is one bulk classifier call.
func (s *Service) Forecast(ctx context.Context, days int) (Forecast, error) {
	if days <= 0 {
		return Forecast{}, fmt.Errorf("%w: days must be greater than zero", ErrInvalidInput)
	}

	series, err := s.gateway.FetchDaily(ctx, s.opts.ReferenceLatitude, s.opts.ReferenceLongitude, days)
	if err != nil {
		return Forecast{}, fmt.Errorf("forecast weather: %w", err)
	}
	if err := requirePresent(series, days); err != nil {
		return Forecast{}, fmt.Errorf("forecast weather: %w", err)
	}

	locs := s.registry.All()
	perDay := make([][]ForecastRecord, days)

	g, gctx := s.group(ctx)
	for d := 0; d < days; d++ {
		d := d
		g.Go(func() error {
			day := series[d]
			features := make([]risk.Features, len(locs))
			for i, loc := range locs {
				features[i] = featuresFor(loc, day)
			}

			assessments, err := s.classifier.ClassifyBulk(gctx, features)
			if err != nil {
				return fmt.Errorf("classify forecast day %s: %w", day.Date, err)
			}

			records := make([]ForecastRecord, len(locs))
			for i, loc := range locs {
				records[i] = newForecastRecord(loc, day, assessments[i])
			}
			perDay[d] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Forecast{}, err
	}

	out := make([]ForecastRecord, 0, days*len(locs))
	for _, records := range perDay {
		out = append(out, records...)
	}

	return Forecast{
		Days:             days,
		TotalPredictions: len(out),
		Records:          out,
	}, nil
}

// LocationDetail returns the demographics and daily risk series for one pincode.
func (s *Service) LocationDetail(ctx context.Context, pincode int) (LocationDetail, error) {
	loc, err := s.registry.ByID(pincode)
	if err != nil {
		return LocationDetail{}, err
	}

	days := s.opts.DetailDays
	series, err := s.gateway.FetchDaily(ctx, loc.Latitude, loc.Longitude, days)
	if err != nil {
		return LocationDetail{}, fmt.Errorf("weather for pincode %d: %w", pincode, err)
	}
	if err := requirePresent(series, days); err != nil {
		return LocationDetail{}, fmt.Errorf("weather for pincode %d: %w", pincode, err)
	}

	out := make([]DayRisk, days)
	g, gctx := s.group(ctx)
	for d := 0; d < days; d++ {
		d := d
		g.Go(func() error {
			day := series[d]
			a, err := s.classifier.ClassifyOne(gctx, featuresFor(loc, day))
			if err != nil {
				return fmt.Errorf("classify pincode %d on %s: %w", pincode, day.Date, err)
			}
			out[d] = DayRisk{
				Date:        day.Date,
				Temperature: day.TemperatureC,
				Humidity:    day.HumidityPct,
				RiskLevel:   a.Level,
				RiskLabel:   a.Label,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return LocationDetail{}, err
	}

	return LocationDetail{
		Pincode:  loc.Pincode,
		Location: Coordinates{Latitude: loc.Latitude, Longitude: loc.Longitude},
		Demographics: Demographics{
			Population:     loc.Population,
			ElderlyPercent: loc.ElderlyPercent,
			LiteracyRate:   loc.LiteracyRate,
		},
		CurrentRisk: out[0],
		Forecast:    out,
	}, nil
}

// Statistics summarizes a freshly computed risk map.
func (s *Service) Statistics(ctx context.Context) (Statistics, error) {
	rm, err := s.RiskMap(ctx)
	if err != nil {
		return Statistics{}, err
	}
	return Summarize(rm), nil
}

// HighRiskAreas lists today's areas at or above threshold, most endangered first.
func (s *Service) HighRiskAreas(ctx context.Context, threshold int) (HighRiskAreas, error) {
	rm, err := s.RiskMap(ctx)
	if err != nil {
		return HighRiskAreas{}, err
	}
	areas := FilterHighRisk(rm.Records, risk.Level(threshold))
	return HighRiskAreas{
		Total:     len(areas),
		Threshold: threshold,
		Areas:     areas,
	}, nil
}

// requirePresent fails when any of the first days samples is missing a metric.
func requirePresent(series []weather.DailySample, days int) error {
	for d := 0; d < days; d++ {
		day := weather.Day(series, d)
		if !day.Present {
			return fmt.Errorf("%w: %w: day %d (%s)", weather.ErrGateway, weather.ErrMissingMetric, d, day.Date)
		}
	}
	return nil
}
