package heatrisk

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/i474232898/heatwave-risk-api/internal/risk"
	"github.com/i474232898/heatwave-risk-api/internal/weather"
)

type coord struct{ lat, lon float64 }

// fakeGateway serves fixed series by coordinate. Unknown coordinates get the fallback.
type fakeGateway struct {
	mu       sync.Mutex
	series   map[coord][]weather.DailySample
	fallback []weather.DailySample
	err      error
	delay    func(lat, lon float64) time.Duration
	calls    []coord
	days     []int
}

func (f *fakeGateway) Name() string { return "fake-weather" }

func (f *fakeGateway) FetchDaily(ctx context.Context, lat, lon float64, days int) ([]weather.DailySample, error) {
	f.mu.Lock()
	f.calls = append(f.calls, coord{lat, lon})
	f.days = append(f.days, days)
	f.mu.Unlock()

	if f.delay != nil {
		select {
		case <-time.After(f.delay(lat, lon)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, fmt.Errorf("%w: %w", weather.ErrGateway, f.err)
	}

	s, ok := f.series[coord{lat, lon}]
	if !ok {
		s = f.fallback
	}
	out := make([]weather.DailySample, days)
	for i := range out {
		out[i] = weather.Day(s, i)
	}
	return out, nil
}

func (f *fakeGateway) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fakeClassifier maps temperature bands to levels, mimicking a trained model closely
// enough for ordering tests. Labels and colors come from risk.Level.
type fakeClassifier struct {
	err       error
	failAfter int32 // fail every call after this many successes when > 0
	calls     atomic.Int32
	bulkCalls atomic.Int32
	override  func(f risk.Features) (risk.Assessment, bool)
}

func (c *fakeClassifier) assess(f risk.Features) risk.Assessment {
	if c.override != nil {
		if a, ok := c.override(f); ok {
			return a
		}
	}
	var l risk.Level
	switch {
	case f.Temperature >= 42:
		l = risk.LevelExtremeDanger
	case f.Temperature >= 38:
		l = risk.LevelDanger
	case f.Temperature >= 34:
		l = risk.LevelExtremeCaution
	default:
		l = risk.LevelCaution
	}
	return risk.Assessment{Level: l, Label: l.Label(), Color: l.Color()}
}

func (c *fakeClassifier) fail() error {
	n := c.calls.Add(1)
	if c.err != nil && (c.failAfter == 0 || n > c.failAfter) {
		return fmt.Errorf("%w: %w", risk.ErrClassifier, c.err)
	}
	return nil
}

func (c *fakeClassifier) ClassifyOne(_ context.Context, f risk.Features) (risk.Assessment, error) {
	if err := c.fail(); err != nil {
		return risk.Assessment{}, err
	}
	return c.assess(f), nil
}

func (c *fakeClassifier) ClassifyBulk(_ context.Context, fs []risk.Features) ([]risk.Assessment, error) {
	c.bulkCalls.Add(1)
	if err := c.fail(); err != nil {
		return nil, err
	}
	out := make([]risk.Assessment, len(fs))
	for i, f := range fs {
		out[i] = c.assess(f)
	}
	return out, nil
}

var errBoom = errors.New("boom")

func sample(date string, temp, hum float64) weather.DailySample {
	return weather.DailySample{Date: date, TemperatureC: temp, HumidityPct: hum, Present: true}
}
