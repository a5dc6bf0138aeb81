package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/jonboulle/clockwork"

	"github.com/i474232898/heatwave-risk-api/internal/upstream"
	"github.com/i474232898/heatwave-risk-api/internal/weather"
)

const openMeteoDailyMetrics = "temperature_2m_max,relative_humidity_2m_max"

// OpenMeteoProvider implements weather.Gateway using the Open-Meteo forecast API.
// No API key is required.
type OpenMeteoProvider struct {
	baseURL  string
	timezone *time.Location
	exec     *upstream.Executor
	clock    clockwork.Clock
}

// NewOpenMeteoProvider builds a provider against baseURL (e.g. https://api.open-meteo.com/v1).
func NewOpenMeteoProvider(exec *upstream.Executor, baseURL string, tz *time.Location, clock clockwork.Clock) *OpenMeteoProvider {
	if tz == nil {
		tz = time.UTC
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &OpenMeteoProvider{
		baseURL:  baseURL,
		timezone: tz,
		exec:     exec,
		clock:    clock,
	}
}

func (p *OpenMeteoProvider) Name() string {
	return "open-meteo"
}

type openMeteoResponse struct {
	Daily struct {
		Time        []string   `json:"time"`
		Temperature []*float64 `json:"temperature_2m_max"`
		Humidity    []*float64 `json:"relative_humidity_2m_max"`
	} `json:"daily"`
}

// FetchDaily requests days consecutive daily maxima for the coordinates.
func (p *OpenMeteoProvider) FetchDaily(ctx context.Context, lat, lon float64, days int) ([]weather.DailySample, error) {
	if days <= 0 {
		return nil, fmt.Errorf("%w: days must be greater than zero", weather.ErrGateway)
	}

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
		values.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
		values.Set("daily", openMeteoDailyMetrics)
		values.Set("timezone", p.timezone.String())
		values.Set("forecast_days", strconv.Itoa(days))

		return http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/forecast?"+values.Encode(), nil)
	}

	resp, err := p.exec.Do(ctx, buildRequest)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", weather.ErrGateway, p.Name(), err)
	}
	defer resp.Body.Close()

	var payload openMeteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %s: decode response: %w", weather.ErrGateway, p.Name(), err)
	}

	today := p.clock.Now().In(p.timezone)
	samples := make([]weather.DailySample, days)
	for i := range samples {
		s := weather.DailySample{Date: today.AddDate(0, 0, i).Format(time.DateOnly)}
		if i < len(payload.Daily.Time) && payload.Daily.Time[i] != "" {
			s.Date = payload.Daily.Time[i]
		}

		temp := at(payload.Daily.Temperature, i)
		hum := at(payload.Daily.Humidity, i)
		if temp != nil && hum != nil {
			s.TemperatureC = *temp
			s.HumidityPct = *hum
			s.Present = true
		}
		samples[i] = s
	}
	return samples, nil
}

func at(values []*float64, i int) *float64 {
	if i >= len(values) {
		return nil
	}
	return values[i]
}
