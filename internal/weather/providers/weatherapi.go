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

// WeatherAPIProvider implements weather.Gateway for WeatherAPI.com.
//
// WeatherAPI has no daily humidity maximum, so the day's average humidity is
// reported instead. Dates come back in the location's local time.
type WeatherAPIProvider struct {
	apiKey   string
	baseURL  string
	timezone *time.Location
	exec     *upstream.Executor
	clock    clockwork.Clock
}

func NewWeatherAPIProvider(exec *upstream.Executor, baseURL, apiKey string, tz *time.Location, clock clockwork.Clock) *WeatherAPIProvider {
	if tz == nil {
		tz = time.UTC
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &WeatherAPIProvider{
		apiKey:   apiKey,
		baseURL:  baseURL,
		timezone: tz,
		exec:     exec,
		clock:    clock,
	}
}

func (p *WeatherAPIProvider) Name() string {
	return "weatherapi"
}

type weatherAPIResponse struct {
	Forecast struct {
		Days []struct {
			Date string `json:"date"`
			Day  struct {
				MaxTempC    *float64 `json:"maxtemp_c"`
				AvgHumidity *float64 `json:"avghumidity"`
			} `json:"day"`
		} `json:"forecastday"`
	} `json:"forecast"`
}

func (p *WeatherAPIProvider) FetchDaily(ctx context.Context, lat, lon float64, days int) ([]weather.DailySample, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("%w: weatherapi api key is not configured", weather.ErrGateway)
	}
	if days <= 0 {
		return nil, fmt.Errorf("%w: days must be greater than zero", weather.ErrGateway)
	}

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("key", p.apiKey)
		// WeatherAPI accepts "lat,lon" in q.
		values.Set("q", fmt.Sprintf("%f,%f", lat, lon))
		values.Set("days", strconv.Itoa(days))
		values.Set("aqi", "no")
		values.Set("alerts", "no")

		return http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/forecast.json?"+values.Encode(), nil)
	}

	resp, err := p.exec.Do(ctx, buildRequest)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", weather.ErrGateway, p.Name(), err)
	}
	defer resp.Body.Close()

	var payload weatherAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %s: decode response: %w", weather.ErrGateway, p.Name(), err)
	}

	today := p.clock.Now().In(p.timezone)
	samples := make([]weather.DailySample, days)
	for i := range samples {
		s := weather.DailySample{Date: today.AddDate(0, 0, i).Format(time.DateOnly)}
		if i < len(payload.Forecast.Days) {
			d := payload.Forecast.Days[i]
			if d.Date != "" {
				s.Date = d.Date
			}
			if d.Day.MaxTempC != nil && d.Day.AvgHumidity != nil {
				s.TemperatureC = *d.Day.MaxTempC
				s.HumidityPct = *d.Day.AvgHumidity
				s.Present = true
			}
		}
		samples[i] = s
	}
	return samples, nil
}
