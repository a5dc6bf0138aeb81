package heatrisk

import (
	"github.com/i474232898/heatwave-risk-api/internal/registry"
	"github.com/i474232898/heatwave-risk-api/internal/risk"
	"github.com/i474232898/heatwave-risk-api/internal/weather"
)

// RiskRecord merges one location, its weather for the day, and the classifier's verdict.
type RiskRecord struct {
	Pincode        int        `json:"pincode"`
	Latitude       float64    `json:"latitude"`
	Longitude      float64    `json:"longitude"`
	Temperature    float64    `json:"temperature"`
	Humidity       float64    `json:"humidity"`
	RiskLevel      risk.Level `json:"risk_level"`
	RiskLabel      string     `json:"risk_label"`
	Color          string     `json:"color"`
	Population     int        `json:"population"`
	ElderlyPercent float64    `json:"elderly_percent"`
}

// RiskMap is the current-day view over the whole registry.
type RiskMap struct {
	Date       string       `json:"date"`
	TotalAreas int          `json:"total_areas"`
	Records    []RiskRecord `json:"risk_map"`
}

// ForecastRecord is one (day, location) prediction.
type ForecastRecord struct {
	Date        string     `json:"date"`
	Pincode     int        `json:"pincode"`
	Latitude    float64    `json:"latitude"`
	Longitude   float64    `json:"longitude"`
	Temperature float64    `json:"temperature"`
	Humidity    float64    `json:"humidity"`
	RiskLevel   risk.Level `json:"risk_level"`
	RiskLabel   string     `json:"risk_label"`
	Color       string     `json:"color"`
}

// Forecast is ordered day first, then registry order within a day.
type Forecast struct {
	Days             int              `json:"forecast_days"`
	TotalPredictions int              `json:"total_predictions"`
	Records          []ForecastRecord `json:"forecast"`
}

// DayRisk is one entry of a single location's daily series.
type DayRisk struct {
	Date        string     `json:"date"`
	Temperature float64    `json:"temperature"`
	Humidity    float64    `json:"humidity"`
	RiskLevel   risk.Level `json:"risk_level"`
	RiskLabel   string     `json:"risk_label"`
}

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Demographics struct {
	Population     int     `json:"population"`
	ElderlyPercent float64 `json:"elderly_percent"`
	LiteracyRate   float64 `json:"literacy_rate"`
}

// LocationDetail is the per-pincode view. CurrentRisk is Forecast[0].
type LocationDetail struct {
	Pincode      int          `json:"pincode"`
	Location     Coordinates  `json:"location"`
	Demographics Demographics `json:"demographics"`
	CurrentRisk  DayRisk      `json:"current_risk"`
	Forecast     []DayRisk    `json:"forecast"`
}

// HighRiskRecord is a RiskRecord annotated with its estimated elderly population.
type HighRiskRecord struct {
	RiskRecord
	VulnerablePopulation int64 `json:"vulnerable_population"`
}

type HighRiskAreas struct {
	Total     int              `json:"total_high_risk_areas"`
	Threshold int              `json:"threshold"`
	Areas     []HighRiskRecord `json:"areas"`
}

func featuresFor(loc registry.Location, day weather.DailySample) risk.Features {
	return risk.Features{
		Temperature:    day.TemperatureC,
		Humidity:       day.HumidityPct,
		Population:     loc.Population,
		ElderlyPercent: loc.ElderlyPercent,
		LiteracyRate:   loc.LiteracyRate,
	}
}

func newRiskRecord(loc registry.Location, day weather.DailySample, a risk.Assessment) RiskRecord {
	return RiskRecord{
		Pincode:        loc.Pincode,
		Latitude:       loc.Latitude,
		Longitude:      loc.Longitude,
		Temperature:    day.TemperatureC,
		Humidity:       day.HumidityPct,
		RiskLevel:      a.Level,
		RiskLabel:      a.Label,
		Color:          a.Color,
		Population:     loc.Population,
		ElderlyPercent: loc.ElderlyPercent,
	}
}

func newForecastRecord(loc registry.Location, day weather.DailySample, a risk.Assessment) ForecastRecord {
	return ForecastRecord{
		Date:        day.Date,
		Pincode:     loc.Pincode,
		Latitude:    loc.Latitude,
		Longitude:   loc.Longitude,
		Temperature: day.TemperatureC,
		Humidity:    day.HumidityPct,
		RiskLevel:   a.Level,
		RiskLabel:   a.Label,
		Color:       a.Color,
	}
}
