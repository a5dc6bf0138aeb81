package weather

// DailySample is one day of the daily maxima the risk classifier needs.
// Present is false when the provider returned no value for either metric;
// the temperature and humidity are then meaningless and must not be used.
type DailySample struct {
	Date         string  `json:"date"` // YYYY-MM-DD in the configured timezone
	TemperatureC float64 `json:"temperature"`
	HumidityPct  float64 `json:"humidity"`
	Present      bool    `json:"-"`
}

// Day returns the sample at offset i (0 = today). A short series yields a
// missing sample rather than a panic.
func Day(series []DailySample, i int) DailySample {
	if i < 0 || i >= len(series) {
		return DailySample{}
	}
	return series[i]
}
