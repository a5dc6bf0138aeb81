package heatrisk

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/heatwave-risk-api/internal/risk"
)

func rec(pincode int, level risk.Level, label string, temp, hum float64, pop int, elderly float64) RiskRecord {
	return RiskRecord{
		Pincode:        pincode,
		Temperature:    temp,
		Humidity:       hum,
		RiskLevel:      level,
		RiskLabel:      label,
		Population:     pop,
		ElderlyPercent: elderly,
	}
}

func TestSummarize(t *testing.T) {
	rm := RiskMap{
		Date: "2026-05-11",
		Records: []RiskRecord{
			rec(1, 2, "Danger", 34.1, 20, 1000, 10),
			rec(2, 0, "Caution", 34.3, 30, 2000, 10),
			rec(3, 3, "Extreme Danger", 34.38, 41, 4000, 10),
			rec(4, 2, "Danger", 34.26, 25, 8000, 10),
		},
	}
	rm.TotalAreas = len(rm.Records)

	s := Summarize(rm)

	assert.Equal(t, "2026-05-11", s.Date)
	assert.Equal(t, 4, s.TotalAreas)
	assert.Equal(t, "34.3", s.AverageTemperature) // mean 34.26
	assert.Equal(t, "29.0", s.AverageHumidity)
	assert.Equal(t, 3, s.HighRiskAreas)
	assert.Equal(t, int64(13000), s.AffectedPopulation)
	assert.Equal(t, Distribution{{"Danger", 2}, {"Caution", 1}, {"Extreme Danger", 1}}, s.RiskDistribution)
	assert.Equal(t, 2, s.RiskDistribution.Count("Danger"))
	assert.Equal(t, 0, s.RiskDistribution.Count("Extreme Caution"))
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(RiskMap{Date: "2026-05-11", Records: []RiskRecord{}})

	assert.Equal(t, 0, s.TotalAreas)
	assert.Equal(t, "0.0", s.AverageTemperature)
	assert.Equal(t, "0.0", s.AverageHumidity)
	assert.Zero(t, s.HighRiskAreas)
	assert.Zero(t, s.AffectedPopulation)

	b, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"risk_distribution":{}`)
}

func TestFormatOneDecimal(t *testing.T) {
	assert.Equal(t, "34.3", formatOneDecimal(34.26))
	assert.Equal(t, "34.3", formatOneDecimal(34.25))
	assert.Equal(t, "34.2", formatOneDecimal(34.24))
	assert.Equal(t, "22.0", formatOneDecimal(22))
	assert.Equal(t, "-3.5", formatOneDecimal(-3.45))
}

func TestDistribution_MarshalKeepsOrder(t *testing.T) {
	d := Distribution{{"Extreme Danger", 3}, {"Caution", 1}, {`Odd "label"`, 2}}
	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `{"Extreme Danger":3,"Caution":1,"Odd \"label\"":2}`, string(b))

	b, err = json.Marshal(Distribution{})
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(b))
}

func TestVulnerablePopulation(t *testing.T) {
	assert.Equal(t, int64(125000), VulnerablePopulation(1_000_000, 12.5))
	assert.Equal(t, int64(0), VulnerablePopulation(0, 40))
	assert.Equal(t, int64(1), VulnerablePopulation(5, 10)) // 0.5 rounds up
	assert.Equal(t, int64(6765), VulnerablePopulation(52000, 13.01))
}

func TestFilterHighRisk_SortedAndFiltered(t *testing.T) {
	records := []RiskRecord{
		rec(1, 2, "Danger", 0, 0, 10000, 10),        // 1000
		rec(2, 3, "Extreme Danger", 0, 0, 5000, 10), // 500
		rec(3, 1, "Extreme Caution", 0, 0, 90000, 50),
		rec(4, 2, "Danger", 0, 0, 40000, 10),         // 4000
		rec(5, 3, "Extreme Danger", 0, 0, 20000, 10), // 2000
		rec(6, 0, "Caution", 0, 0, 1, 1),
	}

	out := FilterHighRisk(records, risk.LevelDanger)
	require.Len(t, out, 4)

	got := make([]int, len(out))
	for i, r := range out {
		got[i] = r.Pincode
	}
	assert.Equal(t, []int{5, 2, 4, 1}, got)

	for i := 1; i < len(out); i++ {
		prev, cur := out[i-1], out[i]
		assert.GreaterOrEqual(t, prev.RiskLevel, cur.RiskLevel)
		if prev.RiskLevel == cur.RiskLevel {
			assert.GreaterOrEqual(t, prev.VulnerablePopulation, cur.VulnerablePopulation)
		}
	}

	assert.Len(t, FilterHighRisk(records, risk.LevelCaution), 6)
	assert.Empty(t, FilterHighRisk(nil, risk.LevelDanger))
}

func TestHighRiskRecord_JSONFlattensRecord(t *testing.T) {
	hr := HighRiskRecord{RiskRecord: rec(411001, 2, "Danger", 40, 20, 1_000_000, 12.5), VulnerablePopulation: 125000}
	b, err := json.Marshal(hr)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.EqualValues(t, 411001, m["pincode"])
	assert.EqualValues(t, 125000, m["vulnerable_population"])
	assert.EqualValues(t, 2, m["risk_level"])
	assert.NotContains(t, m, "RiskRecord")
}
