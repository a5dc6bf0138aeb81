package heatrisk

import (
	"bytes"
	"math"
	"sort"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/i474232898/heatwave-risk-api/internal/risk"
)

// LabelCount is one bucket of a Distribution.
type LabelCount struct {
	Label string
	Count int
}

// Distribution counts records per risk label in first-seen order.
// It marshals as a JSON object whose keys keep that order.
type Distribution []LabelCount

func (d Distribution) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, lc := range d {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(lc.Label)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(lc.Count))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Count returns the bucket size for label, or 0.
func (d Distribution) Count(label string) int {
	for _, lc := range d {
		if lc.Label == label {
			return lc.Count
		}
	}
	return 0
}

// Statistics is the derived summary over one day's risk map.
type Statistics struct {
	Date               string       `json:"date"`
	TotalAreas         int          `json:"total_areas"`
	RiskDistribution   Distribution `json:"risk_distribution"`
	AverageTemperature string       `json:"average_temperature"`
	AverageHumidity    string       `json:"average_humidity"`
	HighRiskAreas      int          `json:"high_risk_areas"`
	AffectedPopulation int64        `json:"affected_population"`
}

// Summarize folds a risk map into Statistics. Averages are arithmetic means
// formatted to one decimal place. An empty map yields zero counts, an empty
// distribution, and "0.0" averages instead of dividing by zero.
func Summarize(rm RiskMap) Statistics {
	stats := Statistics{
		Date:               rm.Date,
		TotalAreas:         len(rm.Records),
		RiskDistribution:   Distribution{},
		AverageTemperature: formatOneDecimal(0),
		AverageHumidity:    formatOneDecimal(0),
	}
	if len(rm.Records) == 0 {
		return stats
	}

	var (
		sumTemp     float64
		sumHumidity float64
	)
	slot := make(map[string]int)

	for _, r := range rm.Records {
		sumTemp += r.Temperature
		sumHumidity += r.Humidity

		if i, ok := slot[r.RiskLabel]; ok {
			stats.RiskDistribution[i].Count++
		} else {
			slot[r.RiskLabel] = len(stats.RiskDistribution)
			stats.RiskDistribution = append(stats.RiskDistribution, LabelCount{Label: r.RiskLabel, Count: 1})
		}

		if r.RiskLevel >= risk.HighRiskThreshold {
			stats.HighRiskAreas++
			stats.AffectedPopulation += int64(r.Population)
		}
	}

	n := float64(len(rm.Records))
	stats.AverageTemperature = formatOneDecimal(sumTemp / n)
	stats.AverageHumidity = formatOneDecimal(sumHumidity / n)
	return stats
}

// formatOneDecimal rounds ties away from zero (34.25 -> "34.3").
func formatOneDecimal(v float64) string {
	return strconv.FormatFloat(math.Round(v*10)/10, 'f', 1, 64)
}

// VulnerablePopulation estimates the elderly share of a population, rounded half away from zero.
func VulnerablePopulation(population int, elderlyPercent float64) int64 {
	return int64(math.Round(float64(population) * elderlyPercent / 100))
}

// FilterHighRisk keeps records with level >= threshold, annotates each with its
// vulnerable population, and sorts by level then vulnerable population, both descending.
func FilterHighRisk(records []RiskRecord, threshold risk.Level) []HighRiskRecord {
	out := make([]HighRiskRecord, 0, len(records))
	for _, r := range records {
		if r.RiskLevel < threshold {
			continue
		}
		out = append(out, HighRiskRecord{
			RiskRecord:           r,
			VulnerablePopulation: VulnerablePopulation(r.Population, r.ElderlyPercent),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].RiskLevel != out[j].RiskLevel {
			return out[i].RiskLevel > out[j].RiskLevel
		}
		return out[i].VulnerablePopulation > out[j].VulnerablePopulation
	})
	return out
}
