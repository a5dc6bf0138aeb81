package risk

// Level is the ordinal heat-danger class, 0 (Caution) to 3 (Extreme Danger).
type Level int

const (
	LevelCaution Level = iota
	LevelExtremeCaution
	LevelDanger
	LevelExtremeDanger
)

// HighRiskThreshold is the level from which an area counts as high risk.
const HighRiskThreshold = LevelDanger

var levelNames = [...]struct{ label, color string }{
	LevelCaution:        {"Caution", "#4ade80"},
	LevelExtremeCaution: {"Extreme Caution", "#fbbf24"},
	LevelDanger:         {"Danger", "#fb923c"},
	LevelExtremeDanger:  {"Extreme Danger", "#ef4444"},
}

// Levels lists every level in ascending order.
func Levels() []Level {
	return []Level{LevelCaution, LevelExtremeCaution, LevelDanger, LevelExtremeDanger}
}

func (l Level) Valid() bool {
	return l >= LevelCaution && l <= LevelExtremeDanger
}

// Label is the conventional display label for l. The service reports the
// classifier's own label on records; this is for descriptive output only.
func (l Level) Label() string {
	if !l.Valid() {
		return "Unknown"
	}
	return levelNames[l].label
}

func (l Level) Color() string {
	if !l.Valid() {
		return "#9ca3af"
	}
	return levelNames[l].color
}
