// Package risk defines the heat-risk classifier contract. Classification itself
// happens in the external ML service; nothing here computes a risk level.
package risk

import (
	"context"
	"errors"
)

// ErrClassifier wraps upstream and malformed-response failures from the classifier.
var ErrClassifier = errors.New("risk classifier error")

// Features is the classifier input for one locality on one day.
type Features struct {
	Temperature    float64 `json:"temperature"`
	Humidity       float64 `json:"humidity"`
	Population     int     `json:"population"`
	ElderlyPercent float64 `json:"elderly_percent"`
	LiteracyRate   float64 `json:"literacy_rate"`
}

// Assessment is the classifier output, passed through verbatim.
type Assessment struct {
	Level Level  `json:"risk_level"`
	Label string `json:"risk_label"`
	Color string `json:"color"`
}

// Classifier is the external prediction service.
type Classifier interface {
	ClassifyOne(ctx context.Context, f Features) (Assessment, error)

	// ClassifyBulk returns one assessment per input, result[i] for features[i].
	ClassifyBulk(ctx context.Context, features []Features) ([]Assessment, error)
}
