// Package registry holds the static list of localities the service reports on.
package registry

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

//go:embed data/pune_pincodes.json
var embeddedPincodes []byte

// ErrNotFound is returned when a pincode is not in the registry.
var ErrNotFound = errors.New("pincode not found")

var validate = validator.New()

// Location is one postal-code locality with its coordinates and demographics.
type Location struct {
	Pincode        int     `json:"pincode" validate:"required,gt=0"`
	Area           string  `json:"area,omitempty"`
	Latitude       float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude      float64 `json:"longitude" validate:"gte=-180,lte=180"`
	Population     int     `json:"population" validate:"gte=0"`
	ElderlyPercent float64 `json:"elderly_percent" validate:"gte=0,lte=100"`
	LiteracyRate   float64 `json:"literacy_rate" validate:"gte=0,lte=100"`
}

type document struct {
	City     string     `json:"city"`
	Pincodes []Location `json:"pincodes"`
}

// Registry is read-only after Load and safe for concurrent use.
type Registry struct {
	city      string
	locations []Location
	index     map[int]int
}

// Load reads the registry from path, or from the embedded Pune dataset when path is empty.
func Load(path string) (*Registry, error) {
	data := embeddedPincodes
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read registry: %w", err)
		}
		data = b
	}
	return Parse(data)
}

// Parse builds a Registry from a JSON document of the form {"pincodes": [...]}.
func Parse(data []byte) (*Registry, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode registry: %w", err)
	}
	return New(doc.City, doc.Pincodes)
}

// New validates locations and indexes them by pincode, keeping input order.
func New(city string, locations []Location) (*Registry, error) {
	if len(locations) == 0 {
		return nil, errors.New("registry has no locations")
	}

	r := &Registry{
		city:      city,
		locations: make([]Location, len(locations)),
		index:     make(map[int]int, len(locations)),
	}
	copy(r.locations, locations)

	for i, loc := range r.locations {
		if err := validate.Struct(loc); err != nil {
			return nil, fmt.Errorf("location %d (pincode %d): %w", i, loc.Pincode, err)
		}
		if _, dup := r.index[loc.Pincode]; dup {
			return nil, fmt.Errorf("duplicate pincode %d", loc.Pincode)
		}
		r.index[loc.Pincode] = i
	}
	return r, nil
}

// City is the display name from the registry document, if any.
func (r *Registry) City() string {
	return r.city
}

// All returns a copy of every location in registry order.
func (r *Registry) All() []Location {
	out := make([]Location, len(r.locations))
	copy(out, r.locations)
	return out
}

// ByID looks up a location by pincode.
func (r *Registry) ByID(pincode int) (Location, error) {
	i, ok := r.index[pincode]
	if !ok {
		return Location{}, fmt.Errorf("%w: %d", ErrNotFound, pincode)
	}
	return r.locations[i], nil
}

func (r *Registry) Len() int {
	return len(r.locations)
}
