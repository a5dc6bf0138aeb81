package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Embedded(t *testing.T) {
	r, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "Pune", r.City())
	assert.Positive(t, r.Len())

	all := r.All()
	require.Len(t, all, r.Len())
	assert.Equal(t, 411001, all[0].Pincode)

	seen := make(map[int]bool)
	for _, loc := range all {
		assert.False(t, seen[loc.Pincode], "duplicate pincode %d", loc.Pincode)
		seen[loc.Pincode] = true
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pincodes.json")
	doc := `{"pincodes":[
		{"pincode":1,"latitude":1,"longitude":2,"population":10,"elderly_percent":5,"literacy_rate":50},
		{"pincode":2,"latitude":3,"longitude":4,"population":20,"elderly_percent":6,"literacy_rate":60}
	]}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	r, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Len())
	assert.Empty(t, r.City())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"malformed", `{"pincodes":[`},
		{"empty", `{"pincodes":[]}`},
		{"duplicate", `{"pincodes":[
			{"pincode":1,"latitude":1,"longitude":1,"population":1},
			{"pincode":1,"latitude":2,"longitude":2,"population":2}]}`},
		{"elderly over 100", `{"pincodes":[{"pincode":1,"population":1,"elderly_percent":101}]}`},
		{"negative population", `{"pincodes":[{"pincode":1,"population":-5}]}`},
		{"zero pincode", `{"pincodes":[{"pincode":0,"population":5}]}`},
		{"latitude out of range", `{"pincodes":[{"pincode":1,"latitude":91}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestByID(t *testing.T) {
	r, err := New("", []Location{
		{Pincode: 411001, Latitude: 18.5, Longitude: 73.8, Population: 50000, ElderlyPercent: 10},
		{Pincode: 411002, Latitude: 18.6, Longitude: 73.9, Population: 60000, ElderlyPercent: 12},
	})
	require.NoError(t, err)

	loc, err := r.ByID(411002)
	require.NoError(t, err)
	assert.Equal(t, 60000, loc.Population)

	_, err = r.ByID(999999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAll_ReturnsCopy(t *testing.T) {
	r, err := New("", []Location{{Pincode: 1, Population: 1}})
	require.NoError(t, err)

	all := r.All()
	all[0].Population = 999

	loc, err := r.ByID(1)
	require.NoError(t, err)
	assert.Equal(t, 1, loc.Population)
}
