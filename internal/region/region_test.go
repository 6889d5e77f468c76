package region

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		county string
		want   string
	}{
		{"Boone", RegionCentral},
		{"BOONE", RegionCentral},
		{" cole ", RegionCentral},
		{"St. Louis City", RegionStLouisMetro},
		{"St. Louis", RegionStLouisMetro},
		{"Jackson", RegionKansasCityMetro},
		{"Cape Girardeau", RegionSoutheast},
		{"McDonald", RegionSouthwest},
		{"Ste. Genevieve", RegionEastCentral},
		{"Johnson", RegionWest},
		{"Pulaski", RegionSouth},
		{"Cook", RegionOther},
		{"", RegionOther},
	}

	for _, tt := range tests {
		t.Run(tt.county, func(t *testing.T) {
			assert.Equal(t, tt.want, Lookup(tt.county))
		})
	}
}

func TestNames(t *testing.T) {
	names := Names()
	assert.Len(t, names, 13)
	assert.Equal(t, RegionOther, names[len(names)-1])
	assert.Equal(t, RegionCentral, names[0])
}

func TestCounties(t *testing.T) {
	assert.Equal(t, []string{"CASS", "CLAY", "JACKSON", "PLATTE"}, Counties(RegionKansasCityMetro))
	assert.Empty(t, Counties(RegionOther))
}
