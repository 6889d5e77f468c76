package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBandFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		pct   float64
		known bool
		want  PovertyBand
	}{
		{"just under 100", 99.9, true, PovertyDeep},
		{"zero", 0, true, PovertyDeep},
		{"exactly 100", 100.0, true, PovertyLow},
		{"just under 300", 299.999, true, PovertyModerate},
		{"exactly 200", 200, true, PovertyModerate},
		{"exactly 300", 300.0, true, PovertyHigher},
		{"far above", 1250, true, PovertyHigher},
		{"negative", -4, true, PovertyUnknown},
		{"missing", 0, false, PovertyUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, BandFor(tt.pct, tt.known))
		})
	}
}

func TestParsePovertyLabel(t *testing.T) {
	t.Parallel()

	for _, b := range append([]PovertyBand{PovertyUnknown}, PovertyBands...) {
		got, ok := ParsePovertyLabel(b.Label())
		assert.True(t, ok, b.Label())
		assert.Equal(t, b, got)
	}

	_, ok := ParsePovertyLabel(AllPovertyLevels)
	assert.False(t, ok)
	_, ok = ParsePovertyLabel("deep poverty (<100%)")
	assert.False(t, ok, "labels are case-sensitive")
	_, ok = ParsePovertyLabel("")
	assert.False(t, ok)
}

func TestPovertyLabelsOrder(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{
		"Deep Poverty (<100%)",
		"Low Income (100-200%)",
		"Moderate Income (200-300%)",
		"Higher Income (>300%)",
		"Unknown Poverty Level",
	}, PovertyLabels())
}

func TestDefaultFilter(t *testing.T) {
	t.Parallel()

	f := DefaultFilter()
	assert.Equal(t, "All Counties", f.County)
	assert.Equal(t, "All Districts", f.District)
	assert.Equal(t, "All Risk Tiers", f.RiskTier)
	assert.Equal(t, "All Poverty Levels", f.PovertyLevel)
}

func TestRiskTierRank(t *testing.T) {
	t.Parallel()

	assert.Less(t, RiskTierLow.Rank(), RiskTierModerate.Rank())
	assert.Less(t, RiskTierModerate.Rank(), RiskTierHigh.Rank())
	assert.Equal(t, 0, RiskTier("").Rank())
}

func TestChildRecordTier(t *testing.T) {
	t.Parallel()

	var c ChildRecord
	assert.False(t, c.HasRisk())
	assert.Equal(t, RiskTier(""), c.Tier())

	c.Risk = &RiskScore{Tier: RiskTierHigh}
	assert.True(t, c.HasRisk())
	assert.Equal(t, RiskTierHigh, c.Tier())
}
