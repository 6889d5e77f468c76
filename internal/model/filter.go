package model

// Sentinel values meaning "no filter" for each dimension. Case-sensitive.
const (
	AllCounties      = "All Counties"
	AllDistricts     = "All Districts"
	AllRiskTiers     = "All Risk Tiers"
	AllPovertyLevels = "All Poverty Levels"
)

// FilterCriteria selects a subset of the merged collection. An empty field
// behaves like its sentinel.
type FilterCriteria struct {
	County       string `json:"county" yaml:"county"`
	District     string `json:"district" yaml:"district"`
	RiskTier     string `json:"risk_tier" yaml:"risk_tier"`
	PovertyLevel string `json:"poverty_level" yaml:"poverty_level"`
}

// DefaultFilter returns criteria with every dimension set to its sentinel.
func DefaultFilter() FilterCriteria {
	return FilterCriteria{
		County:       AllCounties,
		District:     AllDistricts,
		RiskTier:     AllRiskTiers,
		PovertyLevel: AllPovertyLevels,
	}
}

// PovertyBand is a half-open band over percent of federal poverty level.
type PovertyBand int

const (
	PovertyUnknown  PovertyBand = iota // blank or negative percent
	PovertyDeep                        // < 100
	PovertyLow                         // [100, 200)
	PovertyModerate                    // [200, 300)
	PovertyHigher                      // >= 300
)

// PovertyBands lists the known bands in ascending order.
var PovertyBands = []PovertyBand{PovertyDeep, PovertyLow, PovertyModerate, PovertyHigher}

var povertyLabels = map[PovertyBand]string{
	PovertyUnknown:  "Unknown Poverty Level",
	PovertyDeep:     "Deep Poverty (<100%)",
	PovertyLow:      "Low Income (100-200%)",
	PovertyModerate: "Moderate Income (200-300%)",
	PovertyHigher:   "Higher Income (>300%)",
}

var povertyShortLabels = map[PovertyBand]string{
	PovertyUnknown:  "Unknown",
	PovertyDeep:     "<100%",
	PovertyLow:      "100-200%",
	PovertyModerate: "200-300%",
	PovertyHigher:   ">300%",
}

// Label is the filter vocabulary label for the band.
func (b PovertyBand) Label() string {
	return povertyLabels[b]
}

// Short is the compact chart label for the band.
func (b PovertyBand) Short() string {
	return povertyShortLabels[b]
}

func (b PovertyBand) String() string {
	return b.Short()
}

// BandFor places a poverty percent in its band.
func BandFor(pct float64, known bool) PovertyBand {
	switch {
	case !known || pct < 0:
		return PovertyUnknown
	case pct < 100:
		return PovertyDeep
	case pct < 200:
		return PovertyLow
	case pct < 300:
		return PovertyModerate
	default:
		return PovertyHigher
	}
}

// ParsePovertyLabel maps a filter label to its band. ok is false for the
// sentinel and for unrecognized labels.
func ParsePovertyLabel(label string) (PovertyBand, bool) {
	for band, l := range povertyLabels {
		if l == label {
			return band, true
		}
	}
	return PovertyUnknown, false
}

// PovertyLabels returns the filter labels in display order, unknown last.
func PovertyLabels() []string {
	out := make([]string, 0, len(PovertyBands)+1)
	for _, b := range PovertyBands {
		out = append(out, b.Label())
	}
	return append(out, PovertyUnknown.Label())
}
