package stats

import (
	"github.com/sells-group/readiness-cli/internal/model"
	"github.com/sells-group/readiness-cli/internal/region"
)

// TierKeys lists tier groups in ascending severity.
var TierKeys = []string{
	string(model.RiskTierLow),
	string(model.RiskTierModerate),
	string(model.RiskTierHigh),
}

// RiskMetric lifts a risk-score field into a Metric. Records without a risk
// row are skipped.
func RiskMetric(f func(*model.RiskScore) float64) Metric {
	return func(r model.ChildRecord) (float64, bool) {
		if r.Risk == nil {
			return 0, false
		}
		return f(r.Risk), true
	}
}

// RiskPredicate lifts a risk-score test into a Predicate. Records without a
// risk row never match.
func RiskPredicate(f func(*model.RiskScore) bool) Predicate {
	return func(r model.ChildRecord) bool {
		return r.Risk != nil && f(r.Risk)
	}
}

// Common metrics.
var (
	CompositeScore = RiskMetric(func(s *model.RiskScore) float64 { return s.CompositeScore })
	Stability      = RiskMetric(func(s *model.RiskScore) float64 { return s.StabilityScore })
	Engagement     = RiskMetric(func(s *model.RiskScore) float64 { return s.EngagementScore })
	Developmental  = RiskMetric(func(s *model.RiskScore) float64 { return s.DevelopmentalScore })
	Context        = RiskMetric(func(s *model.RiskScore) float64 { return s.ContextScore })
	Screenings     = RiskMetric(func(s *model.RiskScore) float64 { return float64(s.NumScreeningsCompleted) })
	Attendance     = RiskMetric(func(s *model.RiskScore) float64 { return s.AvgAttendanceDays })
	EnrollmentGaps = RiskMetric(func(s *model.RiskScore) float64 { return float64(s.NumEnrollmentGaps) })

	ScreeningRate = RiskMetric(func(s *model.RiskScore) float64 { return s.ScreeningCompletionRate * 100 })
	Immunization  = RiskMetric(func(s *model.RiskScore) float64 { return s.ImmunizationComplianceRate * 100 })

	// COSRating skips records without an outcomes rating.
	COSRating Metric = func(r model.ChildRecord) (float64, bool) {
		if r.Risk == nil || r.Risk.AvgCOSRating == nil {
			return 0, false
		}
		return *r.Risk.AvgCOSRating, true
	}
)

// Scored matches records with a joined risk row.
func Scored(r model.ChildRecord) bool {
	return r.HasRisk()
}

// InTier matches records in the given tier.
func InTier(t model.RiskTier) Predicate {
	return func(r model.ChildRecord) bool { return r.Tier() == t }
}

// ByTier groups scored records by risk tier.
func ByTier(r model.ChildRecord) (string, bool) {
	t := r.Tier()
	return string(t), t != ""
}

// ByCounty groups records by county name.
func ByCounty(r model.ChildRecord) (string, bool) {
	return r.CountyName, r.CountyName != ""
}

// ByRegion groups records by Missouri region.
func ByRegion(r model.ChildRecord) (string, bool) {
	return region.Lookup(r.CountyName), true
}

// ByPovertyBand groups records by short poverty band label. Records with an
// unknown poverty percent are left out.
func ByPovertyBand(r model.ChildRecord) (string, bool) {
	b := r.PovertyBand()
	return b.Short(), b != model.PovertyUnknown
}

// PovertyKeys lists the short labels of the known poverty bands.
func PovertyKeys() []string {
	keys := make([]string, len(model.PovertyBands))
	for i, b := range model.PovertyBands {
		keys[i] = b.Short()
	}
	return keys
}
