package stats

import (
	"github.com/sells-group/readiness-cli/internal/model"
)

// Indicator is a named boolean predicate reported as a prevalence.
type Indicator struct {
	Name  string
	Match Predicate
}

// Indicators are the domain-view indicators reported by tier.
var Indicators = []Indicator{
	{Name: "Participation Gaps (>1)", Match: RiskPredicate(func(s *model.RiskScore) bool { return s.NumEnrollmentGaps > 1 })},
	{Name: "Long Gap (>6 months)", Match: RiskPredicate(func(s *model.RiskScore) bool { return s.HasGapOver6Mo })},
	{Name: "Missed Screenings", Match: RiskPredicate(func(s *model.RiskScore) bool { return s.MissedScreening })},
	{Name: "Low Attendance (<80 days avg)", Match: RiskPredicate(func(s *model.RiskScore) bool { return s.AvgAttendanceDays < 80 })},
	{Name: "Has Disability", Match: RiskPredicate(func(s *model.RiskScore) bool { return s.HasDisability })},
	{Name: "Low COS Ratings", Match: RiskPredicate(func(s *model.RiskScore) bool { return s.LowOutcomes })},
	{Name: "Deep Poverty", Match: func(r model.ChildRecord) bool { return r.Flags.DeepPoverty }},
	{Name: "Homelessness", Match: func(r model.ChildRecord) bool { return r.Flags.Homelessness }},
	{Name: "Foster Care", Match: func(r model.ChildRecord) bool { return r.Flags.InFosterCare }},
	{Name: "Household Stressors (>=2)", Match: RiskPredicate(func(s *model.RiskScore) bool { return s.NumHouseholdStressors >= 2 })},
}

// RiskDrivers are ranked by lift within the High tier.
var RiskDrivers = []Indicator{
	{Name: "Participation Gap >6mo", Match: RiskPredicate(func(s *model.RiskScore) bool { return s.HasGapOver6Mo })},
	{Name: "Missed Screenings", Match: RiskPredicate(func(s *model.RiskScore) bool { return s.NumScreeningsCompleted < 4 })},
	{Name: "Low Attendance", Match: RiskPredicate(func(s *model.RiskScore) bool { return s.AvgAttendanceDays < 80 })},
	{Name: "Deep Poverty", Match: func(r model.ChildRecord) bool { return r.Flags.DeepPoverty }},
	{Name: "Homelessness", Match: func(r model.ChildRecord) bool { return r.Flags.Homelessness }},
	{Name: "Foster Care", Match: func(r model.ChildRecord) bool { return r.Flags.InFosterCare }},
	{Name: "Has Disability", Match: RiskPredicate(func(s *model.RiskScore) bool { return s.HasDisability })},
	{Name: "Multiple Gaps", Match: RiskPredicate(func(s *model.RiskScore) bool { return s.NumEnrollmentGaps > 1 })},
}

// ContextIndicators are the family-stressor indicators of the geography view.
var ContextIndicators = []Indicator{
	{Name: "Deep Poverty", Match: func(r model.ChildRecord) bool { return r.Flags.DeepPoverty }},
	{Name: "Homelessness", Match: func(r model.ChildRecord) bool { return r.Flags.Homelessness }},
	{Name: "Foster Care", Match: func(r model.ChildRecord) bool { return r.Flags.InFosterCare }},
	{Name: "Abuse/Neglect", Match: func(r model.ChildRecord) bool { return r.Flags.Abuse }},
	{Name: "Substance Abuse", Match: func(r model.ChildRecord) bool { return r.Flags.Substance }},
	{Name: "Mental Illness", Match: func(r model.ChildRecord) bool { return r.Flags.Depression }},
}

// IndicatorRow is the prevalence of one indicator overall and per tier, with
// its High-tier lift.
type IndicatorRow struct {
	Indicator string  `json:"indicator" yaml:"indicator"`
	Overall   float64 `json:"overall" yaml:"overall"`
	ByTier    []Group `json:"by_tier" yaml:"by_tier"`
	Lift      float64 `json:"lift" yaml:"lift"`
}

// Driver is a risk driver ranked by High-tier lift.
type Driver struct {
	Name string  `json:"name" yaml:"name"`
	Lift float64 `json:"lift" yaml:"lift"`
}

// IndicatorTable reports each indicator over scored records.
func IndicatorTable(scored []model.ChildRecord, indicators []Indicator) []IndicatorRow {
	high := Where(scored, InTier(model.RiskTierHigh))

	rows := make([]IndicatorRow, 0, len(indicators))
	for _, ind := range indicators {
		rows = append(rows, IndicatorRow{
			Indicator: ind.Name,
			Overall:   Prevalence(scored, ind.Match),
			ByTier:    PrevalenceBy(scored, ByTier, ind.Match, TierKeys...),
			Lift:      Lift(high, scored, ind.Match),
		})
	}
	return rows
}

// TopDrivers ranks drivers by High-tier lift, descending, keeping limit.
func TopDrivers(scored []model.ChildRecord, drivers []Indicator, limit int) []Driver {
	high := Where(scored, InTier(model.RiskTierHigh))

	groups := make([]Group, 0, len(drivers))
	for _, d := range drivers {
		groups = append(groups, Group{Key: d.Name, Count: len(high), Value: Lift(high, scored, d.Match)})
	}

	// Ties keep declaration order.
	ranked := stableByValue(groups)
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	out := make([]Driver, len(ranked))
	for i, g := range ranked {
		out[i] = Driver{Name: g.Key, Lift: g.Value}
	}
	return out
}
