// Package model defines the merged child record, filter criteria, and load run types.
package model

// RiskTier is the upstream bucket of the composite risk score.
type RiskTier string

const (
	RiskTierLow      RiskTier = "Low"
	RiskTierModerate RiskTier = "Moderate"
	RiskTierHigh     RiskTier = "High"
)

// RiskTiers lists the tiers in ascending order of severity.
var RiskTiers = []RiskTier{RiskTierLow, RiskTierModerate, RiskTierHigh}

// Rank orders tiers by severity. Unknown tiers rank 0.
func (t RiskTier) Rank() int {
	switch t {
	case RiskTierLow:
		return 1
	case RiskTierModerate:
		return 2
	case RiskTierHigh:
		return 3
	}
	return 0
}

// Stressors holds the raw household-stressor fields exactly as they appear in
// the child attributes table ("Yes", "No" or empty).
type Stressors struct {
	Homelessness  string `json:"homelessness_status"`
	Migrant       string `json:"migrant_status"`
	AbuseNeglect  string `json:"child_abuse_neglect"`
	Incarcerated  string `json:"family_member_incarcerated"`
	SubstanceUse  string `json:"family_member_substance_use"`
	MentalIllness string `json:"household_member_mentally_ill"`
	LossOfParent  string `json:"loss_of_parent"`
}

// Flags are derived once at load time and never recomputed downstream.
type Flags struct {
	Homelessness bool `json:"homelessness_flag"`
	Migrant      bool `json:"migrant_flag"`
	Abuse        bool `json:"abuse_flag"`
	Incarcerated bool `json:"incarcerated_flag"`
	Substance    bool `json:"substance_flag"`
	Depression   bool `json:"depression_flag"`
	LossParent   bool `json:"loss_parent_flag"`
	InFosterCare bool `json:"in_foster_care"`
	DeepPoverty  bool `json:"deep_poverty"`
}

// RiskScore is one row of the precomputed risk-score table.
type RiskScore struct {
	ChildDCN string `json:"-"`
	MosisID  string `json:"-"`

	CompositeScore     float64  `json:"composite_risk_score"`
	Tier               RiskTier `json:"risk_tier"`
	StabilityScore     float64  `json:"stability_score"`
	EngagementScore    float64  `json:"engagement_score"`
	DevelopmentalScore float64  `json:"developmental_score"`
	ContextScore       float64  `json:"context_score"`

	NumEnrollmentGaps          int      `json:"num_enrollment_gaps"`
	MaxGapDays                 float64  `json:"max_gap_days"`
	HasGapOver6Mo              bool     `json:"has_gap_over_6mo"`
	NumParticipationEpisodes   int      `json:"num_participation_episodes"`
	TotalAttendanceDays        float64  `json:"total_attendance_days"`
	AvgAttendanceDays          float64  `json:"avg_attendance_days"`
	NumScreeningsCompleted     int      `json:"num_screenings_completed"`
	ScreeningCompletionRate    float64  `json:"screening_completion_rate"`
	NumImmunizations           int      `json:"num_immunizations"`
	ImmunizationComplianceRate float64  `json:"immunization_compliance_rate"`
	MissedScreening            bool     `json:"missed_screening"`
	HasDisability              bool     `json:"has_disability"`
	HasOutcomesData            bool     `json:"has_outcomes_data"`
	AvgCOSRating               *float64 `json:"avg_cos_rating"`
	LowOutcomes                bool     `json:"low_outcomes"`
	NumHouseholdStressors      int      `json:"num_household_stressors"`
}

// ChildRecord is one merged child: attributes, risk fields (nil when the
// risk-score table has no row for the child), distinct programs, and flags.
type ChildRecord struct {
	ChildDCN   string `json:"child_dcn"`
	MosisID    string `json:"child_mosis_id"`
	BirthDate  string `json:"birth_date"`
	PostalCode string `json:"postal_code"`
	City       string `json:"city"`
	CountyName string `json:"county_name"`
	DistrictID string `json:"district_id"`
	Sex        string `json:"sex"`
	Race       string `json:"race"`
	Language   string `json:"language"`

	// PovertyKnown is false when the percent was blank or negative.
	PovertyPercent float64 `json:"poverty_percent"`
	PovertyKnown   bool    `json:"poverty_known"`
	FamilyIncome   float64 `json:"family_income"`
	FamilySize     int     `json:"family_size"`

	FosterCareStartDate string `json:"foster_care_start_date"`
	FosterCareEndDate   string `json:"foster_care_end_date"`

	Stressors Stressors  `json:"stressors"`
	Risk      *RiskScore `json:"risk,omitempty"`
	Programs  []string   `json:"programs_list"`
	Flags     Flags      `json:"flags"`
}

// HasRisk reports whether a risk-score row was joined onto the record.
func (c ChildRecord) HasRisk() bool {
	return c.Risk != nil
}

// Tier returns the joined risk tier, or "" when there is no risk row.
func (c ChildRecord) Tier() RiskTier {
	if c.Risk == nil {
		return ""
	}
	return c.Risk.Tier
}

// PovertyBand returns the band the record falls in.
func (c ChildRecord) PovertyBand() PovertyBand {
	return BandFor(c.PovertyPercent, c.PovertyKnown)
}
