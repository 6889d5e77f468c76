package schema

// Column names shared by the three source tables.
const (
	ColChildDCN = "Child DCN"
	ColMosisID  = "Child MOSIS ID"
)

// Child attribute columns.
const (
	ColBirthDate          = "BirthDate"
	ColPostalCode         = "PostalCode"
	ColCounty             = "AddressCountyName"
	ColCity               = "City"
	ColDistrict           = "ResponsibleOrganizationIdentifier"
	ColSex                = "RefSex.Description"
	ColRace               = "RefRace.Description"
	ColLanguage           = "RefLanguage.Description"
	ColHomelessness       = "HomelessnessStatus"
	ColMigrant            = "MigrantStatus"
	ColAbuseNeglect       = "ChildAbuseNeglect"
	ColFosterStart        = "FosterCareStartDate"
	ColFosterEnd          = "FosterCareEndDate"
	ColIncarcerated       = "FamilyMemberIncarcerated"
	ColSubstanceUse       = "FamilyMemberSubstanceUseAbuse"
	ColLossOfParent       = "LossOfParent"
	ColPovertyPercent     = "PercentOfFederalPovertyLevel"
	ColFamilyIncome       = "FamilyIncome"
	ColFamilySize         = "NumberOfPeopleInFamily"
	ColHouseholdMentalIll = "HouseholdMemberDepressedOrMentallyIll"
)

// Risk-score columns.
const (
	ColCompositeScore       = "composite_risk_score"
	ColRiskTier             = "risk_tier"
	ColStabilityScore       = "stability_score"
	ColEngagementScore      = "engagement_score"
	ColDevelopmentalScore   = "developmental_score"
	ColContextScore         = "context_score"
	ColEnrollmentGaps       = "num_enrollment_gaps"
	ColMaxGapDays           = "max_gap_days"
	ColGapOver6Mo           = "has_gap_over_6mo"
	ColEpisodes             = "num_participation_episodes"
	ColTotalAttendance      = "total_attendance_days"
	ColAvgAttendance        = "avg_attendance_days"
	ColScreenings           = "num_screenings_completed"
	ColScreeningRate        = "screening_completion_rate"
	ColImmunizations        = "num_immunizations"
	ColImmunizationRate     = "immunization_compliance_rate"
	ColMissedScreening      = "missed_screening"
	ColHasDisability        = "has_disability"
	ColHasOutcomes          = "has_outcomes_data"
	ColAvgCOSRating         = "avg_cos_rating"
	ColLowOutcomes          = "low_outcomes"
	ColHouseholdStressorCnt = "num_household_stressors"
)

// Participation columns.
const (
	ColProgram = "RefProgramType.Description"
)

// ChildTable is the child-attributes table (Child.csv).
var ChildTable = &Table{
	Name: "child",
	Columns: []Column{
		{Name: ColChildDCN, Kind: String, Required: true, NotBlank: true},
		{Name: ColMosisID, Kind: String},
		{Name: ColBirthDate, Kind: String},
		{Name: ColPostalCode, Kind: String},
		{Name: ColCounty, Kind: String, Required: true},
		{Name: ColCity, Kind: String},
		{Name: ColDistrict, Kind: String, Required: true},
		{Name: ColSex, Kind: String},
		{Name: ColRace, Kind: String},
		{Name: ColLanguage, Kind: String},
		{Name: ColHomelessness, Kind: String},
		{Name: ColMigrant, Kind: String},
		{Name: ColAbuseNeglect, Kind: String},
		{Name: ColFosterStart, Kind: String},
		{Name: ColFosterEnd, Kind: String},
		{Name: ColIncarcerated, Kind: String},
		{Name: ColSubstanceUse, Kind: String},
		{Name: ColLossOfParent, Kind: String},
		{Name: ColPovertyPercent, Kind: Float, Required: true},
		{Name: ColFamilyIncome, Kind: Float},
		{Name: ColFamilySize, Kind: Int},
		{Name: ColHouseholdMentalIll, Kind: String},
	},
}

// RiskTable is the precomputed risk-score table (risk_scores.csv).
var RiskTable = &Table{
	Name: "risk",
	Columns: []Column{
		{Name: ColChildDCN, Kind: String, Required: true, NotBlank: true},
		{Name: ColMosisID, Kind: String},
		{Name: ColCompositeScore, Kind: Float, Required: true, NotBlank: true},
		{Name: ColRiskTier, Kind: Enum, Required: true, NotBlank: true, Allowed: []string{"Low", "Moderate", "High"}},
		{Name: ColStabilityScore, Kind: Float},
		{Name: ColEngagementScore, Kind: Float},
		{Name: ColDevelopmentalScore, Kind: Float},
		{Name: ColContextScore, Kind: Float},
		{Name: ColEnrollmentGaps, Kind: Int},
		{Name: ColMaxGapDays, Kind: Float},
		{Name: ColGapOver6Mo, Kind: Bool},
		{Name: ColEpisodes, Kind: Int},
		{Name: ColTotalAttendance, Kind: Float},
		{Name: ColAvgAttendance, Kind: Float},
		{Name: ColScreenings, Kind: Int},
		{Name: ColScreeningRate, Kind: Float},
		{Name: ColImmunizations, Kind: Int},
		{Name: ColImmunizationRate, Kind: Float},
		{Name: ColMissedScreening, Kind: Bool},
		{Name: ColHasDisability, Kind: Bool},
		{Name: ColHasOutcomes, Kind: Bool},
		{Name: ColAvgCOSRating, Kind: Float},
		{Name: ColLowOutcomes, Kind: Bool},
		{Name: ColHouseholdStressorCnt, Kind: Int},
	},
}

// ParticipationTable is the enrollment-episode table (ChildParticipation.csv).
var ParticipationTable = &Table{
	Name: "participation",
	Columns: []Column{
		{Name: ColChildDCN, Kind: String, Required: true, NotBlank: true},
		{Name: ColProgram, Kind: String, Required: true},
	},
}
