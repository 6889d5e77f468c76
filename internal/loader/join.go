package loader

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/readiness-cli/internal/model"
	"github.com/sells-group/readiness-cli/internal/schema"
)

// join merges the three tables into one record per child row, in child
// table order.
func (l *Loader) join(t *tables) ([]model.ChildRecord, error) {
	risks, err := l.indexRisk(t.risks)
	if err != nil {
		return nil, err
	}
	programs := indexPrograms(t.participation)

	seen := make(map[string]struct{}, len(t.children))
	records := make([]model.ChildRecord, 0, len(t.children))
	for _, row := range t.children {
		dcn := row.String(schema.ColChildDCN)
		if _, dup := seen[dcn]; dup {
			return nil, eris.Wrapf(ErrDuplicateChild, "child %s (row %d)", dcn, row.Num)
		}
		seen[dcn] = struct{}{}

		rec := childFromRow(row)
		if risk, ok := risks[dcn]; ok {
			rec.Risk = risk
			if risk.MosisID != "" {
				rec.MosisID = risk.MosisID
			}
		}
		rec.Programs = programs[dcn]
		if rec.Programs == nil {
			rec.Programs = []string{}
		}
		rec.Flags = deriveFlags(rec)
		records = append(records, rec)
	}
	return records, nil
}

// indexRisk maps child id to its risk row, applying the duplicate policy.
func (l *Loader) indexRisk(rows []schema.Row) (map[string]*model.RiskScore, error) {
	idx := make(map[string]*model.RiskScore, len(rows))
	for _, row := range rows {
		dcn := row.String(schema.ColChildDCN)
		if _, dup := idx[dcn]; dup {
			if l.opts.DuplicateRisk != DuplicateFirst {
				return nil, eris.Wrapf(ErrDuplicateRisk, "child %s (row %d)", dcn, row.Num)
			}
			zap.L().Warn("loader: duplicate risk row ignored",
				zap.String("child_dcn", dcn),
				zap.Int("row", row.Num),
			)
			continue
		}
		idx[dcn] = riskFromRow(row)
	}
	return idx, nil
}

// indexPrograms maps child id to its distinct program names in first-seen order.
func indexPrograms(rows []schema.Row) map[string][]string {
	programs := make(map[string][]string)
	seen := make(map[string]map[string]struct{})
	for _, row := range rows {
		name := row.String(schema.ColProgram)
		if name == "" {
			continue
		}
		dcn := row.String(schema.ColChildDCN)
		set, ok := seen[dcn]
		if !ok {
			set = make(map[string]struct{})
			seen[dcn] = set
		}
		if _, dup := set[name]; dup {
			continue
		}
		set[name] = struct{}{}
		programs[dcn] = append(programs[dcn], name)
	}
	return programs
}

func childFromRow(row schema.Row) model.ChildRecord {
	pct, hasPct := row.Float(schema.ColPovertyPercent)
	return model.ChildRecord{
		ChildDCN:       row.String(schema.ColChildDCN),
		MosisID:        row.String(schema.ColMosisID),
		BirthDate:      row.String(schema.ColBirthDate),
		PostalCode:     row.String(schema.ColPostalCode),
		City:           row.String(schema.ColCity),
		CountyName:     row.String(schema.ColCounty),
		DistrictID:     row.String(schema.ColDistrict),
		Sex:            row.String(schema.ColSex),
		Race:           row.String(schema.ColRace),
		Language:       row.String(schema.ColLanguage),
		PovertyPercent: pct,
		PovertyKnown:   hasPct && pct >= 0,
		FamilyIncome:   row.FloatOr(schema.ColFamilyIncome),
		FamilySize:     row.IntOr(schema.ColFamilySize),

		FosterCareStartDate: row.String(schema.ColFosterStart),
		FosterCareEndDate:   row.String(schema.ColFosterEnd),

		Stressors: model.Stressors{
			Homelessness:  row.String(schema.ColHomelessness),
			Migrant:       row.String(schema.ColMigrant),
			AbuseNeglect:  row.String(schema.ColAbuseNeglect),
			Incarcerated:  row.String(schema.ColIncarcerated),
			SubstanceUse:  row.String(schema.ColSubstanceUse),
			MentalIllness: row.String(schema.ColHouseholdMentalIll),
			LossOfParent:  row.String(schema.ColLossOfParent),
		},
	}
}

func riskFromRow(row schema.Row) *model.RiskScore {
	r := &model.RiskScore{
		ChildDCN:           row.String(schema.ColChildDCN),
		MosisID:            row.String(schema.ColMosisID),
		CompositeScore:     row.FloatOr(schema.ColCompositeScore),
		Tier:               model.RiskTier(row.String(schema.ColRiskTier)),
		StabilityScore:     row.FloatOr(schema.ColStabilityScore),
		EngagementScore:    row.FloatOr(schema.ColEngagementScore),
		DevelopmentalScore: row.FloatOr(schema.ColDevelopmentalScore),
		ContextScore:       row.FloatOr(schema.ColContextScore),

		NumEnrollmentGaps:          row.IntOr(schema.ColEnrollmentGaps),
		MaxGapDays:                 row.FloatOr(schema.ColMaxGapDays),
		HasGapOver6Mo:              row.BoolOr(schema.ColGapOver6Mo),
		NumParticipationEpisodes:   row.IntOr(schema.ColEpisodes),
		TotalAttendanceDays:        row.FloatOr(schema.ColTotalAttendance),
		AvgAttendanceDays:          row.FloatOr(schema.ColAvgAttendance),
		NumScreeningsCompleted:     row.IntOr(schema.ColScreenings),
		ScreeningCompletionRate:    row.FloatOr(schema.ColScreeningRate),
		NumImmunizations:           row.IntOr(schema.ColImmunizations),
		ImmunizationComplianceRate: row.FloatOr(schema.ColImmunizationRate),
		MissedScreening:            row.BoolOr(schema.ColMissedScreening),
		HasDisability:              row.BoolOr(schema.ColHasDisability),
		HasOutcomesData:            row.BoolOr(schema.ColHasOutcomes),
		LowOutcomes:                row.BoolOr(schema.ColLowOutcomes),
		NumHouseholdStressors:      row.IntOr(schema.ColHouseholdStressorCnt),
	}
	if cos, ok := row.Float(schema.ColAvgCOSRating); ok {
		r.AvgCOSRating = &cos
	}
	return r
}

// deriveFlags computes the boolean flags. Stressor flags are set only by the
// exact string "Yes".
func deriveFlags(r model.ChildRecord) model.Flags {
	yes := func(s string) bool { return s == "Yes" }
	return model.Flags{
		Homelessness: yes(r.Stressors.Homelessness),
		Migrant:      yes(r.Stressors.Migrant),
		Abuse:        yes(r.Stressors.AbuseNeglect),
		Incarcerated: yes(r.Stressors.Incarcerated),
		Substance:    yes(r.Stressors.SubstanceUse),
		Depression:   yes(r.Stressors.MentalIllness),
		LossParent:   yes(r.Stressors.LossOfParent),
		InFosterCare: r.FosterCareStartDate != "",
		DeepPoverty:  r.PovertyKnown && r.PovertyPercent < 100,
	}
}
