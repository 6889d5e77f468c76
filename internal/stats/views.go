package stats

import (
	"cmp"
	"slices"
	"strconv"

	"github.com/sells-group/readiness-cli/internal/model"
)

// Options sets the small-sample thresholds of the ranked views.
type Options struct {
	MinCountySize     int `mapstructure:"min_county_size"`
	MinCountyTierSize int `mapstructure:"min_county_tier_size"`
	MinRegionSize     int `mapstructure:"min_region_size"`
	MinProgramSize    int `mapstructure:"min_program_size"`
	TopN              int `mapstructure:"top_n"`
	TopHighRisk       int `mapstructure:"top_high_risk"`
	TopDrivers        int `mapstructure:"top_drivers"`
}

// DefaultOptions returns the thresholds used by the dashboard.
func DefaultOptions() Options {
	return Options{
		MinCountySize:     20,
		MinCountyTierSize: 30,
		MinRegionSize:     50,
		MinProgramSize:    20,
		TopN:              15,
		TopHighRisk:       10,
		TopDrivers:        5,
	}
}

// Summary bundles every dashboard aggregate over one filtered collection.
type Summary struct {
	Overview      Overview          `json:"overview" yaml:"overview"`
	Tiers         []TierShare       `json:"tiers" yaml:"tiers"`
	Domains       DomainView        `json:"domains" yaml:"domains"`
	Poverty       []BandRisk        `json:"poverty" yaml:"poverty"`
	Participation ParticipationView `json:"participation" yaml:"participation"`
	Developmental DevelopmentalView `json:"developmental" yaml:"developmental"`
	Indicators    []IndicatorRow    `json:"indicators" yaml:"indicators"`
	Drivers       []Driver          `json:"drivers" yaml:"drivers"`
	Geography     GeographyView     `json:"geography" yaml:"geography"`
}

// Overview is the headline row. Percents are over scored records.
type Overview struct {
	Total                  int     `json:"total" yaml:"total"`
	Scored                 int     `json:"scored" yaml:"scored"`
	HighRiskPercent        float64 `json:"high_risk_percent" yaml:"high_risk_percent"`
	AvgRiskScore           float64 `json:"avg_risk_score" yaml:"avg_risk_score"`
	InstabilityPercent     float64 `json:"instability_percent" yaml:"instability_percent"`
	MissedScreeningPercent float64 `json:"missed_screening_percent" yaml:"missed_screening_percent"`
}

// TierShare is one slice of the tier distribution.
type TierShare struct {
	Tier    string  `json:"tier" yaml:"tier"`
	Count   int     `json:"count" yaml:"count"`
	Percent float64 `json:"percent" yaml:"percent"`
}

// DomainView holds the four domain subscores overall and per tier.
type DomainView struct {
	Overall []Group       `json:"overall" yaml:"overall"`
	ByTier  []TierDomains `json:"by_tier" yaml:"by_tier"`
}

// TierDomains are the mean domain subscores of one tier.
type TierDomains struct {
	Tier          string  `json:"tier" yaml:"tier"`
	Count         int     `json:"count" yaml:"count"`
	Stability     float64 `json:"stability" yaml:"stability"`
	Engagement    float64 `json:"engagement" yaml:"engagement"`
	Developmental float64 `json:"developmental" yaml:"developmental"`
	Context       float64 `json:"context" yaml:"context"`
}

// BandRisk is the mean risk and High-tier share of a poverty band.
type BandRisk struct {
	Band        string  `json:"band" yaml:"band"`
	Count       int     `json:"count" yaml:"count"`
	AvgRisk     float64 `json:"avg_risk" yaml:"avg_risk"`
	HighPercent float64 `json:"high_percent" yaml:"high_percent"`
}

// TierEngagement is the engagement profile of one tier.
type TierEngagement struct {
	Tier          string  `json:"tier" yaml:"tier"`
	Count         int     `json:"count" yaml:"count"`
	AvgScreenings float64 `json:"avg_screenings" yaml:"avg_screenings"`
	AvgAttendance float64 `json:"avg_attendance" yaml:"avg_attendance"`
	AvgGaps       float64 `json:"avg_gaps" yaml:"avg_gaps"`
}

// TierMix splits one tier into buckets.
type TierMix struct {
	Tier    string  `json:"tier" yaml:"tier"`
	Buckets []Group `json:"buckets" yaml:"buckets"`
}

// ParticipationView covers enrollment continuity and programs.
type ParticipationView struct {
	AvgGaps        float64          `json:"avg_gaps" yaml:"avg_gaps"`
	GapPercent     float64          `json:"gap_percent" yaml:"gap_percent"`
	LongGapPercent float64          `json:"long_gap_percent" yaml:"long_gap_percent"`
	AvgAttendance  float64          `json:"avg_attendance" yaml:"avg_attendance"`
	ByTier         []TierEngagement `json:"by_tier" yaml:"by_tier"`
	// Episodes holds the percent of each tier with 1, 2, 3 or 4+ episodes.
	Episodes []TierMix `json:"episodes" yaml:"episodes"`
	// AttendanceBands holds counts of average attendance days per tier.
	AttendanceBands []TierMix `json:"attendance_bands" yaml:"attendance_bands"`
	// Switching counts children with more than two episodes per tier.
	Switching []Group `json:"switching" yaml:"switching"`
	// Programs is the mean risk per program, largest first.
	Programs []Group `json:"programs" yaml:"programs"`
}

// DevelopmentalView covers screenings, immunizations and outcomes.
type DevelopmentalView struct {
	DisabilityPercent  float64 `json:"disability_percent" yaml:"disability_percent"`
	ScreeningRate      float64 `json:"screening_rate" yaml:"screening_rate"`
	ImmunizationRate   float64 `json:"immunization_rate" yaml:"immunization_rate"`
	ScreeningBuckets   []Group `json:"screening_buckets" yaml:"screening_buckets"`
	COSByTier          []Group `json:"cos_by_tier" yaml:"cos_by_tier"`
	ImmunizationByTier []Group `json:"immunization_by_tier" yaml:"immunization_by_tier"`
	DisabilityByTier   []Group `json:"disability_by_tier" yaml:"disability_by_tier"`
}

// RegionRisk is one row of the region ranking.
type RegionRisk struct {
	Region      string  `json:"region" yaml:"region"`
	Count       int     `json:"count" yaml:"count"`
	AvgRisk     float64 `json:"avg_risk" yaml:"avg_risk"`
	HighPercent float64 `json:"high_percent" yaml:"high_percent"`
}

// GeographyView ranks places and family context.
type GeographyView struct {
	Counties        []Group        `json:"counties" yaml:"counties"`
	CountyHighRisk  []Group        `json:"county_high_risk" yaml:"county_high_risk"`
	Regions         []RegionRisk   `json:"regions" yaml:"regions"`
	Stressors       []Group        `json:"stressors" yaml:"stressors"`
	StressorsByTier []IndicatorRow `json:"stressors_by_tier" yaml:"stressors_by_tier"`
}

// Summarize computes every view over records. Reductions over risk fields
// only see records with a risk row.
func Summarize(records []model.ChildRecord, opts Options) Summary {
	scored := Where(records, Scored)
	high := InTier(model.RiskTierHigh)

	return Summary{
		Overview: Overview{
			Total:                  len(records),
			Scored:                 len(scored),
			HighRiskPercent:        Prevalence(scored, high),
			AvgRiskScore:           Mean(scored, CompositeScore),
			InstabilityPercent:     Prevalence(scored, RiskPredicate(func(s *model.RiskScore) bool { return s.NumEnrollmentGaps > 0 })),
			MissedScreeningPercent: Prevalence(scored, RiskPredicate(func(s *model.RiskScore) bool { return s.NumScreeningsCompleted < 4 })),
		},
		Tiers:         tierShares(scored),
		Domains:       domainView(scored),
		Poverty:       povertyView(scored),
		Participation: participationView(scored, opts),
		Developmental: developmentalView(scored),
		Indicators:    IndicatorTable(scored, Indicators),
		Drivers:       TopDrivers(scored, RiskDrivers, opts.TopDrivers),
		Geography:     geographyView(scored, opts),
	}
}

func tierShares(scored []model.ChildRecord) []TierShare {
	out := make([]TierShare, 0, len(model.RiskTiers))
	for _, t := range model.RiskTiers {
		n := Count(scored, InTier(t))
		out = append(out, TierShare{Tier: string(t), Count: n, Percent: percent(n, len(scored))})
	}
	return out
}

func domainView(scored []model.ChildRecord) DomainView {
	v := DomainView{
		Overall: []Group{
			{Key: "Stability", Count: len(scored), Value: Mean(scored, Stability)},
			{Key: "Engagement", Count: len(scored), Value: Mean(scored, Engagement)},
			{Key: "Developmental", Count: len(scored), Value: Mean(scored, Developmental)},
			{Key: "Context", Count: len(scored), Value: Mean(scored, Context)},
		},
	}
	for _, t := range model.RiskTiers {
		members := Where(scored, InTier(t))
		v.ByTier = append(v.ByTier, TierDomains{
			Tier:          string(t),
			Count:         len(members),
			Stability:     Mean(members, Stability),
			Engagement:    Mean(members, Engagement),
			Developmental: Mean(members, Developmental),
			Context:       Mean(members, Context),
		})
	}
	return v
}

func povertyView(scored []model.ChildRecord) []BandRisk {
	avg := MeanBy(scored, ByPovertyBand, CompositeScore, PovertyKeys()...)
	highPct := PrevalenceBy(scored, ByPovertyBand, InTier(model.RiskTierHigh), PovertyKeys()...)

	out := make([]BandRisk, len(avg))
	for i := range avg {
		out[i] = BandRisk{
			Band:        avg[i].Key,
			Count:       avg[i].Count,
			AvgRisk:     avg[i].Value,
			HighPercent: highPct[i].Value,
		}
	}
	return out
}

var (
	episodeKeys    = []string{"1", "2", "3", "4+"}
	attendanceKeys = []string{"<50", "50-100", "100-150", "150+"}
	screeningKeys  = []string{"0-2", "3-4", "5-6"}
	stressorKeys   = []string{"0", "1", "2", "3", "4+"}
)

func episodeBucket(r model.ChildRecord) (string, bool) {
	if r.Risk == nil {
		return "", false
	}
	switch n := r.Risk.NumParticipationEpisodes; {
	case n <= 1:
		return "1", true
	case n >= 4:
		return "4+", true
	default:
		return strconv.Itoa(n), true
	}
}

func attendanceBucket(r model.ChildRecord) (string, bool) {
	if r.Risk == nil {
		return "", false
	}
	switch d := r.Risk.AvgAttendanceDays; {
	case d < 50:
		return "<50", true
	case d < 100:
		return "50-100", true
	case d < 150:
		return "100-150", true
	default:
		return "150+", true
	}
}

func screeningBucket(r model.ChildRecord) (string, bool) {
	if r.Risk == nil {
		return "", false
	}
	switch n := r.Risk.NumScreeningsCompleted; {
	case n <= 2:
		return "0-2", true
	case n <= 4:
		return "3-4", true
	default:
		return "5-6", true
	}
}

func stressorBucket(r model.ChildRecord) (string, bool) {
	if r.Risk == nil {
		return "", false
	}
	if n := r.Risk.NumHouseholdStressors; n < 4 {
		return strconv.Itoa(max(n, 0)), true
	}
	return "4+", true
}

func all(model.ChildRecord) bool { return true }

func participationView(scored []model.ChildRecord, opts Options) ParticipationView {
	v := ParticipationView{
		AvgGaps:        Mean(scored, EnrollmentGaps),
		GapPercent:     Prevalence(scored, RiskPredicate(func(s *model.RiskScore) bool { return s.NumEnrollmentGaps > 0 })),
		LongGapPercent: Prevalence(scored, RiskPredicate(func(s *model.RiskScore) bool { return s.HasGapOver6Mo })),
		AvgAttendance:  Mean(scored, Attendance),
		Switching: CountBy(scored, ByTier, RiskPredicate(func(s *model.RiskScore) bool {
			return s.NumParticipationEpisodes > 2
		}), TierKeys...),
		Programs: programRisk(scored, opts.MinProgramSize),
	}

	for _, t := range model.RiskTiers {
		members := Where(scored, InTier(t))
		v.ByTier = append(v.ByTier, TierEngagement{
			Tier:          string(t),
			Count:         len(members),
			AvgScreenings: Mean(members, Screenings),
			AvgAttendance: Mean(members, Attendance),
			AvgGaps:       Mean(members, EnrollmentGaps),
		})

		episodes := CountBy(members, episodeBucket, all, episodeKeys...)
		for i := range episodes {
			episodes[i].Value = percent(episodes[i].Count, len(members))
		}
		v.Episodes = append(v.Episodes, TierMix{Tier: string(t), Buckets: episodes})
		v.AttendanceBands = append(v.AttendanceBands, TierMix{
			Tier:    string(t),
			Buckets: CountBy(members, attendanceBucket, all, attendanceKeys...),
		})
	}
	return v
}

// programRisk averages risk per enrolled program. A child in several
// programs counts toward each.
func programRisk(scored []model.ChildRecord, minSize int) []Group {
	var order []string
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, r := range scored {
		for _, p := range r.Programs {
			if _, seen := counts[p]; !seen {
				order = append(order, p)
			}
			counts[p]++
			sums[p] += r.Risk.CompositeScore
		}
	}

	groups := make([]Group, 0, len(order))
	for _, p := range order {
		groups = append(groups, Group{Key: p, Count: counts[p], Value: sums[p] / float64(counts[p])})
	}
	return TopGroups(groups, minSize, 0)
}

func developmentalView(scored []model.ChildRecord) DevelopmentalView {
	disability := RiskPredicate(func(s *model.RiskScore) bool { return s.HasDisability })
	return DevelopmentalView{
		DisabilityPercent:  Prevalence(scored, disability),
		ScreeningRate:      Mean(scored, ScreeningRate),
		ImmunizationRate:   Mean(scored, Immunization),
		ScreeningBuckets:   CountBy(scored, screeningBucket, all, screeningKeys...),
		COSByTier:          MeanBy(scored, ByTier, COSRating, TierKeys...),
		ImmunizationByTier: MeanBy(scored, ByTier, Immunization, TierKeys...),
		DisabilityByTier:   PrevalenceBy(scored, ByTier, disability, TierKeys...),
	}
}

func geographyView(scored []model.ChildRecord, opts Options) GeographyView {
	high := InTier(model.RiskTierHigh)
	return GeographyView{
		Counties:        TopGroups(MeanBy(scored, ByCounty, CompositeScore), opts.MinCountySize, opts.TopN),
		CountyHighRisk:  TopGroups(PrevalenceBy(scored, ByCounty, high), opts.MinCountyTierSize, opts.TopHighRisk),
		Regions:         regionRisk(scored, opts.MinRegionSize),
		Stressors:       MeanBy(scored, stressorBucket, CompositeScore, stressorKeys...),
		StressorsByTier: IndicatorTable(scored, ContextIndicators),
	}
}

func regionRisk(scored []model.ChildRecord, minSize int) []RegionRisk {
	avg := MeanBy(scored, ByRegion, CompositeScore)
	highPct := PrevalenceBy(scored, ByRegion, InTier(model.RiskTierHigh))

	out := make([]RegionRisk, 0, len(avg))
	for i, g := range avg {
		if g.Count < minSize {
			continue
		}
		out = append(out, RegionRisk{Region: g.Key, Count: g.Count, AvgRisk: g.Value, HighPercent: highPct[i].Value})
	}
	slices.SortStableFunc(out, func(a, b RegionRisk) int {
		if c := cmp.Compare(b.AvgRisk, a.AvgRisk); c != 0 {
			return c
		}
		return cmp.Compare(a.Region, b.Region)
	})
	return out
}
