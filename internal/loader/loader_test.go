package loader

import (
	"archive/zip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/readiness-cli/internal/fetcher"
	"github.com/sells-group/readiness-cli/internal/model"
	"github.com/sells-group/readiness-cli/internal/schema"
)

const childCSV = `Child DCN,Child MOSIS ID,AddressCountyName,ResponsibleOrganizationIdentifier,PercentOfFederalPovertyLevel,HomelessnessStatus,MigrantStatus,ChildAbuseNeglect,FamilyMemberIncarcerated,FamilyMemberSubstanceUseAbuse,HouseholdMemberDepressedOrMentallyIll,LossOfParent,FosterCareStartDate
0000000001,M1,Boone,010093,99.9,Yes,No,,No,No,No,No,
0000000002,M2,Cole,026006,100,yes,Yes,Yes,Yes,Yes,Yes,Yes,2021-05-01
0000000003,M3,Boone,010093,,No,No,No,No,No,No,No,
`

const riskCSV = `Child DCN,Child MOSIS ID,composite_risk_score,risk_tier,stability_score,engagement_score,developmental_score,context_score,num_enrollment_gaps,has_gap_over_6mo,num_screenings_completed,avg_attendance_days,avg_cos_rating,num_household_stressors
0000000001,M1-R,42.36,Moderate,40.1,50.2,30.3,20.4,2.0,True,3,75.5,,1
0000000003,,81.2,High,80,85,70,90,0,False,6,120,3.5,3
`

const participationCSV = `Child DCN,RefProgramType.Description
0000000001,Head Start
0000000001,Head Start
0000000002,Early Intervention
`

func writeSource(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func defaultFiles() map[string]string {
	return map[string]string{
		DefaultChildFile:         childCSV,
		DefaultRiskFile:          riskCSV,
		DefaultParticipationFile: participationCSV,
	}
}

func newTestLoader(source string, opts Options) *Loader {
	opts.Source = source
	return New(fetcher.NewRouter(fetcher.RouterOptions{}), opts)
}

func byDCN(t *testing.T, records []model.ChildRecord) map[string]model.ChildRecord {
	t.Helper()
	out := make(map[string]model.ChildRecord, len(records))
	for _, r := range records {
		_, dup := out[r.ChildDCN]
		require.False(t, dup, "duplicate %s in merged collection", r.ChildDCN)
		out[r.ChildDCN] = r
	}
	return out
}

func TestLoad_BasicJoin(t *testing.T) {
	dir := writeSource(t, defaultFiles())

	snap, err := newTestLoader(dir, Options{}).Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, snap.Len())

	res := snap.Result()
	assert.Equal(t, 3, res.Children)
	assert.Equal(t, 2, res.RiskRows)
	assert.Equal(t, 3, res.ParticipationRows)
	assert.Equal(t, 3, res.Records)
	assert.Empty(t, res.Degraded)

	recs := snap.Records()
	assert.Equal(t, []string{"0000000001", "0000000002", "0000000003"},
		[]string{recs[0].ChildDCN, recs[1].ChildDCN, recs[2].ChildDCN}, "child table order kept")

	m := byDCN(t, recs)

	c1 := m["0000000001"]
	assert.Equal(t, []string{"Head Start"}, c1.Programs)
	require.True(t, c1.HasRisk())
	assert.InDelta(t, 42.36, c1.Risk.CompositeScore, 1e-9)
	assert.Equal(t, model.RiskTierModerate, c1.Risk.Tier)
	assert.Equal(t, 2, c1.Risk.NumEnrollmentGaps, "integral float counts accepted")
	assert.True(t, c1.Risk.HasGapOver6Mo)
	assert.Nil(t, c1.Risk.AvgCOSRating)
	assert.Equal(t, "M1-R", c1.MosisID, "risk fields win on collision")

	c2 := m["0000000002"]
	assert.False(t, c2.HasRisk())
	assert.Equal(t, []string{"Early Intervention"}, c2.Programs)

	c3 := m["0000000003"]
	assert.Equal(t, []string{}, c3.Programs)
	require.True(t, c3.HasRisk())
	require.NotNil(t, c3.Risk.AvgCOSRating)
	assert.InDelta(t, 3.5, *c3.Risk.AvgCOSRating, 1e-9)
	assert.Equal(t, "M3", c3.MosisID, "blank risk id keeps child id")
}

func TestLoad_Flags(t *testing.T) {
	dir := writeSource(t, defaultFiles())

	snap, err := newTestLoader(dir, Options{}).Load(context.Background())
	require.NoError(t, err)
	m := byDCN(t, snap.Records())

	c1 := m["0000000001"].Flags
	assert.True(t, c1.Homelessness)
	assert.False(t, c1.Migrant)
	assert.False(t, c1.Abuse, "blank is not Yes")
	assert.False(t, c1.InFosterCare)
	assert.True(t, c1.DeepPoverty, "99.9 < 100")

	c2 := m["0000000002"].Flags
	assert.False(t, c2.Homelessness, "lowercase yes is not Yes")
	assert.True(t, c2.Migrant)
	assert.True(t, c2.Abuse)
	assert.True(t, c2.Incarcerated)
	assert.True(t, c2.Substance)
	assert.True(t, c2.Depression)
	assert.True(t, c2.LossParent)
	assert.True(t, c2.InFosterCare)
	assert.False(t, c2.DeepPoverty, "100 is not deep poverty")

	c3 := m["0000000003"]
	assert.False(t, c3.PovertyKnown)
	assert.False(t, c3.Flags.DeepPoverty, "missing poverty is never deep poverty")
	assert.Equal(t, model.PovertyUnknown, c3.PovertyBand())
}

func TestLoad_NegativePovertyIsUnknown(t *testing.T) {
	files := defaultFiles()
	files[DefaultChildFile] = "Child DCN,AddressCountyName,ResponsibleOrganizationIdentifier,PercentOfFederalPovertyLevel\n0000000009,Boone,010093,-5\n"
	dir := writeSource(t, files)

	snap, err := newTestLoader(dir, Options{}).Load(context.Background())
	require.NoError(t, err)
	r := snap.Records()[0]
	assert.False(t, r.PovertyKnown)
	assert.False(t, r.Flags.DeepPoverty)
	assert.Equal(t, model.PovertyUnknown, r.PovertyBand())
}

func TestLoad_BlankLinesSkipped(t *testing.T) {
	files := defaultFiles()
	files[DefaultParticipationFile] = "\nChild DCN,RefProgramType.Description\n\n,\n0000000003,Parents as Teachers\n\n"
	dir := writeSource(t, files)

	snap, err := newTestLoader(dir, Options{}).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Result().ParticipationRows)
	assert.Equal(t, []string{"Parents as Teachers"}, byDCN(t, snap.Records())["0000000003"].Programs)
}

func TestLoad_DuplicateRisk(t *testing.T) {
	files := defaultFiles()
	files[DefaultRiskFile] = riskCSV + "0000000001,,10,Low,,,,,,,,,,\n"
	dir := writeSource(t, files)

	t.Run("reject", func(t *testing.T) {
		snap, err := newTestLoader(dir, Options{}).Load(context.Background())
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrDuplicateRisk))
		assert.True(t, snap.IsEmpty())
	})

	t.Run("first wins", func(t *testing.T) {
		snap, err := newTestLoader(dir, Options{DuplicateRisk: DuplicateFirst}).Load(context.Background())
		require.NoError(t, err)
		c1 := byDCN(t, snap.Records())["0000000001"]
		assert.Equal(t, model.RiskTierModerate, c1.Risk.Tier)
	})
}

func TestLoad_DuplicateChild(t *testing.T) {
	files := defaultFiles()
	files[DefaultChildFile] = childCSV + "0000000002,M2,Cole,026006,150,No,No,No,No,No,No,No,\n"
	dir := writeSource(t, files)

	snap, err := newTestLoader(dir, Options{DuplicateRisk: DuplicateFirst}).Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateChild))
	assert.True(t, snap.IsEmpty())
}

func TestLoad_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(files map[string]string)
		check  func(t *testing.T, err error)
	}{
		{
			name:   "missing risk file",
			mutate: func(f map[string]string) { delete(f, DefaultRiskFile) },
			check: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "risk")
			},
		},
		{
			name:   "missing participation file",
			mutate: func(f map[string]string) { delete(f, DefaultParticipationFile) },
			check: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "participation")
			},
		},
		{
			name: "missing required column",
			mutate: func(f map[string]string) {
				f[DefaultChildFile] = "Child DCN,AddressCountyName\n0000000001,Boone\n"
			},
			check: func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, schema.ErrMissingColumn))
			},
		},
		{
			name: "bad tier value",
			mutate: func(f map[string]string) {
				f[DefaultRiskFile] = "Child DCN,composite_risk_score,risk_tier\n0000000001,50,Severe\n"
			},
			check: func(t *testing.T, err error) {
				var te *schema.TypeError
				require.True(t, errors.As(err, &te))
				assert.Equal(t, schema.ColRiskTier, te.Column)
				assert.Equal(t, 1, te.Row)
			},
		},
		{
			name: "non-numeric score",
			mutate: func(f map[string]string) {
				f[DefaultRiskFile] = "Child DCN,composite_risk_score,risk_tier\n0000000001,high,High\n"
			},
			check: func(t *testing.T, err error) {
				var te *schema.TypeError
				require.True(t, errors.As(err, &te))
				assert.Equal(t, schema.ColCompositeScore, te.Column)
			},
		},
		{
			name: "blank score",
			mutate: func(f map[string]string) {
				f[DefaultRiskFile] = "Child DCN,composite_risk_score,risk_tier\n0000000003,80,High\n0000000001,,\n"
			},
			check: func(t *testing.T, err error) {
				var te *schema.TypeError
				require.True(t, errors.As(err, &te))
				assert.Equal(t, schema.ColCompositeScore, te.Column)
				assert.Equal(t, 2, te.Row)
			},
		},
		{
			name: "blank tier",
			mutate: func(f map[string]string) {
				f[DefaultRiskFile] = "Child DCN,composite_risk_score,risk_tier\n0000000001,42,\n"
			},
			check: func(t *testing.T, err error) {
				var te *schema.TypeError
				require.True(t, errors.As(err, &te))
				assert.Equal(t, schema.ColRiskTier, te.Column)
			},
		},
		{
			name: "NaN score",
			mutate: func(f map[string]string) {
				f[DefaultRiskFile] = "Child DCN,composite_risk_score,risk_tier\n0000000001,NaN,High\n"
			},
			check: func(t *testing.T, err error) {
				var te *schema.TypeError
				require.True(t, errors.As(err, &te))
				assert.Equal(t, schema.ColCompositeScore, te.Column)
			},
		},
		{
			name:   "empty child file",
			mutate: func(f map[string]string) { f[DefaultChildFile] = "\n\n" },
			check: func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, schema.ErrNoHeader))
			},
		},
		{
			name: "malformed csv",
			mutate: func(f map[string]string) {
				f[DefaultParticipationFile] = "Child DCN,RefProgramType.Description\n0000000001,\"Head Start\n"
			},
			check: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "csv")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := defaultFiles()
			tt.mutate(files)
			dir := writeSource(t, files)

			snap, err := newTestLoader(dir, Options{}).Load(context.Background())
			require.Error(t, err)
			assert.True(t, snap.IsEmpty(), "failed load exposes no records")
			tt.check(t, err)
		})
	}
}

func TestLoad_PartialLoad(t *testing.T) {
	t.Run("participation failure degrades", func(t *testing.T) {
		files := defaultFiles()
		delete(files, DefaultParticipationFile)
		dir := writeSource(t, files)

		snap, err := newTestLoader(dir, Options{PartialLoad: true}).Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 3, snap.Len())
		assert.Equal(t, []string{"participation"}, snap.Degraded())
		for _, r := range snap.Records() {
			assert.Empty(t, r.Programs)
		}
	})

	t.Run("risk failure still aborts", func(t *testing.T) {
		files := defaultFiles()
		delete(files, DefaultRiskFile)
		dir := writeSource(t, files)

		snap, err := newTestLoader(dir, Options{PartialLoad: true}).Load(context.Background())
		require.Error(t, err)
		assert.True(t, snap.IsEmpty())
	})
}

func TestLoad_HTTPSource(t *testing.T) {
	files := defaultFiles()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := files[filepath.Base(r.URL.Path)]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	snap, err := newTestLoader(srv.URL+"/exports", Options{}).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, snap.Len())
}

func TestLoad_ZipBundle(t *testing.T) {
	zipPath := filepath.Join(t.TempDir(), "cohort.zip")
	out, err := os.Create(zipPath)
	require.NoError(t, err)
	w := zip.NewWriter(out)
	for name, content := range defaultFiles() {
		fw, err := w.Create("export/" + name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, out.Close())

	snap, err := newTestLoader(zipPath, Options{}).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, snap.Len())
}

func TestLoad_XLSXChildFile(t *testing.T) {
	files := defaultFiles()
	delete(files, DefaultChildFile)
	dir := writeSource(t, files)

	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Child")
	require.NoError(t, err)
	for _, cells := range [][]string{
		{"Child DCN", "AddressCountyName", "ResponsibleOrganizationIdentifier", "PercentOfFederalPovertyLevel"},
		{"0000000001", "Boone", "010093", "85"},
		{"0000000003", "Boone", "010093", "320"},
	} {
		row := sheet.AddRow()
		for _, c := range cells {
			row.AddCell().SetString(c)
		}
	}
	require.NoError(t, f.Save(filepath.Join(dir, "Child.xlsx")))

	snap, err := newTestLoader(dir, Options{ChildFile: "Child.xlsx"}).Load(context.Background())
	require.NoError(t, err)
	m := byDCN(t, snap.Records())
	require.Len(t, m, 2)
	assert.True(t, m["0000000001"].Flags.DeepPoverty)
	assert.Equal(t, model.PovertyHigher, m["0000000003"].PovertyBand())
}

func TestLoad_ContextCancelled(t *testing.T) {
	dir := writeSource(t, defaultFiles())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	snap, err := newTestLoader(dir, Options{}).Load(ctx)
	require.Error(t, err)
	assert.True(t, snap.IsEmpty())
}

type fakeRecorder struct {
	created   []string
	completed map[string]*model.LoadResult
	failed    map[string]string
	createErr error
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{completed: map[string]*model.LoadResult{}, failed: map[string]string{}}
}

func (f *fakeRecorder) CreateLoadRun(_ context.Context, source string) (*model.LoadRun, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, source)
	return &model.LoadRun{ID: "run-1", Source: source, Status: model.LoadStatusRunning}, nil
}

func (f *fakeRecorder) CompleteLoadRun(_ context.Context, runID string, result *model.LoadResult) error {
	f.completed[runID] = result
	return nil
}

func (f *fakeRecorder) FailLoadRun(_ context.Context, runID string, errMsg string) error {
	f.failed[runID] = errMsg
	return nil
}

func TestLoadAndRecord(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		dir := writeSource(t, defaultFiles())
		rec := newFakeRecorder()

		snap, run, err := newTestLoader(dir, Options{}).LoadAndRecord(context.Background(), rec)
		require.NoError(t, err)
		assert.Equal(t, 3, snap.Len())
		assert.Equal(t, []string{dir}, rec.created)
		require.NotNil(t, rec.completed["run-1"])
		assert.Equal(t, 3, rec.completed["run-1"].Records)
		assert.Equal(t, model.LoadStatusComplete, run.Status)
	})

	t.Run("failure", func(t *testing.T) {
		dir := writeSource(t, map[string]string{DefaultChildFile: childCSV})
		rec := newFakeRecorder()

		_, run, err := newTestLoader(dir, Options{}).LoadAndRecord(context.Background(), rec)
		require.Error(t, err)
		assert.NotEmpty(t, rec.failed["run-1"])
		assert.Equal(t, model.LoadStatusFailed, run.Status)
	})

	t.Run("audit unavailable", func(t *testing.T) {
		dir := writeSource(t, defaultFiles())
		rec := newFakeRecorder()
		rec.createErr = errors.New("database locked")

		snap, run, err := newTestLoader(dir, Options{}).LoadAndRecord(context.Background(), rec)
		require.NoError(t, err)
		assert.Nil(t, run)
		assert.Equal(t, 3, snap.Len())
	})

	t.Run("nil recorder", func(t *testing.T) {
		dir := writeSource(t, defaultFiles())
		snap, run, err := newTestLoader(dir, Options{}).LoadAndRecord(context.Background(), nil)
		require.NoError(t, err)
		assert.Nil(t, run)
		assert.Equal(t, 3, snap.Len())
	})
}
