package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/readiness-cli/internal/cohort"
	"github.com/sells-group/readiness-cli/internal/config"
	"github.com/sells-group/readiness-cli/internal/export"
	"github.com/sells-group/readiness-cli/internal/loader"
	"github.com/sells-group/readiness-cli/internal/model"
	"github.com/sells-group/readiness-cli/internal/store"
)

const (
	fixtureChild = "Child DCN,AddressCountyName,ResponsibleOrganizationIdentifier,PercentOfFederalPovertyLevel,HomelessnessStatus\n" +
		"0000000001,Boone,010093,80,Yes\n" +
		"0000000002,Cole,026006,210,No\n" +
		"0000000003,Boone,010093,150,\n"
	fixtureRisk = "Child DCN,composite_risk_score,risk_tier,stability_score\n" +
		"0000000001,72.5,High,70\n" +
		"0000000002,45,Moderate,40\n"
	fixtureParticipation = "Child DCN,RefProgramType.Description\n" +
		"0000000001,Head Start\n" +
		"0000000001,Head Start\n"
)

func writeFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range map[string]string{
		loader.DefaultChildFile:         fixtureChild,
		loader.DefaultRiskFile:          fixtureRisk,
		loader.DefaultParticipationFile: fixtureParticipation,
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

// useConfig installs a config for source with a throwaway SQLite audit log.
func useConfig(t *testing.T, source string) *config.Config {
	t.Helper()
	c := &config.Config{}
	c.Data = config.DataConfig{
		Source:              source,
		DuplicateRiskPolicy: "reject",
		TimeoutSecs:         5,
		MaxRetries:          1,
	}
	c.Store = config.StoreConfig{Driver: "sqlite", DatabaseURL: filepath.Join(t.TempDir(), "runs.db")}
	c.Stats = config.StatsConfig{MinCountySize: 1, MinRegionSize: 1, MinProgramSize: 1, TopN: 15, TopHighRisk: 10, TopDrivers: 5}
	c.Simulation = config.SimulationConfig{SampleSize: 10, Share: 0.2, Reduction: 0.2, CostPerChild: 3000, BenefitPerChild: 8000}
	c.Monitoring = config.MonitoringConfig{FailureRateThreshold: 0.25, StaleAfterHours: 48, LookbackWindowHours: 24}

	prev := cfg
	cfg = c
	t.Cleanup(func() { cfg = prev })
	return c
}

func listRuns(t *testing.T) []model.LoadRun {
	t.Helper()
	st, err := initStore(context.Background(), cfg.Store)
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck
	runs, err := st.ListLoadRuns(context.Background(), store.RunFilter{})
	require.NoError(t, err)
	return runs
}

func TestLoadCohort_RecordsRun(t *testing.T) {
	useConfig(t, writeFixture(t))

	snap, run, err := loadCohort(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, snap.Len())
	require.NotNil(t, run)
	assert.Equal(t, model.LoadStatusComplete, run.Status)

	runs := listRuns(t)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
	require.NotNil(t, runs[0].Result)
	assert.Equal(t, 3, runs[0].Result.Records)
}

func TestLoadCohort_FailureRecorded(t *testing.T) {
	useConfig(t, filepath.Join(t.TempDir(), "missing"))

	snap, run, err := loadCohort(context.Background())
	require.Error(t, err)
	assert.True(t, snap.IsEmpty())
	require.NotNil(t, run)
	assert.Equal(t, model.LoadStatusFailed, run.Status)

	runs := listRuns(t)
	require.Len(t, runs, 1)
	assert.Equal(t, model.LoadStatusFailed, runs[0].Status)
	assert.NotEmpty(t, runs[0].Error)
}

func TestLoadCohort_StoreNone(t *testing.T) {
	c := useConfig(t, writeFixture(t))
	c.Store = config.StoreConfig{Driver: "none"}

	snap, run, err := loadCohort(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, snap.Len())
	assert.Nil(t, run)
}

func TestLoadCohort_InvalidConfig(t *testing.T) {
	c := useConfig(t, writeFixture(t))
	c.Data.DuplicateRiskPolicy = "last"

	_, _, err := loadCohort(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate_risk_policy")
}

func TestInitStore(t *testing.T) {
	st, err := initStore(context.Background(), config.StoreConfig{Driver: "none"})
	require.NoError(t, err)
	assert.Nil(t, st)

	_, err = initStore(context.Background(), config.StoreConfig{Driver: "mysql"})
	assert.ErrorContains(t, err, "unsupported store driver")

	st, err = initStore(context.Background(), config.StoreConfig{Driver: "sqlite", DatabaseURL: filepath.Join(t.TempDir(), "x.db")})
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.NoError(t, st.Close())
}

func TestSummarizeLoad(t *testing.T) {
	useConfig(t, writeFixture(t))
	snap, run, err := loadCohort(context.Background())
	require.NoError(t, err)

	s := summarizeLoad(snap, run)
	assert.Equal(t, run.ID, s.RunID)
	assert.Equal(t, 3, s.Result.Children)
	assert.Equal(t, 2, s.Result.RiskRows)
	assert.Equal(t, 1, s.Unscored)

	tiers := make(map[string]int)
	for _, g := range s.Tiers {
		tiers[g.Key] = int(g.Value)
	}
	assert.Equal(t, map[string]int{"Low": 0, "Moderate": 1, "High": 1}, tiers)
}

func TestViewFlags_Apply(t *testing.T) {
	useConfig(t, writeFixture(t))
	snap, _, err := loadCohort(context.Background())
	require.NoError(t, err)

	ids := func(records []model.ChildRecord) []string {
		out := make([]string, len(records))
		for i, r := range records {
			out[i] = r.ChildDCN
		}
		return out
	}

	tests := []struct {
		name    string
		view    viewFlags
		want    []string
		wantErr bool
	}{
		{
			name: "defaults sort by risk descending, unscored last",
			view: viewFlags{county: model.AllCounties, district: model.AllDistricts, tier: model.AllRiskTiers, poverty: model.AllPovertyLevels, sort: "composite_risk_score"},
			want: []string{"0000000001", "0000000002", "0000000003"},
		},
		{
			name: "county ascending",
			view: viewFlags{county: "Boone", sort: "child_dcn", asc: true},
			want: []string{"0000000001", "0000000003"},
		},
		{
			name: "search keeps input order without sort",
			view: viewFlags{search: "cole"},
			want: []string{"0000000002"},
		},
		{
			name: "deep poverty band",
			view: viewFlags{poverty: "Deep Poverty (<100%)"},
			want: []string{"0000000001"},
		},
		{
			name:    "unknown sort",
			view:    viewFlags{sort: "height"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.view.apply(snap.Records())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestExportWriter(t *testing.T) {
	for _, f := range []string{"csv", "xlsx"} {
		w, err := exportWriter(f)
		require.NoError(t, err, f)
		assert.NotNil(t, w)
	}
	_, err := exportWriter("pdf")
	assert.ErrorContains(t, err, "unsupported export format")
}

func TestWriteOutput(t *testing.T) {
	v := loadSummary{Source: "./data", Unscored: 2}

	var y bytes.Buffer
	require.NoError(t, writeOutput(&y, "yaml", v))
	var back map[string]any
	require.NoError(t, yaml.Unmarshal(y.Bytes(), &back))
	assert.Equal(t, "./data", back["source"])
	assert.Equal(t, 2, back["unscored"])

	var j bytes.Buffer
	require.NoError(t, writeOutput(&j, "json", v))
	var jback map[string]any
	require.NoError(t, json.Unmarshal(j.Bytes(), &jback))
	assert.Equal(t, "./data", jback["source"])

	assert.Error(t, writeOutput(&j, "toml", v))
}

func TestExportCommand_EndToEnd(t *testing.T) {
	source := writeFixture(t)
	work := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(work))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck

	yml := "data:\n  source: " + source + "\nstore:\n  driver: sqlite\n  database_url: " +
		filepath.Join(work, "runs.db") + "\nlog:\n  level: error\n"
	require.NoError(t, os.WriteFile(filepath.Join(work, "config.yaml"), []byte(yml), 0o644))

	prev := cfg
	t.Cleanup(func() { cfg = prev })

	out := filepath.Join(work, "boone.csv")
	rootCmd.SetArgs([]string{"export", "--out", out, "--county", "Boone"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	require.NoError(t, rootCmd.Execute())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Join(export.Header, ","), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "0000000001,Boone,72.5,High,70.0"), lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "0000000003,Boone,,,"), lines[2])
}

func TestFormatCohortPage(t *testing.T) {
	useConfig(t, writeFixture(t))
	snap, _, err := loadCohort(context.Background())
	require.NoError(t, err)

	var buf bytes.Buffer
	formatCohortPage(&buf, cohort.Paginate(snap.Records(), 1, 2))
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")

	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "CHILD_DCN"))
	assert.Contains(t, lines[1], "72.5")
	assert.Contains(t, lines[1], "High")
	assert.Equal(t, "Page 1 of 2 (3 children)", lines[4])

	buf.Reset()
	formatCohortPage(&buf, cohort.Paginate(snap.Records(), 2, 2))
	assert.Contains(t, buf.String(), "0000000003")
	assert.Contains(t, buf.String(), "-")
}

func TestResolveSeed(t *testing.T) {
	assert.Equal(t, uint64(0), resolveSeed(true, 0, 42))
	assert.Equal(t, uint64(7), resolveSeed(true, 7, 42))
	assert.Equal(t, uint64(42), resolveSeed(false, 0, 42))
	assert.NotZero(t, resolveSeed(false, 0, 0))
}
