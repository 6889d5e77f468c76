// Package loader fetches the three source tables, joins them on the child
// identifier, and derives the per-child flags. A load is whole-or-nothing
// unless partial loading is enabled for the participation table.
package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/readiness-cli/internal/cohort"
	"github.com/sells-group/readiness-cli/internal/fetcher"
	"github.com/sells-group/readiness-cli/internal/model"
	"github.com/sells-group/readiness-cli/internal/schema"
)

var (
	// ErrDuplicateChild is returned when the child table lists an id twice.
	ErrDuplicateChild = errors.New("loader: duplicate child id")
	// ErrDuplicateRisk is returned when the risk table lists an id twice and
	// the duplicate policy is reject.
	ErrDuplicateRisk = errors.New("loader: duplicate risk-score row")
)

// DuplicatePolicy decides what happens to a second risk row for one child.
type DuplicatePolicy string

const (
	DuplicateReject DuplicatePolicy = "reject"
	DuplicateFirst  DuplicatePolicy = "first"
)

// Default file names inside the record source.
const (
	DefaultChildFile         = "Child.csv"
	DefaultRiskFile          = "risk_scores.csv"
	DefaultParticipationFile = "ChildParticipation.csv"
)

// Options configures a Loader.
type Options struct {
	// Source is a directory, an http(s)/ftp base URL, or a .zip bundle
	// (local or remote) holding the three files.
	Source            string
	ChildFile         string
	RiskFile          string
	ParticipationFile string

	DuplicateRisk DuplicatePolicy
	// PartialLoad tolerates a failed participation table.
	PartialLoad bool

	CSV fetcher.CSVOptions
}

// Loader builds snapshots from a record source.
type Loader struct {
	fetch fetcher.Fetcher
	opts  Options
	now   func() time.Time
}

// New creates a Loader reading through f.
func New(f fetcher.Fetcher, opts Options) *Loader {
	if opts.ChildFile == "" {
		opts.ChildFile = DefaultChildFile
	}
	if opts.RiskFile == "" {
		opts.RiskFile = DefaultRiskFile
	}
	if opts.ParticipationFile == "" {
		opts.ParticipationFile = DefaultParticipationFile
	}
	if opts.DuplicateRisk == "" {
		opts.DuplicateRisk = DuplicateReject
	}
	return &Loader{fetch: f, opts: opts, now: time.Now}
}

// Source returns the configured record source.
func (l *Loader) Source() string {
	return l.opts.Source
}

type tables struct {
	children      []schema.Row
	risks         []schema.Row
	participation []schema.Row
	degraded      []string
}

// Load fetches and joins the three tables. On failure it logs the error and
// returns an empty snapshot alongside it; no partial collection is exposed.
func (l *Loader) Load(ctx context.Context) (*cohort.Snapshot, error) {
	start := l.now()

	t, err := l.fetchTables(ctx)
	if err != nil {
		zap.L().Error("loader: load failed", zap.String("source", l.opts.Source), zap.Error(err))
		return cohort.Empty(l.opts.Source), err
	}

	records, err := l.join(t)
	if err != nil {
		zap.L().Error("loader: join failed", zap.String("source", l.opts.Source), zap.Error(err))
		return cohort.Empty(l.opts.Source), err
	}

	result := model.LoadResult{
		Children:          len(t.children),
		RiskRows:          len(t.risks),
		ParticipationRows: len(t.participation),
		Degraded:          t.degraded,
	}
	snap := cohort.NewSnapshot(records, l.opts.Source, result, l.now())

	zap.L().Info("loader: load complete",
		zap.String("source", l.opts.Source),
		zap.Int("children", result.Children),
		zap.Int("risk_rows", result.RiskRows),
		zap.Int("participation_rows", result.ParticipationRows),
		zap.Strings("degraded", result.Degraded),
		zap.Duration("elapsed", l.now().Sub(start)),
	)
	return snap, nil
}

// fetchTables reads the three tables in parallel.
func (l *Loader) fetchTables(ctx context.Context) (*tables, error) {
	locate, cleanup, err := l.openSource(ctx)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	var (
		t       tables
		partErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := l.readTable(gctx, locate, l.opts.ChildFile, schema.ChildTable)
		t.children = rows
		return err
	})
	g.Go(func() error {
		rows, err := l.readTable(gctx, locate, l.opts.RiskFile, schema.RiskTable)
		t.risks = rows
		return err
	})
	g.Go(func() error {
		rows, err := l.readTable(gctx, locate, l.opts.ParticipationFile, schema.ParticipationTable)
		if err != nil && l.opts.PartialLoad {
			partErr = err
			return nil
		}
		t.participation = rows
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if partErr != nil {
		zap.L().Warn("loader: participation table unavailable, loading without programs",
			zap.String("source", l.opts.Source),
			zap.Error(partErr),
		)
		t.degraded = append(t.degraded, schema.ParticipationTable.Name)
	}
	return &t, nil
}

// locator maps a file name to a location the fetcher can open.
type locator func(name string) (string, error)

// openSource prepares the record source. A .zip bundle is downloaded once
// into a temp directory and its members are extracted on demand.
func (l *Loader) openSource(ctx context.Context) (locator, func(), error) {
	if !isBundle(l.opts.Source) {
		return func(name string) (string, error) {
			return fetcher.Resolve(l.opts.Source, name), nil
		}, func() {}, nil
	}

	dir, err := os.MkdirTemp("", "readiness-bundle-*")
	if err != nil {
		return nil, nil, eris.Wrap(err, "loader: create temp dir")
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	zipPath := filepath.Join(dir, "bundle.zip")
	if _, err := l.fetch.DownloadToFile(ctx, l.opts.Source, zipPath); err != nil {
		cleanup()
		return nil, nil, eris.Wrap(err, "loader: fetch bundle")
	}

	return func(name string) (string, error) {
		return fetcher.ExtractZIPFile(zipPath, name, filepath.Join(dir, "files"))
	}, cleanup, nil
}

func isBundle(source string) bool {
	return strings.EqualFold(filepath.Ext(source), ".zip")
}

// readTable fetches one file and decodes it against its schema.
func (l *Loader) readTable(ctx context.Context, locate locator, name string, table *schema.Table) ([]schema.Row, error) {
	location, err := locate(name)
	if err != nil {
		return nil, eris.Wrapf(err, "loader: locate %s table", table.Name)
	}

	var rows []schema.Row
	if strings.EqualFold(filepath.Ext(location), ".xlsx") {
		rows, err = l.readXLSX(ctx, location, table)
	} else {
		rows, err = l.readCSV(ctx, location, table)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "loader: read %s table from %s", table.Name, location)
	}
	return rows, nil
}

func (l *Loader) readCSV(ctx context.Context, location string, table *schema.Table) ([]schema.Row, error) {
	rc, err := l.fetch.Download(ctx, location)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	rowCh, errCh := fetcher.StreamCSV(ctx, rc, l.opts.CSV)
	defer func() {
		cancel()
		_ = rc.Close()
		for range rowCh {
		}
	}()

	dec := tableDecoder{table: table}
	for record := range rowCh {
		if err := dec.add(record); err != nil {
			return nil, err
		}
	}
	if err := <-errCh; err != nil {
		return nil, err
	}
	return dec.finish()
}

func (l *Loader) readXLSX(ctx context.Context, location string, table *schema.Table) ([]schema.Row, error) {
	tmp, err := os.CreateTemp("", "readiness-*.xlsx")
	if err != nil {
		return nil, eris.Wrap(err, "create temp file")
	}
	path := tmp.Name()
	_ = tmp.Close()
	defer os.Remove(path) //nolint:errcheck

	if _, err := l.fetch.DownloadToFile(ctx, location, path); err != nil {
		return nil, err
	}

	records, err := fetcher.ReadXLSX(path, fetcher.XLSXOptions{})
	if err != nil {
		return nil, err
	}

	dec := tableDecoder{table: table}
	for _, record := range records {
		if err := dec.add(record); err != nil {
			return nil, err
		}
	}
	return dec.finish()
}

// tableDecoder treats the first non-blank record as the header and decodes
// the rest, skipping blank lines.
type tableDecoder struct {
	table *schema.Table
	dec   *schema.Decoder
	rows  []schema.Row
}

func (d *tableDecoder) add(record []string) error {
	if schema.Blank(record) {
		return nil
	}
	if d.dec == nil {
		dec, err := d.table.NewDecoder(record)
		if err != nil {
			return err
		}
		d.dec = dec
		return nil
	}
	row, err := d.dec.Decode(record)
	if err != nil {
		return err
	}
	d.rows = append(d.rows, row)
	return nil
}

func (d *tableDecoder) finish() ([]schema.Row, error) {
	if d.dec == nil {
		return nil, eris.Wrapf(schema.ErrNoHeader, "table %s", d.table.Name)
	}
	return d.rows, nil
}
