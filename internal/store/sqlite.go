package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/readiness-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS load_runs (
	id          TEXT PRIMARY KEY,
	source      TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'running',
	result      TEXT,
	error       TEXT NOT NULL DEFAULT '',
	started_at  DATETIME NOT NULL,
	finished_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_load_runs_status ON load_runs(status);
CREATE INDEX IF NOT EXISTS idx_load_runs_started_at ON load_runs(started_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateLoadRun(ctx context.Context, source string) (*model.LoadRun, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO load_runs (id, source, status, started_at) VALUES (?, ?, ?, ?)`,
		id, source, string(model.LoadStatusRunning), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert load run")
	}

	return &model.LoadRun{
		ID:        id,
		Source:    source,
		Status:    model.LoadStatusRunning,
		StartedAt: now,
	}, nil
}

func (s *SQLiteStore) CompleteLoadRun(ctx context.Context, runID string, result *model.LoadResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal result")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE load_runs SET result = ?, status = ?, finished_at = ? WHERE id = ?`,
		string(resultJSON), string(model.LoadStatusComplete), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete load run %s", runID)
	}
	return checkRowsAffected(res, runID)
}

func (s *SQLiteStore) FailLoadRun(ctx context.Context, runID string, errMsg string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE load_runs SET error = ?, status = ?, finished_at = ? WHERE id = ?`,
		errMsg, string(model.LoadStatusFailed), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail load run %s", runID)
	}
	return checkRowsAffected(res, runID)
}

func (s *SQLiteStore) GetLoadRun(ctx context.Context, runID string) (*model.LoadRun, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, source, status, result, error, started_at, finished_at FROM load_runs WHERE id = ?`,
		runID,
	)
	r, err := scanLoadRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: get load run %s", runID)
	}
	return r, err
}

func (s *SQLiteStore) ListLoadRuns(ctx context.Context, filter RunFilter) ([]model.LoadRun, error) {
	query := `SELECT id, source, status, result, error, started_at, finished_at FROM load_runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if !filter.Since.IsZero() {
		query += ` AND started_at >= ?`
		args = append(args, filter.Since.UTC())
	}
	query += ` ORDER BY started_at DESC LIMIT ?`
	args = append(args, filter.limit())

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list load runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []model.LoadRun
	for rows.Next() {
		r, err := scanLoadRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list load runs iterate")
}

// helpers

func checkRowsAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "load run %s", id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanLoadRun(row scannable) (*model.LoadRun, error) {
	var (
		r          model.LoadRun
		resultJSON sql.NullString
		finished   sql.NullTime
	)

	err := row.Scan(&r.ID, &r.Source, &r.Status, &resultJSON, &r.Error, &r.StartedAt, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan load run")
	}

	if resultJSON.Valid {
		r.Result = &model.LoadResult{}
		if err := json.Unmarshal([]byte(resultJSON.String), r.Result); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal result")
		}
	}
	if finished.Valid {
		t := finished.Time
		r.FinishedAt = &t
	}
	return &r, nil
}
