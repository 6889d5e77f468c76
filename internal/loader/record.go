package loader

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/readiness-cli/internal/cohort"
	"github.com/sells-group/readiness-cli/internal/model"
)

// Recorder writes the load audit log. store.Store satisfies it.
type Recorder interface {
	CreateLoadRun(ctx context.Context, source string) (*model.LoadRun, error)
	CompleteLoadRun(ctx context.Context, runID string, result *model.LoadResult) error
	FailLoadRun(ctx context.Context, runID string, errMsg string) error
}

// LoadAndRecord runs Load and records the outcome. A nil recorder skips the
// audit log. Audit failures are logged and never fail the load.
func (l *Loader) LoadAndRecord(ctx context.Context, rec Recorder) (*cohort.Snapshot, *model.LoadRun, error) {
	if rec == nil {
		snap, err := l.Load(ctx)
		return snap, nil, err
	}

	run, err := rec.CreateLoadRun(ctx, l.opts.Source)
	if err != nil {
		zap.L().Warn("loader: failed to record load start", zap.Error(err))
		snap, loadErr := l.Load(ctx)
		return snap, nil, loadErr
	}

	snap, loadErr := l.Load(ctx)
	if loadErr != nil {
		if err := rec.FailLoadRun(ctx, run.ID, loadErr.Error()); err != nil {
			zap.L().Warn("loader: failed to record load failure", zap.String("run_id", run.ID), zap.Error(err))
		}
		run.Status = model.LoadStatusFailed
		run.Error = loadErr.Error()
		return snap, run, loadErr
	}

	result := snap.Result()
	if err := rec.CompleteLoadRun(ctx, run.ID, &result); err != nil {
		zap.L().Warn("loader: failed to record load completion", zap.String("run_id", run.ID), zap.Error(err))
	}
	run.Status = model.LoadStatusComplete
	run.Result = &result
	return snap, run, nil
}
