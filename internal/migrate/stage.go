package migrate

import (
	"context"
	"log/slog"
	"time"

	"ecomigrate/internal/logging"
)

// Pipeline step names used in the stage log field.
const (
	StageLocate    = "locate"
	StageLoad      = "load"
	StagePatches   = "patches"
	StageReconcile = "reconcile"
	StageWrite     = "write"
)

// runStage executes fn with a stage-scoped logger and logs start, completion
// and failure events.
func runStage(ctx context.Context, logger *slog.Logger, name string, fn func(context.Context, *slog.Logger) error) error {
	stageCtx := logging.WithStage(ctx, name)
	stageLogger := logging.WithContext(stageCtx, logger)

	stageLogger.Debug("stage started", logging.String(logging.FieldEventType, "stage_start"))
	started := time.Now()

	if err := fn(stageCtx, stageLogger); err != nil {
		stageLogger.Error(
			"stage failed",
			logging.String(logging.FieldEventType, "stage_failure"),
			logging.Duration("elapsed", time.Since(started)),
			logging.Error(err),
		)
		return err
	}

	stageLogger.Debug(
		"stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("elapsed", time.Since(started)),
	)
	return nil
}
