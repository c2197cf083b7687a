package migrate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"ecomigrate/internal/biosphere"
	"ecomigrate/internal/catalog"
	"ecomigrate/internal/catalogcache"
	"ecomigrate/internal/changereport"
	"ecomigrate/internal/config"
	"ecomigrate/internal/datapackage"
	"ecomigrate/internal/logging"
	"ecomigrate/internal/metrics"
	"ecomigrate/internal/patches"
	"ecomigrate/internal/preflight"
	"ecomigrate/internal/reconcile"
)

// Kind selects the technosphere or biosphere migration.
type Kind string

const (
	KindTechnosphere Kind = "technosphere"
	KindBiosphere    Kind = "biosphere"
)

// Options describes one migration step.
type Options struct {
	Kind          Kind
	SourceVersion string
	TargetVersion string
	// SystemModel overrides migration.system_model for technosphere runs.
	SystemModel string
	// KeepGoing collects malformed change report rows instead of aborting.
	KeepGoing bool
	// KeepDeletions overrides migration.keep_deletions when set.
	KeepDeletions *bool
	DryRun        bool
	Description   string
}

// Summary reports the outcome of a migration step.
type Summary struct {
	RunID         string         `json:"run_id"`
	Kind          Kind           `json:"kind"`
	SourceVersion string         `json:"source_version"`
	TargetVersion string         `json:"target_version"`
	SourceID      string         `json:"source_id"`
	TargetID      string         `json:"target_id"`
	Report        string         `json:"change_report"`
	Sections      map[string]int `json:"sections"`
	Warnings      int            `json:"warnings"`
	RejectedRows  []string       `json:"rejected_rows,omitempty"`
	Patches       int            `json:"patches"`
	Location      string         `json:"location,omitempty"`
	DryRun        bool           `json:"dry_run"`
	NothingToDo   bool           `json:"nothing_to_do"`
	Duration      time.Duration  `json:"duration_ns"`
	LogPath       string         `json:"log_path,omitempty"`
	Stats         any            `json:"stats"`
}

// Runner executes migration steps against one configuration.
type Runner struct {
	cfg        *config.Config
	logger     *slog.Logger
	now        func() time.Time
	newRunID   func() string
	sink       datapackage.Sink
	appVersion string
}

// RunnerOption customizes a Runner.
type RunnerOption func(*Runner)

// WithSink replaces the sink selected from the output driver.
func WithSink(sink datapackage.Sink) RunnerOption {
	return func(r *Runner) { r.sink = sink }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) { r.now = now }
}

// WithAppVersion sets the version named in the default description.
func WithAppVersion(version string) RunnerOption {
	return func(r *Runner) { r.appVersion = version }
}

// NewRunner returns a runner for cfg.
func NewRunner(cfg *config.Config, logger *slog.Logger, opts ...RunnerOption) *Runner {
	r := &Runner{
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		newRunID: uuid.NewString,
	}
	if r.logger == nil {
		r.logger = logging.NewNop()
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// step carries the state shared between the stages of one run.
type step struct {
	opts   Options
	model  string
	report string
	set    patches.Set
	pkg    *datapackage.Package
	stats  any
	warn   int
	reject []string
}

// Run executes one migration step: locate the change report, load both
// releases, reconcile, and write the datapackage.
func (r *Runner) Run(ctx context.Context, opts Options) (*Summary, error) {
	if err := r.validate(&opts); err != nil {
		return nil, err
	}
	started := r.now()
	runID := r.newRunID()

	logger, runLog, err := logging.OpenRunLog(r.logger, r.cfg.Paths.LogDir, runID, started)
	if err != nil {
		return nil, Wrap(nil, "", "open run log", err)
	}
	defer func() { _ = runLog.Close() }()
	logging.PruneRunLogs(logger, r.cfg.Paths.LogDir, r.cfg.Logging.RetentionDays, runLog.Path, started)

	ctx = logging.WithRunID(ctx, runID)
	runLogger := logging.WithContext(ctx, logger)
	runLogger.Info("migration started",
		logging.String("kind", string(opts.Kind)),
		logging.String(logging.FieldSourceVersion, opts.SourceVersion),
		logging.String(logging.FieldTargetVersion, opts.TargetVersion),
		logging.Bool("dry_run", opts.DryRun),
	)

	st := &step{opts: opts, model: r.systemModel(opts)}
	summary := &Summary{
		RunID:         runID,
		Kind:          opts.Kind,
		SourceVersion: opts.SourceVersion,
		TargetVersion: opts.TargetVersion,
		SourceID:      r.databaseID(st, opts.SourceVersion),
		TargetID:      r.databaseID(st, opts.TargetVersion),
		DryRun:        opts.DryRun,
		LogPath:       runLog.Path,
	}

	runErr := r.execute(ctx, logger, st, summary)
	summary.Duration = r.now().Sub(started)
	summary.Stats = st.stats
	summary.Warnings = st.warn
	summary.RejectedRows = st.reject
	summary.Patches = st.set.Len()
	if st.pkg != nil {
		summary.Sections = st.pkg.Counts()
	}
	r.recordMetrics(runLogger, summary, runErr == nil)

	if runErr != nil {
		logging.ErrorWithContext(runLogger, "migration failed", "migration_failed",
			logging.Error(runErr),
			logging.String(logging.FieldErrorHint, "see the run log for the failing stage"),
			logging.String(logging.FieldPath, runLog.Path),
		)
		return summary, runErr
	}
	runLogger.Info("migration finished",
		logging.String("location", summary.Location),
		logging.Int("warnings", summary.Warnings),
		logging.Duration("elapsed", summary.Duration),
	)
	return summary, nil
}

func (r *Runner) validate(opts *Options) error {
	opts.SourceVersion = strings.TrimSpace(opts.SourceVersion)
	opts.TargetVersion = strings.TrimSpace(opts.TargetVersion)
	switch {
	case opts.Kind != KindTechnosphere && opts.Kind != KindBiosphere:
		return Wrap(ErrConfiguration, "", fmt.Sprintf("unknown migration kind %q", opts.Kind), nil)
	case opts.SourceVersion == "" || opts.TargetVersion == "":
		return Wrap(ErrConfiguration, "", "source and target versions are required", nil)
	case opts.SourceVersion == opts.TargetVersion:
		return Wrap(ErrConfiguration, "", "source and target versions must differ", nil)
	case r.cfg == nil:
		return Wrap(ErrConfiguration, "", "configuration is required", nil)
	}
	if opts.SystemModel != "" && opts.Kind == KindTechnosphere {
		model := *r.cfg
		model.Migration.SystemModel = opts.SystemModel
		if err := model.Validate(); err != nil {
			return Wrap(ErrConfiguration, "", "system model", err)
		}
	}
	return nil
}

func (r *Runner) systemModel(opts Options) string {
	if opts.SystemModel != "" {
		return opts.SystemModel
	}
	return r.cfg.Migration.SystemModel
}

func (r *Runner) databaseID(st *step, version string) string {
	if st.opts.Kind == KindBiosphere {
		return catalog.DatabaseName(version, "biosphere")
	}
	return catalog.DatabaseName(version, st.model)
}

func (r *Runner) execute(ctx context.Context, logger *slog.Logger, st *step, summary *Summary) error {
	if err := runStage(ctx, logger, StageLocate, func(_ context.Context, log *slog.Logger) error {
		return r.locate(log, st)
	}); err != nil {
		return err
	}
	summary.Report = st.report

	wb, err := changereport.Open(st.report)
	if err != nil {
		return Wrap(ErrInput, StageLocate, "open change report", err)
	}
	defer func() { _ = wb.Close() }()

	meta := datapackage.Metadata{
		SourceID:    summary.SourceID,
		TargetID:    summary.TargetID,
		Description: st.opts.Description,
		Output:      r.cfg.Output,
		AppVersion:  r.appVersion,
		Created:     r.now(),
	}
	switch st.opts.Kind {
	case KindBiosphere:
		err = r.biosphere(ctx, logger, st, wb, meta)
	default:
		err = r.technosphere(ctx, logger, st, wb, meta)
	}
	if err != nil {
		return err
	}

	return runStage(ctx, logger, StageWrite, func(stageCtx context.Context, log *slog.Logger) error {
		return r.write(stageCtx, log, st, summary)
	})
}

func (r *Runner) locate(logger *slog.Logger, st *step) error {
	checks := preflight.RunForMigration(r.cfg, st.model, st.opts.Kind == KindBiosphere, st.opts.SourceVersion, st.opts.TargetVersion)
	// The report check is repeated by Find below with a typed error.
	var missing []string
	for _, failed := range preflight.Failed(checks[1:]) {
		missing = append(missing, failed.Name+": "+failed.Detail)
	}
	if len(missing) > 0 {
		return Wrap(ErrInput, StageLocate, "release inputs missing", errors.New(strings.Join(missing, "; ")))
	}
	path, err := changereport.Find(r.cfg.Paths.ReportsDir, st.opts.SourceVersion, st.opts.TargetVersion)
	if err != nil {
		return Wrap(ErrInput, StageLocate, "find change report", err)
	}
	st.report = path
	logger.Info("using change report", logging.String(logging.FieldFile, path))
	return nil
}

func (r *Runner) openCache(logger *slog.Logger) (*catalogcache.Store, error) {
	store, err := catalogcache.Open(r.cfg.CatalogCachePath(), logger)
	if err != nil {
		return nil, Wrap(nil, StageLoad, "open catalog cache", err)
	}
	return store, nil
}

func (r *Runner) technosphere(ctx context.Context, logger *slog.Logger, st *step, wb *changereport.Workbook, meta datapackage.Metadata) error {
	var source, target *catalog.Catalog
	if err := runStage(ctx, logger, StageLoad, func(stageCtx context.Context, log *slog.Logger) error {
		store, err := r.openCache(log)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		if source, err = store.Catalog(stageCtx, st.opts.SourceVersion, st.model, r.cfg.DatasetsDir(st.opts.SourceVersion, st.model)); err != nil {
			return Wrap(ErrInput, StageLoad, "load source release", err)
		}
		if target, err = store.Catalog(stageCtx, st.opts.TargetVersion, st.model, r.cfg.DatasetsDir(st.opts.TargetVersion, st.model)); err != nil {
			return Wrap(ErrInput, StageLoad, "load target release", err)
		}
		log.Info("releases loaded",
			logging.String(logging.FieldSystemModel, st.model),
			logging.Int("source_datasets", source.Len()),
			logging.Int("target_datasets", target.Len()),
		)
		return nil
	}); err != nil {
		return err
	}

	if err := runStage(ctx, logger, StagePatches, func(_ context.Context, log *slog.Logger) error {
		set, err := patches.Load(r.cfg.Paths.PatchesDir, st.opts.SourceVersion, st.opts.TargetVersion, log)
		if err != nil {
			return Wrap(ErrConfiguration, StagePatches, "load patches", err)
		}
		st.set = set
		return nil
	}); err != nil {
		return err
	}

	return runStage(ctx, logger, StageReconcile, func(_ context.Context, log *slog.Logger) error {
		sheet, err := wb.FindSheet(changereport.SheetQualitativeChanges)
		if err != nil {
			return Wrap(ErrInput, StageReconcile, "find change report sheet", err)
		}
		rows, err := wb.Rows(sheet)
		if err != nil {
			return Wrap(ErrInput, StageReconcile, "read change report sheet", err)
		}
		res, err := reconcile.Run(rows, reconcile.Inputs{
			File:          wb.Path(),
			SourceVersion: st.opts.SourceVersion,
			TargetVersion: st.opts.TargetVersion,
			Source:        source,
			Target:        target,
			Additive:      st.set.Additive,
			Corrective:    st.set.Corrective,
			Strict:        r.cfg.Migration.StrictRows && !st.opts.KeepGoing,
			Logger:        log,
		})
		if err != nil {
			return Wrap(nil, StageReconcile, "", err)
		}
		st.stats = res.Stats
		st.warn = res.Stats.Warnings()
		for _, rejected := range res.Rejected {
			st.reject = append(st.reject, rejected.Error())
		}
		st.pkg, err = datapackage.NewTechnosphere(meta, res)
		return err
	})
}

func (r *Runner) biosphere(ctx context.Context, logger *slog.Logger, st *step, wb *changereport.Workbook, meta datapackage.Metadata) error {
	var source, target *catalog.FlowListing
	if err := runStage(ctx, logger, StageLoad, func(stageCtx context.Context, log *slog.Logger) error {
		store, err := r.openCache(log)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		if source, err = store.Flows(stageCtx, st.opts.SourceVersion, st.model, r.cfg.FlowsPath(st.opts.SourceVersion, st.model)); err != nil {
			return Wrap(ErrInput, StageLoad, "load source flows", err)
		}
		if target, err = store.Flows(stageCtx, st.opts.TargetVersion, st.model, r.cfg.FlowsPath(st.opts.TargetVersion, st.model)); err != nil {
			return Wrap(ErrInput, StageLoad, "load target flows", err)
		}
		return nil
	}); err != nil {
		return err
	}

	keep := r.cfg.Migration.KeepDeletions
	if st.opts.KeepDeletions != nil {
		keep = *st.opts.KeepDeletions
	}
	return runStage(ctx, logger, StageReconcile, func(_ context.Context, log *slog.Logger) error {
		rows, found, err := biosphere.ReadDeletions(wb, log)
		if err != nil {
			return Wrap(ErrInput, StageReconcile, "read EE deletions", err)
		}
		res, err := biosphere.Run(biosphere.Inputs{
			SourceVersion: st.opts.SourceVersion,
			TargetVersion: st.opts.TargetVersion,
			Rows:          rows,
			SheetFound:    found,
			SourceFlows:   source,
			TargetFlows:   target,
			KeepDeletions: keep,
			Logger:        log,
		})
		if err != nil {
			return Wrap(nil, StageReconcile, "", err)
		}
		st.stats = res.Stats
		st.pkg, err = datapackage.NewBiosphere(meta, res)
		return err
	})
}

func (r *Runner) write(ctx context.Context, logger *slog.Logger, st *step, summary *Summary) error {
	if st.pkg.Empty() {
		summary.NothingToDo = true
		logger.Info("nothing to do: migration has no data")
		return nil
	}
	if st.opts.DryRun {
		logger.Info("dry run; skipping output", logging.String(logging.FieldFile, st.pkg.Filename()))
		return nil
	}
	sink := r.sink
	if sink == nil {
		var err error
		if sink, err = datapackage.NewSink(ctx, r.cfg, logger); err != nil {
			return Wrap(ErrConfiguration, StageWrite, "create output sink", err)
		}
	}
	location, err := sink.Write(ctx, st.pkg)
	if errors.Is(err, datapackage.ErrNothingToWrite) {
		summary.NothingToDo = true
		return nil
	}
	if err != nil {
		return Wrap(nil, StageWrite, "", err)
	}
	summary.Location = location
	return nil
}

func (r *Runner) recordMetrics(logger *slog.Logger, summary *Summary, success bool) {
	if r.cfg.Metrics.Textfile == "" {
		return
	}
	counts, err := metrics.Counts(summary.Stats)
	if err != nil {
		logger.Debug("metrics counts unavailable", logging.Error(err))
	}
	recorder := metrics.NewRecorder()
	recorder.Observe(metrics.Run{
		Kind:          string(summary.Kind),
		SourceVersion: summary.SourceVersion,
		TargetVersion: summary.TargetVersion,
		Success:       success,
		Duration:      summary.Duration,
		Finished:      r.now(),
		Warnings:      summary.Warnings,
		Counts:        counts,
	})
	if err := recorder.WriteTextfile(r.cfg.Metrics.Textfile); err != nil {
		logging.WarnWithContext(logger, "metrics textfile not written", "metrics_write_failed",
			logging.Error(err),
			logging.String(logging.FieldPath, r.cfg.Metrics.Textfile),
			logging.String(logging.FieldImpact, "run metrics are stale"),
		)
	}
}
