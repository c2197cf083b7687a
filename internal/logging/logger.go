package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ecomigrate/internal/config"
)

// Options selects level, format and destination of a logger.
type Options struct {
	Level  string
	Format string // console (default) or json
	Writer io.Writer
}

// New builds a logger writing to opts.Writer, or stderr when it is nil.
// Debug level adds the caller to every line.
func New(opts Options) (*slog.Logger, error) {
	levelVar := new(slog.LevelVar)
	levelVar.Set(ParseLevel(opts.Level))

	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	withSource := levelVar.Level() <= slog.LevelDebug

	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", "console":
		return slog.New(newPrettyHandler(w, levelVar, withSource)), nil
	case "json":
		return slog.New(newJSONHandler(w, levelVar, withSource)), nil
	}
	return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
}

// NewFromConfig creates the console logger using application config
// defaults. A nil w means stderr, which keeps JSON summaries on stdout
// parseable.
func NewFromConfig(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	if cfg == nil {
		return New(Options{Level: "info", Format: "console", Writer: w})
	}
	return New(Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Writer: w})
}

// RunLog is the per-run debug log file.
type RunLog struct {
	Path string
	file *os.File
}

// Close flushes and closes the run log file.
func (r *RunLog) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// RunLogName returns the file name of the run log started at ts.
func RunLogName(ts time.Time, runID string) string {
	return ts.UTC().Format("20060102T150405Z") + "-" + runID + ".log"
}

// OpenRunLog tees base into a debug-level JSON file under dir. Every line in
// the file carries run_id.
func OpenRunLog(base *slog.Logger, dir, runID string, started time.Time) (*slog.Logger, *RunLog, error) {
	if strings.TrimSpace(dir) == "" {
		return base, &RunLog{}, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("ensure log directory: %w", err)
	}
	path := filepath.Join(dir, RunLogName(started, runID))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open run log %s: %w", path, err)
	}
	fileHandler := newRunIDHandler(newJSONHandler(file, slog.LevelDebug, true), runID)
	return TeeLogger(base, fileHandler), &RunLog{Path: path, file: file}, nil
}

// ParseLevel maps a config level name to a slog level; unknown names mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
