package datapackage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sys/unix"

	"ecomigrate/internal/fileutil"
	"ecomigrate/internal/logging"
)

const (
	outputLockName  = ".ecomigrate.lock"
	outputLockRetry = 50 * time.Millisecond
)

// FileSink writes packages as JSON files into a directory.
type FileSink struct {
	dir    string
	logger *slog.Logger
}

// NewFileSink returns a sink writing into dir.
func NewFileSink(dir string, logger *slog.Logger) *FileSink {
	return &FileSink{dir: dir, logger: logging.NewComponentLogger(logger, "datapackage")}
}

// Write stores pkg as <dir>/<source>-<target>.json, replacing any previous
// file atomically.
func (s *FileSink) Write(ctx context.Context, pkg *Package) (string, error) {
	if pkg.Empty() {
		return "", ErrNothingToWrite
	}
	info, err := os.Stat(s.dir)
	if err != nil {
		return "", fmt.Errorf("output directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("output directory %s is not a directory", s.dir)
	}
	if err := unix.Access(s.dir, unix.W_OK); err != nil {
		return "", fmt.Errorf("output directory %s must be writable: %w", s.dir, err)
	}

	data, err := pkg.Encode()
	if err != nil {
		return "", err
	}

	lock := flock.New(filepath.Join(s.dir, outputLockName))
	ok, err := lock.TryLockContext(ctx, outputLockRetry)
	if err != nil {
		return "", fmt.Errorf("lock output directory: %w", err)
	}
	if !ok {
		return "", fmt.Errorf("lock output directory %s: held by another process", s.dir)
	}
	defer func() { _ = lock.Unlock() }()

	path := filepath.Join(s.dir, pkg.Filename())
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	s.logger.Info("wrote migration file",
		logging.String(logging.FieldPath, path),
		logging.Int("bytes", len(data)),
	)
	return path, nil
}
