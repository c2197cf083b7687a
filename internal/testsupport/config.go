package testsupport

import (
	"path/filepath"
	"testing"

	"ecomigrate/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Output, cache, and log directories exist; input directories are created
// by the fixtures that populate them.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths = config.Paths{
		ReleasesDir: filepath.Join(base, "releases"),
		ReportsDir:  filepath.Join(base, "reports"),
		OutputDir:   filepath.Join(base, "output"),
		CacheDir:    filepath.Join(base, "cache"),
		LogDir:      filepath.Join(base, "logs"),
		PatchesDir:  filepath.Join(base, "patches"),
	}
	cfgVal.Logging.Level = "debug"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithKeepDeletions toggles biosphere delete entries.
func WithKeepDeletions(keep bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Migration.KeepDeletions = keep
	}
}

// WithStrictRows toggles strict change report row parsing.
func WithStrictRows(strict bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Migration.StrictRows = strict
	}
}

// WithMetricsTextfile enables the Prometheus textfile export inside the temp tree.
func WithMetricsTextfile() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Metrics.Textfile = filepath.Join(b.baseDir, "metrics", "ecomigrate.prom")
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.OutputDir)
}
