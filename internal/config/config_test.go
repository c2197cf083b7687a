package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"ecomigrate/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("XDG_CACHE_HOME", "")
	chdir(t, t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved != filepath.Join(tempHome, ".config", "ecomigrate", "config.toml") {
		t.Fatalf("unexpected resolved path %q", resolved)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	if want := filepath.Join(tempHome, "ecoinvent", "releases"); cfg.Paths.ReleasesDir != want {
		t.Fatalf("releases dir = %q, want %q", cfg.Paths.ReleasesDir, want)
	}
	if want := filepath.Join(tempHome, ".cache", "ecomigrate"); cfg.Paths.CacheDir != want {
		t.Fatalf("cache dir = %q, want %q", cfg.Paths.CacheDir, want)
	}
	if cfg.Migration.SystemModel != "cutoff" || !cfg.Migration.StrictRows || cfg.Migration.KeepDeletions {
		t.Fatalf("unexpected migration defaults: %+v", cfg.Migration)
	}
	if cfg.Output.Driver != config.DriverFS || cfg.Output.Version != "2.0.0" {
		t.Fatalf("unexpected output defaults: %+v", cfg.Output)
	}
	if len(cfg.Output.Licenses) != 1 || cfg.Output.Licenses[0].Name != "CC BY 4.0" {
		t.Fatalf("unexpected default licenses: %+v", cfg.Output.Licenses)
	}
	if len(cfg.Output.Contributors) != 2 || cfg.Output.Contributors[1].Role != "wrangler" {
		t.Fatalf("unexpected default contributors: %+v", cfg.Output.Contributors)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.CacheDir, cfg.Paths.LogDir, cfg.Paths.OutputDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
	}
	if _, err := os.Stat(cfg.Paths.ReleasesDir); !os.IsNotExist(err) {
		t.Fatalf("input directory %q should not be created", cfg.Paths.ReleasesDir)
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "ecomigrate.toml")

	type payload struct {
		Paths struct {
			ReleasesDir string `toml:"releases_dir"`
		} `toml:"paths"`
		Migration struct {
			SystemModel   string `toml:"system_model"`
			StrictRows    bool   `toml:"strict_rows"`
			KeepDeletions bool   `toml:"keep_deletions"`
		} `toml:"migration"`
		Output struct {
			Description string `toml:"description"`
		} `toml:"output"`
	}
	custom := payload{}
	custom.Paths.ReleasesDir = filepath.Join(tempDir, "releases")
	custom.Migration.SystemModel = "apos"
	custom.Migration.KeepDeletions = true
	custom.Output.Description = "  custom run  "
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("unexpected resolution: %q exists=%v", resolved, exists)
	}
	if cfg.Paths.ReleasesDir != filepath.Join(tempDir, "releases") {
		t.Fatalf("releases dir = %q", cfg.Paths.ReleasesDir)
	}
	if cfg.Migration.SystemModel != "apos" || cfg.Migration.StrictRows || !cfg.Migration.KeepDeletions {
		t.Fatalf("unexpected migration section: %+v", cfg.Migration)
	}
	if cfg.Output.Description != "custom run" {
		t.Fatalf("description = %q", cfg.Output.Description)
	}
	if got := cfg.DatasetsDir("3.10", "apos"); got != filepath.Join(tempDir, "releases", "3.10", "apos", "datasets") {
		t.Fatalf("DatasetsDir = %q", got)
	}
	if got := cfg.FlowsPath("3.10", "apos"); got != filepath.Join(tempDir, "releases", "3.10", "apos", "MasterData", "ElementaryExchanges.xml") {
		t.Fatalf("FlowsPath = %q", got)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "ecomigrate.toml")
	if err := os.WriteFile(configPath, []byte("[paths]\nstaging_dir = \"/tmp\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestS3EnvironmentFallback(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "ecomigrate.toml")
	if err := os.WriteFile(configPath, []byte("[output]\ndriver = \"S3\"\n[output.s3]\nprefix = \"/migrations/\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ECOMIGRATE_S3_BUCKET", "lca-data")
	t.Setenv("ECOMIGRATE_S3_REGION", "eu-central-1")
	t.Setenv("ECOMIGRATE_S3_ENDPOINT", "http://127.0.0.1:9000")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	s3 := cfg.Output.S3
	if cfg.Output.Driver != config.DriverS3 || s3.Bucket != "lca-data" || s3.Region != "eu-central-1" || s3.Endpoint != "http://127.0.0.1:9000" {
		t.Fatalf("unexpected s3 settings: driver=%q %+v", cfg.Output.Driver, s3)
	}
	if s3.Prefix != "migrations" {
		t.Fatalf("prefix = %q, want trimmed", s3.Prefix)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if !strings.Contains(cfg.Paths.ReleasesDir, "releases") {
		t.Fatalf("expected releases dir in sample, got %q", cfg.Paths.ReleasesDir)
	}
	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config should load: %v", err)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"system model", func(c *config.Config) { c.Migration.SystemModel = "allocation" }},
		{"driver", func(c *config.Config) { c.Output.Driver = "ftp" }},
		{"s3 bucket", func(c *config.Config) { c.Output.Driver = config.DriverS3 }},
		{"license name", func(c *config.Config) { c.Output.Licenses = []config.License{{Path: "x"}} }},
		{"contributor title", func(c *config.Config) { c.Output.Contributors = []config.Contributor{{Role: "author"}} }},
		{"log level", func(c *config.Config) { c.Logging.Level = "verbose" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
