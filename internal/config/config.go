package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	ReleasesDir string `toml:"releases_dir"`
	ReportsDir  string `toml:"reports_dir"`
	OutputDir   string `toml:"output_dir"`
	CacheDir    string `toml:"cache_dir"`
	LogDir      string `toml:"log_dir"`
	PatchesDir  string `toml:"patches_dir"`
}

// Migration contains reconciliation behaviour switches.
type Migration struct {
	SystemModel string `toml:"system_model"`
	// StrictRows aborts on the first malformed change report row.
	StrictRows    bool `toml:"strict_rows"`
	KeepDeletions bool `toml:"keep_deletions"`
}

// License is one entry of the datapackage licenses list.
type License struct {
	Name  string `toml:"name" json:"name"`
	Path  string `toml:"path" json:"path"`
	Title string `toml:"title" json:"title"`
}

// Contributor is one entry of the datapackage contributors list.
type Contributor struct {
	Title string `toml:"title" json:"title"`
	Path  string `toml:"path" json:"path"`
	Role  string `toml:"role" json:"role"`
}

// S3 contains the object storage sink settings.
type S3 struct {
	Bucket    string `toml:"bucket"`
	Region    string `toml:"region"`
	Endpoint  string `toml:"endpoint"`
	PathStyle bool   `toml:"path_style"`
	Prefix    string `toml:"prefix"`
}

// Output contains datapackage metadata and sink selection.
type Output struct {
	Driver       string        `toml:"driver"`
	Version      string        `toml:"version"`
	Description  string        `toml:"description"`
	Homepage     string        `toml:"homepage"`
	Licenses     []License     `toml:"licenses"`
	Contributors []Contributor `toml:"contributors"`
	S3           S3            `toml:"s3"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Metrics contains the Prometheus textfile export settings.
type Metrics struct {
	// Textfile is written after every run when set.
	Textfile string `toml:"textfile"`
}

// Config encapsulates all configuration values for ecomigrate.
type Config struct {
	Paths     Paths     `toml:"paths"`
	Migration Migration `toml:"migration"`
	Output    Output    `toml:"output"`
	Logging   Logging   `toml:"logging"`
	Metrics   Metrics   `toml:"metrics"`
}

// DefaultConfigPath is the per-user configuration file, expanded.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load reads the configuration at path, or searches the default locations
// when path is empty. A missing file is not an error: defaults are used and
// exists is false. The returned path is where the file was (or would be).
func Load(path string) (cfg *Config, resolved string, exists bool, err error) {
	resolved, exists, err = locate(path)
	if err != nil {
		return nil, "", false, err
	}
	c := Default()
	if exists {
		if err := decodeFile(resolved, &c); err != nil {
			return nil, "", false, err
		}
	}
	if err := c.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := c.Validate(); err != nil {
		return nil, "", false, err
	}
	return &c, resolved, exists, nil
}

func decodeFile(path string, into *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := toml.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(into); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// locate resolves an explicit path as given. Without one it tries the user
// config file, then ecomigrate.toml in the working directory, and falls back
// to the user path.
func locate(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		switch _, err := os.Stat(expanded); {
		case err == nil:
			return expanded, true, nil
		case errors.Is(err, fs.ErrNotExist):
			return expanded, false, nil
		default:
			return "", false, fmt.Errorf("stat config: %w", err)
		}
	}

	userPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}
	localPath, err := filepath.Abs("ecomigrate.toml")
	if err != nil {
		return "", false, err
	}
	for _, candidate := range []string{userPath, localPath} {
		if isRegularFile(candidate) {
			return candidate, true, nil
		}
	}
	return userPath, false, nil
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// EnsureDirectories creates the directories a run writes to. Input
// directories (releases, reports, patches) are left alone.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.CacheDir, c.Paths.LogDir}
	if c.Output.Driver == DriverFS {
		dirs = append(dirs, c.Paths.OutputDir)
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// CatalogCachePath returns the SQLite file backing the catalog cache.
func (c *Config) CatalogCachePath() string {
	return filepath.Join(c.Paths.CacheDir, "catalogs.db")
}

// DatasetsDir returns the ecoSpold2 dataset directory of a release.
func (c *Config) DatasetsDir(version, systemModel string) string {
	return filepath.Join(c.Paths.ReleasesDir, version, systemModel, "datasets")
}

// FlowsPath returns the elementary exchange listing of a release.
func (c *Config) FlowsPath(version, systemModel string) string {
	return filepath.Join(c.Paths.ReleasesDir, version, systemModel, "MasterData", "ElementaryExchanges.xml")
}

// PatchFile returns the user patch file for a version pair.
func (c *Config) PatchFile(source, target string) string {
	return filepath.Join(c.Paths.PatchesDir, source+"_"+target+".yaml")
}

// expandPath resolves a leading "~" against the home directory and makes
// the result absolute. Empty stays empty.
func expandPath(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	if p == "~" || strings.HasPrefix(p, "~/") || strings.HasPrefix(p, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		p = filepath.Join(home, p[1:])
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", p, err)
	}
	return abs, nil
}

// ExpandPath applies the same "~" and absolute path rules as Load.
func ExpandPath(p string) (string, error) {
	return expandPath(p)
}

func defaultCacheDir() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "ecomigrate")
	}
	return "~/.cache/ecomigrate"
}

// CreateSample writes the commented sample configuration to path,
// creating parent directories.
func CreateSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
