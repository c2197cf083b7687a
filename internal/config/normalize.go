package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeMigration()
	c.normalizeOutput()
	c.normalizeLogging()
	return c.normalizeMetrics()
}

func (c *Config) normalizePaths() error {
	fields := []struct {
		name     string
		value    *string
		fallback string
	}{
		{"paths.releases_dir", &c.Paths.ReleasesDir, defaultReleasesDir},
		{"paths.reports_dir", &c.Paths.ReportsDir, defaultReportsDir},
		{"paths.output_dir", &c.Paths.OutputDir, defaultOutputDir},
		{"paths.cache_dir", &c.Paths.CacheDir, defaultCacheDir()},
		{"paths.log_dir", &c.Paths.LogDir, defaultLogDir},
		{"paths.patches_dir", &c.Paths.PatchesDir, defaultPatchesDir},
	}
	for _, field := range fields {
		if strings.TrimSpace(*field.value) == "" {
			*field.value = field.fallback
		}
		expanded, err := expandPath(strings.TrimSpace(*field.value))
		if err != nil {
			return fmt.Errorf("%s: %w", field.name, err)
		}
		*field.value = expanded
	}
	return nil
}

func (c *Config) normalizeMigration() {
	c.Migration.SystemModel = strings.TrimSpace(c.Migration.SystemModel)
	if c.Migration.SystemModel == "" {
		c.Migration.SystemModel = defaultSystemModel
	}
}

func (c *Config) normalizeOutput() {
	c.Output.Driver = strings.ToLower(strings.TrimSpace(c.Output.Driver))
	if c.Output.Driver == "" {
		c.Output.Driver = DriverFS
	}
	c.Output.Version = strings.TrimSpace(c.Output.Version)
	if c.Output.Version == "" {
		c.Output.Version = defaultOutputVersion
	}
	c.Output.Description = strings.TrimSpace(c.Output.Description)
	c.Output.Homepage = strings.TrimSpace(c.Output.Homepage)
	if c.Output.Homepage == "" {
		c.Output.Homepage = defaultHomepage
	}
	if len(c.Output.Licenses) == 0 {
		c.Output.Licenses = DefaultLicenses()
	}
	if len(c.Output.Contributors) == 0 {
		c.Output.Contributors = DefaultContributors()
	}

	s3 := &c.Output.S3
	envFallback(&s3.Bucket, "ECOMIGRATE_S3_BUCKET")
	envFallback(&s3.Region, "ECOMIGRATE_S3_REGION")
	envFallback(&s3.Endpoint, "ECOMIGRATE_S3_ENDPOINT")
	if s3.Region == "" {
		s3.Region = DefaultS3Region
	}
	s3.Prefix = strings.Trim(strings.TrimSpace(s3.Prefix), "/")
}

func envFallback(value *string, key string) {
	*value = strings.TrimSpace(*value)
	if *value != "" {
		return
	}
	if env, ok := os.LookupEnv(key); ok {
		*value = strings.TrimSpace(env)
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

func (c *Config) normalizeMetrics() error {
	textfile := strings.TrimSpace(c.Metrics.Textfile)
	if textfile == "" {
		c.Metrics.Textfile = ""
		return nil
	}
	expanded, err := expandPath(textfile)
	if err != nil {
		return fmt.Errorf("metrics.textfile: %w", err)
	}
	c.Metrics.Textfile = expanded
	return nil
}
