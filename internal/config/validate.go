package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateMigration(); err != nil {
		return err
	}
	if err := c.validateOutput(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateMigration() error {
	if !slices.Contains(SystemModels, c.Migration.SystemModel) {
		return fmt.Errorf("migration.system_model %q is not one of %s", c.Migration.SystemModel, strings.Join(SystemModels, ", "))
	}
	return nil
}

func (c *Config) validateOutput() error {
	switch c.Output.Driver {
	case DriverFS:
		if c.Paths.OutputDir == "" {
			return errors.New("paths.output_dir must be set when output.driver is fs")
		}
	case DriverS3:
		if c.Output.S3.Bucket == "" {
			return errors.New("output.s3.bucket must be set when output.driver is s3 (or set ECOMIGRATE_S3_BUCKET)")
		}
	default:
		return fmt.Errorf("output.driver %q must be fs or s3", c.Output.Driver)
	}
	for i, license := range c.Output.Licenses {
		if strings.TrimSpace(license.Name) == "" {
			return fmt.Errorf("output.licenses[%d].name must be set", i)
		}
	}
	for i, contributor := range c.Output.Contributors {
		if strings.TrimSpace(contributor.Title) == "" {
			return fmt.Errorf("output.contributors[%d].title must be set", i)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	}
	return fmt.Errorf("logging.level %q must be debug, info, warn or error", c.Logging.Level)
}
