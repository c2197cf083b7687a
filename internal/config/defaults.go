package config

const (
	defaultConfigPath       = "~/.config/ecomigrate/config.toml"
	defaultReleasesDir      = "~/ecoinvent/releases"
	defaultReportsDir       = "~/ecoinvent/change-reports"
	defaultOutputDir        = "~/.local/share/ecomigrate/output"
	defaultLogDir           = "~/.local/share/ecomigrate/logs"
	defaultPatchesDir       = "~/.config/ecomigrate/patches"
	defaultLogRetentionDays = 30
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultSystemModel      = "cutoff"
	defaultOutputVersion    = "2.0.0"
	defaultHomepage         = "https://github.com/brightway-lca/ecoinvent_migrate"
)

// DefaultS3Region is used when neither the config nor the environment names one.
const DefaultS3Region = "us-east-1"

// Output drivers.
const (
	DriverFS = "fs"
	DriverS3 = "s3"
)

// SystemModels lists the system models a release is published in.
var SystemModels = []string{"cutoff", "consequential", "apos", "EN15804"}

// DefaultLicenses is used when the config lists none.
func DefaultLicenses() []License {
	return []License{{
		Name:  "CC BY 4.0",
		Path:  "https://creativecommons.org/licenses/by/4.0/",
		Title: "Creative Commons Attribution 4.0 International",
	}}
}

// DefaultContributors is used when the config lists none.
func DefaultContributors() []Contributor {
	return []Contributor{
		{Title: "ecoinvent association", Path: "https://ecoinvent.org/", Role: "author"},
		{Title: "Chris Mutel", Path: "https://chris.mutel.org/", Role: "wrangler"},
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ReleasesDir: defaultReleasesDir,
			ReportsDir:  defaultReportsDir,
			OutputDir:   defaultOutputDir,
			CacheDir:    defaultCacheDir(),
			LogDir:      defaultLogDir,
			PatchesDir:  defaultPatchesDir,
		},
		Migration: Migration{
			SystemModel: defaultSystemModel,
			StrictRows:  true,
		},
		Output: Output{
			Driver:       DriverFS,
			Version:      defaultOutputVersion,
			Homepage:     defaultHomepage,
			Licenses:     DefaultLicenses(),
			Contributors: DefaultContributors(),
			S3:           S3{Region: DefaultS3Region},
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
