package preflight

import (
	"context"

	"ecomigrate/internal/config"
	"ecomigrate/internal/datapackage"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}

// RunAll executes the environment checks for the given config. Output
// checks follow the configured driver.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	// Inputs are only read
	results = append(results, CheckDirectoryReadable("Releases directory", cfg.Paths.ReleasesDir))
	results = append(results, CheckDirectoryReadable("Reports directory", cfg.Paths.ReportsDir))
	results = append(results, CheckPatchesDirectory(cfg.Paths.PatchesDir))

	results = append(results, CheckDirectoryAccess("Cache directory", cfg.Paths.CacheDir))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))

	switch cfg.Output.Driver {
	case config.DriverS3:
		sink, err := datapackage.NewS3Sink(ctx, cfg.Output.S3, nil)
		if err != nil {
			results = append(results, Result{Name: "Output bucket", Detail: err.Error()})
		} else {
			results = append(results, CheckBucket(ctx, sink))
		}
	default:
		results = append(results, CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir))
	}

	return results
}

// RunForMigration checks that the inputs of one migration step exist under
// systemModel, or the configured model when it is empty. Biosphere steps
// need the flow listings; technosphere steps the datasets.
func RunForMigration(cfg *config.Config, systemModel string, biosphere bool, sourceVersion, targetVersion string) []Result {
	if cfg == nil {
		return nil
	}
	model := systemModel
	if model == "" {
		model = cfg.Migration.SystemModel
	}
	results := []Result{CheckChangeReport(cfg.Paths.ReportsDir, sourceVersion, targetVersion)}
	for _, version := range []string{sourceVersion, targetVersion} {
		if biosphere {
			results = append(results, CheckFlowListing("Elementary exchanges "+version, cfg.FlowsPath(version, model)))
			continue
		}
		results = append(results, CheckRelease("Release "+version, cfg.DatasetsDir(version, model)))
	}
	return results
}
