package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ecomigrate/internal/config"
	"ecomigrate/internal/migrate"
	"ecomigrate/internal/reconcile"
	"ecomigrate/internal/testsupport"
)

const (
	srcV = "2.0"
	tgtV = "2.1"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	configPath := filepath.Join(testsupport.BaseDir(cfg), "ecomigrate.toml")
	writeTestConfig(t, configPath, cfg)
	return &cliTestEnv{cfg: cfg, configPath: configPath}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
releases_dir = %q
reports_dir = %q
output_dir = %q
cache_dir = %q
log_dir = %q
patches_dir = %q

[migration]
system_model = "cutoff"

[logging]
level = "info"
`,
		cfg.Paths.ReleasesDir,
		cfg.Paths.ReportsDir,
		cfg.Paths.OutputDir,
		cfg.Paths.CacheDir,
		cfg.Paths.LogDir,
		cfg.Paths.PatchesDir,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func writeFixture(t *testing.T, cfg *config.Config) {
	t.Helper()
	testsupport.WriteRelease(t, cfg, srcV, []testsupport.Dataset{
		{Activity: "heat production", Geography: "GLO", Product: "heat", Unit: "MJ", Volume: "5"},
	}, nil)
	testsupport.WriteRelease(t, cfg, tgtV, []testsupport.Dataset{
		{Activity: "heat production, gas", Geography: "GLO", Product: "heat", Unit: "MJ", Volume: "3"},
		{Activity: "heat production, oil", Geography: "GLO", Product: "heat", Unit: "MJ", Volume: "1"},
	}, nil)
	var header []string
	for _, v := range []string{srcV, tgtV} {
		header = append(header,
			reconcile.VersionColumn(reconcile.ColumnActivityName, v),
			reconcile.VersionColumn(reconcile.ColumnGeography, v),
			reconcile.VersionColumn(reconcile.ColumnProduct, v),
			reconcile.VersionColumn(reconcile.ColumnProductUnit, v),
		)
	}
	testsupport.WriteWorkbook(t, testsupport.ChangeReportPath(cfg, srcV, tgtV), testsupport.Sheet{
		Name: "Qualitative Changes",
		Rows: [][]string{
			header,
			{"heat production", "GLO", "heat", "MJ", "heat production, gas", "GLO", "heat", "MJ"},
			{"heat production", "GLO", "heat", "MJ", "heat production, oil", "GLO", "heat", "MJ"},
		},
	})
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)
	t.Setenv("HOME", t.TempDir())

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, env.configPath)

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	_, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if migrate.ExitCode(err) != migrate.ExitConfiguration {
		t.Fatalf("second init should be a configuration error, got %v", err)
	}

	// The sample must load as-is.
	if _, _, err := runCLI(t, []string{"config", "validate"}, target); err != nil {
		t.Fatalf("validate sample: %v", err)
	}
}

func TestInvalidConfigExitCode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[migration]\nsystem_model = \"nope\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, _, err := runCLI(t, []string{"config", "validate"}, path)
	if migrate.ExitCode(err) != migrate.ExitConfiguration {
		t.Fatalf("expected configuration exit code, got %d (%v)", migrate.ExitCode(err), err)
	}

	env := setupCLITestEnv(t)
	_, _, err = runCLI(t, []string{"--log-level", "loud", "config", "validate"}, env.configPath)
	if migrate.ExitCode(err) != migrate.ExitConfiguration {
		t.Fatalf("bad --log-level should be a configuration error, got %v", err)
	}
}

func TestTechnosphereJSONSummary(t *testing.T) {
	env := setupCLITestEnv(t)
	writeFixture(t, env.cfg)

	out, _, err := runCLI(t, []string{"technosphere", "--source", srcV, "--target", tgtV, "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("technosphere: %v", err)
	}
	var summary migrate.Summary
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("decode summary: %v\n%s", err, out)
	}
	if summary.Sections["disaggregate"] != 1 {
		t.Fatalf("unexpected sections %v", summary.Sections)
	}
	if _, err := os.Stat(summary.Location); err != nil {
		t.Fatalf("datapackage missing: %v", err)
	}

	out, _, err = runCLI(t, []string{"cache", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("cache list: %v", err)
	}
	requireContains(t, out, "datasets")
	requireContains(t, out, tgtV)

	out, _, err = runCLI(t, []string{"cache", "clear"}, env.configPath)
	if err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	requireContains(t, out, "Removed 2 cached snapshots")
}

func TestTechnosphereTableSummary(t *testing.T) {
	env := setupCLITestEnv(t)
	writeFixture(t, env.cfg)

	out, _, err := runCLI(t, []string{"technosphere", "--source", srcV, "--target", tgtV, "--dry-run"}, env.configPath)
	if err != nil {
		t.Fatalf("technosphere: %v", err)
	}
	requireContains(t, out, "Section disaggregate")
	requireContains(t, out, "not written")
}

func TestTechnosphereMissingReportExitCode(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteRelease(t, env.cfg, srcV, []testsupport.Dataset{{Activity: "a", Geography: "GLO", Product: "p", Unit: "kg"}}, nil)
	testsupport.WriteRelease(t, env.cfg, tgtV, []testsupport.Dataset{{Activity: "a", Geography: "GLO", Product: "p", Unit: "kg"}}, nil)

	_, _, err := runCLI(t, []string{"technosphere", "--source", srcV, "--target", tgtV}, env.configPath)
	if migrate.ExitCode(err) != migrate.ExitData {
		t.Fatalf("expected data exit code, got %d (%v)", migrate.ExitCode(err), err)
	}
}

func TestPatchesList(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"patches", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("patches list: %v", err)
	}
	requireContains(t, out, "3.9.1_3.10")
	requireContains(t, out, "3.10.1_3.11")

	out, _, err = runCLI(t, []string{"patches", "list", "--source", "3.9.1", "--target", "3.10", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("patches list pair: %v", err)
	}
	var entries []map[string]any
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("decode entries: %v", err)
	}
	if len(entries) != 9 {
		t.Fatalf("expected 9 builtin patches, got %d", len(entries))
	}
	if entries[0]["origin"] != "builtin" {
		t.Fatalf("unexpected origin %v", entries[0]["origin"])
	}
}

func TestDoctor(t *testing.T) {
	env := setupCLITestEnv(t)
	for _, dir := range []string{env.cfg.Paths.ReleasesDir, env.cfg.Paths.ReportsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}

	out, _, err := runCLI(t, []string{"doctor"}, env.configPath)
	if err != nil {
		t.Fatalf("doctor: %v\n%s", err, out)
	}
	requireContains(t, out, "Output directory")

	out, _, err = runCLI(t, []string{"doctor", "--source", srcV, "--target", tgtV}, env.configPath)
	if migrate.ExitCode(err) != migrate.ExitData {
		t.Fatalf("doctor without inputs should fail with a data error, got %v", err)
	}
	requireContains(t, out, "FAIL")
}
