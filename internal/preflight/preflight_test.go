package preflight

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ecomigrate/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckPatchesDirectory_Absent(t *testing.T) {
	result := CheckPatchesDirectory(filepath.Join(t.TempDir(), "patches"))
	if !result.Passed {
		t.Fatalf("absent patches directory should pass, got: %s", result.Detail)
	}
}

func TestCheckRelease(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := cfg.DatasetsDir("3.10", "cutoff")

	if result := CheckRelease("release", dir); result.Passed {
		t.Fatal("expected failure for missing release")
	}

	testsupport.WriteRelease(t, cfg, "3.10", []testsupport.Dataset{
		{Activity: "market for straw", Geography: "CH", Product: "straw", Unit: "kg", Volume: "10"},
	}, nil)
	result := CheckRelease("release", dir)
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if !strings.Contains(result.Detail, "1 datasets") {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
}

func TestCheckRelease_NoDatasets(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if result := CheckRelease("release", dir); result.Passed {
		t.Fatal("expected failure without .spold files")
	}
}

func TestCheckReleaseAcceptsXMLDatasets(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.xml", "b.SPOLD", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	result := CheckRelease("release", dir)
	if !result.Passed || !strings.Contains(result.Detail, "2 datasets") {
		t.Fatalf("expected both dataset files counted, got %+v", result)
	}
}

func TestRunForMigration_SystemModelOverride(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Migration.SystemModel = "apos"
	for _, v := range []string{"3.9.1", "3.10"} {
		testsupport.WriteRelease(t, cfg, v, []testsupport.Dataset{
			{Activity: "a", Geography: "CH", Product: "p", Unit: "kg", Volume: "1"},
		}, nil)
	}
	cfg.Migration.SystemModel = "cutoff"

	releases := func(results []Result) []Result { return results[1:] }
	if failed := Failed(releases(RunForMigration(cfg, "apos", false, "3.9.1", "3.10"))); len(failed) != 0 {
		t.Fatalf("override should check the apos folders, got %+v", failed)
	}
	failed := Failed(releases(RunForMigration(cfg, "", false, "3.9.1", "3.10")))
	if len(failed) != 2 || !strings.Contains(failed[0].Detail, "cutoff") {
		t.Fatalf("empty override should fall back to the configured model, got %+v", failed)
	}
}

func TestCheckChangeReport(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if result := CheckChangeReport(cfg.Paths.ReportsDir, "3.9.1", "3.10"); result.Passed {
		t.Fatal("expected failure without report")
	}

	testsupport.WriteWorkbook(t, testsupport.ChangeReportPath(cfg, "3.9.1", "3.10"), testsupport.Sheet{
		Name: "Qualitative Changes",
		Rows: [][]string{{"x"}},
	})
	result := CheckChangeReport(cfg.Paths.ReportsDir, "3.9.1", "3.10")
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestRunForMigration_Biosphere(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteRelease(t, cfg, "3.9.1", nil, []testsupport.Flow{{UUID: "u1", Name: "Carbon dioxide", Unit: "kg"}})

	results := RunForMigration(cfg, "", true, "3.9.1", "3.10")
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	failed := Failed(results)
	if len(failed) != 2 {
		t.Fatalf("expected report and target listing to fail, got %+v", failed)
	}
	if failed[1].Name != "Elementary exchanges 3.10" {
		t.Fatalf("unexpected failure %+v", failed[1])
	}
}

func TestRunAll_FileOutput(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	for _, dir := range []string{cfg.Paths.ReleasesDir, cfg.Paths.ReportsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	results := RunAll(context.Background(), cfg)
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("expected all checks to pass, got %+v", failed)
	}
	if results[len(results)-1].Name != "Output directory" {
		t.Fatalf("last check should cover the output directory, got %s", results[len(results)-1].Name)
	}
}

type stubBucket struct{ err error }

func (s stubBucket) CheckBucket(context.Context) error { return s.err }

func TestCheckBucket(t *testing.T) {
	if result := CheckBucket(context.Background(), stubBucket{}); !result.Passed {
		t.Fatalf("expected pass, got %s", result.Detail)
	}
	result := CheckBucket(context.Background(), stubBucket{err: context.DeadlineExceeded})
	if result.Passed || !strings.Contains(result.Detail, "timed out") {
		t.Fatalf("unexpected result %+v", result)
	}
	result = CheckBucket(context.Background(), stubBucket{err: errors.New("forbidden")})
	if result.Passed || result.Detail != "forbidden" {
		t.Fatalf("unexpected result %+v", result)
	}
}
