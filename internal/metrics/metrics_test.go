package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type sampleStats struct {
	Rows         int    `json:"rows"`
	SheetMissing bool   `json:"sheet_missing"`
	Label        string `json:"label"`
}

func TestCounts(t *testing.T) {
	counts, err := Counts(sampleStats{Rows: 12, SheetMissing: true, Label: "x"})
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if counts["rows"] != 12 || counts["sheet_missing"] != 1 {
		t.Fatalf("unexpected counts %v", counts)
	}
	if _, ok := counts["label"]; ok {
		t.Fatal("string fields must be skipped")
	}
}

func TestWriteTextfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics", "ecomigrate.prom")
	r := NewRecorder()
	r.Observe(Run{
		Kind:          "technosphere",
		SourceVersion: "3.9.1",
		TargetVersion: "3.10",
		Success:       true,
		Duration:      1500 * time.Millisecond,
		Finished:      time.Unix(1700000000, 0),
		Warnings:      3,
		Counts:        map[string]float64{"replace": 4, "disaggregate": 2},
	})
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	text := string(data)
	for _, want := range []string{
		`ecomigrate_run_entries{counter="replace",kind="technosphere",source_version="3.9.1",target_version="3.10"} 4`,
		`ecomigrate_run_success{kind="technosphere",source_version="3.9.1",target_version="3.10"} 1`,
		`ecomigrate_run_duration_seconds{kind="technosphere",source_version="3.9.1",target_version="3.10"} 1.5`,
		`ecomigrate_run_warnings{kind="technosphere",source_version="3.9.1",target_version="3.10"} 3`,
		`ecomigrate_run_finished_timestamp_seconds{kind="technosphere",source_version="3.9.1",target_version="3.10"} 1.7e+09`,
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("textfile missing %q:\n%s", want, text)
		}
	}
}
