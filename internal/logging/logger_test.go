package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ecomigrate/internal/logging"
	"ecomigrate/internal/testsupport"
)

func TestNewFromConfigConsole(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Logging.Level = "info"
	var buf bytes.Buffer
	logger, err := logging.NewFromConfig(cfg, &buf)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("shown")
	if out := buf.String(); strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestConsoleLoggerLayout(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger = logging.NewComponentLogger(logger, "reconcile").With(
		logging.String(logging.FieldSourceVersion, "3.10.1"),
		logging.String(logging.FieldTargetVersion, "3.11"),
	)
	logging.WarnWithContext(logger, "target missing", "target_missing",
		logging.String(logging.FieldTarget, "market for straw | CH | straw | kg"),
	)

	out := buf.String()
	for _, want := range []string{
		"WARN [reconcile] 3.10.1 → 3.11 – target missing",
		"- Event: target_missing",
		"- Hint: see the run log for details",
		"- Target: market for straw | CH | straw | kg",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, ".go:") {
		t.Fatalf("info level output should omit caller, got %q", out)
	}
}

func TestConsoleLoggerDebugListsAllFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("process geography corrected", logging.String("from", "GLO"), logging.String("to", "RoW"))

	out := buf.String()
	if !strings.Contains(out, "    from: GLO") || !strings.Contains(out, "    to: RoW") {
		t.Fatalf("expected raw debug fields, got %q", out)
	}
	if !strings.Contains(out, ".go:") {
		t.Fatalf("expected caller information in debug logs, got %q", out)
	}
}

func TestNewInvalidLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "invalid", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestOpenRunLogWritesDebugWithRunID(t *testing.T) {
	var console bytes.Buffer
	base, err := logging.New(logging.Options{Format: "console", Level: "warn", Writer: &console})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	dir := t.TempDir()
	started := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)

	logger, runLog, err := logging.OpenRunLog(base, dir, "run-1", started)
	if err != nil {
		t.Fatalf("OpenRunLog returned error: %v", err)
	}
	logger.Debug("parsed change report rows", logging.Int("rows", 3))
	if err := runLog.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if want := filepath.Join(dir, "20250304T050607Z-run-1.log"); runLog.Path != want {
		t.Fatalf("run log path = %q, want %q", runLog.Path, want)
	}
	if console.Len() != 0 {
		t.Fatalf("debug line leaked to console: %q", console.String())
	}
	data, err := os.ReadFile(runLog.Path)
	if err != nil {
		t.Fatalf("read run log: %v", err)
	}
	var line map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &line); err != nil {
		t.Fatalf("decode run log line: %v (%s)", err, data)
	}
	if line[logging.FieldRunID] != "run-1" || line["level"] != "debug" || line["rows"] != float64(3) {
		t.Fatalf("unexpected run log line: %v", line)
	}
}

func TestWithContextAddsFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ctx := logging.WithStage(logging.WithRunID(context.Background(), "abc"), "group")
	logging.WithContext(ctx, logger).Info("contextual log")

	var line map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if line[logging.FieldRunID] != "abc" || line[logging.FieldStage] != "group" {
		t.Fatalf("missing context fields: %v", line)
	}
}

func TestPruneRunLogs(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	old := filepath.Join(dir, "old.log")
	current := filepath.Join(dir, "current.log")
	other := filepath.Join(dir, "notes.txt")
	for _, p := range []string{old, current, other} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		stale := now.AddDate(0, 0, -30)
		if err := os.Chtimes(p, stale, stale); err != nil {
			t.Fatal(err)
		}
	}

	if removed := logging.PruneRunLogs(nil, dir, 7, current, now); removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatalf("expected %s removed", old)
	}
	for _, p := range []string{current, other} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("expected %s kept: %v", p, err)
		}
	}
	if removed := logging.PruneRunLogs(nil, dir, 0, "", now); removed != 0 {
		t.Fatalf("retention 0 should disable pruning, removed %d", removed)
	}
}
