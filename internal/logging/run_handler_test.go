package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestRunIDHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newRunIDHandler(slog.NewJSONHandler(&buf, nil), "run-123")).With("extra", "value")
	logger.Info("test message")

	output := buf.String()
	if !strings.Contains(output, `"run_id":"run-123"`) {
		t.Errorf("expected run_id in output, got: %s", output)
	}
	if !strings.Contains(output, `"extra":"value"`) {
		t.Errorf("expected extra attr in output, got: %s", output)
	}
}

func TestRunIDHandlerEdgeCases(t *testing.T) {
	if _, ok := newRunIDHandler(nil, "x").(NoopHandler); !ok {
		t.Error("expected NoopHandler when base is nil")
	}
	base := slog.NewJSONHandler(&bytes.Buffer{}, nil)
	if newRunIDHandler(base, "") != base {
		t.Error("expected base handler when run id is empty")
	}
}

func TestTitleizeKey(t *testing.T) {
	cases := map[string]string{
		"unmigrated_sources": "Unmigrated Sources",
		"dataset-file":       "Dataset File",
		"rows":               "Rows",
	}
	for in, want := range cases {
		if got := titleizeKey(in); got != want {
			t.Errorf("titleizeKey(%q) = %q, want %q", in, got, want)
		}
	}
}
