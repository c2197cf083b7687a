package migrate

import (
	"errors"
	"fmt"
	"strings"

	"ecomigrate/internal/biosphere"
	"ecomigrate/internal/changereport"
	"ecomigrate/internal/reconcile"
)

var (
	// ErrConfiguration marks failures the operator fixes in config or flags.
	ErrConfiguration = errors.New("configuration error")
	// ErrInput marks failures caused by the release files or change report.
	ErrInput = errors.New("input error")
)

// Exit codes reported by the CLI.
const (
	ExitOK            = 0
	ExitFailure       = 1
	ExitConfiguration = 2
	ExitData          = 3
)

// Wrap builds an error message that includes stage context while tagging it
// with marker for exit code classification. The marker should be one of the
// exported sentinel errors above; nil leaves the error untagged.
func Wrap(marker error, stage, operation string, err error) error {
	detail := buildDetail(stage, operation)
	switch {
	case marker != nil && err != nil:
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	case marker != nil:
		return fmt.Errorf("%w: %s", marker, detail)
	case err != nil:
		return fmt.Errorf("%s: %w", detail, err)
	default:
		return errors.New(detail)
	}
}

// ExitCode maps a run error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrConfiguration), errors.Is(err, reconcile.ErrConfiguration):
		return ExitConfiguration
	case errors.Is(err, ErrInput),
		errors.Is(err, reconcile.ErrFieldCountMismatch),
		errors.Is(err, reconcile.ErrUncombinable),
		errors.Is(err, reconcile.ErrDuplicateTarget),
		errors.Is(err, biosphere.ErrLabelNotFound),
		errors.Is(err, changereport.ErrReportNotFound),
		errors.Is(err, changereport.ErrAmbiguousReport),
		errors.Is(err, changereport.ErrVersionJump),
		errors.Is(err, changereport.ErrSheetNotFound),
		errors.Is(err, changereport.ErrAmbiguousSheet):
		return ExitData
	default:
		return ExitFailure
	}
}

func buildDetail(stage, operation string) string {
	parts := make([]string, 0, 2)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if len(parts) == 0 {
		return "migration failure"
	}
	return strings.Join(parts, ": ")
}
