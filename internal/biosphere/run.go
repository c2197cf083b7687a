package biosphere

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"ecomigrate/internal/catalog"
	"ecomigrate/internal/changereport"
	"ecomigrate/internal/logging"
)

// SheetSource is the part of a change report workbook the biosphere run
// reads from.
type SheetSource interface {
	SheetNames() []string
	FindSheet(want string) (string, error)
	ShapedRows(sheet string, logger *slog.Logger) ([]changereport.Row, error)
}

// ReadDeletions returns the normalized rows of the EE deletions sheet. A
// workbook without that sheet yields found=false and no error.
func ReadDeletions(src SheetSource, logger *slog.Logger) (rows []changereport.Row, found bool, err error) {
	logger = logging.NewComponentLogger(logger, "biosphere")
	sheet, err := src.FindSheet(changereport.SheetEEDeletions)
	switch {
	case errors.Is(err, changereport.ErrSheetNotFound):
		logger.Info("no EE deletions sheet; comparing flow listings only",
			logging.String("sheets", strings.Join(src.SheetNames(), ", ")),
		)
		return nil, false, nil
	case err != nil:
		return nil, false, err
	}
	rows, err = src.ShapedRows(sheet, logger)
	if err != nil {
		return nil, true, err
	}
	return rows, true, nil
}

// Inputs carries everything a biosphere reconciliation needs.
type Inputs struct {
	SourceVersion string
	TargetVersion string
	// Rows are the EE deletions rows; SheetFound is false when the report
	// has no such sheet.
	Rows          []changereport.Row
	SheetFound    bool
	SourceFlows   *catalog.FlowListing
	TargetFlows   *catalog.FlowListing
	KeepDeletions bool
	Logger        *slog.Logger
}

// Run builds the biosphere mapping from the report rows and then adds the
// changes only visible by comparing the two flow listings.
func Run(in Inputs) (Result, error) {
	if in.SourceFlows == nil || in.TargetFlows == nil {
		return Result{}, errors.New("biosphere: source and target flow listings are required")
	}
	logger := logging.NewComponentLogger(in.Logger, "biosphere")
	logger.Info("the EE deletions layout varies between releases; review the output carefully",
		logging.String(logging.FieldSourceVersion, in.SourceVersion),
		logging.String(logging.FieldTargetVersion, in.TargetVersion),
	)

	var (
		res     Result
		covered = map[string]struct{}{}
	)
	switch {
	case !in.SheetFound:
		res.Stats.SheetMissing = true
	case len(in.Rows) == 0:
		logger.Info("EE deletions sheet is empty; this likely means no biosphere changes",
			logging.String(logging.FieldSourceVersion, in.SourceVersion),
			logging.String(logging.FieldTargetVersion, in.TargetVersion),
		)
	default:
		var err error
		res, covered, err = ParseRows(in.Rows, in.SourceVersion, in.TargetVersion, in.KeepDeletions)
		if err != nil {
			return Result{}, fmt.Errorf("parse EE deletions: %w", err)
		}
	}

	res = Supplement(res, covered, in.SourceFlows, in.TargetFlows, in.KeepDeletions)
	logger.Info("biosphere reconciliation finished",
		logging.Int("replace", len(res.Replace)),
		logging.Int("delete", len(res.Delete)),
		logging.Int("from_listing_diff", res.Stats.DiffReplace+res.Stats.DiffDelete),
	)
	return res, nil
}
