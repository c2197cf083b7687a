package reconcile

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"ecomigrate/internal/changereport"
	"ecomigrate/internal/logging"
)

const multiValueSeparator = ";\n"

// Change report column prefixes; each is suffixed with " - <version>".
const (
	ColumnActivityName = "Activity Name"
	ColumnGeography    = "Geography"
	ColumnProduct      = "Reference Product"
	ColumnProductUnit  = "Reference Product Unit"
)

// VersionColumn returns the change report column name for a field and version.
func VersionColumn(field, version string) string {
	return field + " - " + version
}

// ParsePairs turns one change report row into source/target candidates.
//
// A row whose source activity is absent describes a new dataset and yields
// nothing. Product and unit cells may hold several values separated by
// ";\n"; a single value on one side is broadcast against the other, and
// equal-length lists are aligned by position.
func ParsePairs(row changereport.Row, file, sourceVersion, targetVersion string) ([]Pair, error) {
	for _, version := range []string{sourceVersion, targetVersion} {
		if !row.HasColumn(VersionColumn(ColumnActivityName, version)) {
			return nil, fmt.Errorf("%w: can't find version %s in data row; versions found: %s",
				ErrConfiguration, version, strings.Join(rowVersions(row), ", "))
		}
	}

	sources, err := splitRecords(row, sourceVersion)
	if err != nil || len(sources) == 0 {
		return nil, err
	}
	targets, err := splitRecords(row, targetVersion)
	if err != nil || len(targets) == 0 {
		return nil, err
	}

	switch {
	case len(sources) > 1 && len(targets) > 1 && len(sources) != len(targets):
		return nil, fmt.Errorf("%w: can't do M:N combination of %d source and %d target datasets",
			ErrUncombinable, len(sources), len(targets))
	case len(sources) == 1 && len(targets) > 1:
		sources = repeat(sources[0], len(targets))
	case len(targets) == 1 && len(sources) > 1:
		targets = repeat(targets[0], len(sources))
	}

	comment := rowComment(row.Line, file)
	pairs := make([]Pair, 0, len(sources))
	for i := range sources {
		if placeholder(sources[i]) || placeholder(targets[i]) {
			continue
		}
		pairs = append(pairs, Pair{Source: sources[i], Target: targets[i], Comment: comment})
	}
	return pairs, nil
}

func splitRecords(row changereport.Row, version string) ([]Record, error) {
	activity := row.Value(VersionColumn(ColumnActivityName, version))
	if !activity.Present {
		return nil, nil
	}
	geography := row.Value(VersionColumn(ColumnGeography, version))
	products := strings.Split(row.Value(VersionColumn(ColumnProduct, version)).Text, multiValueSeparator)
	units := strings.Split(row.Value(VersionColumn(ColumnProductUnit, version)).Text, multiValueSeparator)
	if len(products) != len(units) {
		return nil, fmt.Errorf("%w: can't match %d products to %d units for version %s",
			ErrFieldCountMismatch, len(products), len(units), version)
	}

	out := make([]Record, len(products))
	for i := range products {
		out[i] = Record{
			ActivityName: activity.Text,
			Geography:    geography.Text,
			ProductName:  products[i],
			Unit:         units[i],
		}
	}
	return out, nil
}

// placeholder reports records carrying a stringified missing value or an
// empty field. They stand for withdrawn sub-entries, not migrations.
func placeholder(r Record) bool {
	for _, v := range []string{r.ActivityName, r.Geography, r.ProductName, r.Unit} {
		if v == "" || strings.ToLower(v) == "nan" {
			return true
		}
	}
	return false
}

func repeat(r Record, n int) []Record {
	out := make([]Record, n)
	for i := range out {
		out[i] = r
	}
	return out
}

func rowVersions(row changereport.Row) []string {
	var versions []string
	for _, col := range row.Columns() {
		if !strings.HasPrefix(col, ColumnActivityName) {
			continue
		}
		parts := strings.Split(col, " - ")
		versions = append(versions, strings.TrimSpace(parts[len(parts)-1]))
	}
	return versions
}

// ParseOptions controls how ParseRows treats malformed rows.
type ParseOptions struct {
	// Strict aborts on the first malformed row. Otherwise malformed rows are
	// collected and skipped. Configuration errors always abort.
	Strict bool
	Logger *slog.Logger
}

// ParseRows parses every row of a change report sheet.
func ParseRows(rows []changereport.Row, file, sourceVersion, targetVersion string, opts ParseOptions) ([]Pair, []*RowError, error) {
	logger := logging.NewComponentLogger(opts.Logger, "parser")
	var (
		pairs  []Pair
		failed []*RowError
	)
	for _, row := range rows {
		got, err := ParsePairs(row, file, sourceVersion, targetVersion)
		if err != nil {
			rowErr := &RowError{File: file, Line: row.Line, Err: err}
			if opts.Strict || errors.Is(err, ErrConfiguration) {
				return nil, failed, rowErr
			}
			logging.ErrorWithContext(logger, "rejected change report row", "row_rejected",
				logging.String(logging.FieldFile, file),
				logging.Int(logging.FieldLine, row.Line),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "fix the row or add a patch covering it"),
			)
			failed = append(failed, rowErr)
			continue
		}
		pairs = append(pairs, got...)
	}
	logger.Debug("parsed change report rows",
		logging.Int("rows", len(rows)),
		logging.Int("pairs", len(pairs)),
		logging.Int("rejected", len(failed)),
	)
	return pairs, failed, nil
}
