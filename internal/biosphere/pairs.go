package biosphere

import (
	"strconv"
	"strings"

	"ecomigrate/internal/catalog"
	"ecomigrate/internal/changereport"
)

// Change report columns shared by every release layout.
const (
	ColumnConversionFactor = "Conversion Factor (old-new)"
	ColumnComment          = "Comment"
)

// Replacement maps an old flow onto its successor.
type Replacement struct {
	Source           catalog.Flow `json:"source"`
	Target           catalog.Flow `json:"target"`
	ConversionFactor *float64     `json:"conversion_factor,omitempty"`
	Comment          string       `json:"comment,omitempty"`
}

// Deletion marks an old flow without successor.
type Deletion struct {
	Source  catalog.Flow `json:"source"`
	Comment string       `json:"comment,omitempty"`
}

// Result holds the biosphere mapping sections.
type Result struct {
	Replace []Replacement `json:"replace,omitempty"`
	Delete  []Deletion    `json:"delete,omitempty"`
	Stats   Stats         `json:"-"`
}

// Empty reports whether the result carries no mapping at all.
func (r Result) Empty() bool {
	return len(r.Replace) == 0 && len(r.Delete) == 0
}

// Stats counts what happened during one biosphere run.
type Stats struct {
	Rows          int  `json:"rows"`
	SkippedRows   int  `json:"skipped_rows"`
	ReportReplace int  `json:"report_replace"`
	ReportDelete  int  `json:"report_delete"`
	DiffReplace   int  `json:"diff_replace"`
	DiffDelete    int  `json:"diff_delete"`
	SheetMissing  bool `json:"sheet_missing"`
}

// ParseRows turns EE deletions rows into replacements and, with
// keepDeletions, deletions. Rows without a complete source are skipped. The
// returned set holds the source uuid of every usable row, whether or not a
// deletion was kept, so the listing diff does not report it again.
func ParseRows(rows []changereport.Row, sourceVersion, targetVersion string, keepDeletions bool) (Result, map[string]struct{}, error) {
	covered := make(map[string]struct{})
	var res Result
	res.Stats.Rows = len(rows)
	if len(rows) == 0 {
		return res, covered, nil
	}

	sourceLabels, err := DiscoverLabels(rows[0], sourceVersion)
	if err != nil {
		return Result{}, nil, err
	}
	targetLabels, err := DiscoverLabels(rows[0], targetVersion)
	if err != nil {
		return Result{}, nil, err
	}

	for _, row := range rows {
		source, ok := flowFromRow(row, sourceLabels)
		if !ok {
			res.Stats.SkippedRows++
			continue
		}
		covered[source.UUID] = struct{}{}
		comment := strings.TrimSpace(row.Value(ColumnComment).Text)

		if target, ok := flowFromRow(row, targetLabels); ok {
			res.Replace = append(res.Replace, Replacement{
				Source:           source,
				Target:           target,
				ConversionFactor: conversionFactor(row),
				Comment:          comment,
			})
			continue
		}
		if keepDeletions {
			res.Delete = append(res.Delete, Deletion{Source: source, Comment: comment})
		}
	}
	res.Stats.ReportReplace = len(res.Replace)
	res.Stats.ReportDelete = len(res.Delete)
	return res, covered, nil
}

func flowFromRow(row changereport.Row, labels Labels) (catalog.Flow, bool) {
	uuid := row.Value(labels.UUID)
	name := row.Value(labels.Name)
	if missing(uuid) || missing(name) {
		return catalog.Flow{}, false
	}
	return catalog.Flow{UUID: strings.TrimSpace(uuid.Text), Name: strings.TrimSpace(name.Text)}, true
}

func missing(c changereport.Cell) bool {
	return !c.Present || strings.EqualFold(strings.TrimSpace(c.Text), "nan")
}

// conversionFactor returns nil for absent, unparseable or unit factors.
func conversionFactor(row changereport.Row) *float64 {
	cell := row.Value(ColumnConversionFactor)
	if missing(cell) {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(cell.Text), 64)
	if err != nil || f == 1 || f != f {
		return nil
	}
	return &f
}
