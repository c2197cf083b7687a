package changereport

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/cases"

	"ecomigrate/internal/logging"
)

// Sheet names used by change report annexes.
const (
	SheetQualitativeChanges = "qualitative changes"
	SheetEEDeletions        = "ee deletions"
)

// Workbook is an opened change report spreadsheet.
type Workbook struct {
	path string
	file *excelize.File
}

// Open reads an xlsx workbook.
func Open(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open change report %s: %w", path, err)
	}
	return &Workbook{path: path, file: f}, nil
}

// Close releases the workbook.
func (w *Workbook) Close() error {
	if w == nil || w.file == nil {
		return nil
	}
	return w.file.Close()
}

// Path returns the file the workbook was opened from.
func (w *Workbook) Path() string { return w.path }

// SheetNames lists sheets in workbook order.
func (w *Workbook) SheetNames() []string {
	return w.file.GetSheetList()
}

// FindSheet returns the single sheet whose name equals want under Unicode
// case folding.
func (w *Workbook) FindSheet(want string) (string, error) {
	return matchSheet(w.SheetNames(), want)
}

func matchSheet(names []string, want string) (string, error) {
	fold := cases.Fold()
	target := fold.String(want)
	var matches []string
	for _, name := range names {
		if fold.String(name) == target {
			matches = append(matches, name)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: looking for %q, found [%s]", ErrSheetNotFound, want, strings.Join(names, ", "))
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%w %q: [%s]", ErrAmbiguousSheet, want, strings.Join(matches, ", "))
	}
}

// Grid returns the raw cell text of a sheet, one slice per spreadsheet row.
func (w *Workbook) Grid(sheet string) ([][]string, error) {
	rows, err := w.file.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

// Rows reads a sheet whose first row holds the column headers.
func (w *Workbook) Rows(sheet string) ([]Row, error) {
	grid, err := w.Grid(sheet)
	if err != nil {
		return nil, err
	}
	return Table(grid, 0), nil
}

// ShapedRows reads a sheet applying the layout quirks seen in deletion
// sheets across releases.
func (w *Workbook) ShapedRows(sheet string, logger *slog.Logger) ([]Row, error) {
	grid, err := w.Grid(sheet)
	if err != nil {
		return nil, err
	}
	return NormalizeShape(grid, logger), nil
}

// Table turns a grid into rows using grid[headerRow] as the header. Line
// numbers are spreadsheet row numbers. Blank rows are skipped.
func Table(grid [][]string, headerRow int) []Row {
	if headerRow >= len(grid) {
		return nil
	}
	columns := headerNames(grid[headerRow])
	var rows []Row
	for i := headerRow + 1; i < len(grid); i++ {
		row := rowFromValues(i+1, columns, grid[i])
		if row.Empty() {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

// NormalizeShape handles two deletion sheet layouts. A header whose first
// cell starts with "**" is a banner and the real header is the next row. A
// "deleted exchanges" column means the real column names sit in the first
// data row; non-empty values there rename their column and the row is
// dropped.
func NormalizeShape(grid [][]string, logger *slog.Logger) []Row {
	logger = logging.NewComponentLogger(logger, "changereport")
	headerRow := 0
	if len(grid) > 0 && len(grid[0]) > 0 && strings.HasPrefix(grid[0][0], "**") {
		logger.Debug("detected banner row above header; skipping it")
		headerRow = 1
	}
	rows := Table(grid, headerRow)
	if len(rows) == 0 || !rows[0].HasColumn("deleted exchanges") {
		return rows
	}

	logger.Debug("detected header values in first data row; renaming columns")
	first := rows[0]
	columns := first.Columns()
	renamed := make([]string, len(columns))
	for i, col := range columns {
		renamed[i] = col
		if cell := first.Value(col); cell.Present && cell.Text != "" {
			renamed[i] = cell.Text
		}
	}
	out := make([]Row, 0, len(rows)-1)
	for _, row := range rows[1:] {
		cells := make(map[string]Cell, len(columns))
		for i, col := range columns {
			if cell := row.Value(col); cell.Present {
				cells[renamed[i]] = cell
			}
		}
		out = append(out, NewRow(row.Line, renamed, cells))
	}
	return out
}

// headerNames fills blank headers with "Unnamed: <index>" and disambiguates
// repeats with ".1", ".2" suffixes.
func headerNames(raw []string) []string {
	names := make([]string, len(raw))
	counts := make(map[string]int, len(raw))
	for i, h := range raw {
		name := strings.TrimSpace(h)
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		if n := counts[name]; n > 0 {
			counts[name] = n + 1
			name = name + "." + strconv.Itoa(n)
		} else {
			counts[name] = 1
		}
		names[i] = name
	}
	return names
}

func rowFromValues(line int, columns []string, values []string) Row {
	cells := make(map[string]Cell, len(columns))
	for i, col := range columns {
		if i >= len(values) || values[i] == "" {
			continue
		}
		cells[col] = Text(values[i])
	}
	return NewRow(line, columns, cells)
}
