package changereport

import "strings"

// Cell is one spreadsheet value. Empty spreadsheet cells are absent; a
// present cell may still hold the text "nan" if the source sheet carried it.
type Cell struct {
	Text    string
	Present bool
}

// Text returns a present cell holding s.
func Text(s string) Cell { return Cell{Text: s, Present: true} }

// Absent is the missing-value cell.
var Absent = Cell{}

// Row is one data row of a sheet. Line is the 1-based spreadsheet row number.
type Row struct {
	Line    int
	columns []string
	cells   map[string]Cell
}

// NewRow builds a row from ordered column names and their cells. Columns
// without a cell are absent.
func NewRow(line int, columns []string, cells map[string]Cell) Row {
	r := Row{
		Line:    line,
		columns: append([]string(nil), columns...),
		cells:   make(map[string]Cell, len(cells)),
	}
	for k, v := range cells {
		r.cells[k] = v
	}
	return r
}

// RowFromStrings builds a row where empty strings are absent cells. Handy
// for tests and for callers that already hold decoded records.
func RowFromStrings(line int, columns []string, values map[string]string) Row {
	cells := make(map[string]Cell, len(values))
	for k, v := range values {
		if v == "" {
			continue
		}
		cells[k] = Text(v)
	}
	return NewRow(line, columns, cells)
}

// Columns returns the column names in sheet order.
func (r Row) Columns() []string {
	return append([]string(nil), r.columns...)
}

// HasColumn reports whether the sheet defines the column.
func (r Row) HasColumn(name string) bool {
	for _, c := range r.columns {
		if c == name {
			return true
		}
	}
	return false
}

// Cell returns the value at column. The boolean is false when the column
// does not exist in the sheet.
func (r Row) Cell(name string) (Cell, bool) {
	if !r.HasColumn(name) {
		return Absent, false
	}
	return r.cells[name], true
}

// Value returns the cell at column, absent when the column does not exist.
func (r Row) Value(name string) Cell {
	c, _ := r.Cell(name)
	return c
}

// Empty reports whether every cell of the row is absent or blank.
func (r Row) Empty() bool {
	for _, c := range r.cells {
		if c.Present && strings.TrimSpace(c.Text) != "" {
			return false
		}
	}
	return true
}
