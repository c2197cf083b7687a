package biosphere

import (
	"errors"
	"fmt"
	"strings"

	"ecomigrate/internal/changereport"
)

// ErrLabelNotFound marks a change report sheet without a recognisable uuid
// or name column for a version.
var ErrLabelNotFound = errors.New("column label not found")

// LabelError names the version and field whose column could not be found.
type LabelError struct {
	Version string
	Field   string
	Line    int
}

func (e *LabelError) Error() string {
	return fmt.Sprintf("%v: no %s column for version %s (example row %d)", ErrLabelNotFound, e.Field, e.Version, e.Line)
}

func (e *LabelError) Unwrap() error { return ErrLabelNotFound }

// Labels are the column names holding one version's flow uuid and name.
type Labels struct {
	UUID string
	Name string
}

func uuidCandidates(version string) []string {
	return []string{"UUID - " + version, "ID - " + version}
}

func nameCandidates(version string) []string {
	return []string{"Name - " + version, version + " name", version + " - name"}
}

// labelMatcher finds the column for one of candidates in an example row.
type labelMatcher func(example changereport.Row, candidates []string) (string, bool)

// labelMatchers run in order; the first hit wins.
var labelMatchers = []labelMatcher{
	matchHeader,
	matchValue,
}

// matchHeader accepts a column whose header is a candidate.
func matchHeader(example changereport.Row, candidates []string) (string, bool) {
	for _, c := range candidates {
		if example.HasColumn(c) {
			return c, true
		}
	}
	return "", false
}

// matchValue accepts a column whose example cell mentions a candidate. Some
// releases ship the real labels in the first data row instead of the header.
func matchValue(example changereport.Row, candidates []string) (string, bool) {
	for _, col := range example.Columns() {
		cell := example.Value(col)
		if !cell.Present {
			continue
		}
		for _, c := range candidates {
			if strings.Contains(cell.Text, c) {
				return col, true
			}
		}
	}
	return "", false
}

// DiscoverLabels guesses the uuid and name columns for version from an
// example row.
func DiscoverLabels(example changereport.Row, version string) (Labels, error) {
	uuid, ok := discover(example, uuidCandidates(version))
	if !ok {
		return Labels{}, &LabelError{Version: version, Field: "uuid", Line: example.Line}
	}
	name, ok := discover(example, nameCandidates(version))
	if !ok {
		return Labels{}, &LabelError{Version: version, Field: "name", Line: example.Line}
	}
	return Labels{UUID: uuid, Name: name}, nil
}

func discover(example changereport.Row, candidates []string) (string, bool) {
	for _, match := range labelMatchers {
		if col, ok := match(example, candidates); ok {
			return col, true
		}
	}
	return "", false
}
