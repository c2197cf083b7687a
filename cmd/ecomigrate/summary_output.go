package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"ecomigrate/internal/migrate"
)

// writeJSON prints v for --json. Dataset names keep their <, > and & as is.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var sectionOrder = []string{"replace", "disaggregate", "delete"}

func printSummary(w io.Writer, summary *migrate.Summary) error {
	colorize := shouldColorize(w)

	rows := [][]string{
		{"Run", summary.RunID},
		{"Kind", string(summary.Kind)},
		{"Source", summary.SourceID},
		{"Target", summary.TargetID},
		{"Change report", summary.Report},
		{"Patches", strconv.Itoa(summary.Patches)},
	}
	for _, name := range sectionNames(summary.Sections) {
		rows = append(rows, []string{"Section " + name, strconv.Itoa(summary.Sections[name])})
	}
	warnings := strconv.Itoa(summary.Warnings)
	if colorize && summary.Warnings > 0 {
		warnings = text.FgYellow.Sprint(warnings)
	}
	rows = append(rows, []string{"Warnings", warnings})
	if len(summary.RejectedRows) > 0 {
		rows = append(rows, []string{"Rejected rows", strconv.Itoa(len(summary.RejectedRows))})
	}
	rows = append(rows,
		[]string{"Dry run", yesNo(summary.DryRun)},
		[]string{"Output", outputLabel(summary)},
		[]string{"Run log", summary.LogPath},
		[]string{"Elapsed", summary.Duration.Round(time.Millisecond).String()},
	)

	if _, err := fmt.Fprintln(w, renderTable([]string{"Field", "Value"}, rows)); err != nil {
		return err
	}
	for _, rejected := range summary.RejectedRows {
		if _, err := fmt.Fprintf(w, "rejected: %s\n", rejected); err != nil {
			return err
		}
	}
	return nil
}

func outputLabel(summary *migrate.Summary) string {
	switch {
	case summary.NothingToDo:
		return "nothing to do"
	case summary.DryRun:
		return "not written"
	case summary.Location == "":
		return "-"
	default:
		return summary.Location
	}
}

// sectionNames lists known sections first, then anything else sorted.
func sectionNames(sections map[string]int) []string {
	var names []string
	seen := make(map[string]bool, len(sections))
	for _, name := range sectionOrder {
		if _, ok := sections[name]; ok {
			names = append(names, name)
			seen[name] = true
		}
	}
	var rest []string
	for name := range sections {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
