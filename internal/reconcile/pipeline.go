package reconcile

import (
	"errors"
	"log/slog"

	"ecomigrate/internal/catalog"
	"ecomigrate/internal/changereport"
	"ecomigrate/internal/logging"
)

// Inputs carries everything a technosphere reconciliation needs besides the
// change report rows.
type Inputs struct {
	File          string
	SourceVersion string
	TargetVersion string
	Source        *catalog.Catalog
	Target        *catalog.Catalog
	Additive      []AdditivePatch
	Corrective    []CorrectivePatch
	Strict        bool
	Logger        *slog.Logger
}

// Result is the grouped mapping. Empty sections are omitted when encoded.
type Result struct {
	Replace      []Pair           `json:"replace,omitempty"`
	Disaggregate []Disaggregation `json:"disaggregate,omitempty"`
	Rejected     []*RowError      `json:"-"`
	Stats        Stats            `json:"-"`
}

// Empty reports whether the result carries no mapping at all.
func (r Result) Empty() bool {
	return len(r.Replace) == 0 && len(r.Disaggregate) == 0
}

// Run reconciles change report rows into replace and disaggregate sections.
// It performs no I/O besides logging.
func Run(rows []changereport.Row, in Inputs) (Result, error) {
	if in.Source == nil || in.Target == nil {
		return Result{}, errors.New("reconcile: source and target catalogs are required")
	}
	e := newEngine(in.Logger)
	e.stats.Rows = len(rows)

	pairs, rejected, err := ParseRows(rows, in.File, in.SourceVersion, in.TargetVersion, ParseOptions{
		Strict: in.Strict,
		Logger: in.Logger,
	})
	if err != nil {
		return Result{}, err
	}
	e.stats.RejectedRows = len(rejected)
	e.stats.ParsedPairs = len(pairs)

	before := len(pairs)
	pairs = ApplyAdditive(pairs, in.Additive)
	e.stats.AdditivePairs = len(pairs) - before

	pairs = e.resolveGeography(pairs, in.Source, in.Target)
	e.reportUnmigratedSources(pairs, in.Source, in.Target)
	pairs = e.applyCorrective(pairs, in.Corrective)

	replace, disagg, err := e.group(pairs, in.Target)
	if err != nil {
		return Result{}, err
	}

	e.logger.Info("technosphere reconciliation finished",
		logging.String(logging.FieldSourceVersion, in.SourceVersion),
		logging.String(logging.FieldTargetVersion, in.TargetVersion),
		logging.Int("replace", len(replace)),
		logging.Int("disaggregate", len(disagg)),
		logging.Int("warnings", e.stats.Warnings()),
	)
	return Result{
		Replace:      replace,
		Disaggregate: disagg,
		Rejected:     rejected,
		Stats:        e.stats,
	}, nil
}

// reportUnmigratedSources warns about entries that exist only in the old
// release and that no pair migrates.
func (e *engine) reportUnmigratedSources(pairs []Pair, source, target *catalog.Catalog) {
	covered := make(map[catalog.Key]struct{}, len(pairs))
	for _, p := range pairs {
		covered[p.Source.Key()] = struct{}{}
	}
	for _, entry := range source.Entries() {
		key := entry.Key()
		if target.Contains(key) {
			continue
		}
		if _, ok := covered[key]; ok {
			continue
		}
		e.stats.UnmigratedSources++
		logging.WarnWithContext(e.logger, "source dataset changed but neither change report nor patches migrate it", "source_unmigrated",
			logging.String(logging.FieldDatabase, source.Name()),
			logging.String(logging.FieldSource, key.String()),
			logging.String("dataset_file", entry.Filename),
			logging.String(logging.FieldErrorHint, "add an additive patch if a successor exists"),
		)
	}
}
