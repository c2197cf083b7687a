package reconcile

import (
	"log/slog"

	"ecomigrate/internal/catalog"
	"ecomigrate/internal/logging"
)

// Stats counts what happened during one reconciliation run.
type Stats struct {
	Rows              int `json:"rows"`
	RejectedRows      int `json:"rejected_rows"`
	ParsedPairs       int `json:"parsed_pairs"`
	AdditivePairs     int `json:"additive_pairs"`
	GeographyRewrites int `json:"geography_rewrites"`
	SourceMisses      int `json:"source_misses"`
	TargetMisses      int `json:"target_misses"`
	DroppedUnknown    int `json:"dropped_unknown"`
	UnmigratedSources int `json:"unmigrated_sources"`
	PatchedPairs      int `json:"patched_pairs"`
	StalePatches      int `json:"stale_patches"`
	IdentityDropped   int `json:"identity_dropped"`
	VolumeMisses      int `json:"volume_misses"`
	EqualAllocations  int `json:"equal_allocations"`
	NegativeTotals    int `json:"negative_totals"`
	Replace           int `json:"replace"`
	Disaggregate      int `json:"disaggregate"`
}

// Warnings sums the counters that correspond to logged warnings.
func (s Stats) Warnings() int {
	return s.TargetMisses + s.UnmigratedSources + s.StalePatches + s.VolumeMisses +
		s.EqualAllocations + s.NegativeTotals + s.RejectedRows
}

type engine struct {
	logger     *slog.Logger
	stats      Stats
	suggesters map[*catalog.Catalog]*suggester
}

func newEngine(logger *slog.Logger) *engine {
	return &engine{
		logger:     logging.NewComponentLogger(logger, "reconcile"),
		suggesters: make(map[*catalog.Catalog]*suggester),
	}
}

func (e *engine) suggestions(cat *catalog.Catalog) *suggester {
	if s, ok := e.suggesters[cat]; ok {
		return s
	}
	s := newSuggester(cat)
	e.suggesters[cat] = s
	return s
}
