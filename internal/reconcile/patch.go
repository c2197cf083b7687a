package reconcile

import (
	"fmt"
	"log/slog"

	"ecomigrate/internal/catalog"
	"ecomigrate/internal/logging"
)

// AdditivePatch declares pairs the change report failed to mention. Each
// delta is merged onto a copy of Source to form a target. With Targets set
// the patch describes a disaggregation.
type AdditivePatch struct {
	Source  Record
	Target  Delta
	Targets []Delta
	Comment string
}

// Context selects which side of existing pairs a corrective patch matches.
type Context string

const (
	ContextSource Context = "source"
	ContextTarget Context = "target"
)

// ParseContext validates a context label.
func ParseContext(s string) (Context, error) {
	switch Context(s) {
	case ContextSource, ContextTarget:
		return Context(s), nil
	}
	return "", fmt.Errorf("invalid patch context %q (want source or target)", s)
}

// CorrectivePatch rewrites fields of pairs whose Context side equals Source.
type CorrectivePatch struct {
	Source  Record
	Target  Delta
	Context Context
	Comment string
}

// ApplyAdditive appends the pairs declared by patches. Existing pairs are
// kept as they are.
func ApplyAdditive(pairs []Pair, patches []AdditivePatch) []Pair {
	out := make([]Pair, len(pairs), len(pairs)+len(patches))
	copy(out, pairs)
	for _, patch := range patches {
		out = append(out, patch.pairs()...)
	}
	return out
}

func (p AdditivePatch) pairs() []Pair {
	if len(p.Targets) == 0 {
		return []Pair{{Source: p.Source, Target: Merge(p.Source, p.Target), Comment: p.Comment}}
	}
	out := make([]Pair, len(p.Targets))
	for i, delta := range p.Targets {
		out[i] = Pair{Source: p.Source, Target: Merge(p.Source, delta), Comment: p.Comment}
	}
	return out
}

// ApplyCorrective rewrites existing pairs. Both indices are built once from
// the pairs as given, so patches should not overlap. Every pair matching a
// patch is rewritten and gets the patch comment appended; applying the same
// patches twice appends twice.
func ApplyCorrective(pairs []Pair, patches []CorrectivePatch, logger *slog.Logger) []Pair {
	e := newEngine(logger)
	return e.applyCorrective(pairs, patches)
}

func (e *engine) applyCorrective(pairs []Pair, patches []CorrectivePatch) []Pair {
	out := make([]Pair, len(pairs))
	copy(out, pairs)

	bySource := make(map[catalog.Key][]int, len(out))
	byTarget := make(map[catalog.Key][]int, len(out))
	for i, p := range out {
		bySource[p.Source.Key()] = append(bySource[p.Source.Key()], i)
		byTarget[p.Target.Key()] = append(byTarget[p.Target.Key()], i)
	}

	for _, patch := range patches {
		index := bySource
		if patch.Context == ContextTarget {
			index = byTarget
		}
		matches, ok := index[patch.Source.Key()]
		if !ok {
			e.stats.StalePatches++
			logging.WarnWithContext(e.logger, "corrective patch matches no pair", "patch_stale",
				logging.String("context", string(patch.Context)),
				logging.String(logging.FieldSource, patch.Source.String()),
				logging.String(logging.FieldErrorHint, "update or remove the patch"),
				logging.String(logging.FieldImpact, "patch skipped"),
			)
			continue
		}
		for _, i := range matches {
			e.logger.Debug("patching change report pair",
				logging.String("context", string(patch.Context)),
				logging.String(logging.FieldSource, out[i].Source.String()),
				logging.String(logging.FieldTarget, out[i].Target.String()),
				logging.String("delta", patch.Target.String()),
			)
			if patch.Context == ContextTarget {
				out[i].Target = Merge(out[i].Target, patch.Target)
			} else {
				out[i].Source = Merge(out[i].Source, patch.Target)
			}
			out[i].Comment = appendComment(out[i].Comment, patch.Comment)
			e.stats.PatchedPairs++
		}
	}
	return out
}
