package reconcile

import (
	"log/slog"
	"strings"

	"ecomigrate/internal/catalog"
	"ecomigrate/internal/logging"
)

// geographyAliases lists aggregate locations and the residual location that
// replaces them when only the residual exists in a catalog.
var geographyAliases = []struct {
	from string
	to   string
}{
	{from: "GLO", to: "RoW"},
	{from: "RER", to: "RoE"},
}

// ResolveGeography checks both sides of every pair against their catalogs and
// rewrites aggregate geographies to residual ones where that makes the key
// resolve. Pairs missing from both catalogs are dropped; a target missing
// only from the new catalog is warned about once per key.
func ResolveGeography(pairs []Pair, source, target *catalog.Catalog, logger *slog.Logger) []Pair {
	e := newEngine(logger)
	return e.resolveGeography(pairs, source, target)
}

func (e *engine) resolveGeography(pairs []Pair, source, target *catalog.Catalog) []Pair {
	warned := make(map[catalog.Key]struct{})
	out := make([]Pair, 0, len(pairs))

	for _, pair := range pairs {
		sourceFound := e.resolveSide(&pair.Source, "source", source)
		targetFound := e.resolveSide(&pair.Target, "target", target)

		switch {
		case !sourceFound && !targetFound:
			e.stats.DroppedUnknown++
			continue
		case !targetFound:
			e.stats.TargetMisses++
			key := pair.Target.Key()
			if _, seen := warned[key]; !seen {
				warned[key] = struct{}{}
				attrs := []logging.Attr{
					logging.String(logging.FieldDatabase, target.Name()),
					logging.String(logging.FieldTarget, key.String()),
					logging.String(logging.FieldErrorHint, "add a corrective patch for this change report entry"),
					logging.String(logging.FieldImpact, "existing links to the source have nowhere to relink to"),
				}
				if near := e.suggestions(target).near(key, 3); len(near) > 0 {
					attrs = append(attrs, logging.String("did_you_mean", joinKeys(near)))
				}
				logging.WarnWithContext(e.logger, "target process given in change report but missing in database", "target_missing", attrs...)
			}
		case !sourceFound:
			e.stats.SourceMisses++
			e.logger.Debug("source process given in change report but missing in database",
				logging.String(logging.FieldDatabase, source.Name()),
				logging.String(logging.FieldSource, pair.Source.String()),
			)
		}
		out = append(out, pair)
	}
	return out
}

func (e *engine) resolveSide(rec *Record, side string, cat *catalog.Catalog) bool {
	key := rec.Key()
	if cat.Contains(key) {
		return true
	}
	for _, alias := range geographyAliases {
		if rec.Geography != alias.from || !cat.Contains(key.WithGeography(alias.to)) {
			continue
		}
		rec.Geography = alias.to
		e.stats.GeographyRewrites++
		e.logger.Debug("process geography corrected",
			logging.String("side", side),
			logging.String("activity", rec.ActivityName),
			logging.String("from", alias.from),
			logging.String("to", alias.to),
		)
		return true
	}
	return false
}

func joinKeys(keys []catalog.Key) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k.String()
	}
	return strings.Join(parts, "; ")
}
