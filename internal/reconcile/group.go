package reconcile

import (
	"log/slog"

	"ecomigrate/internal/catalog"
	"ecomigrate/internal/logging"
)

// AllocatedTarget is one target of a disaggregation with its share.
type AllocatedTarget struct {
	Record
	Allocation float64 `json:"allocation"`
}

// Disaggregation splits one source across several targets.
type Disaggregation struct {
	Source  Record            `json:"source"`
	Targets []AllocatedTarget `json:"targets"`
	Comment string            `json:"comment,omitempty"`
}

// Group partitions pairs by source, in order of first appearance. Single
// pairs become replacements unless they map an entry onto itself; larger
// groups become disaggregations weighted by the targets' production volume.
func Group(pairs []Pair, target *catalog.Catalog, logger *slog.Logger) ([]Pair, []Disaggregation, error) {
	e := newEngine(logger)
	return e.group(pairs, target)
}

func (e *engine) group(pairs []Pair, target *catalog.Catalog) ([]Pair, []Disaggregation, error) {
	var order []catalog.Key
	groups := make(map[catalog.Key][]Pair)
	for _, p := range pairs {
		key := p.Source.Key()
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], p)
	}

	var (
		replace []Pair
		disagg  []Disaggregation
	)
	for _, key := range order {
		members := groups[key]
		if len(members) == 1 {
			if members[0].Identity() {
				e.stats.IdentityDropped++
				continue
			}
			replace = append(replace, members[0])
			continue
		}
		if err := checkDistinctTargets(members); err != nil {
			return nil, nil, err
		}
		disagg = append(disagg, e.disaggregate(members, target))
	}

	e.stats.Replace = len(replace)
	e.stats.Disaggregate = len(disagg)
	return replace, disagg, nil
}

func checkDistinctTargets(members []Pair) error {
	seen := make(map[catalog.Key]struct{}, len(members))
	for _, m := range members {
		key := m.Target.Key()
		if _, dup := seen[key]; dup {
			return &DuplicateTargetError{Source: m.Source, Target: m.Target}
		}
		seen[key] = struct{}{}
	}
	return nil
}

func (e *engine) disaggregate(members []Pair, target *catalog.Catalog) Disaggregation {
	source := members[0].Source
	volumes := make([]float64, len(members))
	var missing []Record
	var total float64
	for i, m := range members {
		entry, ok := target.Lookup(m.Target.Key())
		if !ok {
			missing = append(missing, m.Target)
			continue
		}
		volumes[i] = entry.ProductionVolume
		total += entry.ProductionVolume
	}

	impact := "target removed from the disaggregation"
	if total == 0 {
		impact = "target kept with an equal share"
	}
	for _, r := range missing {
		e.stats.VolumeMisses++
		logging.WarnWithContext(e.logger, "change report dataset missing from database", "volume_missing",
			logging.String(logging.FieldDatabase, target.Name()),
			logging.String(logging.FieldTarget, r.String()),
			logging.String(logging.FieldErrorHint, "likely a publication error in the change report"),
			logging.String(logging.FieldImpact, impact),
		)
	}

	out := Disaggregation{Source: source, Comment: firstComment(members)}
	if total == 0 {
		e.stats.EqualAllocations++
		logging.WarnWithContext(e.logger, "total production of targets is zero; using equal allocation", "zero_total_volume",
			logging.String(logging.FieldSource, source.String()),
			logging.Int("targets", len(members)),
			logging.String(logging.FieldImpact, "allocation factors are not production weighted"),
		)
		share := 1 / float64(len(members))
		for _, m := range members {
			out.Targets = append(out.Targets, AllocatedTarget{Record: m.Target, Allocation: share})
		}
		return out
	}
	if total < 0 {
		e.stats.NegativeTotals++
		logging.WarnWithContext(e.logger, "total production of targets is negative", "negative_total_volume",
			logging.String(logging.FieldSource, source.String()),
			logging.Float64("total", total),
			logging.String(logging.FieldErrorHint, "inspect the production volumes of the target datasets"),
		)
	}
	for i, m := range members {
		if volumes[i] == 0 {
			continue
		}
		out.Targets = append(out.Targets, AllocatedTarget{Record: m.Target, Allocation: volumes[i] / total})
	}
	return out
}

func firstComment(members []Pair) string {
	for _, m := range members {
		if m.Comment != "" {
			return m.Comment
		}
	}
	return ""
}
