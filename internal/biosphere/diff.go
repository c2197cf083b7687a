package biosphere

import "ecomigrate/internal/catalog"

// Comments attached to entries found only by comparing flow listings.
const (
	CommentDeletedFlow = "Deleted flow not listed in change report"
	CommentChangedFlow = "Flow attribute change not listed in change report"
)

// Supplement compares two flow listings by uuid and appends what the change
// report left out. Flows in covered are skipped. A flow missing from target
// becomes a deletion when keepDeletions is set; a flow whose target carries
// a different non-empty attribute becomes a replacement listing only the
// changed attributes.
func Supplement(res Result, covered map[string]struct{}, source, target *catalog.FlowListing, keepDeletions bool) Result {
	for _, old := range source.Flows() {
		if _, ok := covered[old.UUID]; ok {
			continue
		}
		updated, ok := target.Lookup(old.UUID)
		if !ok {
			if keepDeletions {
				res.Delete = append(res.Delete, Deletion{
					Source:  catalog.Flow{UUID: old.UUID, Name: old.Name},
					Comment: CommentDeletedFlow,
				})
				res.Stats.DiffDelete++
			}
			continue
		}
		changed, ok := diffFlows(old, updated)
		if !ok {
			continue
		}
		res.Replace = append(res.Replace, Replacement{
			Source:  old,
			Target:  changed,
			Comment: CommentChangedFlow,
		})
		res.Stats.DiffReplace++
	}
	return res
}

// diffFlows returns the uuid plus every non-empty attribute of updated that
// differs from old.
func diffFlows(old, updated catalog.Flow) (catalog.Flow, bool) {
	out := catalog.Flow{UUID: old.UUID}
	changed := false
	if updated.Name != "" && updated.Name != old.Name {
		out.Name = updated.Name
		changed = true
	}
	if updated.Formula != "" && updated.Formula != old.Formula {
		out.Formula = updated.Formula
		changed = true
	}
	if updated.Unit != "" && updated.Unit != old.Unit {
		out.Unit = updated.Unit
		changed = true
	}
	return out, changed
}
