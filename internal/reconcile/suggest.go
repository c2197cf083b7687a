package reconcile

import (
	"sort"

	"ecomigrate/internal/catalog"
	"ecomigrate/internal/textutil"
)

const minSuggestionScore = 0.5

// suggester ranks catalog keys by token similarity to a key that failed to
// resolve. Only keys with the same unit are candidates.
type suggester struct {
	keys   []catalog.Key
	prints []*textutil.Fingerprint
	idf    map[string]float64
}

func newSuggester(cat *catalog.Catalog) *suggester {
	s := &suggester{}
	if cat == nil {
		return s
	}
	corpus := textutil.NewCorpus()
	raw := make([]*textutil.Fingerprint, 0, cat.Len())
	for _, entry := range cat.Entries() {
		fp := textutil.NewFingerprint(keyText(entry.Key()))
		corpus.Add(fp)
		s.keys = append(s.keys, entry.Key())
		raw = append(raw, fp)
	}
	s.idf = corpus.IDF()
	s.prints = make([]*textutil.Fingerprint, len(raw))
	for i, fp := range raw {
		s.prints[i] = fp.WithIDF(s.idf)
	}
	return s
}

func (s *suggester) near(key catalog.Key, limit int) []catalog.Key {
	if s == nil || len(s.keys) == 0 || limit <= 0 {
		return nil
	}
	probe := textutil.NewFingerprint(keyText(key)).WithIDF(s.idf)
	if probe == nil {
		return nil
	}

	type scored struct {
		idx   int
		score float64
	}
	var hits []scored
	for i, candidate := range s.keys {
		if candidate.Unit != key.Unit || candidate == key {
			continue
		}
		score := textutil.CosineSimilarity(probe, s.prints[i])
		if score >= minSuggestionScore {
			hits = append(hits, scored{idx: i, score: score})
		}
	}
	sort.SliceStable(hits, func(a, b int) bool { return hits[a].score > hits[b].score })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	out := make([]catalog.Key, len(hits))
	for i, h := range hits {
		out[i] = s.keys[h.idx]
	}
	return out
}

func keyText(k catalog.Key) string {
	return k.ActivityName + " " + k.ProductName + " " + k.Geography
}
