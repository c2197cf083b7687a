package textutil

import (
	"math"
	"strings"
	"unicode"
)

// stopWords carry no signal in dataset names ("market for", "treatment of").
var stopWords = map[string]struct{}{
	"an": {}, "and": {}, "at": {}, "by": {}, "for": {}, "from": {},
	"in": {}, "of": {}, "the": {}, "to": {}, "with": {},
}

// Fingerprint is a weighted term vector of a dataset name.
type Fingerprint struct {
	weights map[string]float64
	norm    float64
}

func newFingerprint(weights map[string]float64) *Fingerprint {
	if len(weights) == 0 {
		return nil
	}
	var sum float64
	for _, w := range weights {
		sum += w * w
	}
	return &Fingerprint{weights: weights, norm: math.Sqrt(sum)}
}

// NewFingerprint counts the tokens of text. It returns nil when text has
// no tokens.
func NewFingerprint(text string) *Fingerprint {
	counts := make(map[string]float64)
	for _, token := range Tokenize(text) {
		counts[token]++
	}
	return newFingerprint(counts)
}

// Tokenize lowercases text and splits it on anything that is not a letter
// or digit. Single characters and stop words are dropped; two-letter tokens
// are kept because geography codes are that short.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	terms := fields[:0]
	for _, token := range fields {
		if len([]rune(token)) < 2 {
			continue
		}
		if _, stop := stopWords[token]; stop {
			continue
		}
		terms = append(terms, token)
	}
	return terms
}

// TokenCount returns the number of distinct tokens.
func (f *Fingerprint) TokenCount() int {
	if f == nil {
		return 0
	}
	return len(f.weights)
}

// WithIDF scales every term by its inverse document frequency. Terms the
// corpus never saw keep their raw count. Terms whose weight drops to zero
// are removed; nil is returned when none remain.
func (f *Fingerprint) WithIDF(idf map[string]float64) *Fingerprint {
	if f == nil || len(idf) == 0 {
		return f
	}
	weighted := make(map[string]float64, len(f.weights))
	for token, count := range f.weights {
		w := count
		if v, ok := idf[token]; ok {
			w *= v
		}
		if w != 0 {
			weighted[token] = w
		}
	}
	return newFingerprint(weighted)
}

// CosineSimilarity returns the cosine of the angle between a and b, or 0
// when either is empty.
func CosineSimilarity(a, b *Fingerprint) float64 {
	if a == nil || b == nil || a.norm == 0 || b.norm == 0 {
		return 0
	}
	if len(b.weights) < len(a.weights) {
		a, b = b, a
	}
	var dot float64
	for token, w := range a.weights {
		dot += w * b.weights[token]
	}
	return dot / (a.norm * b.norm)
}

// Corpus counts in how many fingerprints each term occurs.
type Corpus struct {
	docs    int
	docFreq map[string]int
}

// NewCorpus returns an empty corpus.
func NewCorpus() *Corpus {
	return &Corpus{docFreq: make(map[string]int)}
}

// Add registers the distinct terms of fp.
func (c *Corpus) Add(fp *Fingerprint) {
	if c == nil || fp == nil {
		return
	}
	c.docs++
	for token := range fp.weights {
		c.docFreq[token]++
	}
}

// IDF returns log((N+1)/(1+df)) per term. A term present in every document
// gets a weight near zero.
func (c *Corpus) IDF() map[string]float64 {
	if c == nil || c.docs == 0 {
		return nil
	}
	n := float64(c.docs)
	idf := make(map[string]float64, len(c.docFreq))
	for term, df := range c.docFreq {
		idf[term] = math.Log((n + 1) / (1 + float64(df)))
	}
	return idf
}
