package logging

import (
	"math"
	"strings"
)

// ProgressSampler thins out progress lines while walking large archives. It
// lets a line through when the phase label changes or the percentage enters
// a new bucket.
type ProgressSampler struct {
	bucketSize float64
	lastStage  string
	lastBucket int
}

// NewProgressSampler returns a sampler with the given bucket width in
// percent. Non-positive widths fall back to 10.
func NewProgressSampler(bucketSize float64) *ProgressSampler {
	if bucketSize <= 0 {
		bucketSize = 10
	}
	return &ProgressSampler{bucketSize: bucketSize, lastBucket: -1}
}

// ShouldLog reports whether a progress line for percent and stage is worth
// emitting. A nil sampler logs everything. Negative percentages only count
// as stage changes.
func (s *ProgressSampler) ShouldLog(percent float64, stage string) bool {
	if s == nil {
		return true
	}
	changed := false
	if stage = strings.TrimSpace(stage); stage != "" && stage != s.lastStage {
		s.lastStage, s.lastBucket = stage, -1
		changed = true
	}
	if percent < 0 {
		return changed
	}
	bucket := int(math.Min(percent, 100) / s.bucketSize)
	if bucket <= s.lastBucket {
		return changed
	}
	s.lastBucket = bucket
	return true
}

// Percent is done/total scaled to 100, or -1 for an unknown total.
func Percent(done, total int) float64 {
	if total <= 0 {
		return -1
	}
	return 100 * float64(done) / float64(total)
}
