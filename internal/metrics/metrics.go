package metrics

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ecomigrate"

// Run describes one finished migration step.
type Run struct {
	Kind          string
	SourceVersion string
	TargetVersion string
	Success       bool
	Duration      time.Duration
	Finished      time.Time
	Warnings      int
	// Counts holds the run statistics keyed by counter name.
	Counts map[string]float64
}

// Recorder collects run gauges in a private registry.
type Recorder struct {
	registry *prometheus.Registry
	counts   *prometheus.GaugeVec
	warnings *prometheus.GaugeVec
	duration *prometheus.GaugeVec
	success  *prometheus.GaugeVec
	finished *prometheus.GaugeVec
}

// NewRecorder registers the run gauges.
func NewRecorder() *Recorder {
	labels := []string{"kind", "source_version", "target_version"}
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		counts: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_entries",
			Help:      "Run statistics of the last migration step by counter.",
		}, append(append([]string(nil), labels...), "counter")),
		warnings: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_warnings",
			Help:      "Warnings logged during the last migration step.",
		}, labels),
		duration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last migration step.",
		}, labels),
		success: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_success",
			Help:      "1 when the last migration step succeeded.",
		}, labels),
		finished: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_finished_timestamp_seconds",
			Help:      "Unix time the last migration step finished.",
		}, labels),
	}
	r.registry.MustRegister(r.counts, r.warnings, r.duration, r.success, r.finished)
	return r
}

// Observe sets the gauges for run.
func (r *Recorder) Observe(run Run) {
	labels := prometheus.Labels{
		"kind":           run.Kind,
		"source_version": run.SourceVersion,
		"target_version": run.TargetVersion,
	}
	names := make([]string, 0, len(run.Counts))
	for name := range run.Counts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		r.counts.WithLabelValues(run.Kind, run.SourceVersion, run.TargetVersion, name).Set(run.Counts[name])
	}
	r.warnings.With(labels).Set(float64(run.Warnings))
	r.duration.With(labels).Set(run.Duration.Seconds())
	success := 0.0
	if run.Success {
		success = 1
	}
	r.success.With(labels).Set(success)
	finished := run.Finished
	if finished.IsZero() {
		finished = time.Now()
	}
	r.finished.With(labels).Set(float64(finished.Unix()))
}

// WriteTextfile renders the registry for the node exporter textfile
// collector. The file is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}

// Counts flattens a stats struct into counter values using its JSON field
// names. Booleans become 0 or 1; other fields are skipped.
func Counts(stats any) (map[string]float64, error) {
	data, err := json.Marshal(stats)
	if err != nil {
		return nil, fmt.Errorf("encode stats: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("decode stats: %w", err)
	}
	out := make(map[string]float64, len(fields))
	for name, value := range fields {
		switch v := value.(type) {
		case float64:
			out[name] = v
		case bool:
			if v {
				out[name] = 1
			} else {
				out[name] = 0
			}
		}
	}
	return out, nil
}
