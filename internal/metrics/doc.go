// Package metrics exports run statistics as Prometheus gauges written to a
// node exporter textfile after each migration step.
package metrics
