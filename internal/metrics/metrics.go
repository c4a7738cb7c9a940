// Package metrics provides a small, backend-agnostic abstraction for
// recording operational metrics from the pipeline.
//
// It mirrors the warehouse abstraction pattern: the rest of the codebase
// depends only on the Backend interface and a global, pluggable instance that
// defaults to a no-op, so metric calls are always safe even when no real
// backend is configured. Concrete systems (Prometheus Pushgateway, Datadog)
// live in subpackages.
package metrics

import "time"

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveDuration records a latency/duration style value, in seconds.
	ObserveDuration(name string, seconds float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it
	// (e.g. Pushgateway at process exit).
	Flush() error
}

// nopBackend is used by default so metrics are optional.
type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)        {}
func (nopBackend) ObserveDuration(name string, seconds float64, labels Labels) {}
func (nopBackend) Flush() error                                                { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing one.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordStep measures one pipeline step: latency plus success/failure.
// Step names follow the pipeline stages: "load", "clean", "curate", "bench",
// "warehouse", "kpi".
func RecordStep(step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	lbls := Labels{"step": step, "status": status}
	backend.IncCounter("hospetl_step_total", 1, lbls)
	backend.ObserveDuration("hospetl_step_duration_seconds", d.Seconds(), lbls)
}

// RecordRows increments a row-level counter for the given kind.
//
// Typical kinds:
//   - "raw"               rows read from the source CSV
//   - "curated"           rows written to the curated snapshot
//   - "warehouse_loaded"  rows loaded into the dimension table
//   - "kpi_<name>"        result rows per exported KPI
func RecordRows(kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter("hospetl_rows_total", float64(delta), Labels{"kind": kind})
}
