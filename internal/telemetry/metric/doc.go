// Package metric provides Prometheus metrics for supportform.
//
// A Registry owns a private prometheus.Registry with Go runtime and
// process collectors plus the draft engine's counters:
//
//   - store failures by operation
//   - resets by kind and resets that could not be verified
//   - persisted and skipped draft writes
//   - submissions and writing-assistance requests by result
//   - HTTP request counts and latencies
//
// Metrics are exposed at /metrics in Prometheus format. Every recording
// method is safe on a nil *Registry so components can run unmetered.
package metric
