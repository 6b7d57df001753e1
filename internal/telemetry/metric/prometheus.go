package metric

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "supportform"

// Registry holds all application metrics.
type Registry struct {
	registry *prometheus.Registry

	// Storage metrics
	StoreErrors *prometheus.CounterVec

	// Reset metrics
	Resets          *prometheus.CounterVec
	ResetUnverified prometheus.Counter

	// Persistence metrics
	PersistWrites  prometheus.Counter
	PersistSkipped *prometheus.CounterVec

	// Draft metrics
	DraftCompletion prometheus.Gauge

	// Outbound metrics
	Submissions    *prometheus.CounterVec
	AssistRequests *prometheus.CounterVec

	// Request metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

var (
	globalOnce     sync.Once
	globalRegistry *Registry
)

// Global returns the process-wide registry.
func Global() *Registry {
	globalOnce.Do(func() {
		globalRegistry = NewRegistry()
	})
	return globalRegistry
}

// Handler returns an HTTP handler serving the global registry.
func Handler() http.Handler {
	return Global().Handler()
}

// NewRegistry creates a registry with all supportform metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Registry{
		registry: reg,
		StoreErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_errors_total",
			Help:      "Durable store operations that failed",
		}, []string{"op"}),
		Resets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resets_total",
			Help:      "Draft clears by kind",
		}, []string{"kind"}),
		ResetUnverified: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reset_unverified_total",
			Help:      "Clears after which the draft key was still readable",
		}),
		PersistWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_writes_total",
			Help:      "Draft envelopes written to the durable store",
		}),
		PersistSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_skipped_total",
			Help:      "Draft writes that were not scheduled or were dropped",
		}, []string{"reason"}),
		DraftCompletion: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "draft_completion_percent",
			Help:      "Percentage of answerable fields filled in the current draft",
		}),
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Application submissions by result",
		}, []string{"result"}),
		AssistRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assist_requests_total",
			Help:      "Writing-assistance requests by result",
		}, []string{"result"}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "HTTP API requests",
		}, []string{"method", "route", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "HTTP API request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		r.StoreErrors,
		r.Resets,
		r.ResetUnverified,
		r.PersistWrites,
		r.PersistSkipped,
		r.DraftCompletion,
		r.Submissions,
		r.AssistRequests,
		r.RequestsTotal,
		r.RequestDuration,
	)
	return r
}

// Prometheus returns the underlying registry so other components can
// register their own collectors.
func (r *Registry) Prometheus() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// RecordStoreError counts a failed store operation.
func (r *Registry) RecordStoreError(op string) {
	if r == nil {
		return
	}
	r.StoreErrors.WithLabelValues(op).Inc()
}

// RecordReset counts a clear of the given kind ("clear" or "nuclear").
func (r *Registry) RecordReset(kind string) {
	if r == nil {
		return
	}
	r.Resets.WithLabelValues(kind).Inc()
}

// IncResetUnverified counts a clear that left the key readable.
func (r *Registry) IncResetUnverified() {
	if r == nil {
		return
	}
	r.ResetUnverified.Inc()
}

// IncPersistWrite counts a successful draft write.
func (r *Registry) IncPersistWrite() {
	if r == nil {
		return
	}
	r.PersistWrites.Inc()
}

// RecordPersistSkipped counts a write that was skipped for reason.
func (r *Registry) RecordPersistSkipped(reason string) {
	if r == nil {
		return
	}
	r.PersistSkipped.WithLabelValues(reason).Inc()
}

// SetDraftCompletion records the completion percentage of the draft.
func (r *Registry) SetDraftCompletion(pct int) {
	if r == nil {
		return
	}
	r.DraftCompletion.Set(float64(pct))
}

// RecordSubmission counts a submission with the given result.
func (r *Registry) RecordSubmission(result string) {
	if r == nil {
		return
	}
	r.Submissions.WithLabelValues(result).Inc()
}

// RecordAssist counts a writing-assistance request with the given result.
func (r *Registry) RecordAssist(result string) {
	if r == nil {
		return
	}
	r.AssistRequests.WithLabelValues(result).Inc()
}

// RecordRequest counts an HTTP request.
func (r *Registry) RecordRequest(method, route, status string) {
	if r == nil {
		return
	}
	r.RequestsTotal.WithLabelValues(method, route, status).Inc()
}

// ObserveRequestDuration records an HTTP request latency in seconds.
func (r *Registry) ObserveRequestDuration(method, route string, seconds float64) {
	if r == nil {
		return
	}
	r.RequestDuration.WithLabelValues(method, route).Observe(seconds)
}
