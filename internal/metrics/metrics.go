// Package metrics exposes engine measurements as Prometheus collectors on a
// private registry.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/lexiq/internal/core/domain"
	"github.com/custodia-labs/lexiq/internal/core/ports/driven"
	"github.com/custodia-labs/lexiq/internal/logger"
)

// Ensure Recorder implements the interface.
var _ driven.MetricsRecorder = (*Recorder)(nil)

const namespace = "lexiq"

// Recorder holds the engine collectors.
type Recorder struct {
	registry  *prometheus.Registry
	decisions *prometheus.CounterVec
	lookups   *prometheus.CounterVec
	calls     *prometheus.CounterVec
	fallbacks prometheus.Counter
	durations *prometheus.HistogramVec
}

// New creates a Recorder with its collectors registered on a fresh registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_total",
			Help:      "Completed re-analyses by path.",
		}, []string{"path"}),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Analysis cache lookups by result.",
		}, []string{"result"}),
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunk_calls_total",
			Help:      "Analyzer calls by outcome.",
		}, []string{"outcome"}),
		fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "partial_fallbacks_total",
			Help:      "Partial passes retried as full passes.",
		}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_seconds",
			Help:      "Re-analysis wall time by path.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"path"}),
	}
	r.registry.MustRegister(r.decisions, r.lookups, r.calls, r.fallbacks, r.durations)
	return r
}

// RecordDecision implements driven.MetricsRecorder.
func (r *Recorder) RecordDecision(path domain.Path, d time.Duration) {
	r.decisions.WithLabelValues(path.String()).Inc()
	r.durations.WithLabelValues(path.String()).Observe(d.Seconds())
}

// RecordCacheLookup implements driven.MetricsRecorder.
func (r *Recorder) RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.lookups.WithLabelValues(result).Inc()
}

// RecordChunkCall implements driven.MetricsRecorder.
func (r *Recorder) RecordChunkCall(outcome string) {
	r.calls.WithLabelValues(outcome).Inc()
}

// RecordFallback implements driven.MetricsRecorder.
func (r *Recorder) RecordFallback() {
	r.fallbacks.Inc()
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the collectors in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (r *Recorder) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("Metrics listening on %s/metrics", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
