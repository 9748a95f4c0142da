package recorder

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder exports events as Prometheus instruments on its own registry.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	runsTotal      *prometheus.CounterVec // labels: source, status
	runDuration    prometheus.Histogram
	accuracy       *prometheus.GaugeVec // labels: symbol
	degenerate     prometheus.Counter
	fetchesTotal   *prometheus.CounterVec   // labels: source, kind, status
	fetchDuration  *prometheus.HistogramVec // labels: source, kind
	cacheLookups   *prometheus.CounterVec   // labels: kind, result
	invalidations  *prometheus.CounterVec   // labels: scope
	invalidatedKey prometheus.Counter
}

// NewPrometheusRecorder registers every instrument under the stockscope namespace.
func NewPrometheusRecorder() *PrometheusRecorder {
	r := &PrometheusRecorder{
		registry: prometheus.NewRegistry(),
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stockscope", Name: "pipeline_runs_total", Help: "Pipeline runs by outcome",
		}, []string{"source", "status"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "stockscope", Name: "pipeline_run_duration_seconds", Help: "Indicator, feature and training time",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		}),
		accuracy: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "stockscope", Name: "model_accuracy", Help: "Held-out accuracy of the last run per symbol",
		}, []string{"symbol"}),
		degenerate: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stockscope", Name: "degenerate_partitions_total", Help: "Runs whose test partition held a single class",
		}),
		fetchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stockscope", Name: "fetches_total", Help: "Data source calls by outcome",
		}, []string{"source", "kind", "status"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "stockscope", Name: "fetch_duration_seconds", Help: "Data source latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"source", "kind"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stockscope", Name: "cache_lookups_total", Help: "Cache lookups by result",
		}, []string{"kind", "result"}),
		invalidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stockscope", Name: "cache_invalidations_total", Help: "Invalidation requests",
		}, []string{"scope"}),
		invalidatedKey: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stockscope", Name: "cache_invalidated_keys_total", Help: "Keys removed by invalidation",
		}),
	}
	r.registry.MustRegister(
		r.runsTotal, r.runDuration, r.accuracy, r.degenerate,
		r.fetchesTotal, r.fetchDuration, r.cacheLookups,
		r.invalidations, r.invalidatedKey,
		collectors.NewGoCollector(),
	)
	return r
}

func (r *PrometheusRecorder) RecordRun(evt *RunEvent) {
	status := "ok"
	if evt.Err != nil {
		status = "error"
	}
	r.runsTotal.WithLabelValues(evt.Source, status).Inc()
	r.runDuration.Observe(evt.Duration.Seconds())
	if evt.Err == nil {
		r.accuracy.WithLabelValues(evt.Symbol).Set(evt.Accuracy)
		if evt.Degenerate {
			r.degenerate.Inc()
		}
	}
}

func (r *PrometheusRecorder) RecordFetch(evt *FetchEvent) {
	status := "ok"
	if evt.Err != nil {
		status = "error"
	}
	r.fetchesTotal.WithLabelValues(evt.Source, evt.Kind, status).Inc()
	r.fetchDuration.WithLabelValues(evt.Source, evt.Kind).Observe(evt.Duration.Seconds())
}

func (r *PrometheusRecorder) RecordCacheLookup(kind string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(kind, result).Inc()
}

func (r *PrometheusRecorder) RecordInvalidation(scope string, removed int) {
	r.invalidations.WithLabelValues(scope).Inc()
	r.invalidatedKey.Add(float64(removed))
}

// Registry exposes the underlying registry.
func (r *PrometheusRecorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus text format.
func (r *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *PrometheusRecorder) Close() error { return nil }
