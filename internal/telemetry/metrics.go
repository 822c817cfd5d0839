package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTPRequestDuration tracks HTTP request latency across all endpoints.
var HTTPRequestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "kubeowl",
		Subsystem: "api",
		Name:      "request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "path", "status"},
)

var ScansTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "kubeowl",
		Subsystem: "scan",
		Name:      "total",
		Help:      "Total number of cluster and namespace scans.",
	},
	[]string{"scope"},
)

var FaultsDetectedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "kubeowl",
		Subsystem: "scan",
		Name:      "faults_detected_total",
		Help:      "Total number of faults detected, by type and severity.",
	},
	[]string{"fault_type", "severity"},
)

var DiagnosisRequestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "kubeowl",
		Subsystem: "diagnosis",
		Name:      "requests_total",
		Help:      "Total number of diagnosis requests by outcome (llm, cache, fallback).",
	},
	[]string{"outcome"},
)

var DiagnosisCacheHitsTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "kubeowl",
		Subsystem: "diagnosis",
		Name:      "cache_hits_total",
		Help:      "Total number of diagnosis cache hits.",
	},
)

var LLMRequestDuration = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: "kubeowl",
		Subsystem: "llm",
		Name:      "request_duration_seconds",
		Help:      "LLM chat-completions request duration in seconds.",
		Buckets:   []float64{0.5, 1, 2.5, 5, 10, 15, 30, 60},
	},
)

var ClusterRefreshFailuresTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "kubeowl",
		Subsystem: "cluster",
		Name:      "refresh_failures_total",
		Help:      "Total number of failed background cluster refreshes.",
	},
)

var ResourceCacheHitsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "kubeowl",
		Subsystem: "resource",
		Name:      "cache_hits_total",
		Help:      "Resource list cache lookups by result (hit, miss).",
	},
	[]string{"result"},
)

// All returns the service-specific collectors for registry construction.
func All() []prometheus.Collector {
	return []prometheus.Collector{
		ScansTotal,
		FaultsDetectedTotal,
		DiagnosisRequestsTotal,
		DiagnosisCacheHitsTotal,
		LLMRequestDuration,
		ClusterRefreshFailuresTotal,
		ResourceCacheHitsTotal,
	}
}

// NewMetricsRegistry creates a Prometheus registry with Go/process collectors,
// the shared HTTPRequestDuration metric, and any additional service-specific
// collectors passed as arguments.
func NewMetricsRegistry(extra ...prometheus.Collector) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		HTTPRequestDuration,
	)
	for _, c := range extra {
		reg.MustRegister(c)
	}
	return reg
}
