package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics encapsulates the Prometheus registry and HTTP server responsible
// for exposing the indexer metrics.
type Metrics struct {
	// Server defines the HTTP server used to expose the /metrics endpoint.
	Server *http.Server

	// Registry is the Prometheus registry where all metrics are registered.
	// Each service maintains its own isolated registry to prevent metric name collisions.
	Registry *prometheus.Registry

	registerer prometheus.Registerer
	namespace  string

	requestsTotal      *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
	operationsTotal    *prometheus.CounterVec
	operationDuration  *prometheus.HistogramVec
	documentsProcessed *prometheus.CounterVec
}

// NewMetrics initializes the registry, the indexer collectors and the /metrics server.
//
// The setup includes:
//   - A dedicated Prometheus registry wrapped with a constant "service" label
//   - HTTP request counters and latency histograms for the transport layer
//   - Operation counters, latency histograms and document counters fed through ObserveOperation
//   - Optional Go, process and build info collectors
//
// Example:
//
//	m := metrics.NewMetrics(metrics.DefaultConfig())
//	go m.Server.ListenAndServe()
func NewMetrics(cfg Config) *Metrics {
	registry := prometheus.NewRegistry()

	// All metrics emitted by this service carry service="<cfg.ServiceName>".
	wrappedRegistry := prometheus.WrapRegistererWith(
		prometheus.Labels{"service": cfg.ServiceName},
		registry,
	)

	m := &Metrics{
		Registry:   registry,
		registerer: wrappedRegistry,
		namespace:  cfg.Namespace,
	}

	m.requestsTotal = createCounterVec(cfg.Namespace, "http_requests_total", "Total number of processed HTTP requests", []string{"endpoint", "status"})
	m.requestDuration = createHistogramVec(cfg.Namespace, "http_request_duration_seconds", "Duration of HTTP requests in seconds", []string{"endpoint"}, prometheus.DefBuckets)
	m.operationsTotal = createCounterVec(cfg.Namespace, "operations_total", "Total number of index operations", []string{"component", "operation", "status"})
	m.operationDuration = createHistogramVec(cfg.Namespace, "operation_duration_seconds", "Duration of index operations in seconds", []string{"component", "operation"}, prometheus.DefBuckets)
	m.documentsProcessed = createCounterVec(cfg.Namespace, "documents_total", "Number of documents handled by index operations", []string{"component", "operation"})

	wrappedRegistry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.operationsTotal,
		m.operationDuration,
		m.documentsProcessed,
	)

	if cfg.EnableDefaultCollectors {
		wrappedRegistry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			collectors.NewBuildInfoCollector(),
		)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	m.Server = &http.Server{
		Addr:    cfg.Address,
		Handler: mux,
	}
	return m
}
