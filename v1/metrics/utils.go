package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Aleph-Alpha/vectorindexer/v1/observability"
)

// IncrementRequests counts one HTTP request for endpoint with its status code.
// Example: metrics.IncrementRequests("/search", 200)
func (m *Metrics) IncrementRequests(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
}

// RecordRequestDuration records the duration (in seconds) for a request endpoint.
// Example: defer metrics.RecordRequestDuration(time.Now(), "/search")
func (m *Metrics) RecordRequestDuration(start time.Time, endpoint string) {
	m.requestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

// ObserveOperation implements observability.Observer.
func (m *Metrics) ObserveOperation(ctx observability.OperationContext) {
	m.operationsTotal.WithLabelValues(ctx.Component, ctx.Operation, ctx.Status()).Inc()
	m.operationDuration.WithLabelValues(ctx.Component, ctx.Operation).Observe(ctx.Duration.Seconds())
	if ctx.Size > 0 {
		m.documentsProcessed.WithLabelValues(ctx.Component, ctx.Operation).Add(float64(ctx.Size))
	}
}

// CreateCounter creates a new CounterVec metric and registers it.
func (m *Metrics) CreateCounter(name, help string, labels []string) *prometheus.CounterVec {
	counter := createCounterVec(m.namespace, name, help, labels)
	m.registerer.MustRegister(counter)
	return counter
}

// CreateHistogram creates a new HistogramVec metric and registers it.
func (m *Metrics) CreateHistogram(name, help string, labels []string, buckets []float64) *prometheus.HistogramVec {
	hist := createHistogramVec(m.namespace, name, help, labels, buckets)
	m.registerer.MustRegister(hist)
	return hist
}

// CreateGauge creates a new GaugeVec metric and registers it.
func (m *Metrics) CreateGauge(name, help string, labels []string) *prometheus.GaugeVec {
	gauge := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: m.namespace,
			Name:      name,
			Help:      help,
		},
		labels,
	)
	m.registerer.MustRegister(gauge)
	return gauge
}

func createCounterVec(namespace, name, help string, labels []string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		},
		labels,
	)
}

func createHistogramVec(namespace, name, help string, labels []string, buckets []float64) *prometheus.HistogramVec {
	return prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
			Buckets:   buckets,
		},
		labels,
	)
}
