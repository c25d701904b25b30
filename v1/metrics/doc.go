// Package metrics provides Prometheus-based monitoring for the vector indexer.
//
// Metrics owns an isolated registry (every series carries a constant "service"
// label) and an HTTP server exposing it on /metrics. It implements
// observability.Observer, so the indexer and its backends report each operation
// through ObserveOperation and get:
//
//	indexer_operations_total{component,operation,status}
//	indexer_operation_duration_seconds{component,operation}
//	indexer_documents_total{component,operation}
//
// The HTTP transport additionally records indexer_http_requests_total and
// indexer_http_request_duration_seconds per endpoint.
//
// # FX Module Integration
//
//	app := fx.New(
//		fx.Supply(metrics.DefaultConfig()),
//		logger.FXModule,
//		metrics.FXModule,
//	)
package metrics
