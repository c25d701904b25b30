// Package tracer configures OpenTelemetry tracing for the vector indexer.
//
// NewClient installs a global tracer provider (exporting over OTLP/HTTP when
// enabled) and W3C propagation. The indexer opens one span per operation:
//
//	ctx, span := t.StartSpan(ctx, "indexer.search")
//	defer span.End()
//	t.SetAttributes(span, map[string]interface{}{"queries": len(docs)})
//	if err != nil {
//		t.RecordErrorOnSpan(span, err)
//	}
//
// GetCarrier and SetCarrierOnContext move a trace context through Kafka message
// headers so that asynchronous ingestion joins the producer's trace.
package tracer
