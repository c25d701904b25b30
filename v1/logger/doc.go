// Package logger provides the structured logger used across the vector indexer.
//
// It wraps zap behind a small map based API so that every component logs the same
// way:
//
//	log := logger.NewLoggerClient(logger.DefaultConfig())
//	log.Warn("cannot update document, it does not exist in storage", nil, map[string]interface{}{
//		"id": "doc-42",
//	})
//
// Entries are JSON by default, carry "timestamp", "pid" and "service", and include the
// caller. The *WithContext variants add "trace_id" and "span_id" when the context holds
// an OpenTelemetry span and tracing is enabled in the config.
//
// # FX Module Integration
//
//	app := fx.New(
//		fx.Supply(logger.Config{Level: logger.Debug, ServiceName: "indexer"}),
//		logger.FXModule,
//	)
//
// Components that only need to log depend on their own narrow Logger interface;
// *Logger satisfies all of them.
package logger
