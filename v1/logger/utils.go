package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// convertToZapFields converts error and additional field maps into Zap's structured logging fields.
// This internal helper transforms the field maps used by this logger wrapper into the
// zap.Field format required by the underlying Zap logger.
//
// Parameters:
//   - err: An error to include in the log entry, or nil if no error
//   - fields: Variable number of map[string]interface{} containing additional structured data
//
// Returns:
//   - []zap.Field: A slice of zap.Field objects ready to be passed to Zap logging methods
//
// If multiple fields maps contain the same key, the later maps will override earlier ones.
func (l *Logger) convertToZapFields(err error, fields ...map[string]interface{}) []zap.Field {
	var zapFields []zap.Field
	if err != nil {
		zapFields = append(zapFields, zap.Error(err))
	}

	for _, fieldMap := range fields {
		for key, value := range fieldMap {
			zapFields = append(zapFields, zap.Any(key, value))
		}
	}
	return zapFields
}

// traceFields returns trace_id and span_id for the span carried by ctx.
func (l *Logger) traceFields(ctx context.Context) map[string]interface{} {
	if !l.tracingEnabled || ctx == nil {
		return nil
	}
	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return nil
	}
	return map[string]interface{}{
		"trace_id": spanCtx.TraceID().String(),
		"span_id":  spanCtx.SpanID().String(),
	}
}

// Info logs an informational message, along with an optional error and structured fields.
// Use Info for general application progress and successful operations.
//
// Parameters:
//   - msg: The log message
//   - err: An error to include in the log entry, or nil if no error
//   - fields: Variable number of map[string]interface{} containing additional structured data
//
// Example:
//
//	logger.Info("collection attached", nil, map[string]interface{}{
//	    "collection": "products",
//	    "dimension":  128,
//	})
func (l *Logger) Info(msg string, err error, fields ...map[string]interface{}) {
	l.Zap.Info(msg, l.convertToZapFields(err, fields...)...)
}

// Debug logs a debug-level message, useful for development and troubleshooting.
// Debug logs are typically more verbose and include information primarily useful
// when diagnosing issues, such as filters evaluated client side.
//
// Parameters:
//   - msg: The log message
//   - err: An error to include in the log entry, or nil if no error
//   - fields: Variable number of map[string]interface{} containing additional structured data
//
// Example:
//
//	logger.Debug("filter evaluated client side", nil, map[string]interface{}{
//	    "expression": "price * 2 < 10",
//	})
func (l *Logger) Debug(msg string, err error, fields ...map[string]interface{}) {
	l.Zap.Debug(msg, l.convertToZapFields(err, fields...)...)
}

// Warn logs a warning message, indicating potential issues that aren't necessarily errors.
// The indexer uses it for records skipped during update.
//
// Parameters:
//   - msg: The log message
//   - err: An error to include in the log entry, or nil if no error
//   - fields: Variable number of map[string]interface{} containing additional structured data
//
// Example:
//
//	logger.Warn("cannot update document, it does not exist in storage", nil, map[string]interface{}{
//	    "id": "sku-42",
//	})
func (l *Logger) Warn(msg string, err error, fields ...map[string]interface{}) {
	l.Zap.Warn(msg, l.convertToZapFields(err, fields...)...)
}

// Error logs an error message, including details of the error and additional context fields.
// Use Error for failures that affect a single operation but not the process.
//
// Parameters:
//   - msg: The log message
//   - err: The error that occurred
//   - fields: Variable number of map[string]interface{} containing additional structured data
//
// Example:
//
//	logger.Error("failed to upload snapshot", err, map[string]interface{}{
//	    "bucket": "indexer-snapshots",
//	    "key":    "products/latest.snap",
//	})
func (l *Logger) Error(msg string, err error, fields ...map[string]interface{}) {
	l.Zap.Error(msg, l.convertToZapFields(err, fields...)...)
}

// Fatal logs a critical error message and terminates the application.
// Use Fatal only for errors that prevent the application from continuing.
//
// Parameters:
//   - msg: The log message
//   - err: The error that caused the fatal condition
//   - fields: Variable number of map[string]interface{} containing additional structured data
//
// Example:
//
//	logger.Fatal("cannot load configuration", err, map[string]interface{}{
//	    "path": "/etc/indexer/config.yaml",
//	})
//
// Note: This function does not return as it terminates the application.
func (l *Logger) Fatal(msg string, err error, fields ...map[string]interface{}) {
	l.Zap.Fatal(msg, l.convertToZapFields(err, fields...)...)
}

// InfoWithContext is Info plus the trace identifiers of the span in ctx.
//
// Parameters:
//   - ctx: Context carrying the active span, if any
//   - msg: The log message
//   - err: An error to include in the log entry, or nil if no error
//   - fields: Variable number of map[string]interface{} containing additional structured data
func (l *Logger) InfoWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{}) {
	l.Zap.Info(msg, l.convertToZapFields(err, append(fields, l.traceFields(ctx))...)...)
}

// DebugWithContext is Debug plus the trace identifiers of the span in ctx.
func (l *Logger) DebugWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{}) {
	l.Zap.Debug(msg, l.convertToZapFields(err, append(fields, l.traceFields(ctx))...)...)
}

// WarnWithContext is Warn plus the trace identifiers of the span in ctx.
//
// Example:
//
//	log.WarnWithContext(ctx, "cannot update document, it does not exist in storage", nil, map[string]interface{}{
//	    "id": doc.ID,
//	})
func (l *Logger) WarnWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{}) {
	l.Zap.Warn(msg, l.convertToZapFields(err, append(fields, l.traceFields(ctx))...)...)
}

// ErrorWithContext is Error plus the trace identifiers of the span in ctx.
func (l *Logger) ErrorWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{}) {
	l.Zap.Error(msg, l.convertToZapFields(err, append(fields, l.traceFields(ctx))...)...)
}
