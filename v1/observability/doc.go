// Package observability defines the hook through which components report finished
// operations to metrics, tracing or logging backends without depending on them.
package observability
