package observability

import "time"

// Observer receives a notification for every operation performed by an instrumented
// component. Implementations must be safe for concurrent use and must not block.
type Observer interface {
	ObserveOperation(ctx OperationContext)
}

// OperationContext describes one finished operation.
type OperationContext struct {
	// Component is the reporting package, e.g. "indexer" or "qdrant".
	Component string

	// Operation is the operation name, e.g. "search".
	Operation string

	// Resource is the primary resource touched, e.g. the collection name.
	Resource string

	// SubResource carries secondary context such as a topic or bucket key.
	SubResource string

	Duration time.Duration

	// Error is nil on success.
	Error error

	// Size is the number of documents handled by the operation.
	Size int64

	Metadata map[string]interface{}
}

// Status reports "success" or "error" for metric labels.
func (c OperationContext) Status() string {
	if c.Error != nil {
		return "error"
	}
	return "success"
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc func(ctx OperationContext)

// ObserveOperation calls f(ctx).
func (f ObserverFunc) ObserveOperation(ctx OperationContext) { f(ctx) }

// Multi fans a notification out to several observers. Nil entries are skipped.
func Multi(observers ...Observer) Observer {
	return ObserverFunc(func(ctx OperationContext) {
		for _, o := range observers {
			if o != nil {
				o.ObserveOperation(ctx)
			}
		}
	})
}
