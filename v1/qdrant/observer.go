package qdrant

import (
	"time"

	"github.com/Aleph-Alpha/vectorindexer/v1/observability"
)

// observeOperation notifies the observer about an engine call if one is configured.
//
// Notes:
//   - resource: collection name
func (c *Collection) observeOperation(operation string, start time.Time, err error, size int, metadata map[string]interface{}) {
	if c == nil || c.observer == nil {
		return
	}
	c.observer.ObserveOperation(observability.OperationContext{
		Component: "qdrant",
		Operation: operation,
		Resource:  c.cfg.CollectionName,
		Duration:  time.Since(start),
		Error:     err,
		Size:      int64(size),
		Metadata:  metadata,
	})
}
