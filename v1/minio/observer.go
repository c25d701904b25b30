package minio

import (
	"time"

	"github.com/Aleph-Alpha/vectorindexer/v1/observability"
)

// observeOperation notifies the observer, if any. The bucket is the resource and
// the object key the sub-resource.
func (s *Store) observeOperation(operation, key string, start time.Time, err error, size int64) {
	if s.observer == nil {
		return
	}
	s.observer.ObserveOperation(observability.OperationContext{
		Component:   "minio",
		Operation:   operation,
		Resource:    s.cfg.Connection.BucketName,
		SubResource: key,
		Duration:    time.Since(start),
		Error:       err,
		Size:        size,
	})
}
