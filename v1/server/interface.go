package server

import (
	"context"
	"time"

	"github.com/Aleph-Alpha/vectorindexer/v1/indexer"
	"github.com/Aleph-Alpha/vectorindexer/v1/vectordb"
)

// Service is the document API the handlers dispatch to. *indexer.Indexer satisfies it.
type Service interface {
	Index(ctx context.Context, docs []*vectordb.Document) error
	Search(ctx context.Context, queries []*vectordb.Document, params indexer.Parameters) error
	Delete(ctx context.Context, ids []string) error
	Update(ctx context.Context, docs []*vectordb.Document) error
	FillEmbedding(ctx context.Context, docs []*vectordb.Document) error
	Filter(ctx context.Context, predicate string) ([]*vectordb.Document, error)
	Clear(ctx context.Context) error
	Count(ctx context.Context) (int, error)
}

// RequestRecorder receives per request metrics. *metrics.Metrics satisfies it.
type RequestRecorder interface {
	IncrementRequests(endpoint string, status int)
	RecordRequestDuration(start time.Time, endpoint string)
}
