package indexer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/Aleph-Alpha/vectorindexer/v1/filter"
	"github.com/Aleph-Alpha/vectorindexer/v1/observability"
	"github.com/Aleph-Alpha/vectorindexer/v1/tracer"
	"github.com/Aleph-Alpha/vectorindexer/v1/vectordb"
)

// Operation names, as used for spans, metrics and transport routing.
const (
	OpIndex         = "index"
	OpSearch        = "search"
	OpDelete        = "delete"
	OpUpdate        = "update"
	OpFillEmbedding = "fill_embedding"
	OpFilter        = "filter"
	OpClear         = "clear"
)

// Indexer translates the named operations into calls on one vectordb.Collection.
// It is safe for concurrent use.
type Indexer struct {
	col      vectordb.Collection
	cfg      Config
	log      Logger
	tracer   *tracer.Tracer
	observer observability.Observer

	// mu brackets the calls issued through this instance: writes hold it
	// exclusively, reads shared, and Close waits for both.
	mu     sync.RWMutex
	closed atomic.Bool
}

// New wraps col. The indexer owns col from now on and closes it in Close.
//
// Example:
//
//	idx, err := indexer.New(col, indexer.Config{
//	    Columns:           vectordb.Columns{"price": vectordb.ColumnFloat},
//	    DefaultParameters: indexer.Parameters{"limit": 3},
//	}, log)
func New(col vectordb.Collection, cfg Config, log Logger) (*Indexer, error) {
	if col == nil {
		return nil, fmt.Errorf("indexer: collection is required")
	}
	if log == nil {
		return nil, fmt.Errorf("indexer: logger is required")
	}
	// Fail at construction rather than on the first search.
	if _, _, err := queryOptions(cfg.DefaultParameters, cfg.Columns); err != nil {
		return nil, fmt.Errorf("indexer: default parameters: %w", err)
	}
	return &Indexer{col: col, cfg: cfg, log: log}, nil
}

// WithTracer opens one span per operation on t.
func (i *Indexer) WithTracer(t *tracer.Tracer) *Indexer {
	i.tracer = t
	return i
}

// WithObserver reports every finished operation to o.
func (i *Indexer) WithObserver(o observability.Observer) *Indexer {
	i.observer = o
	return i
}

// Collection returns the wrapped handle.
func (i *Indexer) Collection() vectordb.Collection {
	return i.col
}

// Index appends docs to the collection.
func (i *Indexer) Index(ctx context.Context, docs []*vectordb.Document) (err error) {
	ctx, done := i.begin(ctx, OpIndex)
	defer func() { done(err, len(docs)) }()

	if err := i.check(); err != nil {
		return err
	}
	if len(docs) == 0 {
		return nil
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	return i.col.Append(ctx, docs)
}

// Search attaches the best matches to every query document, in place. The
// effective parameters are MergeParameters(defaults, params). Nil queries are
// skipped.
func (i *Indexer) Search(ctx context.Context, queries []*vectordb.Document, params Parameters) (err error) {
	ctx, done := i.begin(ctx, OpSearch)
	defer func() { done(err, len(queries)) }()

	if err := i.check(); err != nil {
		return err
	}
	if len(queries) == 0 {
		return nil
	}

	opts, unknown, err := queryOptions(MergeParameters(i.cfg.DefaultParameters, params), i.cfg.Columns)
	if err != nil {
		return err
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		i.log.DebugWithContext(ctx, "ignoring unknown search parameters", nil, map[string]interface{}{
			"parameters": unknown,
		})
	}

	live := make([]*vectordb.Document, 0, len(queries))
	vectors := make([][]float32, 0, len(queries))
	for _, q := range queries {
		if q == nil {
			continue
		}
		live = append(live, q)
		vectors = append(vectors, q.Vector)
	}
	if len(live) == 0 {
		return nil
	}

	i.mu.RLock()
	defer i.mu.RUnlock()
	results, err := i.col.Query(ctx, vectors, opts)
	if err != nil {
		return err
	}
	for n, q := range live {
		q.Matches = results[n]
	}
	return nil
}

// Delete removes the records with the given ids. Unknown ids are ignored.
func (i *Indexer) Delete(ctx context.Context, ids []string) (err error) {
	ctx, done := i.begin(ctx, OpDelete)
	defer func() { done(err, len(ids)) }()

	if err := i.check(); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	return i.col.DeleteByIDs(ctx, ids)
}

// Update replaces stored records in full. A document whose id is not stored is
// skipped with a warning; the remaining documents are still written.
func (i *Indexer) Update(ctx context.Context, docs []*vectordb.Document) (err error) {
	ctx, done := i.begin(ctx, OpUpdate)
	defer func() { done(err, len(docs)) }()

	if err := i.check(); err != nil {
		return err
	}
	if len(docs) == 0 {
		return nil
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	stored, err := i.col.Get(ctx, vectordb.IDs(docs))
	if err != nil {
		return err
	}

	present := make([]*vectordb.Document, 0, len(docs))
	for _, d := range docs {
		if d == nil {
			continue
		}
		if _, ok := stored[d.ID]; !ok {
			i.log.WarnWithContext(ctx, "cannot update document, it does not exist in storage", nil, map[string]interface{}{
				"id": d.ID,
			})
			continue
		}
		present = append(present, d)
	}
	if len(present) == 0 {
		return nil
	}
	return i.col.Replace(ctx, present)
}

// FillEmbedding copies the stored vector into every document, in order. It stops
// with a *vectordb.NotFoundError at the first id that is not stored.
func (i *Indexer) FillEmbedding(ctx context.Context, docs []*vectordb.Document) (err error) {
	ctx, done := i.begin(ctx, OpFillEmbedding)
	defer func() { done(err, len(docs)) }()

	if err := i.check(); err != nil {
		return err
	}
	if len(docs) == 0 {
		return nil
	}

	i.mu.RLock()
	stored, err := i.col.Get(ctx, vectordb.IDs(docs))
	i.mu.RUnlock()
	if err != nil {
		return err
	}
	for _, d := range docs {
		if d == nil {
			continue
		}
		s, ok := stored[d.ID]
		if !ok {
			return &vectordb.NotFoundError{ID: d.ID}
		}
		d.Vector = s.Vector
	}
	return nil
}

// Filter returns the records matching predicate, in the order the backend returns
// them. An empty predicate returns every record.
func (i *Indexer) Filter(ctx context.Context, predicate string) (docs []*vectordb.Document, err error) {
	ctx, done := i.begin(ctx, OpFilter)
	defer func() { done(err, len(docs)) }()

	if err := i.check(); err != nil {
		return nil, err
	}

	var pred vectordb.Predicate
	p, err := filter.Compile(predicate, i.cfg.Columns)
	if err != nil {
		return nil, err
	}
	if p != nil {
		pred = p
	}

	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.col.ScanByPredicate(ctx, pred)
}

// Clear removes every record. Clearing an empty collection succeeds.
func (i *Indexer) Clear(ctx context.Context) (err error) {
	ctx, done := i.begin(ctx, OpClear)
	defer func() { done(err, 0) }()

	if err := i.check(); err != nil {
		return err
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	return i.col.ClearAll(ctx)
}

// Count returns the number of stored records.
func (i *Indexer) Count(ctx context.Context) (int, error) {
	if err := i.check(); err != nil {
		return 0, err
	}
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.col.Count(ctx)
}

// Close waits for the calls in flight and releases the collection handle. Every
// later call returns vectordb.ErrClosed.
func (i *Indexer) Close(ctx context.Context) error {
	if i.closed.Swap(true) {
		return nil
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.col.Close(ctx)
}

func (i *Indexer) check() error {
	if i.closed.Load() {
		return vectordb.ErrClosed
	}
	return nil
}

// begin opens the span for op and returns the function that ends it, reports the
// operation and logs failures.
func (i *Indexer) begin(ctx context.Context, op string) (context.Context, func(err error, size int)) {
	start := time.Now()

	var span trace.Span
	if i.tracer != nil {
		ctx, span = i.tracer.StartSpan(ctx, "indexer."+op)
	}

	return ctx, func(err error, size int) {
		if span != nil {
			i.tracer.SetAttributes(span, map[string]interface{}{"documents": size})
			if err != nil {
				i.tracer.RecordErrorOnSpan(span, err)
			}
			span.End()
		}
		if err != nil && !errors.Is(err, vectordb.ErrClosed) {
			i.log.ErrorWithContext(ctx, "indexer operation failed", err, map[string]interface{}{
				"operation": op,
			})
		}
		if i.observer != nil {
			i.observer.ObserveOperation(observability.OperationContext{
				Component: "indexer",
				Operation: op,
				Duration:  time.Since(start),
				Error:     err,
				Size:      int64(size),
			})
		}
	}
}
