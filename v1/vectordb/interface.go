package vectordb

import "context"

// Collection is a handle on one externally owned vector collection.
//
// Implementations map their failures onto the sentinel errors of this package:
// ErrDimensionMismatch for vectors of the wrong length, ErrConnection when the engine
// cannot be reached, ErrFilterSyntax for predicates the engine cannot evaluate and
// ErrClosed after Close.
type Collection interface {
	// Append stores docs, overwriting records that share an id.
	Append(ctx context.Context, docs []*Document) error

	// Query returns, for each query vector, the matches ordered best first.
	Query(ctx context.Context, queries [][]float32, opts QueryOptions) ([][]Match, error)

	// Get returns the stored documents for the ids that exist. Missing ids are
	// absent from the result map, never an error.
	Get(ctx context.Context, ids []string) (map[string]*Document, error)

	// DeleteByIDs removes the given ids. Ids that do not exist are ignored.
	DeleteByIDs(ctx context.Context, ids []string) error

	// Replace overwrites existing records in full.
	Replace(ctx context.Context, docs []*Document) error

	// ScanByPredicate returns every document satisfying pred, all documents when
	// pred is nil.
	ScanByPredicate(ctx context.Context, pred Predicate) ([]*Document, error)

	// ClearAll removes every record.
	ClearAll(ctx context.Context) error

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)

	// Close releases the handle. The collection itself is left in place.
	Close(ctx context.Context) error
}

// Predicate is a compiled boolean expression over document tags.
type Predicate interface {
	// Expression returns the source text.
	Expression() string

	// Match evaluates the predicate against tags. Evaluation failures count as false.
	Match(tags map[string]any) bool

	// Lower translates the predicate into a FilterSet an engine can push down.
	Lower() (*FilterSet, error)
}
