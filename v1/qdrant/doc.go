// Package qdrant implements vectordb.Collection on top of the official Qdrant Go
// client (github.com/qdrant/go-client).
//
// # Collections
//
// NewCollection connects over gRPC, runs a health check and attaches to the
// configured collection, creating it on first use:
//
//	col, err := qdrant.NewCollection(ctx, qdrant.CollectionParams{
//	    Config: qdrant.Config{
//	        Host:           "localhost",
//	        Port:           6334,
//	        CollectionName: "products",
//	        Dimension:      128,
//	        Distance:       vectordb.MetricL2,
//	        Columns:        vectordb.Columns{"price": vectordb.ColumnFloat},
//	    },
//	    Codec:  c,
//	    Logger: log,
//	})
//
// Creation is idempotent per name. When the collection already exists its vector
// size must equal Dimension. A payload index is declared for every column.
//
// # Records
//
// Document ids are mapped onto UUIDv5 point ids, so the same id always addresses
// the same point. The payload carries the tags as top-level fields (what filters
// run against), the original id under "_id" and the codec encoded document under
// "_blob".
//
// # Metrics and consistency
//
//	IP        -> Dot
//	L2        -> Euclid
//	COSINE    -> Cosine
//	MANHATTAN -> Manhattan
//
//	Strong     -> read All,      write ordering Strong
//	Session    -> read Majority, write ordering Medium
//	Bounded    -> read Quorum,   write ordering Weak
//	Eventually -> engine default, write ordering Weak
//
// # Filters
//
// Predicates are lowered to vectordb.FilterSet and converted to qdrant.Filter.
// Query requires a lowerable predicate; ScanByPredicate falls back to local
// evaluation when the predicate cannot be pushed down. Search on this backend
// therefore accepts a narrower filter language than filtering: arithmetic on
// columns such as `price * 2 < 10` fails Query with vectordb.ErrFilterSyntax
// while ScanByPredicate still evaluates it.
//
// # Errors
//
// gRPC Unavailable and DeadlineExceeded surface as vectordb.ErrConnection, vectors
// of the wrong length as vectordb.ErrDimensionMismatch, and any call after Close
// as vectordb.ErrClosed.
package qdrant
