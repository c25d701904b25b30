// Package indexer adapts a vector collection to the document operations of the
// service: index, search, delete, update, fill_embedding, filter and clear.
//
// An Indexer wraps exactly one vectordb.Collection, so the same code runs against
// Qdrant in production and against the in-process backend in tests:
//
//	idx, err := indexer.New(col, indexer.Config{
//	    Columns:           vectordb.Columns{"price": vectordb.ColumnFloat},
//	    DefaultParameters: indexer.Parameters{"limit": 5},
//	}, log)
//	if err != nil {
//	    return err
//	}
//	defer idx.Close(ctx)
//
//	err = idx.Index(ctx, docs)
//	err = idx.Search(ctx, queries, indexer.Parameters{"filter": "price <= 3.0"})
//	// queries[i].Matches now holds the best matches, best first.
//
// # Search parameters
//
// The parameters of a search are the configured defaults overlaid with the
// request parameters; a request value always wins. Recognised names are limit,
// filter, ef, exact, score_threshold and with_vector. Other names are ignored and
// logged at debug level.
//
// # Update and FillEmbedding
//
// Update skips documents that are not stored and logs a warning for each one.
// FillEmbedding treats a missing document as an error and returns a
// *vectordb.NotFoundError.
package indexer
