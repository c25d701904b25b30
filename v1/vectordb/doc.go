// Package vectordb defines the engine agnostic model of the vector indexer.
//
// The central type is Collection, a capability handle on one externally owned
// vector collection. The indexer only ever talks to a Collection, so the Qdrant
// backend (package qdrant) and the in-process backend (package memory) are
// interchangeable, and tests substitute the latter for the former.
//
// # Documents
//
// A Document carries an id, a vector of the collection dimension, opaque content
// (Text, Blob) and Tags. Tags that name a configured column are typed scalars and
// can be filtered on:
//
//	doc := &vectordb.Document{
//		ID:     "sku-1",
//		Vector: []float32{0.1, 0.2},
//		Tags:   map[string]any{"price": 2.5, "brand": "acme"},
//	}
//
// # Filters
//
// Filter expressions are compiled into a Predicate by package filter. A Predicate
// can be evaluated directly against tags (Match) or lowered into a FilterSet, the
// engine neutral Must / Should / MustNot tree that backends push down:
//
//	fs := vectordb.NewFilterSet(
//		vectordb.Must(vectordb.NewNumericRange("price", vectordb.NumericRange{Lte: vectordb.Ptr(3.0)})),
//	)
//
// # Errors
//
// Backends report failures through the sentinels ErrDimensionMismatch, ErrNotFound,
// ErrConnection, ErrFilterSyntax and ErrClosed. Use errors.Is, or the IsXxx helpers.
// NotFoundError and DimensionError carry the offending id.
package vectordb
