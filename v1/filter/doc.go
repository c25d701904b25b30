// Package filter compiles the filter expressions accepted by search and filter
// requests.
//
// Expressions are CEL, with the keyword operators and, or and not accepted as
// aliases:
//
//	price <= 3
//	brand == "acme" and (price < 10 or on_sale)
//	category in ["shoes", "socks"]
//	created_at >= timestamp("2024-01-01T00:00:00Z")
//
// Compile type checks the expression against the configured columns and wraps
// every problem in vectordb.ErrFilterSyntax. The resulting Predicate is used in two
// ways: Match evaluates it in process (the memory backend and client side scans),
// Lower translates it to a vectordb.FilterSet that engines push down.
package filter
