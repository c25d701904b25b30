// Package server exposes the indexer over HTTP with gin.
//
// Every operation is a POST endpoint named after it. Requests and responses carry
// documents under "data"; search and filter read their options from "parameters":
//
//	POST /search
//	{"data": [{"id": "q", "embedding": [1, 1]}], "parameters": {"limit": 3, "filter": "price <= 2.0"}}
//
//	200 OK
//	{"data": [{"id": "q", "embedding": [1, 1], "matches": [{"id": "b", "score": 0, ...}]}]}
//
// Errors are answered with {"error": "..."} and a status derived from the error:
// 400 for invalid parameters, filter syntax and dimension mismatches, 404 when
// fill_embedding meets an unknown id and 503 when the engine is unreachable.
//
// GET /healthz reports the number of stored documents.
package server
