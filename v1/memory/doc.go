// Package memory implements vectordb.Collection inside the process.
//
// Search is exact: every candidate that passes the filter is scored and the list is
// sorted best first (ascending distance for L2 and MANHATTAN, descending similarity
// for IP and COSINE). Collections are registered by name, so two handles with the
// same name see the same records, the way two indexer replicas attached to one
// engine collection would.
//
// The backend is meant for tests and local development; records do not survive the
// process.
package memory
