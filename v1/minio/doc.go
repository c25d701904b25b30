// Package minio stores collection snapshots in a MinIO (or any S3 compatible) bucket.
//
// A snapshot is one object holding every document of the collection, vector
// included, as newline delimited JSON. The stream is compressed with the compression
// configured for the codec package, and the object key reflects it:
//
//	<prefix><name>.jsonl       no compression
//	<prefix><name>.jsonl.lz4   lz4
//	<prefix><name>.jsonl.zst   zstd
//	<prefix><name>.jsonl.gz    gzip
//
// Dump reads the documents through the indexer filter operation with an empty
// predicate; Restore feeds them back through index in batches:
//
//	store, err := minio.NewStore(ctx, cfg, c, log)
//	info, err := store.Dump(ctx, idx, "nightly")
//	n, err := store.Restore(ctx, idx, "nightly")
//
// Restoring over a collection that already holds documents overwrites those with
// matching ids and keeps the rest. Clear the collection first for an exact copy.
package minio
