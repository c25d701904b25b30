// Package codec serialises document content for storage.
//
// The protocol (json or protobuf) and the compression (none, lz4, zstd, gzip) are
// configurable. Every encoded document carries a header naming both, so documents
// written under one configuration stay readable after the configuration changes.
//
//	c, err := codec.New(codec.Config{Protocol: codec.ProtocolProtobuf, Compress: codec.CompressZSTD})
//	b, err := c.Encode(doc)
//	doc, err = c.Decode(b)
//
// CompressWriter and DecompressReader apply the same compression to streams; the
// snapshot store uses them for collection dumps.
package codec
