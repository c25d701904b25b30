package minio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Aleph-Alpha/vectorindexer/v1/vectordb"
)

// Source yields the documents of a dump. *indexer.Indexer satisfies it.
type Source interface {
	Filter(ctx context.Context, predicate string) ([]*vectordb.Document, error)
}

// Sink receives the documents of a restore. *indexer.Indexer satisfies it.
type Sink interface {
	Index(ctx context.Context, docs []*vectordb.Document) error
}

// Info describes a written snapshot.
type Info struct {
	Name      string `json:"name"`
	Key       string `json:"key"`
	Documents int    `json:"documents"`
	Bytes     int64  `json:"bytes"`
}

// key maps a snapshot name onto its object key.
func (s *Store) key(name string) string {
	return s.cfg.Prefix + name + s.suffix()
}

func (s *Store) suffix() string {
	return ".jsonl" + s.codec.Extension()
}

// Dump writes every document of src, vectors included, as one JSON document per
// line into the snapshot called name. An existing snapshot of that name is replaced.
func (s *Store) Dump(ctx context.Context, src Source, name string) (info Info, err error) {
	start := time.Now()
	defer func() { s.observeOperation("dump", info.Key, start, err, info.Bytes) }()

	if name == "" {
		return info, fmt.Errorf("minio: snapshot name is required")
	}
	info = Info{Name: name, Key: s.key(name)}

	docs, err := src.Filter(ctx, "")
	if err != nil {
		return info, fmt.Errorf("minio: reading documents: %w", err)
	}
	info.Documents = len(docs)

	pr, pw := io.Pipe()
	go func() {
		_ = pw.CloseWithError(s.writeDocs(pw, docs))
	}()

	info.Bytes, err = s.objects.put(ctx, info.Key, pr)
	// Unblocks the writer when the upload gave up early.
	_ = pr.CloseWithError(err)
	if err != nil {
		return info, fmt.Errorf("minio: uploading %s: %w", info.Key, err)
	}

	s.log.InfoWithContext(ctx, "snapshot written", nil, map[string]interface{}{
		"key":       info.Key,
		"documents": info.Documents,
		"bytes":     info.Bytes,
	})
	return info, nil
}

func (s *Store) writeDocs(w io.Writer, docs []*vectordb.Document) error {
	cw, err := s.codec.CompressWriter(w)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cw)
	for _, d := range docs {
		if err := enc.Encode(d); err != nil {
			_ = cw.Close()
			return fmt.Errorf("encoding document %q: %w", d.ID, err)
		}
	}
	return cw.Close()
}

// Restore indexes the documents of the snapshot called name into dst in batches of
// Config.RestoreBatch and returns how many were indexed. Existing documents with the
// same ids are overwritten; others are left alone.
func (s *Store) Restore(ctx context.Context, dst Sink, name string) (n int, err error) {
	start := time.Now()
	key := s.key(name)
	defer func() { s.observeOperation("restore", key, start, err, int64(n)) }()

	rc, err := s.objects.get(ctx, key)
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	dr, err := s.codec.DecompressReader(rc)
	if err != nil {
		return 0, fmt.Errorf("minio: opening %s: %w", key, err)
	}
	defer dr.Close()

	dec := json.NewDecoder(dr)
	batch := make([]*vectordb.Document, 0, s.cfg.RestoreBatch)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := dst.Index(ctx, batch); err != nil {
			return err
		}
		n += len(batch)
		batch = make([]*vectordb.Document, 0, s.cfg.RestoreBatch)
		return nil
	}

	for {
		var d vectordb.Document
		if err := dec.Decode(&d); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return n, fmt.Errorf("minio: decoding %s after %d documents: %w", key, n+len(batch), err)
		}
		batch = append(batch, &d)
		if len(batch) == s.cfg.RestoreBatch {
			if err := flush(); err != nil {
				return n, err
			}
		}
	}
	if err := flush(); err != nil {
		return n, err
	}

	s.log.InfoWithContext(ctx, "snapshot restored", nil, map[string]interface{}{
		"key":       key,
		"documents": n,
	})
	return n, nil
}

// List returns the names of the stored snapshots, sorted.
func (s *Store) List(ctx context.Context) (names []string, err error) {
	start := time.Now()
	defer func() { s.observeOperation("list", s.cfg.Prefix, start, err, int64(len(names))) }()

	keys, err := s.objects.list(ctx, s.cfg.Prefix)
	if err != nil {
		return nil, err
	}
	suffix := s.suffix()
	for _, k := range keys {
		if !strings.HasSuffix(k, suffix) {
			continue
		}
		names = append(names, strings.TrimSuffix(strings.TrimPrefix(k, s.cfg.Prefix), suffix))
	}
	return names, nil
}

// Delete removes the snapshot called name. Deleting a missing snapshot succeeds.
func (s *Store) Delete(ctx context.Context, name string) (err error) {
	start := time.Now()
	key := s.key(name)
	defer func() { s.observeOperation("delete", key, start, err, 0) }()

	return s.objects.remove(ctx, key)
}
