package minio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Aleph-Alpha/vectorindexer/v1/codec"
	"github.com/Aleph-Alpha/vectorindexer/v1/indexer"
	"github.com/Aleph-Alpha/vectorindexer/v1/logger"
	"github.com/Aleph-Alpha/vectorindexer/v1/memory"
	"github.com/Aleph-Alpha/vectorindexer/v1/observability"
	"github.com/Aleph-Alpha/vectorindexer/v1/vectordb"
)

// memObjects keeps objects in a map.
type memObjects struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemObjects() *memObjects {
	return &memObjects{data: map[string][]byte{}}
}

func (m *memObjects) put(ctx context.Context, key string, r io.Reader) (int64, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = b
	return int64(len(b)), nil
}

func (m *memObjects) get(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, key)
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (m *memObjects) list(ctx context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *memObjects) remove(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// failingObjects rejects uploads without reading them.
type failingObjects struct{ memObjects }

func (*failingObjects) put(context.Context, string, io.Reader) (int64, error) {
	return 0, errors.New("access denied")
}

func newIndexer(t *testing.T, c *codec.Codec) *indexer.Indexer {
	t.Helper()
	name := "minio-" + uuid.NewString()
	col, err := memory.NewCollection(memory.Config{Name: name, Dimension: 2, Metric: vectordb.MetricL2}, c)
	require.NoError(t, err)
	t.Cleanup(func() { memory.Drop(name) })
	idx, err := indexer.New(col, indexer.Config{}, logger.NewFromZap(zaptest.NewLogger(t), false))
	require.NoError(t, err)
	return idx
}

func newCodec(t *testing.T, compress string) *codec.Codec {
	t.Helper()
	c, err := codec.New(codec.Config{Protocol: codec.ProtocolJSON, Compress: compress})
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func sampleDocs(n int) []*vectordb.Document {
	docs := make([]*vectordb.Document, n)
	for i := range docs {
		docs[i] = &vectordb.Document{
			ID:     fmt.Sprintf("doc-%03d", i),
			Vector: []float32{float32(i), float32(i % 7)},
			Text:   "text " + fmt.Sprint(i),
			Tags:   map[string]any{"price": float64(i) / 2},
		}
	}
	return docs
}

func TestDumpAndRestore(t *testing.T) {
	for _, compress := range []string{codec.CompressNone, codec.CompressLZ4, codec.CompressZSTD, codec.CompressGzip} {
		t.Run(compress, func(t *testing.T) {
			ctx := context.Background()
			c := newCodec(t, compress)
			log := logger.NewFromZap(zaptest.NewLogger(t), false)

			cfg := DefaultConfig()
			cfg.Prefix = "products/"
			cfg.RestoreBatch = 7
			objs := newMemObjects()
			store := newStore(cfg, objs, c, log)

			src := newIndexer(t, c)
			require.NoError(t, src.Index(ctx, sampleDocs(25)))

			info, err := store.Dump(ctx, src, "nightly")
			require.NoError(t, err)
			assert.Equal(t, 25, info.Documents)
			assert.Equal(t, "products/nightly.jsonl"+c.Extension(), info.Key)
			assert.Positive(t, info.Bytes)

			dst := newIndexer(t, c)
			n, err := store.Restore(ctx, dst, "nightly")
			require.NoError(t, err)
			assert.Equal(t, 25, n)

			docs, err := dst.Filter(ctx, "")
			require.NoError(t, err)
			require.Len(t, docs, 25)
			byID := map[string]*vectordb.Document{}
			for _, d := range docs {
				byID[d.ID] = d
			}
			assert.Equal(t, []float32{12, 5}, byID["doc-012"].Vector)
			assert.Equal(t, "text 12", byID["doc-012"].Text)
			assert.Equal(t, 6.0, byID["doc-012"].Tags["price"])
		})
	}
}

func TestRestoreMissingSnapshot(t *testing.T) {
	c := newCodec(t, codec.CompressNone)
	store := newStore(DefaultConfig(), newMemObjects(), c, logger.NewFromZap(zaptest.NewLogger(t), false))

	_, err := store.Restore(context.Background(), newIndexer(t, c), "missing")
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}

func TestRestoreCorruptSnapshot(t *testing.T) {
	ctx := context.Background()
	c := newCodec(t, codec.CompressNone)
	objs := newMemObjects()
	store := newStore(DefaultConfig(), objs, c, logger.NewFromZap(zaptest.NewLogger(t), false))
	objs.data[store.key("broken")] = []byte(`{"id": "a", "embedding": [1, 1]}` + "\n" + `{"id": `)

	dst := newIndexer(t, c)
	n, err := store.Restore(ctx, dst, "broken")
	require.Error(t, err)
	assert.Zero(t, n)
}

func TestDumpUploadFailure(t *testing.T) {
	ctx := context.Background()
	c := newCodec(t, codec.CompressLZ4)
	store := newStore(DefaultConfig(), &failingObjects{}, c, logger.NewFromZap(zaptest.NewLogger(t), false))

	src := newIndexer(t, c)
	require.NoError(t, src.Index(ctx, sampleDocs(3)))

	_, err := store.Dump(ctx, src, "nightly")
	assert.ErrorContains(t, err, "access denied")

	_, err = store.Dump(ctx, src, "")
	assert.Error(t, err)
}

func TestListAndDelete(t *testing.T) {
	ctx := context.Background()
	c := newCodec(t, codec.CompressGzip)
	cfg := DefaultConfig()
	cfg.Prefix = "products/"
	objs := newMemObjects()
	objs.data["other/ignored.jsonl.gz"] = nil
	objs.data["products/notes.txt"] = nil

	var ops []string
	store := newStore(cfg, objs, c, logger.NewFromZap(zaptest.NewLogger(t), false)).
		WithObserver(observability.ObserverFunc(func(oc observability.OperationContext) {
			ops = append(ops, oc.Operation)
		}))

	src := newIndexer(t, c)
	require.NoError(t, src.Index(ctx, sampleDocs(2)))
	for _, name := range []string{"b", "a"} {
		_, err := store.Dump(ctx, src, name)
		require.NoError(t, err)
	}

	names, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)

	require.NoError(t, store.Delete(ctx, "a"))
	require.NoError(t, store.Delete(ctx, "a"))
	names, err = store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, names)

	assert.Equal(t, []string{"dump", "dump", "list", "delete", "delete", "list"}, ops)
}
