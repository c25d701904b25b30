package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aleph-Alpha/vectorindexer/v1/codec"
	"github.com/Aleph-Alpha/vectorindexer/v1/filter"
	"github.com/Aleph-Alpha/vectorindexer/v1/vectordb"
)

func newCollection(t *testing.T, metric vectordb.Metric, dim int) *Collection {
	t.Helper()
	c, err := codec.New(codec.DefaultConfig())
	require.NoError(t, err)
	name := "test-" + uuid.NewString()
	col, err := NewCollection(Config{Name: name, Dimension: dim, Metric: metric}, c)
	require.NoError(t, err)
	t.Cleanup(func() {
		Drop(name)
		c.Close()
	})
	return col
}

func pointDocs() []*vectordb.Document {
	return []*vectordb.Document{
		{ID: "a", Vector: []float32{1, 3}, Tags: map[string]any{"price": 1.0}},
		{ID: "b", Vector: []float32{1, 1}, Tags: map[string]any{"price": 2.0}},
		{ID: "c", Vector: []float32{3, 1}, Tags: map[string]any{"price": 3.0}},
		{ID: "d", Vector: []float32{2, 3}, Tags: map[string]any{"price": 4.0}},
	}
}

func TestQueryEuclideanBestMatch(t *testing.T) {
	ctx := context.Background()
	col := newCollection(t, vectordb.MetricL2, 2)
	require.NoError(t, col.Append(ctx, pointDocs()))

	res, err := col.Query(ctx, [][]float32{{1, 1}}, vectordb.QueryOptions{})
	require.NoError(t, err)
	require.Len(t, res, 1)
	require.Len(t, res[0], 4)
	assert.Equal(t, "b", res[0][0].ID)
	assert.Equal(t, float32(0), res[0][0].Score)
	for i := 1; i < len(res[0]); i++ {
		assert.LessOrEqual(t, res[0][i-1].Score, res[0][i].Score)
	}
	assert.Nil(t, res[0][0].Document.Vector)
}

func TestQueryInnerProductDescending(t *testing.T) {
	ctx := context.Background()
	col := newCollection(t, vectordb.MetricIP, 2)
	require.NoError(t, col.Append(ctx, pointDocs()))

	res, err := col.Query(ctx, [][]float32{{1, 1}, {0, 1}}, vectordb.QueryOptions{Limit: 2, WithVector: true})
	require.NoError(t, err)
	require.Len(t, res, 2)
	for _, matches := range res {
		require.Len(t, matches, 2)
		assert.GreaterOrEqual(t, matches[0].Score, matches[1].Score)
	}
	assert.Equal(t, "d", res[0][0].ID)
	assert.Equal(t, []float32{2, 3}, res[0][0].Document.Vector)
}

func TestQueryWithFilterAndThreshold(t *testing.T) {
	ctx := context.Background()
	col := newCollection(t, vectordb.MetricL2, 2)
	require.NoError(t, col.Append(ctx, pointDocs()))

	pred := filter.MustCompile("price >= 3", vectordb.Columns{"price": vectordb.ColumnFloat})
	res, err := col.Query(ctx, [][]float32{{1, 1}}, vectordb.QueryOptions{Filter: pred})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "d"}, matchIDs(res[0]))

	res, err = col.Query(ctx, [][]float32{{1, 1}}, vectordb.QueryOptions{ScoreThreshold: vectordb.Ptr(float32(2))})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c"}, matchIDs(res[0]))
}

func TestDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	col := newCollection(t, vectordb.MetricL2, 2)

	err := col.Append(ctx, []*vectordb.Document{{ID: "x", Vector: []float32{1, 2, 3}}})
	assert.True(t, vectordb.IsDimensionMismatch(err))

	_, err = col.Query(ctx, [][]float32{{1}}, vectordb.QueryOptions{})
	assert.True(t, vectordb.IsDimensionMismatch(err))
}

func TestDeleteGetScanClear(t *testing.T) {
	ctx := context.Background()
	col := newCollection(t, vectordb.MetricIP, 2)
	require.NoError(t, col.Append(ctx, pointDocs()))

	require.NoError(t, col.DeleteByIDs(ctx, []string{"a", "missing"}))
	got, err := col.Get(ctx, []string{"a", "b", "zzz"})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Contains(t, got, "b")

	all, err := col.ScanByPredicate(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "d"}, vectordb.IDs(all))

	require.NoError(t, col.ClearAll(ctx))
	require.NoError(t, col.ClearAll(ctx))
	n, err := col.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStoredRecordsAreIsolated(t *testing.T) {
	ctx := context.Background()
	col := newCollection(t, vectordb.MetricIP, 2)
	doc := &vectordb.Document{ID: "a", Vector: []float32{1, 2}, Tags: map[string]any{"k": "v"}}
	require.NoError(t, col.Append(ctx, []*vectordb.Document{doc}))

	doc.Vector[0] = 42
	doc.Tags["k"] = "changed"

	got, err := col.Get(ctx, []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2}, got["a"].Vector)
	assert.Equal(t, "v", got["a"].Tags["k"])
}

func TestSharedStoreAndClose(t *testing.T) {
	ctx := context.Background()
	first := newCollection(t, vectordb.MetricIP, 2)
	require.NoError(t, first.Append(ctx, pointDocs()))

	second, err := NewCollection(first.cfg, first.codec)
	require.NoError(t, err)
	n, err := second.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	require.NoError(t, first.Close(ctx))
	_, err = first.Count(ctx)
	assert.ErrorIs(t, err, vectordb.ErrClosed)

	n, err = second.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func matchIDs(ms []vectordb.Match) []string {
	ids := make([]string, len(ms))
	for i, m := range ms {
		ids[i] = m.ID
	}
	return ids
}

func TestAppendSkipsNilDocuments(t *testing.T) {
	ctx := context.Background()
	col := newCollection(t, vectordb.MetricL2, 2)

	require.NoError(t, col.Append(ctx, []*vectordb.Document{nil, pointDocs()[1], nil}))
	require.NoError(t, col.Replace(ctx, []*vectordb.Document{nil}))

	docs, err := col.ScanByPredicate(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, vectordb.IDs(docs))
}
