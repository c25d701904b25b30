package kafka

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Aleph-Alpha/vectorindexer/v1/codec"
	"github.com/Aleph-Alpha/vectorindexer/v1/indexer"
	"github.com/Aleph-Alpha/vectorindexer/v1/logger"
	"github.com/Aleph-Alpha/vectorindexer/v1/memory"
	"github.com/Aleph-Alpha/vectorindexer/v1/vectordb"
)

// fakeReader serves queued records and returns io.EOF once they are exhausted.
type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []int64
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.queue) == 0 {
		return kafka.Message{}, io.EOF
	}
	m := r.queue[0]
	r.queue = r.queue[1:]
	return m, nil
}

func (r *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

type fakeWriter struct {
	written []kafka.Message
	err     error
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.written = append(w.written, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

// failingService reports the engine as unreachable.
type failingService struct{ Service }

func (failingService) Index(context.Context, []*vectordb.Document) error {
	return vectordb.ConnectionError("upsert", errors.New("connection refused"))
}

func newIndexer(t *testing.T) *indexer.Indexer {
	t.Helper()
	c, err := codec.New(codec.DefaultConfig())
	require.NoError(t, err)
	name := "kafka-" + uuid.NewString()
	col, err := memory.NewCollection(memory.Config{Name: name, Dimension: 2, Metric: vectordb.MetricL2}, c)
	require.NoError(t, err)
	t.Cleanup(func() {
		memory.Drop(name)
		c.Close()
	})
	idx, err := indexer.New(col, indexer.Config{}, logger.NewFromZap(zaptest.NewLogger(t), false))
	require.NoError(t, err)
	return idx
}

func newTestConsumer(t *testing.T, svc Service, records []string, deadLetter messageWriter) (*Consumer, *fakeReader) {
	t.Helper()
	reader := &fakeReader{}
	for n, v := range records {
		reader.queue = append(reader.queue, kafka.Message{Topic: "ops", Offset: int64(n), Value: []byte(v)})
	}
	return &Consumer{
		cfg:        DefaultConfig(),
		svc:        svc,
		log:        logger.NewFromZap(zaptest.NewLogger(t), false),
		reader:     reader,
		deadLetter: deadLetter,
	}, reader
}

func TestConsumerAppliesOperationsInOrder(t *testing.T) {
	ctx := context.Background()
	idx := newIndexer(t)

	c, reader := newTestConsumer(t, idx, []string{
		`{"operation": "index", "data": [{"id": "a", "embedding": [1, 3]}, {"id": "b", "embedding": [1, 1]}, {"id": "c", "embedding": [3, 1]}]}`,
		`{"operation": "update", "data": [{"id": "a", "embedding": [2, 2]}, {"id": "ghost", "embedding": [0, 0]}]}`,
		`{"operation": "delete", "parameters": {"ids": ["b", "missing"]}}`,
		`{"operation": "delete", "data": [{"id": "c"}]}`,
	}, nil)

	require.NoError(t, c.Run(ctx))
	assert.Equal(t, []int64{0, 1, 2, 3}, reader.committed)

	docs, err := idx.Filter(ctx, "")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "a", docs[0].ID)
	assert.Equal(t, []float32{2, 2}, docs[0].Vector)
}

func TestConsumerDeadLettersInvalidMessages(t *testing.T) {
	ctx := context.Background()
	dlq := &fakeWriter{}

	c, reader := newTestConsumer(t, newIndexer(t), []string{
		`not json`,
		`{"operation": "search", "data": []}`,
		`{"operation": "index", "data": [{"id": "x", "embedding": [1, 2, 3]}]}`,
		`{"operation": "delete", "parameters": {"ids": "x"}}`,
		`{"operation": "clear"}`,
	}, dlq)

	require.NoError(t, c.Run(ctx))
	assert.Equal(t, []int64{0, 1, 2, 3, 4}, reader.committed)
	require.Len(t, dlq.written, 4)

	headers := headerCarrier(dlq.written[2].Headers)
	assert.Equal(t, "ops", headers[HeaderOriginalTopic])
	assert.Equal(t, "2", headers[HeaderOriginalOffset])
	assert.Contains(t, headers[HeaderDeadLetterReason], "dimension")
}

func TestConsumerSkipsInvalidWithoutDeadLetterTopic(t *testing.T) {
	c, reader := newTestConsumer(t, newIndexer(t), []string{`{"operation": "nope"}`}, nil)

	require.NoError(t, c.Run(context.Background()))
	assert.Equal(t, []int64{0}, reader.committed)
}

func TestConsumerStopsOnUnavailableEngine(t *testing.T) {
	c, reader := newTestConsumer(t, failingService{}, []string{
		`{"operation": "index", "data": [{"id": "a", "embedding": [1, 1]}]}`,
		`{"operation": "clear"}`,
	}, &fakeWriter{})

	err := c.Run(context.Background())
	require.Error(t, err)
	assert.True(t, vectordb.IsConnectionError(err))
	assert.Empty(t, reader.committed, "the failed message must be redelivered")
	assert.Len(t, reader.queue, 1)
}

func TestConsumerStopsWhenDeadLetterFails(t *testing.T) {
	c, reader := newTestConsumer(t, newIndexer(t), []string{`broken`}, &fakeWriter{err: errors.New("broker down")})

	err := c.Run(context.Background())
	require.Error(t, err)
	assert.Empty(t, reader.committed)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, outcomeCommit, classify(nil))
	assert.Equal(t, outcomeDeadLetter, classify(ErrInvalidMessage))
	assert.Equal(t, outcomeDeadLetter, classify(&vectordb.DimensionError{ID: "a", Got: 3, Want: 2}))
	assert.Equal(t, outcomeDeadLetter, classify(indexer.ErrInvalidParameter))
	assert.Equal(t, outcomeStop, classify(vectordb.ConnectionError("upsert", io.ErrUnexpectedEOF)))
	assert.Equal(t, outcomeStop, classify(vectordb.ErrClosed))
	assert.Equal(t, outcomeStop, classify(context.DeadlineExceeded))
}

func TestCloseIsIdempotent(t *testing.T) {
	c, reader := newTestConsumer(t, newIndexer(t), nil, &fakeWriter{})
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	assert.True(t, reader.closed)
}

func TestProducerPublish(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{writer: w}

	err := p.Publish(context.Background(), "catalog",
		Message{Operation: indexer.OpIndex, Data: []*vectordb.Document{{ID: "a", Vector: []float32{1, 1}}}},
		Message{Operation: indexer.OpClear},
	)
	require.NoError(t, err)
	require.Len(t, w.written, 2)
	assert.Equal(t, []byte("catalog"), w.written[0].Key)

	m, err := decodeMessage(w.written[0].Value)
	require.NoError(t, err)
	assert.Equal(t, indexer.OpIndex, m.Operation)
	assert.Equal(t, []string{"a"}, vectordb.IDs(m.Data))

	err = p.Publish(context.Background(), "catalog", Message{Operation: "search"})
	assert.ErrorIs(t, err, ErrInvalidMessage)
}

func TestNewConsumerValidates(t *testing.T) {
	log := logger.NewFromZap(zaptest.NewLogger(t), false)

	_, err := NewConsumer(Config{}, nil, log)
	assert.Error(t, err)

	cfg := DefaultConfig()
	cfg.SASL = SASLConfig{Enabled: true, Mechanism: "GSSAPI"}
	_, err = NewConsumer(cfg, nil, log)
	assert.ErrorContains(t, err, "unsupported SASL mechanism")
}

func TestConsumerDeadLettersNullDocuments(t *testing.T) {
	ctx := context.Background()
	dlq := &fakeWriter{}
	idx := newIndexer(t)

	c, reader := newTestConsumer(t, idx, []string{
		`{"operation": "index", "data": [null]}`,
		`{"operation": "update", "data": [{"id": "a", "embedding": [1, 1]}, null]}`,
		`{"operation": "index", "data": [{"id": "a", "embedding": [1, 1]}]}`,
	}, dlq)

	require.NotPanics(t, func() { require.NoError(t, c.Run(ctx)) })
	assert.Equal(t, []int64{0, 1, 2}, reader.committed)
	require.Len(t, dlq.written, 2)
	for _, m := range dlq.written {
		assert.Contains(t, headerCarrier(m.Headers)[HeaderDeadLetterReason], "is null")
	}

	n, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDecodeMessageRejectsNullData(t *testing.T) {
	_, err := decodeMessage([]byte(`{"operation": "index", "data": [{"id": "a"}, null]}`))
	assert.ErrorIs(t, err, ErrInvalidMessage)
	assert.ErrorContains(t, err, "data entry 1 is null")
}
