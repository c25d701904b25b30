package kafka

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/compress"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/segmentio/kafka-go/sasl/scram"
	"go.opentelemetry.io/otel/trace"

	"github.com/Aleph-Alpha/vectorindexer/v1/indexer"
	"github.com/Aleph-Alpha/vectorindexer/v1/logger"
	"github.com/Aleph-Alpha/vectorindexer/v1/observability"
	"github.com/Aleph-Alpha/vectorindexer/v1/tracer"
	"github.com/Aleph-Alpha/vectorindexer/v1/vectordb"
)

// Dead-letter headers.
const (
	HeaderDeadLetterReason = "x-dead-letter-reason"
	HeaderOriginalTopic    = "x-original-topic"
	HeaderOriginalOffset   = "x-original-offset"
)

// Service is the part of the indexer the consumer drives. *indexer.Indexer satisfies it.
type Service interface {
	Index(ctx context.Context, docs []*vectordb.Document) error
	Update(ctx context.Context, docs []*vectordb.Document) error
	Delete(ctx context.Context, ids []string) error
	Clear(ctx context.Context) error
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer applies operation messages from a topic to the indexer, one message at a
// time, and commits each message once it is applied or dead-lettered.
type Consumer struct {
	cfg      Config
	svc      Service
	log      *logger.Logger
	tracer   *tracer.Tracer
	observer observability.Observer

	reader     messageReader
	deadLetter messageWriter

	closeOnce sync.Once
}

// NewConsumer joins cfg.GroupID on cfg.Topic. Connections are opened lazily by the
// first fetch.
//
// Example:
//
//	c, err := kafka.NewConsumer(cfg, idx, log)
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//	err = c.Run(ctx)
func NewConsumer(cfg Config, svc Service, log *logger.Logger) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka: at least one broker is required")
	}
	if cfg.Topic == "" || cfg.GroupID == "" {
		return nil, fmt.Errorf("kafka: topic and group id are required")
	}
	cfg = cfg.withDefaults()

	tlsConfig, mechanism, err := security(cfg)
	if err != nil {
		return nil, err
	}

	c := &Consumer{
		cfg:    cfg,
		svc:    svc,
		log:    log,
		reader: createReader(cfg, tlsConfig, mechanism, log),
	}
	if cfg.DeadLetterTopic != "" {
		c.deadLetter = createWriter(cfg, cfg.DeadLetterTopic, tlsConfig, mechanism, log)
	}

	log.Info("kafka consumer initialized", nil, map[string]interface{}{
		"topic":             cfg.Topic,
		"group_id":          cfg.GroupID,
		"dead_letter_topic": cfg.DeadLetterTopic,
	})
	return c, nil
}

// WithTracer continues the trace carried in the message headers.
func (c *Consumer) WithTracer(t *tracer.Tracer) *Consumer {
	c.tracer = t
	return c
}

// WithObserver reports every consumed message to o.
func (c *Consumer) WithObserver(o observability.Observer) *Consumer {
	c.observer = o
	return c
}

// Run consumes until ctx is cancelled or the reader is closed, which both return nil.
//
// A message that failed because the engine is unavailable stops the loop with an
// error and stays uncommitted, so it is delivered again after a restart. Messages
// that can never succeed are dead-lettered (or skipped) and committed.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("kafka: fetching message: %w", err)
		}

		if err := c.handle(ctx, msg); err != nil {
			return err
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("kafka: committing offset %d: %w", msg.Offset, err)
		}
	}
}

// handle applies one message. A nil return means the message may be committed.
func (c *Consumer) handle(ctx context.Context, msg kafka.Message) (err error) {
	start := time.Now()
	op := "unknown"

	var span trace.Span
	if c.tracer != nil {
		ctx = c.tracer.SetCarrierOnContext(ctx, headerCarrier(msg.Headers))
		ctx, span = c.tracer.StartSpan(ctx, "kafka.consume")
	}
	defer func() {
		if span != nil {
			c.tracer.SetAttributes(span, map[string]interface{}{
				"operation": op,
				"partition": msg.Partition,
				"offset":    msg.Offset,
			})
			if err != nil {
				c.tracer.RecordErrorOnSpan(span, err)
			}
			span.End()
		}
		if c.observer != nil {
			c.observer.ObserveOperation(observability.OperationContext{
				Component:   "kafka",
				Operation:   "consume",
				Resource:    msg.Topic,
				SubResource: op,
				Duration:    time.Since(start),
				Error:       err,
				Size:        int64(len(msg.Value)),
			})
		}
	}()

	m, applyErr := decodeMessage(msg.Value)
	if applyErr == nil {
		op = m.Operation
		applyErr = c.apply(ctx, m)
	}

	switch classify(applyErr) {
	case outcomeCommit:
		return nil
	case outcomeDeadLetter:
		return c.reject(ctx, msg, applyErr)
	default:
		c.log.ErrorWithContext(ctx, "stopping consumer, message will be redelivered", applyErr, map[string]interface{}{
			"operation": op,
			"partition": msg.Partition,
			"offset":    msg.Offset,
		})
		return applyErr
	}
}

func (c *Consumer) apply(ctx context.Context, m *Message) error {
	switch m.Operation {
	case indexer.OpIndex:
		return c.svc.Index(ctx, m.Data)
	case indexer.OpUpdate:
		return c.svc.Update(ctx, m.Data)
	case indexer.OpDelete:
		ids, err := m.ids()
		if err != nil {
			return err
		}
		return c.svc.Delete(ctx, ids)
	case indexer.OpClear:
		return c.svc.Clear(ctx)
	}
	return fmt.Errorf("%w: unsupported operation %q", ErrInvalidMessage, m.Operation)
}

// reject forwards msg to the dead-letter topic, or only logs it when none is set.
func (c *Consumer) reject(ctx context.Context, msg kafka.Message, cause error) error {
	fields := map[string]interface{}{
		"partition": msg.Partition,
		"offset":    msg.Offset,
	}
	if c.deadLetter == nil {
		c.log.WarnWithContext(ctx, "skipping message that cannot be applied", cause, fields)
		return nil
	}

	headers := append([]kafka.Header{}, msg.Headers...)
	headers = append(headers,
		kafka.Header{Key: HeaderDeadLetterReason, Value: []byte(cause.Error())},
		kafka.Header{Key: HeaderOriginalTopic, Value: []byte(msg.Topic)},
		kafka.Header{Key: HeaderOriginalOffset, Value: []byte(strconv.FormatInt(msg.Offset, 10))},
	)
	if err := c.deadLetter.WriteMessages(ctx, kafka.Message{Key: msg.Key, Value: msg.Value, Headers: headers}); err != nil {
		return fmt.Errorf("kafka: writing dead letter: %w", err)
	}
	c.log.WarnWithContext(ctx, "message dead-lettered", cause, fields)
	return nil
}

// Close stops the reader and the dead-letter writer. It is safe to call more than once.
func (c *Consumer) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.reader.Close()
		if c.deadLetter != nil {
			err = errors.Join(err, c.deadLetter.Close())
		}
	})
	return err
}

type outcome int

const (
	outcomeCommit outcome = iota
	outcomeDeadLetter
	outcomeStop
)

// classify decides what happens to a message after apply returned err.
func classify(err error) outcome {
	switch {
	case err == nil:
		return outcomeCommit
	case errors.Is(err, ErrInvalidMessage),
		errors.Is(err, indexer.ErrInvalidParameter),
		errors.Is(err, vectordb.ErrFilterSyntax),
		errors.Is(err, vectordb.ErrDimensionMismatch),
		errors.Is(err, vectordb.ErrNotFound):
		return outcomeDeadLetter
	}
	return outcomeStop
}

func security(cfg Config) (*tls.Config, sasl.Mechanism, error) {
	var (
		tlsConfig *tls.Config
		mechanism sasl.Mechanism
		err       error
	)
	if cfg.TLS.Enabled {
		tlsConfig, err = createTLSConfig(cfg.TLS)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create TLS config: %w", err)
		}
	}
	if cfg.SASL.Enabled {
		mechanism, err = createSASLMechanism(cfg.SASL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create SASL mechanism: %w", err)
		}
	}
	return tlsConfig, mechanism, nil
}

// createErrorLogger routes kafka-go internal errors into the service logger.
func createErrorLogger(log *logger.Logger) kafka.LoggerFunc {
	return kafka.LoggerFunc(func(msg string, args ...interface{}) {
		log.Error("kafka internal error", nil, map[string]interface{}{
			"error": fmt.Sprintf(msg, args...),
		})
	})
}

// createWriter creates a Kafka writer for topic.
func createWriter(cfg Config, topic string, tlsConfig *tls.Config, mechanism sasl.Mechanism, log *logger.Logger) *kafka.Writer {
	writerConfig := kafka.WriterConfig{
		Brokers:      cfg.Brokers,
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		MaxAttempts:  cfg.MaxAttempts,
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: cfg.RequiredAcks,
		ErrorLogger:  createErrorLogger(log),
		Dialer: &kafka.Dialer{
			TLS:           tlsConfig,
			SASLMechanism: mechanism,
		},
	}

	switch cfg.CompressionCodec {
	case "gzip":
		writerConfig.CompressionCodec = &compress.GzipCodec
	case "snappy":
		writerConfig.CompressionCodec = &compress.SnappyCodec
	case "lz4":
		writerConfig.CompressionCodec = &compress.Lz4Codec
	case "zstd":
		writerConfig.CompressionCodec = &compress.ZstdCodec
	}

	return kafka.NewWriter(writerConfig)
}

// createReader creates a consumer group reader. Offsets are committed explicitly.
func createReader(cfg Config, tlsConfig *tls.Config, mechanism sasl.Mechanism, log *logger.Logger) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.Topic,
		GroupID:        cfg.GroupID,
		MinBytes:       cfg.MinBytes,
		MaxBytes:       cfg.MaxBytes,
		MaxWait:        cfg.MaxWait,
		StartOffset:    cfg.StartOffset,
		CommitInterval: 0,
		ErrorLogger:    createErrorLogger(log),
		Dialer: &kafka.Dialer{
			TLS:           tlsConfig,
			SASLMechanism: mechanism,
		},
	})
}

// createTLSConfig creates a TLS configuration from the provided config
func createTLSConfig(cfg TLSConfig) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	}

	if cfg.CACertPath != "" {
		caCert, err := os.ReadFile(cfg.CACertPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA cert: %w", err)
		}
		caCertPool := x509.NewCertPool()
		if !caCertPool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("failed to parse CA cert")
		}
		tlsConfig.RootCAs = caCertPool
	}

	if cfg.ClientCertPath != "" && cfg.ClientKeyPath != "" {
		cert, err := tls.LoadX509KeyPair(cfg.ClientCertPath, cfg.ClientKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load client cert: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	return tlsConfig, nil
}

// createSASLMechanism creates a SASL mechanism from the provided config
func createSASLMechanism(cfg SASLConfig) (sasl.Mechanism, error) {
	switch cfg.Mechanism {
	case "PLAIN":
		return plain.Mechanism{
			Username: cfg.Username,
			Password: cfg.Password,
		}, nil
	case "SCRAM-SHA-256":
		return scram.Mechanism(scram.SHA256, cfg.Username, cfg.Password)
	case "SCRAM-SHA-512":
		return scram.Mechanism(scram.SHA512, cfg.Username, cfg.Password)
	default:
		return nil, fmt.Errorf("unsupported SASL mechanism: %s", cfg.Mechanism)
	}
}
