package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/Aleph-Alpha/vectorindexer/v1/logger"
	"github.com/Aleph-Alpha/vectorindexer/v1/tracer"
)

// Producer publishes operation messages to the ingestion topic.
type Producer struct {
	writer messageWriter
	tracer *tracer.Tracer
}

// NewProducer creates a producer for cfg.Topic.
func NewProducer(cfg Config, log *logger.Logger) (*Producer, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return nil, fmt.Errorf("kafka: brokers and topic are required")
	}
	cfg = cfg.withDefaults()
	tlsConfig, mechanism, err := security(cfg)
	if err != nil {
		return nil, err
	}
	return &Producer{writer: createWriter(cfg, cfg.Topic, tlsConfig, mechanism, log)}, nil
}

// WithTracer injects the active trace into the headers of every published message.
func (p *Producer) WithTracer(t *tracer.Tracer) *Producer {
	p.tracer = t
	return p
}

// Publish writes the messages in order. key selects the partition; messages sharing
// a key are applied in publishing order.
func (p *Producer) Publish(ctx context.Context, key string, msgs ...Message) error {
	var headers []kafka.Header
	if p.tracer != nil {
		headers = carrierHeaders(p.tracer.GetCarrier(ctx))
	}

	records := make([]kafka.Message, 0, len(msgs))
	for _, m := range msgs {
		if !operations[m.Operation] {
			return fmt.Errorf("%w: unsupported operation %q", ErrInvalidMessage, m.Operation)
		}
		value, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("kafka: encoding message: %w", err)
		}
		records = append(records, kafka.Message{Key: []byte(key), Value: value, Headers: headers})
	}
	if len(records) == 0 {
		return nil
	}
	return p.writer.WriteMessages(ctx, records...)
}

// Close flushes and closes the writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
