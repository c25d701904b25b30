package kafka

import (
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	DefaultMinBytes     = 1
	DefaultMaxBytes     = 10 << 20
	DefaultMaxWait      = 500 * time.Millisecond
	DefaultStartOffset  = kafka.FirstOffset
	DefaultRequiredAcks = kafka.RequireAll
	DefaultMaxAttempts  = 3
	DefaultWriteTimeout = 10 * time.Second
)

// Config configures the ingestion consumer.
type Config struct {
	// Enabled turns the consumer on. The HTTP transport works without it.
	Enabled bool `yaml:"enabled" env:"INDEXER_KAFKA_ENABLED"`

	Brokers []string `yaml:"brokers" env:"INDEXER_KAFKA_BROKERS"`

	// Topic carries the operation messages.
	Topic string `yaml:"topic" env:"INDEXER_KAFKA_TOPIC"`

	// GroupID is the consumer group. Replicas of the indexer share one group.
	GroupID string `yaml:"group_id" env:"INDEXER_KAFKA_GROUP_ID"`

	// DeadLetterTopic receives messages that can never be applied. When empty such
	// messages are logged and skipped.
	DeadLetterTopic string `yaml:"dead_letter_topic" env:"INDEXER_KAFKA_DEAD_LETTER_TOPIC"`

	MinBytes    int           `yaml:"min_bytes" env:"INDEXER_KAFKA_MIN_BYTES"`
	MaxBytes    int           `yaml:"max_bytes" env:"INDEXER_KAFKA_MAX_BYTES"`
	MaxWait     time.Duration `yaml:"max_wait" env:"INDEXER_KAFKA_MAX_WAIT"`
	StartOffset int64         `yaml:"start_offset" env:"INDEXER_KAFKA_START_OFFSET"`

	// CompressionCodec applies to dead-letter and published messages: gzip,
	// snappy, lz4, zstd or empty for none.
	CompressionCodec string        `yaml:"compression_codec" env:"INDEXER_KAFKA_COMPRESSION_CODEC"`
	RequiredAcks     int           `yaml:"required_acks" env:"INDEXER_KAFKA_REQUIRED_ACKS"`
	MaxAttempts      int           `yaml:"max_attempts" env:"INDEXER_KAFKA_MAX_ATTEMPTS"`
	WriteTimeout     time.Duration `yaml:"write_timeout" env:"INDEXER_KAFKA_WRITE_TIMEOUT"`

	TLS  TLSConfig  `yaml:"tls"`
	SASL SASLConfig `yaml:"sasl"`
}

// TLSConfig enables TLS towards the brokers.
type TLSConfig struct {
	Enabled            bool   `yaml:"enabled" env:"INDEXER_KAFKA_TLS_ENABLED"`
	CACertPath         string `yaml:"ca_cert_path" env:"INDEXER_KAFKA_TLS_CA_CERT"`
	ClientCertPath     string `yaml:"client_cert_path" env:"INDEXER_KAFKA_TLS_CLIENT_CERT"`
	ClientKeyPath      string `yaml:"client_key_path" env:"INDEXER_KAFKA_TLS_CLIENT_KEY"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify" env:"INDEXER_KAFKA_TLS_INSECURE"`
}

// SASLConfig enables SASL authentication. Mechanism is PLAIN, SCRAM-SHA-256 or
// SCRAM-SHA-512.
type SASLConfig struct {
	Enabled   bool   `yaml:"enabled" env:"INDEXER_KAFKA_SASL_ENABLED"`
	Mechanism string `yaml:"mechanism" env:"INDEXER_KAFKA_SASL_MECHANISM"`
	Username  string `yaml:"username" env:"INDEXER_KAFKA_SASL_USERNAME"`
	Password  string `yaml:"password" env:"INDEXER_KAFKA_SASL_PASSWORD"`
}

// DefaultConfig returns a disabled consumer with broker defaults filled in.
func DefaultConfig() Config {
	return Config{
		Brokers:      []string{"localhost:9092"},
		Topic:        "indexer-operations",
		GroupID:      "vector-indexer",
		MinBytes:     DefaultMinBytes,
		MaxBytes:     DefaultMaxBytes,
		MaxWait:      DefaultMaxWait,
		StartOffset:  DefaultStartOffset,
		RequiredAcks: int(DefaultRequiredAcks),
		MaxAttempts:  DefaultMaxAttempts,
		WriteTimeout: DefaultWriteTimeout,
	}
}

// withDefaults fills zero values.
func (c Config) withDefaults() Config {
	if c.MinBytes == 0 {
		c.MinBytes = DefaultMinBytes
	}
	if c.MaxBytes == 0 {
		c.MaxBytes = DefaultMaxBytes
	}
	if c.MaxWait == 0 {
		c.MaxWait = DefaultMaxWait
	}
	if c.StartOffset == 0 {
		c.StartOffset = DefaultStartOffset
	}
	if c.RequiredAcks == 0 {
		c.RequiredAcks = int(DefaultRequiredAcks)
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
	return c
}
