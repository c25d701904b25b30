package qdrant

import (
	"time"

	"github.com/Aleph-Alpha/vectorindexer/v1/vectordb"
)

// Index algorithms understood by the backend. Qdrant always maintains an HNSW
// graph; FLAT makes every search exact instead.
const (
	IndexHNSW = "HNSW"
	IndexFLAT = "FLAT"
)

// Consistency levels. They map onto Qdrant read consistency and write ordering.
const (
	ConsistencyStrong     = "Strong"
	ConsistencySession    = "Session"
	ConsistencyBounded    = "Bounded"
	ConsistencyEventually = "Eventually"
)

// defaultBatchSize is the upsert chunk size used when BatchSize is -1 or 0.
const defaultBatchSize = 200

// IndexParams tune the HNSW graph built by the engine.
type IndexParams struct {
	M                 uint64 `yaml:"M" env:"QDRANT_INDEX_M"`
	EfConstruction    uint64 `yaml:"efConstruction" env:"QDRANT_INDEX_EF_CONSTRUCTION"`
	FullScanThreshold uint64 `yaml:"full_scan_threshold" env:"QDRANT_INDEX_FULL_SCAN_THRESHOLD"`
}

// CollectionConfig is passed through to CreateCollection. Zero values keep the
// engine defaults.
type CollectionConfig struct {
	OnDiskPayload          bool   `yaml:"on_disk_payload"`
	ShardNumber            uint32 `yaml:"shard_number"`
	ReplicationFactor      uint32 `yaml:"replication_factor"`
	WriteConsistencyFactor uint32 `yaml:"write_consistency_factor"`
}

// Config holds connection and collection settings for the Qdrant backend.
//
// Example:
//
//	cfg := qdrant.DefaultConfig()
//	cfg.Host = "qdrant.internal"
//	cfg.CollectionName = "products"
//	cfg.Columns = vectordb.Columns{"price": vectordb.ColumnFloat}
type Config struct {
	// Hostname of the Qdrant server, e.g. "localhost".
	Host string `yaml:"host" env:"QDRANT_HOST"`

	// gRPC port of the Qdrant server. Defaults to 6334.
	Port int `yaml:"port" env:"QDRANT_PORT"`

	// Optional authentication token for secured deployments.
	APIKey string `yaml:"api_key" env:"QDRANT_API_KEY"`

	UseTLS bool `yaml:"use_tls" env:"QDRANT_USE_TLS"`

	// Whether to perform version compatibility checks between client and server.
	CheckCompatibility bool `yaml:"check_compatibility" env:"QDRANT_CHECK_COMPATIBILITY"`

	// Upper bound for the startup health check.
	ConnectTimeout time.Duration `yaml:"connect_timeout" env:"QDRANT_CONNECT_TIMEOUT"`

	CollectionName string `yaml:"collection_name" env:"QDRANT_COLLECTION_NAME"`

	Dimension int `yaml:"dimension" env:"QDRANT_DIMENSION"`

	Distance vectordb.Metric `yaml:"distance" env:"QDRANT_DISTANCE"`

	IndexType string `yaml:"index_type" env:"QDRANT_INDEX_TYPE"`

	IndexParams IndexParams `yaml:"index_params"`

	CollectionConfig CollectionConfig `yaml:"collection_config"`

	ConsistencyLevel string `yaml:"consistency_level" env:"QDRANT_CONSISTENCY_LEVEL"`

	// Upsert chunk size; -1 selects the default.
	BatchSize int `yaml:"batch_size" env:"QDRANT_BATCH_SIZE"`

	// Number of chunks uploaded concurrently.
	UploadParallelism int `yaml:"upload_parallelism" env:"QDRANT_UPLOAD_PARALLELISM"`

	// Typed payload fields that receive a payload index.
	Columns vectordb.Columns `yaml:"columns"`
}

// DefaultConfig provides sensible defaults for most use cases.
func DefaultConfig() Config {
	return Config{
		Host:             "localhost",
		Port:             6334,
		ConnectTimeout:   5 * time.Second,
		Dimension:        128,
		Distance:         vectordb.MetricIP,
		IndexType:        IndexHNSW,
		IndexParams:      IndexParams{M: 4, EfConstruction: 200},
		ConsistencyLevel: ConsistencySession,
		BatchSize:        -1,
	}
}

func (c Config) batchSize() int {
	if c.BatchSize <= 0 {
		return defaultBatchSize
	}
	return c.BatchSize
}

func (c Config) parallelism() int {
	if c.UploadParallelism <= 0 {
		return 1
	}
	return c.UploadParallelism
}
