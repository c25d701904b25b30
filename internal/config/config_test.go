package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aleph-Alpha/vectorindexer/v1/codec"
	"github.com/Aleph-Alpha/vectorindexer/v1/indexer"
	"github.com/Aleph-Alpha/vectorindexer/v1/qdrant"
	"github.com/Aleph-Alpha/vectorindexer/v1/vectordb"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "indexer.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, BackendQdrant, cfg.Backend)
	assert.Equal(t, DefaultCollection, cfg.Qdrant.CollectionName)
	assert.Equal(t, 128, cfg.Qdrant.Dimension)
	assert.Equal(t, vectordb.MetricIP, cfg.Qdrant.Distance)
	assert.Equal(t, qdrant.IndexHNSW, cfg.Qdrant.IndexType)
	assert.Equal(t, qdrant.ConsistencySession, cfg.Qdrant.ConsistencyLevel)
	assert.Equal(t, codec.ProtocolJSON, cfg.Codec.Protocol)
	assert.False(t, cfg.Kafka.Enabled)
}

func TestLoadFileOverDefaults(t *testing.T) {
	t.Setenv("TEST_QDRANT_KEY", "s3cret")

	path := writeFile(t, `
backend: qdrant
columns:
  - price: double
  - brand: string
indexer:
  default_parameters:
    limit: 5
    ef: 64
qdrant:
  host: qdrant.internal
  api_key: ${TEST_QDRANT_KEY}
  collection_name: products
  dimension: 2
  distance: L2
  connect_timeout: 2s
codec:
  compress: lz4
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "qdrant.internal", cfg.Qdrant.Host)
	assert.Equal(t, 6334, cfg.Qdrant.Port, "unset keys keep their default")
	assert.Equal(t, "s3cret", cfg.Qdrant.APIKey)
	assert.Equal(t, 2*time.Second, cfg.Qdrant.ConnectTimeout)
	assert.Equal(t, vectordb.MetricL2, cfg.Qdrant.Distance)
	assert.Equal(t, codec.CompressLZ4, cfg.Codec.Compress)
	assert.Equal(t, codec.ProtocolJSON, cfg.Codec.Protocol)

	want := vectordb.Columns{"price": vectordb.ColumnFloat, "brand": vectordb.ColumnString}
	assert.Equal(t, want, cfg.Indexer.Columns)
	assert.Equal(t, want, cfg.Qdrant.Columns)
	assert.Equal(t, "brand:str,price:float", cfg.Columns.String())

	assert.Equal(t, indexer.Parameters{"limit": 5, "ef": 64}, cfg.Indexer.DefaultParameters)
}

func TestColumnsAsMapping(t *testing.T) {
	cfg, err := Load(writeFile(t, "columns: {year: int, published: bool}\n"))
	require.NoError(t, err)
	assert.Equal(t, vectordb.Columns{"year": vectordb.ColumnInt, "published": vectordb.ColumnBool}, cfg.Indexer.Columns)
}

func TestColumnsErrors(t *testing.T) {
	_, err := Load(writeFile(t, "columns: {year: decimal}\n"))
	assert.ErrorContains(t, err, "unknown column type")

	_, err = Load(writeFile(t, "columns:\n  - year: int\n  - year: float\n"))
	assert.ErrorContains(t, err, "declared twice")

	_, err = Load(writeFile(t, "columns: year\n"))
	assert.Error(t, err)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("INDEXER_BACKEND", "memory")
	t.Setenv("INDEXER_LOG_LEVEL", "debug")
	t.Setenv("INDEXER_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("INDEXER_HTTP_READ_TIMEOUT", "3s")
	t.Setenv("QDRANT_PORT", "7000")

	cfg, err := Load(writeFile(t, "logger:\n  level: error\n"))
	require.NoError(t, err)

	assert.Equal(t, BackendMemory, cfg.Backend)
	assert.Equal(t, "debug", cfg.Logger.Level, "environment wins over the file")
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 3*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 7000, cfg.Qdrant.Port)
}

func TestEnvironmentOverrideInvalid(t *testing.T) {
	t.Setenv("QDRANT_PORT", "not-a-port")
	_, err := Load("")
	assert.ErrorContains(t, err, "environment overrides")
	assert.ErrorContains(t, err, "Port")
}

func TestApplyEnvFromMap(t *testing.T) {
	cfg := Default()
	err := applyEnv(&cfg, map[string]string{
		"QDRANT_DISTANCE":               "COSINE",
		"QDRANT_INDEX_M":                "16",
		"QDRANT_CONNECT_TIMEOUT":        "750ms",
		"INDEXER_KAFKA_ENABLED":         "true",
		"INDEXER_TRACER_SAMPLE_RATIO":   "0.25",
		"INDEXER_SNAPSHOT_PART_SIZE":    "1048576",
		"INDEXER_SERIALIZE_COMPRESS":    "zstd",
		"UNRELATED_VARIABLE_IS_IGNORED": "x",
	})
	require.NoError(t, err)

	assert.Equal(t, vectordb.MetricCosine, cfg.Qdrant.Distance)
	assert.Equal(t, uint64(16), cfg.Qdrant.IndexParams.M)
	assert.Equal(t, 750*time.Millisecond, cfg.Qdrant.ConnectTimeout)
	assert.True(t, cfg.Kafka.Enabled)
	assert.Equal(t, 0.25, cfg.Tracer.SampleRatio)
	assert.Equal(t, uint64(1<<20), cfg.Snapshot.PartSize)
	assert.Equal(t, codec.CompressZSTD, cfg.Codec.Compress)

	assert.Equal(t, "localhost", cfg.Qdrant.Host, "unset variables keep the loaded value")
	assert.Equal(t, []string{"stderr"}, cfg.Logger.OutputPaths)

	err = applyEnv(&cfg, map[string]string{"INDEXER_METRICS_ENABLED": "maybe"})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Backend = "milvus"
	cfg.Codec.Compress = "brotli"
	cfg.Kafka.Enabled = true
	cfg.Kafka.Brokers = nil

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, "backend")
	assert.ErrorContains(t, err, "codec.compress")
	assert.ErrorContains(t, err, "kafka.brokers")

	cfg = Default()
	cfg.Qdrant.Dimension = 0
	assert.ErrorContains(t, cfg.Validate(), "qdrant.dimension")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
