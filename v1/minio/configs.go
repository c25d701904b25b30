package minio

import "time"

const (
	unknownSize        int64 = -1
	validationTimeout        = 10 * time.Second
	defaultPartSize    uint64 = 16 << 20
	defaultRestoreBatch       = 500
)

// Config configures the snapshot store.
type Config struct {
	Connection ConnectionConfig `yaml:"connection"`

	// Prefix is prepended to every snapshot object key, e.g. "indexer/products/".
	Prefix string `yaml:"prefix" env:"INDEXER_SNAPSHOT_PREFIX"`

	// PartSize is the multipart upload part size in bytes.
	PartSize uint64 `yaml:"part_size" env:"INDEXER_SNAPSHOT_PART_SIZE"`

	// RestoreBatch is the number of documents indexed per call during a restore.
	RestoreBatch int `yaml:"restore_batch" env:"INDEXER_SNAPSHOT_RESTORE_BATCH"`
}

// ConnectionConfig contains MinIO server connection details.
type ConnectionConfig struct {
	Endpoint        string `yaml:"endpoint" env:"INDEXER_SNAPSHOT_ENDPOINT"`
	AccessKeyID     string `yaml:"access_key_id" env:"INDEXER_SNAPSHOT_ACCESS_KEY_ID"`
	SecretAccessKey string `yaml:"secret_access_key" env:"INDEXER_SNAPSHOT_SECRET_ACCESS_KEY"`
	UseSSL          bool   `yaml:"use_ssl" env:"INDEXER_SNAPSHOT_USE_SSL"`
	BucketName      string `yaml:"bucket_name" env:"INDEXER_SNAPSHOT_BUCKET"`
	Region          string `yaml:"region" env:"INDEXER_SNAPSHOT_REGION"`

	// AllowBucketCreation creates the bucket when it does not exist.
	AllowBucketCreation bool `yaml:"allow_bucket_creation" env:"INDEXER_SNAPSHOT_CREATE_BUCKET"`
}

// DefaultConfig returns a store for a local MinIO.
func DefaultConfig() Config {
	return Config{
		Connection: ConnectionConfig{
			Endpoint:            "localhost:9000",
			BucketName:          "indexer-snapshots",
			Region:              "us-east-1",
			AllowBucketCreation: true,
		},
		PartSize:     defaultPartSize,
		RestoreBatch: defaultRestoreBatch,
	}
}
