package minio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/Aleph-Alpha/vectorindexer/v1/codec"
	"github.com/Aleph-Alpha/vectorindexer/v1/logger"
	"github.com/Aleph-Alpha/vectorindexer/v1/observability"
)

// ErrSnapshotNotFound is returned when a named snapshot does not exist.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// objects is the slice of the object API the store needs.
type objects interface {
	put(ctx context.Context, key string, r io.Reader) (int64, error)
	get(ctx context.Context, key string) (io.ReadCloser, error)
	list(ctx context.Context, prefix string) ([]string, error)
	remove(ctx context.Context, key string) error
}

// Store keeps collection snapshots as objects in one bucket.
type Store struct {
	cfg      Config
	objects  objects
	codec    *codec.Codec
	log      *logger.Logger
	observer observability.Observer
}

// NewStore connects to MinIO and makes sure the bucket exists.
//
// Example:
//
//	store, err := minio.NewStore(ctx, cfg, c, log)
//	if err != nil {
//	    return err
//	}
//	info, err := store.Dump(ctx, idx, "products-2024-05-01")
func NewStore(ctx context.Context, cfg Config, c *codec.Codec, log *logger.Logger) (*Store, error) {
	client, err := connectToMinio(cfg)
	if err != nil {
		return nil, fmt.Errorf("minio: connecting: %w", err)
	}
	if err := ensureBucketExists(ctx, client, cfg, log); err != nil {
		return nil, err
	}
	return newStore(cfg, &bucket{client: client, cfg: cfg}, c, log), nil
}

func newStore(cfg Config, o objects, c *codec.Codec, log *logger.Logger) *Store {
	if cfg.RestoreBatch <= 0 {
		cfg.RestoreBatch = defaultRestoreBatch
	}
	return &Store{cfg: cfg, objects: o, codec: c, log: log}
}

// WithObserver reports every store operation to o.
func (s *Store) WithObserver(o observability.Observer) *Store {
	s.observer = o
	return s
}

// connectToMinio creates a new standard MinIO client.
func connectToMinio(cfg Config) (*minio.Client, error) {
	if cfg.Connection.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint cannot be empty")
	}
	return minio.New(cfg.Connection.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Connection.AccessKeyID, cfg.Connection.SecretAccessKey, ""),
		Secure: cfg.Connection.UseSSL,
		Region: cfg.Connection.Region,
	})
}

// ensureBucketExists checks the configured bucket and creates it when allowed.
func ensureBucketExists(ctx context.Context, client *minio.Client, cfg Config, log *logger.Logger) error {
	name := cfg.Connection.BucketName
	if name == "" {
		return fmt.Errorf("minio: bucket name is empty")
	}

	ctx, cancel := context.WithTimeout(ctx, validationTimeout)
	defer cancel()

	exists, err := client.BucketExists(ctx, name)
	if err != nil {
		return fmt.Errorf("minio: checking bucket %s: %w", name, err)
	}
	if exists {
		return nil
	}
	if !cfg.Connection.AllowBucketCreation {
		return fmt.Errorf("minio: bucket %s does not exist, please create it manually", name)
	}

	log.Info("bucket does not exist, creating it", nil, map[string]interface{}{
		"bucket": name,
		"region": cfg.Connection.Region,
	})
	if err := client.MakeBucket(ctx, name, minio.MakeBucketOptions{Region: cfg.Connection.Region}); err != nil {
		return fmt.Errorf("minio: creating bucket %s: %w", name, err)
	}
	return nil
}

// bucket implements objects on a MinIO bucket.
type bucket struct {
	client *minio.Client
	cfg    Config
}

func (b *bucket) put(ctx context.Context, key string, r io.Reader) (int64, error) {
	info, err := b.client.PutObject(ctx, b.cfg.Connection.BucketName, key, r, unknownSize, minio.PutObjectOptions{
		PartSize:    b.cfg.PartSize,
		ContentType: "application/x-ndjson",
	})
	if err != nil {
		return 0, err
	}
	return info.Size, nil
}

func (b *bucket) get(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := b.client.GetObject(ctx, b.cfg.Connection.BucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	// GetObject is lazy; Stat surfaces a missing key.
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, key)
		}
		return nil, err
	}
	return obj, nil
}

func (b *bucket) list(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for obj := range b.client.ListObjects(ctx, b.cfg.Connection.BucketName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		keys = append(keys, obj.Key)
	}
	sort.Strings(keys)
	return keys, nil
}

func (b *bucket) remove(ctx context.Context, key string) error {
	return b.client.RemoveObject(ctx, b.cfg.Connection.BucketName, key, minio.RemoveObjectOptions{})
}
