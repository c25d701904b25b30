package minio

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap/zaptest"

	"github.com/Aleph-Alpha/vectorindexer/v1/codec"
	"github.com/Aleph-Alpha/vectorindexer/v1/logger"
)

// startMinIO runs a MinIO container and returns its endpoint.
func startMinIO(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image: "minio/minio:RELEASE.2024-01-16T16-07-38Z",
			Cmd:   []string{"server", "/data"},
			Env: map[string]string{
				"MINIO_ACCESS_KEY": "minio_admin",
				"MINIO_SECRET_KEY": "minio_admin",
			},
			ExposedPorts: []string{"9000/tcp"},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("9000/tcp").WithStartupTimeout(30*time.Second),
				wait.ForHTTP("/minio/health/ready").WithPort("9000/tcp").WithStartupTimeout(30*time.Second),
			),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "9000/tcp")
	require.NoError(t, err)
	return fmt.Sprintf("%s:%s", host, port.Port())
}

func TestStoreAgainstMinIO(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping MinIO integration test in short mode")
	}

	endpoint := startMinIO(t)
	cfg := DefaultConfig()
	cfg.Connection.Endpoint = endpoint
	cfg.Connection.AccessKeyID = "minio_admin"
	cfg.Connection.SecretAccessKey = "minio_admin"
	cfg.Prefix = "it/"

	ctx := context.Background()
	c := newCodec(t, codec.CompressZSTD)
	log := logger.NewFromZap(zaptest.NewLogger(t), false)

	t.Run("NoBucketCreation", func(t *testing.T) {
		strict := cfg
		strict.Connection.BucketName = "does-not-exist"
		strict.Connection.AllowBucketCreation = false
		_, err := NewStore(ctx, strict, c, log)
		assert.ErrorContains(t, err, "does not exist")
	})

	store, err := NewStore(ctx, cfg, c, log)
	require.NoError(t, err)

	src := newIndexer(t, c)
	require.NoError(t, src.Index(ctx, sampleDocs(40)))

	info, err := store.Dump(ctx, src, "full")
	require.NoError(t, err)
	assert.Equal(t, "it/full.jsonl.zst", info.Key)

	names, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"full"}, names)

	dst := newIndexer(t, c)
	n, err := store.Restore(ctx, dst, "full")
	require.NoError(t, err)
	assert.Equal(t, 40, n)

	count, err := dst.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 40, count)

	_, err = store.Restore(ctx, dst, "missing")
	assert.ErrorIs(t, err, ErrSnapshotNotFound)

	require.NoError(t, store.Delete(ctx, "full"))
	names, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestStoreWithFXModule(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping MinIO integration test in short mode")
	}

	cfg := DefaultConfig()
	cfg.Connection.Endpoint = startMinIO(t)
	cfg.Connection.AccessKeyID = "minio_admin"
	cfg.Connection.SecretAccessKey = "minio_admin"

	var store *Store
	app := fxtest.New(t,
		fx.Supply(cfg, codec.DefaultConfig(), logger.NewFromZap(zaptest.NewLogger(t), false)),
		codec.FXModule,
		FXModule,
		fx.Populate(&store),
	)
	app.RequireStart()
	defer app.RequireStop()

	names, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, names)
}
