package qdrant

import (
	"context"
	"fmt"
	"sync/atomic"

	qdrant "github.com/qdrant/go-client/qdrant"
	"go.uber.org/fx"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Aleph-Alpha/vectorindexer/v1/codec"
	"github.com/Aleph-Alpha/vectorindexer/v1/logger"
	"github.com/Aleph-Alpha/vectorindexer/v1/observability"
	"github.com/Aleph-Alpha/vectorindexer/v1/vectordb"
)

//
// ──────────────────────────────────────────────────────────────
//   QDRANT COLLECTION HANDLE
// ──────────────────────────────────────────────────────────────
//
// Collection binds one Qdrant collection to the vectordb.Collection
// contract. Construction attaches to the named collection, creating it
// on first use, so any number of indexer replicas can share it.
//

// CollectionParams groups the dependencies of NewCollection.
type CollectionParams struct {
	fx.In

	Config   Config
	Codec    *codec.Codec
	Logger   *logger.Logger
	Observer observability.Observer `optional:"true"`
}

// Collection is a vectordb.Collection stored in Qdrant.
type Collection struct {
	api      *qdrant.Client
	cfg      Config
	codec    *codec.Codec
	log      *logger.Logger
	observer observability.Observer

	read   *qdrant.ReadConsistency
	order  *qdrant.WriteOrdering
	closed atomic.Bool
}

var _ vectordb.Collection = (*Collection)(nil)

// NewCollection ──────────────────────────────────────────────────────────────
// NewCollection
// ──────────────────────────────────────────────────────────────
//
// NewCollection connects to Qdrant, fails fast with vectordb.ErrConnection when
// the health check does not pass, and attaches to the configured collection.
//
// Example:
//
//	col, err := qdrant.NewCollection(ctx, qdrant.CollectionParams{Config: cfg, Codec: c, Logger: log})
func NewCollection(ctx context.Context, p CollectionParams) (*Collection, error) {
	cfg := p.Config
	if err := validate(&cfg); err != nil {
		return nil, err
	}

	p.Logger.Info("connecting to qdrant", nil, map[string]interface{}{
		"host":       cfg.Host,
		"port":       cfg.Port,
		"collection": cfg.CollectionName,
	})

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:                   cfg.Host,
		Port:                   cfg.Port,
		APIKey:                 cfg.APIKey,
		UseTLS:                 cfg.UseTLS,
		SkipCompatibilityCheck: !cfg.CheckCompatibility,
	})
	if err != nil {
		return nil, vectordb.ConnectionError("[Qdrant] initialize client", err)
	}

	c := &Collection{
		api:      client,
		cfg:      cfg,
		codec:    p.Codec,
		log:      p.Logger,
		observer: p.Observer,
		read:     readConsistency(cfg.ConsistencyLevel),
		order:    writeOrdering(cfg.ConsistencyLevel),
	}

	if err := c.healthCheck(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	if err := c.ensureCollection(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}

	p.Logger.Info("qdrant collection attached", nil, map[string]interface{}{
		"collection":  cfg.CollectionName,
		"dimension":   cfg.Dimension,
		"distance":    string(cfg.Distance),
		"consistency": cfg.ConsistencyLevel,
	})
	return c, nil
}

func validate(cfg *Config) error {
	if cfg.CollectionName == "" {
		return fmt.Errorf("[Qdrant] collection name is required")
	}
	if cfg.Dimension <= 0 {
		return fmt.Errorf("[Qdrant] dimension must be positive, got %d", cfg.Dimension)
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}
	if cfg.Distance == "" {
		cfg.Distance = vectordb.MetricIP
	}
	if _, err := distanceFor(cfg.Distance); err != nil {
		return err
	}
	if cfg.IndexType == "" {
		cfg.IndexType = IndexHNSW
	}
	if cfg.IndexType != IndexHNSW && cfg.IndexType != IndexFLAT {
		return fmt.Errorf("[Qdrant] unsupported index type %q", cfg.IndexType)
	}
	if cfg.ConsistencyLevel == "" {
		cfg.ConsistencyLevel = ConsistencySession
	}
	if !validConsistency(cfg.ConsistencyLevel) {
		return fmt.Errorf("[Qdrant] unsupported consistency level %q", cfg.ConsistencyLevel)
	}
	return nil
}

// healthCheck verifies the availability of the Qdrant service within
// ConnectTimeout.
func (c *Collection) healthCheck(ctx context.Context) error {
	if c.cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.ConnectTimeout)
		defer cancel()
	}

	resp, err := c.api.HealthCheck(ctx)
	if err != nil {
		return vectordb.ConnectionError("[Qdrant] health check", err)
	}

	c.log.Debug("qdrant health check passed", nil, map[string]interface{}{
		"title":   resp.GetTitle(),
		"version": resp.GetVersion(),
	})
	return nil
}

// ensureCollection creates the collection when missing and checks the vector
// size of an existing one. Payload indexes are (re)declared for every column;
// Qdrant treats repeated declarations as no-ops.
func (c *Collection) ensureCollection(ctx context.Context) error {
	name := c.cfg.CollectionName

	exists, err := c.api.CollectionExists(ctx, name)
	if err != nil {
		return wrapErr("collection exists", err)
	}

	if !exists {
		if err := c.createCollection(ctx); err != nil {
			return err
		}
	} else {
		info, err := c.api.GetCollectionInfo(ctx, name)
		if err != nil {
			return wrapErr("get collection info", err)
		}
		size, distance := extractVectorDetails(info)
		if size != 0 && size != c.cfg.Dimension {
			return fmt.Errorf("[Qdrant] collection %s: %w: stored vectors have dimension %d, configured %d",
				name, vectordb.ErrDimensionMismatch, size, c.cfg.Dimension)
		}
		if want, _ := distanceFor(c.cfg.Distance); size != 0 && distance != want {
			c.log.Warn("existing collection uses a different distance", nil, map[string]interface{}{
				"collection": name,
				"stored":     distance.String(),
				"configured": want.String(),
			})
		}
	}

	for _, column := range c.cfg.Columns.Names() {
		fieldType := fieldTypeFor(c.cfg.Columns[column])
		_, err := c.api.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: name,
			Wait:           qdrant.PtrOf(true),
			FieldName:      column,
			FieldType:      &fieldType,
			Ordering:       c.order,
		})
		if err != nil {
			return wrapErr("create field index "+column, err)
		}
	}
	return nil
}

func (c *Collection) createCollection(ctx context.Context) error {
	distance, _ := distanceFor(c.cfg.Distance)
	cc := c.cfg.CollectionConfig

	req := &qdrant.CreateCollection{
		CollectionName: c.cfg.CollectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(c.cfg.Dimension),
			Distance: distance,
		}),
		HnswConfig: &qdrant.HnswConfigDiff{
			M:                 optionalUint64(c.cfg.IndexParams.M),
			EfConstruct:       optionalUint64(c.cfg.IndexParams.EfConstruction),
			FullScanThreshold: optionalUint64(c.cfg.IndexParams.FullScanThreshold),
		},
		ShardNumber:            optionalUint32(cc.ShardNumber),
		ReplicationFactor:      optionalUint32(cc.ReplicationFactor),
		WriteConsistencyFactor: optionalUint32(cc.WriteConsistencyFactor),
	}
	if cc.OnDiskPayload {
		req.OnDiskPayload = qdrant.PtrOf(true)
	}

	err := c.api.CreateCollection(ctx, req)
	if status.Code(err) == codes.AlreadyExists {
		// Another replica won the race.
		return nil
	}
	if err != nil {
		return wrapErr("create collection", err)
	}

	c.log.Info("qdrant collection created", nil, map[string]interface{}{
		"collection": c.cfg.CollectionName,
		"index_type": c.cfg.IndexType,
	})
	return nil
}

// Client returns the underlying Qdrant SDK client.
func (c *Collection) Client() *qdrant.Client {
	return c.api
}

// Close ──────────────────────────────────────────────────────────────
// Close
// ──────────────────────────────────────────────────────────────
//
// Close releases the gRPC connections. The collection and its records stay in
// Qdrant; every later call on this handle returns vectordb.ErrClosed.
func (c *Collection) Close(ctx context.Context) error {
	if c.closed.Swap(true) {
		return nil
	}
	c.log.Info("closing qdrant client", nil, map[string]interface{}{"collection": c.cfg.CollectionName})
	return c.api.Close()
}

func (c *Collection) check() error {
	if c.closed.Load() {
		return vectordb.ErrClosed
	}
	return nil
}
