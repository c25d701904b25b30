package minio

import (
	"context"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/vectorindexer/v1/codec"
	"github.com/Aleph-Alpha/vectorindexer/v1/logger"
	"github.com/Aleph-Alpha/vectorindexer/v1/observability"
)

// FXModule provides the snapshot *Store.
//
// Usage:
//
//	app := fx.New(
//	    fx.Supply(snapshotCfg, codecCfg),
//	    logger.FXModule,
//	    codec.FXModule,
//	    minio.FXModule,
//	)
var FXModule = fx.Module("minio",
	fx.Provide(NewStoreWithDI),
)

// StoreParams are the dependencies of NewStoreWithDI.
type StoreParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    Config
	Codec     *codec.Codec
	Logger    *logger.Logger
	Observer  observability.Observer `optional:"true"`
}

// NewStoreWithDI connects when the application starts, so an unreachable MinIO
// fails the start instead of the graph construction.
func NewStoreWithDI(p StoreParams) *Store {
	s := newStore(p.Config, nil, p.Codec, p.Logger)
	if p.Observer != nil {
		s.WithObserver(p.Observer)
	}
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			client, err := connectToMinio(p.Config)
			if err != nil {
				return err
			}
			if err := ensureBucketExists(ctx, client, p.Config, p.Logger); err != nil {
				return err
			}
			s.objects = &bucket{client: client, cfg: p.Config}
			return nil
		},
	})
	return s
}
