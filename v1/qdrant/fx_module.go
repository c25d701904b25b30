package qdrant

import (
	"context"
	"sync"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/vectorindexer/v1/logger"
	"github.com/Aleph-Alpha/vectorindexer/v1/vectordb"
)

// FXModule defines the Fx module for the Qdrant backend.
//
// The module:
//  1. Provides the Collection, attached during construction, both as
//     *qdrant.Collection and as vectordb.Collection.
//  2. Invokes RegisterQdrantLifecycle so the gRPC connections are released on stop.
//
// Usage:
//
//	app := fx.New(
//	    logger.FXModule,
//	    fx.Supply(qdrantCfg, codecCfg),
//	    codec.FXModule,
//	    qdrant.FXModule,
//	    indexer.FXModule,
//	)
//
// Dependencies required by this module:
// - a qdrant.Config, a *codec.Codec and a *logger.Logger.
var FXModule = fx.Module("qdrant",
	fx.Provide(
		fx.Annotate(
			newFXCollection,
			fx.As(fx.Self()),
			fx.As(new(vectordb.Collection)),
		),
	),
	fx.Invoke(RegisterQdrantLifecycle),
)

func newFXCollection(p CollectionParams) (*Collection, error) {
	return NewCollection(context.Background(), p)
}

// RegisterQdrantLifecycle closes the collection handle when the application stops.
// Closing is idempotent, so an indexer that closes the handle first is fine.
func RegisterQdrantLifecycle(lc fx.Lifecycle, col *Collection, log *logger.Logger) {
	var once sync.Once

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			var err error
			once.Do(func() {
				err = col.Close(ctx)
				if err != nil {
					log.Error("failed to close qdrant client", err, nil)
				}
			})
			return err
		},
	})
}
