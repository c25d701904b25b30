package indexer

import (
	"context"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/vectorindexer/v1/logger"
	"github.com/Aleph-Alpha/vectorindexer/v1/observability"
	"github.com/Aleph-Alpha/vectorindexer/v1/tracer"
	"github.com/Aleph-Alpha/vectorindexer/v1/vectordb"
)

// FXModule provides the *Indexer on top of whichever backend module put a
// vectordb.Collection into the container.
//
// Usage:
//
//	app := fx.New(
//	    logger.FXModule,
//	    fx.Supply(indexerCfg, memoryCfg, codecCfg),
//	    codec.FXModule,
//	    memory.FXModule, // or qdrant.FXModule
//	    indexer.FXModule,
//	)
//
// A *tracer.Tracer and an observability.Observer are picked up when present.
var FXModule = fx.Module("indexer",
	fx.Provide(NewIndexer),
	fx.Invoke(RegisterIndexerLifecycle),
)

// Params are the dependencies of NewIndexer.
type Params struct {
	fx.In

	Config     Config
	Collection vectordb.Collection
	Logger     *logger.Logger
	Tracer     *tracer.Tracer         `optional:"true"`
	Observer   observability.Observer `optional:"true"`
}

// NewIndexer builds an Indexer from injected dependencies.
func NewIndexer(p Params) (*Indexer, error) {
	idx, err := New(p.Collection, p.Config, p.Logger)
	if err != nil {
		return nil, err
	}
	if p.Tracer != nil {
		idx.WithTracer(p.Tracer)
	}
	if p.Observer != nil {
		idx.WithObserver(p.Observer)
	}
	return idx, nil
}

// RegisterIndexerLifecycle logs the record count on start and closes the indexer,
// and with it the collection handle, on stop.
func RegisterIndexerLifecycle(lc fx.Lifecycle, idx *Indexer, log *logger.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			n, err := idx.Count(ctx)
			if err != nil {
				return err
			}
			log.Info("indexer ready", nil, map[string]interface{}{"documents": n})
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("closing indexer", nil, nil)
			return idx.Close(ctx)
		},
	})
}
