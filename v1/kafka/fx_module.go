package kafka

import (
	"context"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/vectorindexer/v1/indexer"
	"github.com/Aleph-Alpha/vectorindexer/v1/logger"
	"github.com/Aleph-Alpha/vectorindexer/v1/observability"
	"github.com/Aleph-Alpha/vectorindexer/v1/tracer"
)

// FXModule provides the ingestion consumer and runs it for the lifetime of the
// application. With Config.Enabled false the module provides a nil *Consumer and
// registers no hooks.
//
// Usage:
//
//	app := fx.New(
//	    fx.Supply(kafkaCfg),
//	    logger.FXModule,
//	    indexer.FXModule,
//	    kafka.FXModule,
//	)
var FXModule = fx.Module("kafka",
	fx.Provide(NewConsumerWithDI),
	fx.Invoke(RegisterConsumerLifecycle),
)

// ConsumerParams are the dependencies of NewConsumerWithDI.
type ConsumerParams struct {
	fx.In

	Config   Config
	Indexer  *indexer.Indexer
	Logger   *logger.Logger
	Tracer   *tracer.Tracer         `optional:"true"`
	Observer observability.Observer `optional:"true"`
}

// NewConsumerWithDI builds the consumer from injected dependencies.
func NewConsumerWithDI(p ConsumerParams) (*Consumer, error) {
	if !p.Config.Enabled {
		return nil, nil
	}
	c, err := NewConsumer(p.Config, p.Indexer, p.Logger)
	if err != nil {
		return nil, err
	}
	if p.Tracer != nil {
		c.WithTracer(p.Tracer)
	}
	if p.Observer != nil {
		c.WithObserver(p.Observer)
	}
	return c, nil
}

// RegisterConsumerLifecycle runs the consume loop in the background. When the loop
// stops with an error the application is shut down with exit code 1 so the
// uncommitted message is redelivered to a fresh process.
func RegisterConsumerLifecycle(lc fx.Lifecycle, sd fx.Shutdowner, c *Consumer, log *logger.Logger) {
	if c == nil {
		return
	}

	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				defer close(done)
				log.Info("starting kafka consumer", nil, nil)
				if err := c.Run(runCtx); err != nil {
					log.Error("kafka consumer stopped", err, nil)
					_ = sd.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("stopping kafka consumer", nil, nil)
			cancel()
			select {
			case <-done:
			case <-ctx.Done():
			}
			return c.Close()
		},
	})
}
