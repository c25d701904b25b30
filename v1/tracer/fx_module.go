package tracer

import (
	"context"

	"go.uber.org/fx"
)

// FXModule provides a Uber FX module that configures distributed tracing for the indexer.
// This module registers the tracer client with the dependency injection system and
// sets up lifecycle management so pending spans are flushed when the application stops.
//
// The module:
// 1. Provides the tracer client through the NewClient constructor
// 2. Registers shutdown hooks to cleanly close tracer resources on application termination
//
// Dependencies required by this module:
//   - a tracer.Config
//   - a tracer.Logger (the indexer *logger.Logger is annotated as one in cmd/indexer)
//
// Usage:
//
//	app := fx.New(
//	    logger.FXModule,
//	    tracer.FXModule,
//	    fx.Supply(cfg.Tracer),
//	    // other modules...
//	)
//	app.Run()
var FXModule = fx.Module("tracer",
	fx.Provide(
		NewClient,
	),
	fx.Invoke(RegisterTracerLifecycle),
)

// RegisterTracerLifecycle registers shutdown hooks for the tracer with the FX lifecycle.
// This function ensures that tracer resources are released when the application
// terminates and that buffered spans reach the exporter.
//
// Parameters:
//   - lc: The FX lifecycle to register hooks with
//   - tracer: The tracer instance to manage lifecycle for
//
// The function registers an OnStop hook that:
// 1. Skips shutdown when no provider was configured
// 2. Logs that the tracer is shutting down
// 3. Gracefully shuts down the tracer provider within the stop context
//
// This function is automatically invoked by the FXModule and normally doesn't need
// to be called directly.
//
// Example of how this works in the FX application lifecycle:
//
//	app := fx.New(
//	    tracer.FXModule,
//	    // When app.Stop() is called or the process receives SIGTERM:
//	    // 1. The OnStop hook registered by RegisterTracerLifecycle is called
//	    // 2. The tracer is shut down, flushing any pending spans
//	)
func RegisterTracerLifecycle(lc fx.Lifecycle, tracer *Tracer) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if tracer.tracer == nil {
				return nil
			}
			tracer.logger.Info("shutting down tracer", nil, nil)
			return tracer.tracer.Shutdown(ctx)
		},
	})
}
