package logger

import (
	"context"

	"go.uber.org/fx"
)

// FXModule defines the Fx module for the logger package.
//
// The module provides *Logger built from a logger.Config found in the container and
// flushes buffered entries on shutdown.
//
// Usage:
//
//	app := fx.New(
//	    fx.Supply(logger.DefaultConfig()),
//	    logger.FXModule,
//	)
var FXModule = fx.Module("logger",
	fx.Provide(
		NewLoggerClient,
	),
	fx.Invoke(RegisterLoggerLifecycle),
)

// RegisterLoggerLifecycle flushes the Zap logger when the application stops.
func RegisterLoggerLifecycle(lc fx.Lifecycle, client *Logger) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			// syncing stderr returns EINVAL on some platforms; nothing to do about it
			_ = client.Zap.Sync()
			return nil
		},
	})
}
