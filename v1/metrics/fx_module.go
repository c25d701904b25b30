package metrics

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/vectorindexer/v1/logger"
	"github.com/Aleph-Alpha/vectorindexer/v1/observability"
)

// FXModule provides *Metrics, exposes it as an observability.Observer and manages
// the /metrics server.
//
// Usage:
//
//	app := fx.New(
//	    fx.Supply(metrics.DefaultConfig()),
//	    logger.FXModule,
//	    metrics.FXModule,
//	)
var FXModule = fx.Module("metrics",
	fx.Provide(
		NewMetrics,
		fx.Annotate(
			func(m *Metrics) observability.Observer { return m },
			fx.As(new(observability.Observer)),
		),
	),
	fx.Invoke(RegisterMetricsLifecycle),
)

// RegisterMetricsLifecycle starts the Prometheus HTTP server in the background on
// start and shuts it down gracefully on stop. Nothing is served when cfg.Enabled is false.
func RegisterMetricsLifecycle(lc fx.Lifecycle, cfg Config, m *Metrics, log *logger.Logger) {
	if !cfg.Enabled {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("starting prometheus metrics server", nil, map[string]interface{}{
					"address": m.Server.Addr,
				})

				if err := m.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("prometheus metrics server failed", err, nil)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down prometheus metrics server", nil, nil)
			return m.Server.Shutdown(ctx)
		},
	})
}
