package server

import (
	"context"
	"errors"
	"net"
	"net/http"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/vectorindexer/v1/indexer"
	"github.com/Aleph-Alpha/vectorindexer/v1/logger"
	"github.com/Aleph-Alpha/vectorindexer/v1/metrics"
)

// FXModule provides the HTTP transport on top of the *indexer.Indexer and manages
// its listener.
//
// Usage:
//
//	app := fx.New(
//	    fx.Supply(serverCfg),
//	    logger.FXModule,
//	    metrics.FXModule,
//	    indexer.FXModule,
//	    server.FXModule,
//	)
var FXModule = fx.Module("server",
	fx.Provide(NewServer),
	fx.Invoke(RegisterServerLifecycle),
)

// Params are the dependencies of NewServer.
type Params struct {
	fx.In

	Config  Config
	Indexer *indexer.Indexer
	Logger  *logger.Logger
	Metrics *metrics.Metrics `optional:"true"`
}

// NewServer builds a Server from injected dependencies.
func NewServer(p Params) *Server {
	var recorder RequestRecorder
	if p.Metrics != nil {
		recorder = p.Metrics
	}
	return New(p.Config, p.Indexer, p.Logger, recorder)
}

// RegisterServerLifecycle binds the listener on start, so an address conflict fails
// the start, serves in the background and shuts down gracefully on stop.
func RegisterServerLifecycle(lc fx.Lifecycle, s *Server, log *logger.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", s.HTTP.Addr)
			if err != nil {
				return err
			}
			log.Info("starting http server", nil, map[string]interface{}{
				"address": ln.Addr().String(),
			})
			go func() {
				if err := s.HTTP.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server failed", err, nil)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down http server", nil, nil)
			return s.HTTP.Shutdown(ctx)
		},
	})
}
