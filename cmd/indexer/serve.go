package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/Aleph-Alpha/vectorindexer/internal/config"
	"github.com/Aleph-Alpha/vectorindexer/v1/codec"
	"github.com/Aleph-Alpha/vectorindexer/v1/indexer"
	"github.com/Aleph-Alpha/vectorindexer/v1/kafka"
	"github.com/Aleph-Alpha/vectorindexer/v1/logger"
	"github.com/Aleph-Alpha/vectorindexer/v1/memory"
	"github.com/Aleph-Alpha/vectorindexer/v1/metrics"
	"github.com/Aleph-Alpha/vectorindexer/v1/qdrant"
	"github.com/Aleph-Alpha/vectorindexer/v1/server"
	"github.com/Aleph-Alpha/vectorindexer/v1/tracer"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the collection over HTTP and, when enabled, consume the Kafka topic",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		fx.New(appOptions(cfg)).Run()
		return nil
	},
}

// appOptions assembles the serving graph for cfg.
func appOptions(cfg config.Config) fx.Option {
	return fx.Options(
		fx.WithLogger(func(log *logger.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Zap.Named("fx")}
		}),
		fx.Supply(
			cfg.Logger,
			cfg.Metrics,
			cfg.Tracer,
			cfg.Indexer,
			cfg.Codec,
			cfg.Server,
			cfg.Kafka,
		),
		fx.Provide(func(l *logger.Logger) tracer.Logger { return l }),
		logger.FXModule,
		metrics.FXModule,
		tracer.FXModule,
		codec.FXModule,
		backendModule(cfg),
		indexer.FXModule,
		server.FXModule,
		kafka.FXModule,
	)
}

func backendModule(cfg config.Config) fx.Option {
	if cfg.Backend == config.BackendMemory {
		return fx.Options(fx.Supply(cfg.Memory), memory.FXModule)
	}
	return fx.Options(fx.Supply(cfg.Qdrant), qdrant.FXModule)
}
