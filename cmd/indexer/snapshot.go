package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aleph-Alpha/vectorindexer/internal/config"
	"github.com/Aleph-Alpha/vectorindexer/v1/codec"
	"github.com/Aleph-Alpha/vectorindexer/v1/indexer"
	"github.com/Aleph-Alpha/vectorindexer/v1/logger"
	"github.com/Aleph-Alpha/vectorindexer/v1/memory"
	"github.com/Aleph-Alpha/vectorindexer/v1/minio"
	"github.com/Aleph-Alpha/vectorindexer/v1/qdrant"
	"github.com/Aleph-Alpha/vectorindexer/v1/vectordb"
)

var (
	restoreClear bool
	jsonOutput   bool
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Dump, restore and inspect collection snapshots in object storage",
}

var snapshotDumpCmd = &cobra.Command{
	Use:   "dump <name>",
	Short: "Write every document of the collection into a snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSnapshotEnv(cmd.Context(), func(ctx context.Context, env *snapshotEnv) error {
			info, err := env.store.Dump(ctx, env.idx, args[0])
			if err != nil {
				return fmt.Errorf("dump failed: %w", err)
			}
			if jsonOutput {
				return json.NewEncoder(os.Stdout).Encode(info)
			}
			fmt.Printf("Snapshot written: %s\n", info.Key)
			fmt.Printf("Documents: %d\n", info.Documents)
			fmt.Printf("Bytes: %d\n", info.Bytes)
			return nil
		})
	},
}

var snapshotRestoreCmd = &cobra.Command{
	Use:   "restore <name>",
	Short: "Index every document of a snapshot into the collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSnapshotEnv(cmd.Context(), func(ctx context.Context, env *snapshotEnv) error {
			if restoreClear {
				if err := env.idx.Clear(ctx); err != nil {
					return fmt.Errorf("clearing collection: %w", err)
				}
			}
			n, err := env.store.Restore(ctx, env.idx, args[0])
			if err != nil {
				return fmt.Errorf("restore failed after %d documents: %w", n, err)
			}
			fmt.Printf("Documents restored: %d\n", n)
			return nil
		})
	},
}

var snapshotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the stored snapshots",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSnapshotEnv(cmd.Context(), func(ctx context.Context, env *snapshotEnv) error {
			names, err := env.store.List(ctx)
			if err != nil {
				return err
			}
			if jsonOutput {
				return json.NewEncoder(os.Stdout).Encode(names)
			}
			for _, n := range names {
				fmt.Println(n)
			}
			return nil
		})
	},
}

var snapshotDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Remove a snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSnapshotEnv(cmd.Context(), func(ctx context.Context, env *snapshotEnv) error {
			return env.store.Delete(ctx, args[0])
		})
	},
}

func init() {
	snapshotCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")
	snapshotRestoreCmd.Flags().BoolVar(&restoreClear, "clear", false, "clear the collection before restoring")

	snapshotCmd.AddCommand(snapshotDumpCmd, snapshotRestoreCmd, snapshotListCmd, snapshotDeleteCmd)
}

// snapshotEnv holds what a snapshot command works on.
type snapshotEnv struct {
	log   *logger.Logger
	idx   *indexer.Indexer
	store *minio.Store
}

// withSnapshotEnv opens the collection and the snapshot store, runs fn and
// releases everything again. SIGINT and SIGTERM cancel fn's context.
func withSnapshotEnv(parent context.Context, fn func(ctx context.Context, env *snapshotEnv) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.NewLoggerClient(cfg.Logger)
	defer func() { _ = log.Zap.Sync() }()

	c, err := codec.New(cfg.Codec)
	if err != nil {
		return err
	}
	defer c.Close()

	col, err := openCollection(ctx, cfg, c, log)
	if err != nil {
		return err
	}
	idx, err := indexer.New(col, cfg.Indexer, log)
	if err != nil {
		_ = col.Close(ctx)
		return err
	}
	defer func() {
		if err := idx.Close(context.Background()); err != nil {
			log.Error("failed to close collection", err, nil)
		}
	}()

	store, err := minio.NewStore(ctx, cfg.Snapshot, c, log)
	if err != nil {
		return err
	}
	return fn(ctx, &snapshotEnv{log: log, idx: idx, store: store})
}

func openCollection(ctx context.Context, cfg config.Config, c *codec.Codec, log *logger.Logger) (vectordb.Collection, error) {
	if cfg.Backend == config.BackendMemory {
		col, err := memory.NewCollection(cfg.Memory, c)
		if err != nil {
			return nil, err
		}
		return col, nil
	}
	col, err := qdrant.NewCollection(ctx, qdrant.CollectionParams{
		Config: cfg.Qdrant,
		Codec:  c,
		Logger: log,
	})
	if err != nil {
		return nil, err
	}
	return col, nil
}
