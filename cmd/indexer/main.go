// Command indexer serves a vector collection over HTTP and Kafka and manages its
// snapshots.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Aleph-Alpha/vectorindexer/internal/config"
)

var (
	cfgFile  string
	backend  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "indexer",
	Short: "Vector index adapter",
	Long: `indexer exposes index, search, update, delete, fill_embedding, filter and
clear on a vector collection stored in Qdrant or in process memory.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (defaults and environment only when empty)")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "collection backend, qdrant or memory (overrides the config file)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides the config file)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(publishCmd)
}

// loadConfig reads the config file and applies the persistent flags on top.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return cfg, err
	}
	if backend != "" {
		cfg.Backend = backend
	}
	if logLevel != "" {
		cfg.Logger.Level = logLevel
	}
	return cfg, cfg.Validate()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
