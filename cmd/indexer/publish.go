package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Aleph-Alpha/vectorindexer/v1/kafka"
	"github.com/Aleph-Alpha/vectorindexer/v1/logger"
)

var (
	publishKey  string
	publishFile string
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish operation messages to the ingestion topic",
	Long: `Reads a JSON array of messages, or a stream of JSON messages, from --file (or
stdin) and publishes them in order:

  [{"operation": "index", "data": [{"id": "a", "embedding": [1, 3]}]},
   {"operation": "delete", "parameters": {"ids": ["b"]}}]`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		in := io.Reader(os.Stdin)
		if publishFile != "" && publishFile != "-" {
			f, err := os.Open(publishFile)
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}
		msgs, err := readMessages(in)
		if err != nil {
			return err
		}

		log := logger.NewLoggerClient(cfg.Logger)
		defer func() { _ = log.Zap.Sync() }()

		p, err := kafka.NewProducer(cfg.Kafka, log)
		if err != nil {
			return err
		}
		defer p.Close()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		if err := p.Publish(ctx, publishKey, msgs...); err != nil {
			return fmt.Errorf("publish failed: %w", err)
		}
		fmt.Printf("Messages published: %d\n", len(msgs))
		return nil
	},
}

func init() {
	publishCmd.Flags().StringVar(&publishKey, "key", "", "partition key; messages sharing a key keep their order")
	publishCmd.Flags().StringVarP(&publishFile, "file", "f", "", "message file, stdin when empty or -")
}

// readMessages accepts a JSON array of messages or a sequence of JSON objects.
func readMessages(r io.Reader) ([]kafka.Message, error) {
	dec := json.NewDecoder(r)
	var msgs []kafka.Message
	for {
		var raw json.RawMessage
		err := dec.Decode(&raw)
		if err == io.EOF {
			return msgs, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading messages: %w", err)
		}
		if len(raw) > 0 && raw[0] == '[' {
			var batch []kafka.Message
			if err := json.Unmarshal(raw, &batch); err != nil {
				return nil, fmt.Errorf("reading messages: %w", err)
			}
			msgs = append(msgs, batch...)
			continue
		}
		var m kafka.Message
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("reading messages: %w", err)
		}
		msgs = append(msgs, m)
	}
}
