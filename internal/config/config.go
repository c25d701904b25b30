// Package config loads the indexer configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Aleph-Alpha/vectorindexer/v1/codec"
	"github.com/Aleph-Alpha/vectorindexer/v1/indexer"
	"github.com/Aleph-Alpha/vectorindexer/v1/kafka"
	"github.com/Aleph-Alpha/vectorindexer/v1/logger"
	"github.com/Aleph-Alpha/vectorindexer/v1/memory"
	"github.com/Aleph-Alpha/vectorindexer/v1/metrics"
	"github.com/Aleph-Alpha/vectorindexer/v1/minio"
	"github.com/Aleph-Alpha/vectorindexer/v1/qdrant"
	"github.com/Aleph-Alpha/vectorindexer/v1/server"
	"github.com/Aleph-Alpha/vectorindexer/v1/tracer"
	"github.com/Aleph-Alpha/vectorindexer/v1/vectordb"
)

const (
	BackendQdrant = "qdrant"
	BackendMemory = "memory"
)

// DefaultCollection names the collection when the file does not.
const DefaultCollection = "documents"

// Config is the whole configuration file. Every section defaults to the
// DefaultConfig of its package.
type Config struct {
	// Backend selects the collection implementation: qdrant or memory.
	Backend string `yaml:"backend" env:"INDEXER_BACKEND"`

	// Columns are the typed tag columns shared by the indexer and the backend.
	Columns Columns `yaml:"columns"`

	Logger   logger.Config  `yaml:"logger"`
	Metrics  metrics.Config `yaml:"metrics"`
	Tracer   tracer.Config  `yaml:"tracer"`
	Indexer  indexer.Config `yaml:"indexer"`
	Qdrant   qdrant.Config  `yaml:"qdrant"`
	Memory   memory.Config  `yaml:"memory"`
	Codec    codec.Config   `yaml:"codec"`
	Server   server.Config  `yaml:"server"`
	Kafka    kafka.Config   `yaml:"kafka"`
	Snapshot minio.Config   `yaml:"snapshot"`
}

// Default returns the configuration used without a file.
func Default() Config {
	q := qdrant.DefaultConfig()
	q.CollectionName = DefaultCollection
	return Config{
		Backend:  BackendQdrant,
		Logger:   logger.DefaultConfig(),
		Metrics:  metrics.DefaultConfig(),
		Tracer:   tracer.DefaultConfig(),
		Indexer:  indexer.DefaultConfig(),
		Qdrant:   q,
		Memory:   memory.Config{Name: q.CollectionName, Dimension: q.Dimension, Metric: q.Distance},
		Codec:    codec.DefaultConfig(),
		Server:   server.DefaultConfig(),
		Kafka:    kafka.DefaultConfig(),
		Snapshot: minio.DefaultConfig(),
	}
}

// Load reads path over the defaults, expanding ${VAR} references first, applies
// environment overrides and validates the result. An empty path loads only the
// defaults and the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(raw))), &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg, nil); err != nil {
		return cfg, err
	}

	cfg.propagate()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// propagate copies the shared columns into the sections that need them.
func (c *Config) propagate() {
	if len(c.Columns) == 0 {
		return
	}
	cols := vectordb.Columns(c.Columns)
	c.Indexer.Columns = cols
	c.Qdrant.Columns = cols
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	switch c.Backend {
	case BackendQdrant:
		if c.Qdrant.CollectionName == "" {
			errs = append(errs, errors.New("qdrant.collection_name is required"))
		}
		if c.Qdrant.Dimension <= 0 {
			errs = append(errs, fmt.Errorf("qdrant.dimension must be positive, got %d", c.Qdrant.Dimension))
		}
		if !c.Qdrant.Distance.Valid() {
			errs = append(errs, fmt.Errorf("qdrant.distance: unknown metric %q", c.Qdrant.Distance))
		}
	case BackendMemory:
		if c.Memory.Name == "" {
			errs = append(errs, errors.New("memory.name is required"))
		}
		if c.Memory.Dimension <= 0 {
			errs = append(errs, fmt.Errorf("memory.dimension must be positive, got %d", c.Memory.Dimension))
		}
		if c.Memory.Metric != "" && !c.Memory.Metric.Valid() {
			errs = append(errs, fmt.Errorf("memory.metric: unknown metric %q", c.Memory.Metric))
		}
	default:
		errs = append(errs, fmt.Errorf("backend must be %q or %q, got %q", BackendQdrant, BackendMemory, c.Backend))
	}

	switch c.Codec.Protocol {
	case codec.ProtocolJSON, codec.ProtocolProtobuf:
	default:
		errs = append(errs, fmt.Errorf("codec.protocol: unknown protocol %q", c.Codec.Protocol))
	}
	switch c.Codec.Compress {
	case codec.CompressNone, codec.CompressLZ4, codec.CompressZSTD, codec.CompressGzip:
	default:
		errs = append(errs, fmt.Errorf("codec.compress: unknown compression %q", c.Codec.Compress))
	}

	if c.Server.Address == "" {
		errs = append(errs, errors.New("server.address is required"))
	}
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			errs = append(errs, errors.New("kafka.brokers is required when kafka is enabled"))
		}
		if c.Kafka.Topic == "" || c.Kafka.GroupID == "" {
			errs = append(errs, errors.New("kafka.topic and kafka.group_id are required when kafka is enabled"))
		}
	}
	return errors.Join(errs...)
}

// Columns accepts either a mapping or a list of single entry mappings:
//
//	columns: {price: float, brand: str}
//
//	columns:
//	  - price: float
//	  - brand: str
type Columns vectordb.Columns

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *Columns) UnmarshalYAML(node *yaml.Node) error {
	raw := map[string]string{}
	switch node.Kind {
	case yaml.MappingNode:
		if err := node.Decode(&raw); err != nil {
			return err
		}
	case yaml.SequenceNode:
		var pairs []map[string]string
		if err := node.Decode(&pairs); err != nil {
			return err
		}
		for _, p := range pairs {
			for name, typ := range p {
				if _, dup := raw[name]; dup {
					return fmt.Errorf("line %d: column %s declared twice", node.Line, name)
				}
				raw[name] = typ
			}
		}
	default:
		return fmt.Errorf("line %d: columns must be a mapping or a list", node.Line)
	}

	cols, err := vectordb.ParseColumns(raw)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*c = Columns(cols)
	return nil
}

// String renders the columns in a stable order, for logs.
func (c Columns) String() string {
	names := vectordb.Columns(c).Names()
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = n + ":" + string(c[n])
	}
	return strings.Join(parts, ",")
}
