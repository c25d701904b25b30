package metrics

const DefaultMetricsAddress = ":9090"

// Config configures the Prometheus endpoint of the indexer.
type Config struct {
	// Enabled turns the metrics server on. Operation metrics are still collected
	// in-process when disabled.
	Enabled bool `yaml:"enabled" env:"INDEXER_METRICS_ENABLED"`

	// Address the /metrics server listens on.
	Address string `yaml:"address" env:"INDEXER_METRICS_ADDRESS"`

	// EnableDefaultCollectors registers the Go, process and build info collectors.
	EnableDefaultCollectors bool `yaml:"enable_default_collectors" env:"INDEXER_METRICS_DEFAULT_COLLECTORS"`

	// Namespace prefixes every metric name.
	Namespace string `yaml:"namespace" env:"INDEXER_METRICS_NAMESPACE"`

	// ServiceName is added as a constant "service" label.
	ServiceName string `yaml:"service_name" env:"INDEXER_METRICS_SERVICE_NAME"`
}

// DefaultConfig returns the metrics configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		Enabled:                 true,
		Address:                 DefaultMetricsAddress,
		EnableDefaultCollectors: true,
		Namespace:               "indexer",
		ServiceName:             "vector-indexer",
	}
}
