package tracer

// Config configures OpenTelemetry tracing for the indexer.
type Config struct {
	// ServiceName is reported as the service.name resource attribute.
	ServiceName string `yaml:"service_name" env:"INDEXER_TRACER_SERVICE_NAME"`

	// AppEnv is reported as deployment.environment.
	AppEnv string `yaml:"app_env" env:"INDEXER_TRACER_APP_ENV"`

	// EnableExport ships spans to an OTLP/HTTP collector. Without it spans are
	// created (so trace ids reach the logs) but never leave the process.
	EnableExport bool `yaml:"enable_export" env:"INDEXER_TRACER_ENABLE_EXPORT"`

	// Endpoint is the collector host:port. Empty uses OTEL_EXPORTER_OTLP_ENDPOINT
	// or the exporter default.
	Endpoint string `yaml:"endpoint" env:"INDEXER_TRACER_ENDPOINT"`

	// Insecure disables TLS towards the collector.
	Insecure bool `yaml:"insecure" env:"INDEXER_TRACER_INSECURE"`

	// SampleRatio is the parent based sampling ratio in [0, 1]. Zero means always sample.
	SampleRatio float64 `yaml:"sample_ratio" env:"INDEXER_TRACER_SAMPLE_RATIO"`
}

// DefaultConfig returns the tracing configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		ServiceName: "vector-indexer",
		AppEnv:      "development",
	}
}
