package logger

const (
	Debug   = "debug"
	Info    = "info"
	Warning = "warning"
	Error   = "error"
)

const (
	// EncodingJSON emits one JSON object per entry. This is the production default.
	EncodingJSON = "json"

	// EncodingConsole emits human readable lines, handy for `indexer serve` on a laptop.
	EncodingConsole = "console"
)

// Config configures the indexer logger.
type Config struct {
	// Level is one of debug, info, warning, error. Anything else maps to info.
	Level string `yaml:"level" env:"INDEXER_LOG_LEVEL"`

	// ServiceName is attached to every entry as the "service" field.
	ServiceName string `yaml:"service_name" env:"INDEXER_SERVICE_NAME"`

	// Encoding is json or console.
	Encoding string `yaml:"encoding" env:"INDEXER_LOG_ENCODING"`

	// OutputPaths are zap sink URLs. Defaults to stderr.
	OutputPaths []string `yaml:"output_paths"`

	// EnableTracing adds trace_id and span_id to entries written through the
	// *WithContext methods when the context carries a sampled span.
	EnableTracing bool `yaml:"enable_tracing" env:"INDEXER_LOG_TRACING"`
}

// DefaultConfig returns the logger configuration used when the config file has no
// logger section.
func DefaultConfig() Config {
	return Config{
		Level:         Info,
		ServiceName:   "vector-indexer",
		Encoding:      EncodingJSON,
		OutputPaths:   []string{"stderr"},
		EnableTracing: true,
	}
}
