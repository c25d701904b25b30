package indexer

import "github.com/Aleph-Alpha/vectorindexer/v1/vectordb"

// Config holds the adapter level settings. Engine settings (endpoint, metric,
// consistency, ...) belong to the backend configuration.
type Config struct {
	// Columns declares the typed scalar tags filter expressions may reference.
	// Without columns every identifier in an expression is dynamically typed.
	Columns vectordb.Columns `yaml:"columns"`

	// DefaultParameters are merged under the parameters of every search.
	DefaultParameters Parameters `yaml:"default_parameters"`
}

// DefaultConfig returns a Config without columns or default parameters.
func DefaultConfig() Config {
	return Config{}
}
