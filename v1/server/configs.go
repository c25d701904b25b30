package server

import "time"

const DefaultAddress = ":8080"

// Config configures the HTTP transport.
type Config struct {
	// Address the API listens on.
	Address string `yaml:"address" env:"INDEXER_HTTP_ADDRESS"`

	// Mode is the gin mode: debug, release or test.
	Mode string `yaml:"mode" env:"INDEXER_HTTP_MODE"`

	ReadTimeout  time.Duration `yaml:"read_timeout" env:"INDEXER_HTTP_READ_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"INDEXER_HTTP_WRITE_TIMEOUT"`

	// MaxBodyBytes caps request bodies. Zero disables the limit.
	MaxBodyBytes int64 `yaml:"max_body_bytes" env:"INDEXER_HTTP_MAX_BODY_BYTES"`
}

// DefaultConfig returns the transport configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		Address:      DefaultAddress,
		Mode:         "release",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		MaxBodyBytes: 64 << 20,
	}
}
