package codec

const (
	ProtocolJSON     = "json"
	ProtocolProtobuf = "protobuf"
)

const (
	CompressNone = "none"
	CompressLZ4  = "lz4"
	CompressZSTD = "zstd"
	CompressGzip = "gzip"
)

// Config selects how document content is serialised before it is stored.
type Config struct {
	// Protocol is json or protobuf.
	Protocol string `yaml:"protocol" env:"INDEXER_SERIALIZE_PROTOCOL"`

	// Compress is none, lz4, zstd or gzip.
	Compress string `yaml:"compress" env:"INDEXER_SERIALIZE_COMPRESS"`
}

// DefaultConfig returns uncompressed JSON.
func DefaultConfig() Config {
	return Config{Protocol: ProtocolJSON, Compress: CompressNone}
}
