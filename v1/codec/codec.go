package codec

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Aleph-Alpha/vectorindexer/v1/vectordb"
)

// Encoded documents start with a small header so that they can be decoded
// regardless of the configuration in effect when they were written:
//
//	[magic][protocol][compression][uint32 raw length][body]
const (
	magic      byte = 0xD1
	headerSize      = 7
)

const (
	protoJSON byte = iota + 1
	protoProtobuf
)

const (
	compNone byte = iota
	compLZ4
	compZSTD
	compGzip
)

// ErrCorrupt is returned when encoded bytes cannot be decoded.
var ErrCorrupt = errors.New("codec: corrupt document encoding")

// Codec serialises documents. It is safe for concurrent use.
type Codec struct {
	protocol byte
	compress byte

	zenc *zstd.Encoder
	zdec *zstd.Decoder
}

// New validates cfg and prepares the compressors it needs.
func New(cfg Config) (*Codec, error) {
	c := &Codec{}

	switch cfg.Protocol {
	case "", ProtocolJSON:
		c.protocol = protoJSON
	case ProtocolProtobuf:
		c.protocol = protoProtobuf
	default:
		return nil, fmt.Errorf("codec: unknown protocol %q", cfg.Protocol)
	}

	switch cfg.Compress {
	case "", CompressNone:
		c.compress = compNone
	case CompressLZ4:
		c.compress = compLZ4
	case CompressZSTD:
		c.compress = compZSTD
	case CompressGzip:
		c.compress = compGzip
	default:
		return nil, fmt.Errorf("codec: unknown compression %q", cfg.Compress)
	}

	var err error
	if c.zenc, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault)); err != nil {
		return nil, fmt.Errorf("codec: zstd encoder: %w", err)
	}
	if c.zdec, err = zstd.NewReader(nil); err != nil {
		return nil, fmt.Errorf("codec: zstd decoder: %w", err)
	}
	return c, nil
}

// Close releases the zstd workers.
func (c *Codec) Close() {
	_ = c.zenc.Close()
	c.zdec.Close()
}

// Encode serialises doc without its matches.
func (c *Codec) Encode(doc *vectordb.Document) ([]byte, error) {
	var (
		raw []byte
		err error
	)
	switch c.protocol {
	case protoProtobuf:
		raw, err = encodeProtobuf(doc)
	default:
		raw, err = json.Marshal(doc.Clone())
	}
	if err != nil {
		return nil, fmt.Errorf("codec: encode %q: %w", doc.ID, err)
	}

	body, err := c.compressBlock(raw)
	if err != nil {
		return nil, fmt.Errorf("codec: compress %q: %w", doc.ID, err)
	}

	out := make([]byte, headerSize, headerSize+len(body))
	out[0], out[1], out[2] = magic, c.protocol, c.compress
	binary.LittleEndian.PutUint32(out[3:], uint32(len(raw)))
	return append(out, body...), nil
}

// Decode reverses Encode. Numbers inside Tags come back as float64.
func (c *Codec) Decode(b []byte) (*vectordb.Document, error) {
	if len(b) < headerSize || b[0] != magic {
		return nil, ErrCorrupt
	}
	rawLen := binary.LittleEndian.Uint32(b[3:])
	raw, err := c.decompressBlock(b[2], b[headerSize:], int(rawLen))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	switch b[1] {
	case protoJSON:
		var doc vectordb.Document
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		return &doc, nil
	case protoProtobuf:
		return decodeProtobuf(raw)
	}
	return nil, ErrCorrupt
}

func (c *Codec) compressBlock(raw []byte) ([]byte, error) {
	switch c.compress {
	case compLZ4:
		dst := make([]byte, lz4.CompressBlockBound(len(raw)))
		n, err := lz4.CompressBlock(raw, dst, nil)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			// incompressible input is stored as is, marked by a zero length body prefix
			return append([]byte{0}, raw...), nil
		}
		return append([]byte{1}, dst[:n]...), nil
	case compZSTD:
		return c.zenc.EncodeAll(raw, nil), nil
	case compGzip:
		var buf bytes.Buffer
		w := gzip.NewWriter(&buf)
		if _, err := w.Write(raw); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return raw, nil
}

func (c *Codec) decompressBlock(kind byte, body []byte, rawLen int) ([]byte, error) {
	switch kind {
	case compNone:
		return body, nil
	case compLZ4:
		if len(body) == 0 {
			return nil, errors.New("empty lz4 block")
		}
		if body[0] == 0 {
			return body[1:], nil
		}
		dst := make([]byte, rawLen)
		n, err := lz4.UncompressBlock(body[1:], dst)
		if err != nil {
			return nil, err
		}
		if n != rawLen {
			return nil, errors.New("decompressed size mismatch")
		}
		return dst, nil
	case compZSTD:
		return c.zdec.DecodeAll(body, make([]byte, 0, rawLen))
	case compGzip:
		r, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return io.ReadAll(r)
	}
	return nil, fmt.Errorf("unknown compression %d", kind)
}

// CompressWriter wraps w with the configured stream compression. Closing the
// returned writer flushes it but does not close w.
func (c *Codec) CompressWriter(w io.Writer) (io.WriteCloser, error) {
	switch c.compress {
	case compLZ4:
		return lz4.NewWriter(w), nil
	case compZSTD:
		return zstd.NewWriter(w)
	case compGzip:
		return gzip.NewWriter(w), nil
	}
	return nopWriteCloser{w}, nil
}

// DecompressReader is the reading side of CompressWriter.
func (c *Codec) DecompressReader(r io.Reader) (io.ReadCloser, error) {
	switch c.compress {
	case compLZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	case compZSTD:
		d, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return d.IOReadCloser(), nil
	case compGzip:
		return gzip.NewReader(r)
	}
	return io.NopCloser(r), nil
}

// Extension is the conventional file suffix of the stream compression.
func (c *Codec) Extension() string {
	switch c.compress {
	case compLZ4:
		return ".lz4"
	case compZSTD:
		return ".zst"
	case compGzip:
		return ".gz"
	}
	return ""
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func encodeProtobuf(doc *vectordb.Document) ([]byte, error) {
	fields := map[string]any{"id": doc.ID}
	if len(doc.Vector) > 0 {
		vec := make([]any, len(doc.Vector))
		for i, v := range doc.Vector {
			vec[i] = float64(v)
		}
		fields["embedding"] = vec
	}
	if doc.Text != "" {
		fields["text"] = doc.Text
	}
	if len(doc.Blob) > 0 {
		fields["blob"] = base64.StdEncoding.EncodeToString(doc.Blob)
	}
	if len(doc.Tags) > 0 {
		fields["tags"] = normalizeTags(doc.Tags)
	}

	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(s)
}

func decodeProtobuf(raw []byte) (*vectordb.Document, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	m := s.AsMap()

	doc := &vectordb.Document{}
	doc.ID, _ = m["id"].(string)
	doc.Text, _ = m["text"].(string)
	if vec, ok := m["embedding"].([]any); ok {
		doc.Vector = make([]float32, len(vec))
		for i, v := range vec {
			f, _ := v.(float64)
			doc.Vector[i] = float32(f)
		}
	}
	if blob, ok := m["blob"].(string); ok {
		b, err := base64.StdEncoding.DecodeString(blob)
		if err != nil {
			return nil, fmt.Errorf("%w: blob: %v", ErrCorrupt, err)
		}
		doc.Blob = b
	}
	if tags, ok := m["tags"].(map[string]any); ok {
		doc.Tags = tags
	}
	return doc, nil
}

// normalizeTags round trips tags through JSON so that structpb accepts every value
// that JSON can represent (typed slices, nested structs).
func normalizeTags(tags map[string]any) map[string]any {
	b, err := json.Marshal(tags)
	if err != nil {
		return tags
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return tags
	}
	return out
}
