package kafka

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/Aleph-Alpha/vectorindexer/v1/indexer"
	"github.com/Aleph-Alpha/vectorindexer/v1/vectordb"
)

// Operations accepted on the ingestion topic.
var operations = map[string]bool{
	indexer.OpIndex:  true,
	indexer.OpUpdate: true,
	indexer.OpDelete: true,
	indexer.OpClear:  true,
}

// ErrInvalidMessage marks messages that can never be applied.
var ErrInvalidMessage = errors.New("invalid ingestion message")

// Message is one operation on the ingestion topic.
//
//	{"operation": "index", "data": [{"id": "a", "embedding": [1, 3]}], "parameters": {}}
type Message struct {
	Operation  string               `json:"operation"`
	Data       []*vectordb.Document `json:"data,omitempty"`
	Parameters indexer.Parameters   `json:"parameters,omitempty"`
}

// decodeMessage parses and validates a message value.
func decodeMessage(value []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(value, &m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	if !operations[m.Operation] {
		return nil, fmt.Errorf("%w: unsupported operation %q", ErrInvalidMessage, m.Operation)
	}
	for i, d := range m.Data {
		if d == nil {
			return nil, fmt.Errorf("%w: data entry %d is null", ErrInvalidMessage, i)
		}
	}
	return &m, nil
}

// ids returns parameters.ids when present, the ids of the data documents otherwise.
func (m *Message) ids() ([]string, error) {
	raw, ok := m.Parameters["ids"]
	if !ok {
		return vectordb.IDs(m.Data), nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: ids must be a list of strings, got %T", ErrInvalidMessage, raw)
	}
	ids := make([]string, 0, len(list))
	for _, v := range list {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: ids must be a list of strings, got element %T", ErrInvalidMessage, v)
		}
		ids = append(ids, s)
	}
	return ids, nil
}

// headerCarrier reads the trace propagation headers of a record.
func headerCarrier(headers []kafka.Header) map[string]string {
	carrier := make(map[string]string, len(headers))
	for _, h := range headers {
		carrier[h.Key] = string(h.Value)
	}
	return carrier
}

// carrierHeaders is the inverse of headerCarrier.
func carrierHeaders(carrier map[string]string) []kafka.Header {
	headers := make([]kafka.Header, 0, len(carrier))
	for k, v := range carrier {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	return headers
}
