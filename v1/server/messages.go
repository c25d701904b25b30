package server

import (
	"fmt"

	"github.com/Aleph-Alpha/vectorindexer/v1/indexer"
	"github.com/Aleph-Alpha/vectorindexer/v1/vectordb"
)

// Request is the body of every POST endpoint.
type Request struct {
	Data       []*vectordb.Document `json:"data"`
	Parameters indexer.Parameters   `json:"parameters"`
}

// Response is the body of every successful POST endpoint.
type Response struct {
	Data []*vectordb.Document `json:"data"`
}

// ErrorResponse is returned with every non 2xx status.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status    string `json:"status"`
	Documents int    `json:"documents"`
}

// validate rejects null entries in data.
func (r *Request) validate() error {
	for i, d := range r.Data {
		if d == nil {
			return fmt.Errorf("%w \"data\": entry %d is null", indexer.ErrInvalidParameter, i)
		}
	}
	return nil
}

// ids returns parameters.ids when present, the ids of the data documents otherwise.
func (r *Request) ids() ([]string, error) {
	raw, ok := r.Parameters["ids"]
	if !ok {
		return vectordb.IDs(r.Data), nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w \"ids\": expected a list of strings, got %T", indexer.ErrInvalidParameter, raw)
	}
	ids := make([]string, 0, len(list))
	for _, v := range list {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w \"ids\": expected a list of strings, got element %T", indexer.ErrInvalidParameter, v)
		}
		ids = append(ids, s)
	}
	return ids, nil
}

// predicate returns parameters.filter, or the empty expression.
func (r *Request) predicate() (string, error) {
	raw, ok := r.Parameters[indexer.ParamFilter]
	if !ok || raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%w %q: expected a string expression, got %T", indexer.ErrInvalidParameter, indexer.ParamFilter, raw)
	}
	return s, nil
}
