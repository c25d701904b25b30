package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/Aleph-Alpha/vectorindexer/v1/codec"
	"github.com/Aleph-Alpha/vectorindexer/v1/vectordb"
)

// store holds the records of one named collection. Records are kept encoded so
// that neither writers nor readers can alias stored data.
type store struct {
	mu      sync.RWMutex
	order   []string
	records map[string][]byte
}

var (
	registryMu sync.Mutex
	registry   = map[string]*store{}
)

func attach(name string) *store {
	registryMu.Lock()
	defer registryMu.Unlock()
	s, ok := registry[name]
	if !ok {
		s = &store{records: map[string][]byte{}}
		registry[name] = s
	}
	return s
}

// Drop forgets the named collection. Open handles keep working on the old records.
func Drop(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(registry, name)
}

// Collection is an in-process vectordb.Collection with exact, brute force search.
type Collection struct {
	cfg    Config
	codec  *codec.Codec
	store  *store
	closed atomic.Bool
}

var _ vectordb.Collection = (*Collection)(nil)

// NewCollection attaches to (or creates) the named in-process collection.
func NewCollection(cfg Config, c *codec.Codec) (*Collection, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("memory: collection name is required")
	}
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("memory: dimension must be positive, got %d", cfg.Dimension)
	}
	if cfg.Metric == "" {
		cfg.Metric = vectordb.MetricIP
	}
	if !cfg.Metric.Valid() {
		return nil, fmt.Errorf("memory: unknown metric %q", cfg.Metric)
	}
	return &Collection{cfg: cfg, codec: c, store: attach(cfg.Name)}, nil
}

func (c *Collection) check() error {
	if c.closed.Load() {
		return vectordb.ErrClosed
	}
	return nil
}

// Append implements vectordb.Collection.
func (c *Collection) Append(ctx context.Context, docs []*vectordb.Document) error {
	if err := c.check(); err != nil {
		return err
	}
	if err := vectordb.CheckDimension(docs, c.cfg.Dimension); err != nil {
		return err
	}

	encoded := make([][]byte, len(docs))
	for i, d := range docs {
		if d == nil {
			continue
		}
		b, err := c.codec.Encode(d)
		if err != nil {
			return err
		}
		encoded[i] = b
	}

	s := c.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, d := range docs {
		if d == nil {
			continue
		}
		if _, exists := s.records[d.ID]; !exists {
			s.order = append(s.order, d.ID)
		}
		s.records[d.ID] = encoded[i]
	}
	return nil
}

// Replace implements vectordb.Collection.
func (c *Collection) Replace(ctx context.Context, docs []*vectordb.Document) error {
	return c.Append(ctx, docs)
}

// Get implements vectordb.Collection.
func (c *Collection) Get(ctx context.Context, ids []string) (map[string]*vectordb.Document, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	s := c.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]*vectordb.Document, len(ids))
	for _, id := range ids {
		b, ok := s.records[id]
		if !ok {
			continue
		}
		d, err := c.codec.Decode(b)
		if err != nil {
			return nil, err
		}
		out[id] = d
	}
	return out, nil
}

// DeleteByIDs implements vectordb.Collection.
func (c *Collection) DeleteByIDs(ctx context.Context, ids []string) error {
	if err := c.check(); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	s := c.store
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := false
	for _, id := range ids {
		if _, ok := s.records[id]; ok {
			delete(s.records, id)
			removed = true
		}
	}
	if removed {
		s.order = slices.DeleteFunc(s.order, func(id string) bool {
			_, ok := s.records[id]
			return !ok
		})
	}
	return nil
}

// ScanByPredicate implements vectordb.Collection. Documents come back in insertion order.
func (c *Collection) ScanByPredicate(ctx context.Context, pred vectordb.Predicate) ([]*vectordb.Document, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	s := c.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*vectordb.Document, 0, len(s.order))
	for _, id := range s.order {
		d, err := c.codec.Decode(s.records[id])
		if err != nil {
			return nil, err
		}
		if pred != nil && !pred.Match(d.Tags) {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

// Query implements vectordb.Collection.
func (c *Collection) Query(ctx context.Context, queries [][]float32, opts vectordb.QueryOptions) ([][]vectordb.Match, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	for i, q := range queries {
		if len(q) != c.cfg.Dimension {
			return nil, &vectordb.DimensionError{ID: fmt.Sprintf("query[%d]", i), Got: len(q), Want: c.cfg.Dimension}
		}
	}

	candidates, err := c.ScanByPredicate(ctx, opts.Filter)
	if err != nil {
		return nil, err
	}

	results := make([][]vectordb.Match, len(queries))
	for qi, q := range queries {
		matches := make([]vectordb.Match, 0, len(candidates))
		for _, d := range candidates {
			s := score(c.cfg.Metric, q, d.Vector)
			if !passes(c.cfg.Metric, s, opts.ScoreThreshold) {
				continue
			}
			hit := d.Clone()
			if !opts.WithVector {
				hit.Vector = nil
			}
			matches = append(matches, vectordb.Match{ID: d.ID, Score: s, Metric: c.cfg.Metric, Document: hit})
		}
		sort.SliceStable(matches, func(i, j int) bool {
			return better(c.cfg.Metric, matches[i].Score, matches[j].Score)
		})
		if opts.Limit > 0 && len(matches) > opts.Limit {
			matches = matches[:opts.Limit]
		}
		results[qi] = matches
	}
	return results, nil
}

// ClearAll implements vectordb.Collection.
func (c *Collection) ClearAll(ctx context.Context) error {
	if err := c.check(); err != nil {
		return err
	}
	s := c.store
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = map[string][]byte{}
	s.order = nil
	return nil
}

// Count implements vectordb.Collection.
func (c *Collection) Count(ctx context.Context) (int, error) {
	if err := c.check(); err != nil {
		return 0, err
	}
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	return len(c.store.records), nil
}

// Close implements vectordb.Collection. The records stay available to other handles.
func (c *Collection) Close(ctx context.Context) error {
	c.closed.Store(true)
	return nil
}
