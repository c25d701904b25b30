package vectordb

import (
	"maps"
	"slices"
)

// Document is one record of a collection.
//
// Vector must have the collection dimension. Tags hold the typed scalar columns used
// by filter predicates together with any other user metadata; Text and Blob are
// opaque content stored and returned untouched.
type Document struct {
	ID     string         `json:"id"`
	Vector []float32      `json:"embedding,omitempty"`
	Text   string         `json:"text,omitempty"`
	Blob   []byte         `json:"blob,omitempty"`
	Tags   map[string]any `json:"tags,omitempty"`

	// Matches is filled by search, best match first.
	Matches []Match `json:"matches,omitempty"`
}

// Match is one search hit.
type Match struct {
	ID string `json:"id"`

	// Score is a distance for L2 and MANHATTAN, a similarity otherwise.
	Score float32 `json:"score"`

	// Metric names the function that produced Score.
	Metric Metric `json:"metric"`

	Document *Document `json:"document,omitempty"`
}

// Clone returns a deep copy of d without its matches.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	return &Document{
		ID:     d.ID,
		Vector: slices.Clone(d.Vector),
		Text:   d.Text,
		Blob:   slices.Clone(d.Blob),
		Tags:   maps.Clone(d.Tags),
	}
}

// QueryOptions are the resolved search parameters handed to a Collection.
type QueryOptions struct {
	// Limit is the maximum number of matches per query.
	Limit int

	// Filter restricts candidates. Nil means no restriction.
	Filter Predicate

	// Exact disables approximate search.
	Exact bool

	// Ef overrides the HNSW search breadth. Zero keeps the engine default.
	Ef int

	// ScoreThreshold drops matches scoring worse than the threshold.
	ScoreThreshold *float32

	// WithVector attaches the stored vector to each match document.
	WithVector bool
}

// Metric is a distance or similarity function.
type Metric string

const (
	MetricIP        Metric = "IP"
	MetricL2        Metric = "L2"
	MetricCosine    Metric = "COSINE"
	MetricManhattan Metric = "MANHATTAN"
)

// HigherIsBetter reports whether larger scores rank first.
func (m Metric) HigherIsBetter() bool {
	return m == MetricIP || m == MetricCosine
}

// Valid reports whether m is a known metric.
func (m Metric) Valid() bool {
	switch m {
	case MetricIP, MetricL2, MetricCosine, MetricManhattan:
		return true
	}
	return false
}
