package memory

import "github.com/Aleph-Alpha/vectorindexer/v1/vectordb"

// Config describes an in-process collection.
type Config struct {
	// Name identifies the collection. Handles opened with the same name in one
	// process share the same records.
	Name string `yaml:"name"`

	Dimension int `yaml:"dimension"`

	Metric vectordb.Metric `yaml:"metric"`
}
