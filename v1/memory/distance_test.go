package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Aleph-Alpha/vectorindexer/v1/vectordb"
)

func TestScore(t *testing.T) {
	a := []float32{1, 3}
	b := []float32{1, 1}

	tests := []struct {
		metric vectordb.Metric
		want   float32
	}{
		{vectordb.MetricL2, 2},
		{vectordb.MetricManhattan, 2},
		{vectordb.MetricIP, 4},
		{vectordb.MetricCosine, 0.8944272},
	}
	for _, tt := range tests {
		t.Run(string(tt.metric), func(t *testing.T) {
			assert.InDelta(t, tt.want, score(tt.metric, a, b), 1e-5)
		})
	}

	assert.Equal(t, float32(0), score(vectordb.MetricCosine, []float32{0, 0}, b))
	assert.InDelta(t, 1.0, score(vectordb.MetricCosine, []float32{2, 6}, a), 1e-5)
}

func TestRanking(t *testing.T) {
	assert.True(t, better(vectordb.MetricL2, 1, 2))
	assert.True(t, better(vectordb.MetricIP, 2, 1))
	assert.True(t, passes(vectordb.MetricL2, 2, vectordb.Ptr(float32(2))))
	assert.False(t, passes(vectordb.MetricCosine, 0.5, vectordb.Ptr(float32(0.6))))
	assert.True(t, passes(vectordb.MetricIP, -3, nil))
}
