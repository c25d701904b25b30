package memory

import (
	"math"

	"github.com/hupe1980/vecgo/distance"

	"github.com/Aleph-Alpha/vectorindexer/v1/vectordb"
)

// score computes the metric between a and b, which must have equal length.
func score(metric vectordb.Metric, a, b []float32) float32 {
	switch metric {
	case vectordb.MetricL2:
		return float32(math.Sqrt(float64(distance.SquaredL2(a, b))))
	case vectordb.MetricManhattan:
		// vecgo has no L1 kernel.
		var sum float64
		for i := range a {
			sum += math.Abs(float64(a[i]) - float64(b[i]))
		}
		return float32(sum)
	case vectordb.MetricCosine:
		na, ok := distance.NormalizeL2Copy(a)
		if !ok {
			return 0
		}
		nb, ok := distance.NormalizeL2Copy(b)
		if !ok {
			return 0
		}
		return distance.Dot(na, nb)
	default:
		return distance.Dot(a, b)
	}
}

// better reports whether score x ranks before y under metric.
func better(metric vectordb.Metric, x, y float32) bool {
	if metric.HigherIsBetter() {
		return x > y
	}
	return x < y
}

// passes reports whether s satisfies the threshold, which is a lower bound for
// similarities and an upper bound for distances.
func passes(metric vectordb.Metric, s float32, threshold *float32) bool {
	if threshold == nil {
		return true
	}
	if metric.HigherIsBetter() {
		return s >= *threshold
	}
	return s <= *threshold
}
