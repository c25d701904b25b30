package vectordb

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorsUnwrapToSentinels(t *testing.T) {
	var err error = &NotFoundError{ID: "b"}
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), `"b"`)

	err = CheckDimension([]*Document{{ID: "a", Vector: []float32{1, 2}}, {ID: "x", Vector: []float32{1}}}, 2)
	require.Error(t, err)
	assert.True(t, IsDimensionMismatch(err))
	var dimErr *DimensionError
	require.True(t, errors.As(err, &dimErr))
	assert.Equal(t, "x", dimErr.ID)

	err = ConnectionError("attach", errors.New("dial tcp: refused"))
	assert.True(t, IsConnectionError(err))
	assert.Contains(t, err.Error(), "refused")
}

func TestParseColumns(t *testing.T) {
	cols, err := ParseColumns(map[string]string{"price": "float", "n": "int64", "name": "string", "ok": "bool"})
	require.NoError(t, err)
	assert.Equal(t, Columns{"price": ColumnFloat, "n": ColumnInt, "name": ColumnString, "ok": ColumnBool}, cols)
	assert.Equal(t, []string{"n", "name", "ok", "price"}, cols.Names())

	_, err = ParseColumns(map[string]string{"price": "decimal"})
	assert.Error(t, err)
}

func TestFilterSetBuilders(t *testing.T) {
	fs := NewFilterSet(
		Must(NewMatch("brand", "acme")),
		Must(NewNumericRange("price", NumericRange{Lte: Ptr(3.0)})),
		MustNot(NewIsNull("price")),
	)
	require.Len(t, fs.Must.Conditions, 2)
	require.Len(t, fs.MustNot.Conditions, 1)
	assert.Nil(t, fs.Should)
	assert.False(t, fs.IsEmpty())
	assert.True(t, NewFilterSet().IsEmpty())
	assert.True(t, (*FilterSet)(nil).IsEmpty())
}

func TestCloneIsDeep(t *testing.T) {
	d := &Document{ID: "a", Vector: []float32{1}, Tags: map[string]any{"k": 1}, Matches: []Match{{ID: "z"}}}
	c := d.Clone()
	c.Vector[0] = 9
	c.Tags["k"] = 2
	assert.Equal(t, float32(1), d.Vector[0])
	assert.Equal(t, 1, d.Tags["k"])
	assert.Nil(t, c.Matches)
}

func TestMetric(t *testing.T) {
	assert.True(t, MetricIP.HigherIsBetter())
	assert.True(t, MetricCosine.HigherIsBetter())
	assert.False(t, MetricL2.HigherIsBetter())
	assert.False(t, Metric("HAMMING").Valid())
}
