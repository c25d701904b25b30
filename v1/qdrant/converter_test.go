package qdrant

import (
	"context"
	"testing"
	"time"

	qdrant "github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/Aleph-Alpha/vectorindexer/v1/filter"
	"github.com/Aleph-Alpha/vectorindexer/v1/vectordb"
)

func TestConvertFilterSet(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	half := 0.5

	tests := []struct {
		name string
		in   *vectordb.FilterSet
		want *qdrant.Filter
	}{
		{
			name: "nil set",
			in:   nil,
			want: nil,
		},
		{
			name: "empty set",
			in:   vectordb.NewFilterSet(),
			want: nil,
		},
		{
			name: "keyword match",
			in:   vectordb.NewFilterSet(vectordb.Must(vectordb.NewMatch("brand", "acme"))),
			want: &qdrant.Filter{Must: []*qdrant.Condition{qdrant.NewMatch("brand", "acme")}},
		},
		{
			name: "bool and int match",
			in: vectordb.NewFilterSet(vectordb.Must(
				vectordb.NewMatch("active", true),
				vectordb.NewMatch("stock", int64(3)),
			)),
			want: &qdrant.Filter{Must: []*qdrant.Condition{
				qdrant.NewMatchBool("active", true),
				qdrant.NewMatchInt("stock", 3),
			}},
		},
		{
			name: "fractional float match becomes closed range",
			in:   vectordb.NewFilterSet(vectordb.Must(vectordb.NewMatch("price", 0.5))),
			want: &qdrant.Filter{Must: []*qdrant.Condition{
				qdrant.NewRange("price", &qdrant.Range{Gte: &half, Lte: &half}),
			}},
		},
		{
			name: "keywords any and except",
			in: vectordb.NewFilterSet(
				vectordb.Must(vectordb.NewMatchAny("brand", "a", "b")),
				vectordb.MustNot(vectordb.NewMatchAny("color", "red")),
				vectordb.Should(vectordb.NewMatchExcept("size", int64(1), int64(2))),
			),
			want: &qdrant.Filter{
				Must:    []*qdrant.Condition{qdrant.NewMatchKeywords("brand", "a", "b")},
				MustNot: []*qdrant.Condition{qdrant.NewMatchKeywords("color", "red")},
				Should:  []*qdrant.Condition{qdrant.NewMatchExceptInts("size", 1, 2)},
			},
		},
		{
			name: "mixed any spelled out",
			in:   vectordb.NewFilterSet(vectordb.Must(vectordb.NewMatchAny("code", "x", int64(7)))),
			want: &qdrant.Filter{Must: []*qdrant.Condition{
				qdrant.NewFilterAsCondition(&qdrant.Filter{Should: []*qdrant.Condition{
					qdrant.NewMatch("code", "x"),
					qdrant.NewMatchInt("code", 7),
				}}),
			}},
		},
		{
			name: "numeric and time ranges",
			in: vectordb.NewFilterSet(vectordb.Must(
				vectordb.NewNumericRange("price", vectordb.NumericRange{Lte: vectordb.Ptr(10.0)}),
				vectordb.NewTimeRange("created", vectordb.TimeRange{Gt: &ts}),
			)),
			want: &qdrant.Filter{Must: []*qdrant.Condition{
				qdrant.NewRange("price", &qdrant.Range{Lte: qdrant.PtrOf(10.0)}),
				qdrant.NewDatetimeRange("created", &qdrant.DatetimeRange{Gt: timestamppb.New(ts)}),
			}},
		},
		{
			name: "null and empty",
			in: vectordb.NewFilterSet(vectordb.Must(
				vectordb.NewIsNull("deleted_at"),
				vectordb.NewIsEmpty("labels"),
			)),
			want: &qdrant.Filter{Must: []*qdrant.Condition{
				qdrant.NewIsNull("deleted_at"),
				qdrant.NewIsEmpty("labels"),
			}},
		},
		{
			name: "nested disjunction",
			in: vectordb.NewFilterSet(vectordb.Must(
				vectordb.NewMatch("brand", "acme"),
				vectordb.Nested(vectordb.NewFilterSet(vectordb.Should(
					vectordb.NewMatch("color", "red"),
					vectordb.NewMatch("color", "blue"),
				))),
			)),
			want: &qdrant.Filter{Must: []*qdrant.Condition{
				qdrant.NewMatch("brand", "acme"),
				qdrant.NewFilterAsCondition(&qdrant.Filter{Should: []*qdrant.Condition{
					qdrant.NewMatch("color", "red"),
					qdrant.NewMatch("color", "blue"),
				}}),
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := convertFilterSet(tt.in)
			require.NoError(t, err)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			assert.True(t, proto.Equal(tt.want, got), "got %v", got)
		})
	}
}

func TestConvertFilterSetErrors(t *testing.T) {
	tests := []struct {
		name string
		in   *vectordb.FilterSet
	}{
		{"unsupported match value", vectordb.NewFilterSet(vectordb.Must(vectordb.NewMatch("x", []int{1})))},
		{"empty any", vectordb.NewFilterSet(vectordb.Must(vectordb.NewMatchAny("x")))},
		{"unbounded range", vectordb.NewFilterSet(vectordb.Must(vectordb.NewNumericRange("x", vectordb.NumericRange{})))},
		{"unbounded time range", vectordb.NewFilterSet(vectordb.Must(vectordb.NewTimeRange("x", vectordb.TimeRange{})))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := convertFilterSet(tt.in)
			require.Error(t, err)
			assert.True(t, vectordb.IsFilterSyntax(err))
		})
	}
}

func TestConvertLoweredPredicate(t *testing.T) {
	cols := vectordb.Columns{"price": vectordb.ColumnFloat, "brand": vectordb.ColumnString}
	pred, err := filter.Compile(`price <= 3.5 and brand != "acme"`, cols)
	require.NoError(t, err)

	fs, err := pred.Lower()
	require.NoError(t, err)

	got, err := convertFilterSet(fs)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.Must, 2)
	assert.Empty(t, got.MustNot)
	assert.Equal(t, 3.5, got.Must[0].GetField().GetRange().GetLte())
	assert.Equal(t, []string{"acme"}, got.Must[1].GetField().GetMatch().GetExceptKeywords().GetStrings())
}

func TestQueryRejectsFilterWithoutPushdown(t *testing.T) {
	cols := vectordb.Columns{"price": vectordb.ColumnFloat}
	c := &Collection{cfg: Config{CollectionName: "products", Dimension: 2}}

	_, err := c.Query(context.Background(), [][]float32{{1, 0}}, vectordb.QueryOptions{
		Limit:  1,
		Filter: filter.MustCompile("price * 2 < 10", cols),
	})
	require.Error(t, err)
	assert.True(t, vectordb.IsFilterSyntax(err))
	assert.True(t, filter.IsNotLowerable(err))
	assert.Contains(t, err.Error(), "price * 2 < 10")
}

func TestExtractValue(t *testing.T) {
	payload := qdrant.NewValueMap(map[string]any{
		"s": "x",
		"i": 3,
		"f": 1.5,
		"b": true,
		"n": nil,
		"l": []any{"a", 1},
		"m": map[string]any{"k": "v"},
	})
	got := make(map[string]any, len(payload))
	for k, v := range payload {
		got[k] = extractValue(v)
	}
	assert.Equal(t, map[string]any{
		"s": "x",
		"i": int64(3),
		"f": 1.5,
		"b": true,
		"n": nil,
		"l": []any{"a", int64(1)},
		"m": map[string]any{"k": "v"},
	}, got)
}
