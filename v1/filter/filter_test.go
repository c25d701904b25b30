package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aleph-Alpha/vectorindexer/v1/vectordb"
)

var productColumns = vectordb.Columns{
	"price":      vectordb.ColumnFloat,
	"stock":      vectordb.ColumnInt,
	"brand":      vectordb.ColumnString,
	"on_sale":    vectordb.ColumnBool,
	"created_at": vectordb.ColumnDatetime,
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"price <= 3", "price <= 3"},
		{"a > 1 and b < 2", "a > 1 && b < 2"},
		{"a > 1 or not b", "a > 1 || ! b"},
		{`brand == "and or not" and x`, `brand == "and or not" && x`},
		{`brand == 'it\'s or' OR x`, `brand == 'it\'s or' || x`},
		{"android > 1 and order < 2", "android > 1 && order < 2"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, normalize(tt.in))
		})
	}
}

func TestCompileEmptyMatchesEverything(t *testing.T) {
	p, err := Compile("  ", productColumns)
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.True(t, p.Match(map[string]any{"price": 100.0}))

	fs, err := p.Lower()
	require.NoError(t, err)
	assert.Nil(t, fs)
}

func TestCompileSyntaxErrors(t *testing.T) {
	tests := []string{
		"price <=",
		"unknown_column > 1",
		`brand > 3`,
		`brand + "x"`,
		"((price < 1)",
	}
	for _, expr := range tests {
		t.Run(expr, func(t *testing.T) {
			_, err := Compile(expr, productColumns)
			require.Error(t, err)
			assert.True(t, vectordb.IsFilterSyntax(err))
		})
	}
}

func TestMatch(t *testing.T) {
	tags := map[string]any{
		"price":      2.5,
		"stock":      7,
		"brand":      "acme",
		"on_sale":    true,
		"created_at": "2024-03-01T10:00:00Z",
		"opaque":     []int{1},
	}
	tests := []struct {
		expr string
		want bool
	}{
		{"price <= 3", true},
		{"price <= 2", false},
		{"price == 2.5", true},
		{"stock > 5 and brand == 'acme'", true},
		{"stock > 10 or brand == 'other'", false},
		{"not on_sale", false},
		{"brand in ['acme', 'globex']", true},
		{"stock >= 7.0", true},
		{`created_at > timestamp("2024-01-01T00:00:00Z")`, true},
		{`created_at < timestamp("2024-01-01T00:00:00Z")`, false},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			p, err := Compile(tt.expr, productColumns)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Match(tags))
		})
	}
}

func TestMatchMissingAttributeIsFalse(t *testing.T) {
	p := MustCompile("price <= 3", productColumns)
	assert.False(t, p.Match(map[string]any{"brand": "acme"}))
	assert.False(t, p.Match(nil))
}

func TestMatchWithoutColumns(t *testing.T) {
	p, err := Compile("price <= 3 and color == 'red'", nil)
	require.NoError(t, err)
	assert.True(t, p.Match(map[string]any{"price": 3, "color": "red"}))
	assert.False(t, p.Match(map[string]any{"price": float32(3.5), "color": "red"}))
	assert.False(t, p.Match(map[string]any{"color": "red"}))
}

func TestLowerComparisons(t *testing.T) {
	three := 3.0
	tests := []struct {
		expr string
		want *vectordb.FilterSet
	}{
		{
			expr: "price <= 3",
			want: vectordb.NewFilterSet(vectordb.Must(vectordb.NewNumericRange("price", vectordb.NumericRange{Lte: &three}))),
		},
		{
			expr: "3 >= price",
			want: vectordb.NewFilterSet(vectordb.Must(vectordb.NewNumericRange("price", vectordb.NumericRange{Lte: &three}))),
		},
		{
			expr: "brand == 'acme'",
			want: vectordb.NewFilterSet(vectordb.Must(vectordb.NewMatch("brand", "acme"))),
		},
		{
			expr: "brand != 'acme'",
			want: vectordb.NewFilterSet(vectordb.Must(vectordb.NewMatchExcept("brand", "acme"))),
		},
		{
			expr: "stock == 4",
			want: vectordb.NewFilterSet(vectordb.Must(vectordb.NewMatch("stock", int64(4)))),
		},
		{
			expr: "on_sale",
			want: vectordb.NewFilterSet(vectordb.Must(vectordb.NewMatch("on_sale", true))),
		},
		{
			expr: "on_sale == false",
			want: vectordb.NewFilterSet(vectordb.Must(vectordb.NewMatch("on_sale", false))),
		},
		{
			expr: "brand in ['a', 'b']",
			want: vectordb.NewFilterSet(vectordb.Must(vectordb.NewMatchAny("brand", "a", "b"))),
		},
		{
			expr: "stock > -2",
			want: vectordb.NewFilterSet(vectordb.Must(vectordb.NewNumericRange("stock", vectordb.NumericRange{Gt: vectordb.Ptr(-2.0)}))),
		},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			fs, err := MustCompile(tt.expr, productColumns).Lower()
			require.NoError(t, err)
			assert.Equal(t, tt.want, fs)
		})
	}
}

func TestLowerLogical(t *testing.T) {
	fs, err := MustCompile("price < 10 and brand == 'acme' and stock > 1", productColumns).Lower()
	require.NoError(t, err)
	require.NotNil(t, fs.Must)
	assert.Len(t, fs.Must.Conditions, 3)
	assert.Nil(t, fs.Should)

	fs, err = MustCompile("brand == 'acme' or (price < 10 and stock > 1)", productColumns).Lower()
	require.NoError(t, err)
	require.NotNil(t, fs.Should)
	require.Len(t, fs.Should.Conditions, 2)
	nested, ok := fs.Should.Conditions[1].(*vectordb.NestedCondition)
	require.True(t, ok)
	assert.Len(t, nested.Filter.Must.Conditions, 2)

	fs, err = MustCompile("not (brand == 'acme')", productColumns).Lower()
	require.NoError(t, err)
	assert.Equal(t, vectordb.NewFilterSet(vectordb.MustNot(vectordb.NewMatch("brand", "acme"))), fs)

	fs, err = MustCompile("not not on_sale", productColumns).Lower()
	require.NoError(t, err)
	assert.Equal(t, vectordb.NewFilterSet(vectordb.Must(vectordb.NewMatch("on_sale", true))), fs)
}

func TestLowerTimestamp(t *testing.T) {
	fs, err := MustCompile(`created_at >= timestamp("2024-01-01T00:00:00Z")`, productColumns).Lower()
	require.NoError(t, err)
	cond, ok := fs.Must.Conditions[0].(*vectordb.TimeRangeCondition)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), *cond.Range.Gte)
}

func TestLowerUnsupported(t *testing.T) {
	p := MustCompile("price * 2 < 10", productColumns)
	_, err := p.Lower()
	require.Error(t, err)
	assert.True(t, IsNotLowerable(err))
	assert.True(t, vectordb.IsFilterSyntax(err))

	// still usable in process
	assert.True(t, p.Match(map[string]any{"price": 1}))
}
