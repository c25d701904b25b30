package qdrant

import (
	"fmt"
	"math"
	"time"

	qdrant "github.com/qdrant/go-client/qdrant"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/Aleph-Alpha/vectorindexer/v1/vectordb"
)

// ── Filter Conversion ────────────────────────────────────────────────────────

// convertFilterSet converts a vectordb.FilterSet to a Qdrant filter. An empty set
// converts to nil, which Qdrant treats as "no restriction".
func convertFilterSet(fs *vectordb.FilterSet) (*qdrant.Filter, error) {
	if fs.IsEmpty() {
		return nil, nil
	}

	filter := &qdrant.Filter{}
	var err error
	if filter.Must, err = convertConditionSet(fs.Must); err != nil {
		return nil, err
	}
	if filter.Should, err = convertConditionSet(fs.Should); err != nil {
		return nil, err
	}
	if filter.MustNot, err = convertConditionSet(fs.MustNot); err != nil {
		return nil, err
	}

	if len(filter.Must) == 0 && len(filter.Should) == 0 && len(filter.MustNot) == 0 {
		return nil, nil
	}
	return filter, nil
}

func convertConditionSet(cs *vectordb.ConditionSet) ([]*qdrant.Condition, error) {
	if cs == nil {
		return nil, nil
	}
	conditions := make([]*qdrant.Condition, 0, len(cs.Conditions))
	for _, c := range cs.Conditions {
		cond, err := convertCondition(c)
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, cond)
	}
	return conditions, nil
}

// convertCondition converts a single vectordb.FilterCondition to a Qdrant condition.
func convertCondition(c vectordb.FilterCondition) (*qdrant.Condition, error) {
	switch cond := c.(type) {
	case *vectordb.MatchCondition:
		return convertMatch(cond)
	case *vectordb.MatchAnyCondition:
		return convertMatchAny(cond.Field, cond.Values, false)
	case *vectordb.MatchExceptCondition:
		return convertMatchAny(cond.Field, cond.Values, true)
	case *vectordb.NumericRangeCondition:
		return convertNumericRange(cond)
	case *vectordb.TimeRangeCondition:
		return convertTimeRange(cond)
	case *vectordb.IsNullCondition:
		return qdrant.NewIsNull(cond.Field), nil
	case *vectordb.IsEmptyCondition:
		return qdrant.NewIsEmpty(cond.Field), nil
	case *vectordb.NestedCondition:
		inner, err := convertFilterSet(cond.Filter)
		if err != nil {
			return nil, err
		}
		if inner == nil {
			inner = &qdrant.Filter{}
		}
		return qdrant.NewFilterAsCondition(inner), nil
	default:
		return nil, fmt.Errorf("%w: unsupported condition %T", vectordb.ErrFilterSyntax, c)
	}
}

func convertMatch(c *vectordb.MatchCondition) (*qdrant.Condition, error) {
	switch v := c.Value.(type) {
	case string:
		return qdrant.NewMatch(c.Field, v), nil
	case bool:
		return qdrant.NewMatchBool(c.Field, v), nil
	case int:
		return qdrant.NewMatchInt(c.Field, int64(v)), nil
	case int64:
		return qdrant.NewMatchInt(c.Field, v), nil
	case uint64:
		return qdrant.NewMatchInt(c.Field, int64(v)), nil
	case float64:
		// Qdrant matches only keywords, integers and booleans exactly.
		if v == math.Trunc(v) {
			return qdrant.NewMatchInt(c.Field, int64(v)), nil
		}
		return qdrant.NewRange(c.Field, &qdrant.Range{Gte: &v, Lte: &v}), nil
	case time.Time:
		ts := timestamppb.New(v)
		return qdrant.NewDatetimeRange(c.Field, &qdrant.DatetimeRange{Gte: ts, Lte: ts}), nil
	default:
		return nil, fmt.Errorf("%w: cannot match field %s against %T", vectordb.ErrFilterSyntax, c.Field, c.Value)
	}
}

// convertMatchAny handles both "any of" and "none of". Keyword and integer lists
// map onto the native conditions; anything else is spelled out as a nested filter.
func convertMatchAny(field string, values []any, except bool) (*qdrant.Condition, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: empty value list for field %s", vectordb.ErrFilterSyntax, field)
	}

	if strs, ok := allStrings(values); ok {
		if except {
			return qdrant.NewMatchExceptKeywords(field, strs...), nil
		}
		return qdrant.NewMatchKeywords(field, strs...), nil
	}
	if ints, ok := allInts(values); ok {
		if except {
			return qdrant.NewMatchExceptInts(field, ints...), nil
		}
		return qdrant.NewMatchInts(field, ints...), nil
	}

	conditions := make([]*qdrant.Condition, 0, len(values))
	for _, v := range values {
		cond, err := convertMatch(&vectordb.MatchCondition{Field: field, Value: v})
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, cond)
	}
	if except {
		return qdrant.NewFilterAsCondition(&qdrant.Filter{MustNot: conditions}), nil
	}
	return qdrant.NewFilterAsCondition(&qdrant.Filter{Should: conditions}), nil
}

func convertNumericRange(c *vectordb.NumericRangeCondition) (*qdrant.Condition, error) {
	r := &qdrant.Range{Gt: c.Range.Gt, Gte: c.Range.Gte, Lt: c.Range.Lt, Lte: c.Range.Lte}
	if r.Gt == nil && r.Gte == nil && r.Lt == nil && r.Lte == nil {
		return nil, fmt.Errorf("%w: numeric range on %s has no bounds", vectordb.ErrFilterSyntax, c.Field)
	}
	return qdrant.NewRange(c.Field, r), nil
}

func convertTimeRange(c *vectordb.TimeRangeCondition) (*qdrant.Condition, error) {
	r := &qdrant.DatetimeRange{
		Gt:  toTimestamp(c.Range.Gt),
		Gte: toTimestamp(c.Range.Gte),
		Lt:  toTimestamp(c.Range.Lt),
		Lte: toTimestamp(c.Range.Lte),
	}
	if r.Gt == nil && r.Gte == nil && r.Lt == nil && r.Lte == nil {
		return nil, fmt.Errorf("%w: time range on %s has no bounds", vectordb.ErrFilterSyntax, c.Field)
	}
	return qdrant.NewDatetimeRange(c.Field, r), nil
}

func toTimestamp(t *time.Time) *timestamppb.Timestamp {
	if t == nil {
		return nil
	}
	return timestamppb.New(*t)
}

func allStrings(values []any) ([]string, bool) {
	out := make([]string, len(values))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			return nil, false
		}
		out[i] = s
	}
	return out, true
}

func allInts(values []any) ([]int64, bool) {
	out := make([]int64, len(values))
	for i, v := range values {
		switch n := v.(type) {
		case int:
			out[i] = int64(n)
		case int64:
			out[i] = n
		case uint64:
			out[i] = int64(n)
		default:
			return nil, false
		}
	}
	return out, true
}

// ── Payload Conversion ───────────────────────────────────────────────────────

// extractValue recursively converts a Qdrant Value to a Go native type.
func extractValue(v *qdrant.Value) any {
	if v == nil {
		return nil
	}
	switch val := v.Kind.(type) {
	case *qdrant.Value_StringValue:
		return val.StringValue
	case *qdrant.Value_IntegerValue:
		return val.IntegerValue
	case *qdrant.Value_DoubleValue:
		return val.DoubleValue
	case *qdrant.Value_BoolValue:
		return val.BoolValue
	case *qdrant.Value_StructValue:
		if val.StructValue == nil {
			return nil
		}
		out := make(map[string]any, len(val.StructValue.Fields))
		for k, f := range val.StructValue.Fields {
			out[k] = extractValue(f)
		}
		return out
	case *qdrant.Value_ListValue:
		if val.ListValue == nil {
			return nil
		}
		items := make([]any, len(val.ListValue.Values))
		for i, item := range val.ListValue.Values {
			items[i] = extractValue(item)
		}
		return items
	default:
		return nil
	}
}
