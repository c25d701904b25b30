package vectordb

import "time"

// FilterCondition is implemented by every condition type of a FilterSet.
type FilterCondition interface {
	IsFilterCondition()
}

// FilterSet is an engine agnostic filter: all Must conditions hold, at least one
// Should condition holds (when any are given) and no MustNot condition holds.
type FilterSet struct {
	Must    *ConditionSet `json:"must,omitempty"`
	Should  *ConditionSet `json:"should,omitempty"`
	MustNot *ConditionSet `json:"mustNot,omitempty"`
}

// ConditionSet groups conditions of one clause.
type ConditionSet struct {
	Conditions []FilterCondition `json:"conditions,omitempty"`
}

// MatchCondition holds when Field equals Value exactly.
type MatchCondition struct {
	Field string `json:"field"`
	Value any    `json:"equalTo"`
}

func (c *MatchCondition) IsFilterCondition() {}

// MatchAnyCondition holds when Field equals one of Values.
type MatchAnyCondition struct {
	Field  string `json:"field"`
	Values []any  `json:"anyOf"`
}

func (c *MatchAnyCondition) IsFilterCondition() {}

// MatchExceptCondition holds when Field equals none of Values.
type MatchExceptCondition struct {
	Field  string `json:"field"`
	Values []any  `json:"noneOf"`
}

func (c *MatchExceptCondition) IsFilterCondition() {}

// NumericRange bounds a numeric field. Nil bounds are open.
type NumericRange struct {
	Gt  *float64 `json:"greaterThan,omitempty"`
	Gte *float64 `json:"greaterThanOrEqualTo,omitempty"`
	Lt  *float64 `json:"lessThan,omitempty"`
	Lte *float64 `json:"lessThanOrEqualTo,omitempty"`
}

// NumericRangeCondition holds when Field lies within Range.
type NumericRangeCondition struct {
	Field string       `json:"field"`
	Range NumericRange `json:"range"`
}

func (c *NumericRangeCondition) IsFilterCondition() {}

// TimeRange bounds a datetime field. Nil bounds are open.
type TimeRange struct {
	Gt  *time.Time `json:"after,omitempty"`
	Gte *time.Time `json:"atOrAfter,omitempty"`
	Lt  *time.Time `json:"before,omitempty"`
	Lte *time.Time `json:"atOrBefore,omitempty"`
}

// TimeRangeCondition holds when Field lies within Range.
type TimeRangeCondition struct {
	Field string    `json:"field"`
	Range TimeRange `json:"range"`
}

func (c *TimeRangeCondition) IsFilterCondition() {}

// IsNullCondition holds when Field is explicitly null.
type IsNullCondition struct {
	Field string `json:"field"`
}

func (c *IsNullCondition) IsFilterCondition() {}

// IsEmptyCondition holds when Field is missing, null or an empty list.
type IsEmptyCondition struct {
	Field string `json:"field"`
}

func (c *IsEmptyCondition) IsFilterCondition() {}

// NestedCondition embeds a complete FilterSet as a single condition, which is how
// disjunctions inside conjunctions (and the reverse) are expressed.
type NestedCondition struct {
	Filter *FilterSet `json:"filter"`
}

func (c *NestedCondition) IsFilterCondition() {}
