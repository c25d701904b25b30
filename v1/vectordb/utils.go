package vectordb

// NewFilterSet builds a FilterSet from clause options.
//
// Example:
//
//	fs := vectordb.NewFilterSet(
//	    vectordb.Must(vectordb.NewMatch("category", "shoes")),
//	    vectordb.MustNot(vectordb.NewMatch("discontinued", true)),
//	)
func NewFilterSet(clauses ...func(*FilterSet)) *FilterSet {
	fs := &FilterSet{}
	for _, clause := range clauses {
		clause(fs)
	}
	return fs
}

// Must adds conditions that all have to hold.
func Must(conditions ...FilterCondition) func(*FilterSet) {
	return func(fs *FilterSet) {
		fs.Must = appendConditions(fs.Must, conditions)
	}
}

// Should adds conditions of which at least one has to hold.
func Should(conditions ...FilterCondition) func(*FilterSet) {
	return func(fs *FilterSet) {
		fs.Should = appendConditions(fs.Should, conditions)
	}
}

// MustNot adds conditions none of which may hold.
func MustNot(conditions ...FilterCondition) func(*FilterSet) {
	return func(fs *FilterSet) {
		fs.MustNot = appendConditions(fs.MustNot, conditions)
	}
}

func appendConditions(set *ConditionSet, conditions []FilterCondition) *ConditionSet {
	if len(conditions) == 0 {
		return set
	}
	if set == nil {
		set = &ConditionSet{}
	}
	set.Conditions = append(set.Conditions, conditions...)
	return set
}

// NewMatch creates an exact match condition.
func NewMatch(field string, value any) *MatchCondition {
	return &MatchCondition{Field: field, Value: value}
}

// NewMatchAny creates an "in" condition.
func NewMatchAny(field string, values ...any) *MatchAnyCondition {
	return &MatchAnyCondition{Field: field, Values: values}
}

// NewMatchExcept creates a "not in" condition.
func NewMatchExcept(field string, values ...any) *MatchExceptCondition {
	return &MatchExceptCondition{Field: field, Values: values}
}

// NewNumericRange creates a numeric range condition.
func NewNumericRange(field string, r NumericRange) *NumericRangeCondition {
	return &NumericRangeCondition{Field: field, Range: r}
}

// NewTimeRange creates a datetime range condition.
func NewTimeRange(field string, r TimeRange) *TimeRangeCondition {
	return &TimeRangeCondition{Field: field, Range: r}
}

// NewIsNull creates a null check.
func NewIsNull(field string) *IsNullCondition {
	return &IsNullCondition{Field: field}
}

// NewIsEmpty creates an emptiness check.
func NewIsEmpty(field string) *IsEmptyCondition {
	return &IsEmptyCondition{Field: field}
}

// Nested wraps fs as a single condition.
func Nested(fs *FilterSet) *NestedCondition {
	return &NestedCondition{Filter: fs}
}

// IsEmpty reports whether fs has no conditions at all.
func (fs *FilterSet) IsEmpty() bool {
	if fs == nil {
		return true
	}
	return setLen(fs.Must) == 0 && setLen(fs.Should) == 0 && setLen(fs.MustNot) == 0
}

func setLen(cs *ConditionSet) int {
	if cs == nil {
		return 0
	}
	return len(cs.Conditions)
}

// IDs returns the ids of docs in order.
func IDs(docs []*Document) []string {
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		if d != nil {
			ids = append(ids, d.ID)
		}
	}
	return ids
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
