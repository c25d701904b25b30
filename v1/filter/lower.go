package filter

import (
	"errors"
	"fmt"
	"time"

	celast "github.com/google/cel-go/common/ast"
	"github.com/google/cel-go/common/operators"
	"github.com/google/cel-go/common/types"

	"github.com/Aleph-Alpha/vectorindexer/v1/vectordb"
)

// ErrNotLowerable is returned by Lower for valid expressions that have no engine
// filter equivalent, e.g. arithmetic on columns. It wraps vectordb.ErrFilterSyntax.
var ErrNotLowerable = fmt.Errorf("%w: not expressible as an engine filter", vectordb.ErrFilterSyntax)

// Lower translates the predicate into an engine neutral FilterSet.
//
// Supported forms are comparisons between a column and a literal (either side),
// `column in [literals]`, the logical operators and parentheses. Datetime literals
// are written as timestamp("2024-01-02T15:04:05Z").
func (p *Predicate) Lower() (*vectordb.FilterSet, error) {
	if p == nil {
		return nil, nil
	}
	fs, err := lowerExpr(p.ast.NativeRep().Expr())
	if err != nil {
		return nil, fmt.Errorf("%q: %w", p.expr, err)
	}
	return fs, nil
}

func lowerExpr(e celast.Expr) (*vectordb.FilterSet, error) {
	if e.Kind() == celast.IdentKind {
		// a bare boolean column
		return vectordb.NewFilterSet(vectordb.Must(vectordb.NewMatch(e.AsIdent(), true))), nil
	}
	if e.Kind() != celast.CallKind {
		return nil, notLowerable(e, "expected a comparison")
	}
	call := e.AsCall()
	args := call.Args()

	switch call.FunctionName() {
	case operators.LogicalAnd:
		conds, err := lowerChildren(args, func(fs *vectordb.FilterSet) bool { return onlyMust(fs) }, func(fs *vectordb.FilterSet) []vectordb.FilterCondition { return fs.Must.Conditions })
		if err != nil {
			return nil, err
		}
		return vectordb.NewFilterSet(vectordb.Must(conds...)), nil

	case operators.LogicalOr:
		conds, err := lowerChildren(args, func(fs *vectordb.FilterSet) bool { return onlyShould(fs) }, func(fs *vectordb.FilterSet) []vectordb.FilterCondition { return fs.Should.Conditions })
		if err != nil {
			return nil, err
		}
		return vectordb.NewFilterSet(vectordb.Should(conds...)), nil

	case operators.LogicalNot:
		inner, err := lowerExpr(args[0])
		if err != nil {
			return nil, err
		}
		// !(!x) and !(a && b) keep their structure through a nested condition.
		if onlyMustNot(inner) && len(inner.MustNot.Conditions) == 1 {
			return vectordb.NewFilterSet(vectordb.Must(inner.MustNot.Conditions[0])), nil
		}
		return vectordb.NewFilterSet(vectordb.MustNot(asCondition(inner))), nil

	case operators.In:
		return lowerIn(args)

	case operators.Equals, operators.NotEquals,
		operators.Less, operators.LessEquals,
		operators.Greater, operators.GreaterEquals:
		return lowerComparison(call.FunctionName(), args)
	}

	return nil, notLowerable(e, "unsupported function "+call.FunctionName())
}

// lowerChildren lowers the operands of a logical operator, splicing children that
// use the same clause so that a && b && c yields one flat Must list.
func lowerChildren(
	args []celast.Expr,
	sameClause func(*vectordb.FilterSet) bool,
	conditions func(*vectordb.FilterSet) []vectordb.FilterCondition,
) ([]vectordb.FilterCondition, error) {
	var out []vectordb.FilterCondition
	for _, a := range args {
		fs, err := lowerExpr(a)
		if err != nil {
			return nil, err
		}
		if sameClause(fs) {
			out = append(out, conditions(fs)...)
			continue
		}
		out = append(out, asCondition(fs))
	}
	return out, nil
}

// asCondition collapses a single Must condition, nesting anything else.
func asCondition(fs *vectordb.FilterSet) vectordb.FilterCondition {
	if onlyMust(fs) && len(fs.Must.Conditions) == 1 {
		return fs.Must.Conditions[0]
	}
	return vectordb.Nested(fs)
}

func onlyMust(fs *vectordb.FilterSet) bool {
	return fs.Must != nil && fs.Should == nil && fs.MustNot == nil
}

func onlyShould(fs *vectordb.FilterSet) bool {
	return fs.Should != nil && fs.Must == nil && fs.MustNot == nil
}

func onlyMustNot(fs *vectordb.FilterSet) bool {
	return fs.MustNot != nil && fs.Must == nil && fs.Should == nil
}

func lowerIn(args []celast.Expr) (*vectordb.FilterSet, error) {
	if len(args) != 2 || args[0].Kind() != celast.IdentKind || args[1].Kind() != celast.ListKind {
		return nil, fmt.Errorf("%w: `in` needs a column on the left and a list literal on the right", ErrNotLowerable)
	}
	field := args[0].AsIdent()
	var values []any
	for _, el := range args[1].AsList().Elements() {
		v, err := literalValue(el)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return vectordb.NewFilterSet(vectordb.Must(vectordb.NewMatchAny(field, values...))), nil
}

// mirrored flips comparison operators for `literal op column`.
var mirrored = map[string]string{
	operators.Less:          operators.Greater,
	operators.LessEquals:    operators.GreaterEquals,
	operators.Greater:       operators.Less,
	operators.GreaterEquals: operators.LessEquals,
	operators.Equals:        operators.Equals,
	operators.NotEquals:     operators.NotEquals,
}

func lowerComparison(op string, args []celast.Expr) (*vectordb.FilterSet, error) {
	left, right := args[0], args[1]
	if left.Kind() != celast.IdentKind {
		left, right = right, left
		op = mirrored[op]
	}
	if left.Kind() != celast.IdentKind {
		return nil, fmt.Errorf("%w: comparisons need a column on one side", ErrNotLowerable)
	}
	field := left.AsIdent()
	value, err := literalValue(right)
	if err != nil {
		return nil, err
	}

	switch v := value.(type) {
	case nil:
		switch op {
		case operators.Equals:
			return vectordb.NewFilterSet(vectordb.Must(vectordb.NewIsNull(field))), nil
		case operators.NotEquals:
			return vectordb.NewFilterSet(vectordb.MustNot(vectordb.NewIsNull(field))), nil
		}
		return nil, fmt.Errorf("%w: null only supports == and !=", ErrNotLowerable)

	case bool:
		switch op {
		case operators.Equals:
			return vectordb.NewFilterSet(vectordb.Must(vectordb.NewMatch(field, v))), nil
		case operators.NotEquals:
			return vectordb.NewFilterSet(vectordb.Must(vectordb.NewMatch(field, !v))), nil
		}
		return nil, fmt.Errorf("%w: booleans only support == and !=", ErrNotLowerable)

	case string:
		switch op {
		case operators.Equals:
			return vectordb.NewFilterSet(vectordb.Must(vectordb.NewMatch(field, v))), nil
		case operators.NotEquals:
			return vectordb.NewFilterSet(vectordb.Must(vectordb.NewMatchExcept(field, v))), nil
		}
		return nil, fmt.Errorf("%w: strings only support == and !=", ErrNotLowerable)

	case int64:
		switch op {
		case operators.Equals:
			return vectordb.NewFilterSet(vectordb.Must(vectordb.NewMatch(field, v))), nil
		case operators.NotEquals:
			return vectordb.NewFilterSet(vectordb.Must(vectordb.NewMatchExcept(field, v))), nil
		}
		return numericRange(field, op, float64(v))

	case float64:
		if op == operators.Equals {
			return vectordb.NewFilterSet(vectordb.Must(vectordb.NewNumericRange(field, vectordb.NumericRange{Gte: vectordb.Ptr(v), Lte: vectordb.Ptr(v)}))), nil
		}
		if op == operators.NotEquals {
			return vectordb.NewFilterSet(vectordb.MustNot(vectordb.NewNumericRange(field, vectordb.NumericRange{Gte: vectordb.Ptr(v), Lte: vectordb.Ptr(v)}))), nil
		}
		return numericRange(field, op, v)

	case time.Time:
		var r vectordb.TimeRange
		switch op {
		case operators.Less:
			r.Lt = &v
		case operators.LessEquals:
			r.Lte = &v
		case operators.Greater:
			r.Gt = &v
		case operators.GreaterEquals:
			r.Gte = &v
		case operators.Equals:
			r.Gte, r.Lte = &v, &v
		default:
			return nil, fmt.Errorf("%w: datetimes do not support !=", ErrNotLowerable)
		}
		return vectordb.NewFilterSet(vectordb.Must(vectordb.NewTimeRange(field, r))), nil
	}

	return nil, fmt.Errorf("%w: unsupported literal %T", ErrNotLowerable, value)
}

func numericRange(field, op string, v float64) (*vectordb.FilterSet, error) {
	var r vectordb.NumericRange
	switch op {
	case operators.Less:
		r.Lt = &v
	case operators.LessEquals:
		r.Lte = &v
	case operators.Greater:
		r.Gt = &v
	case operators.GreaterEquals:
		r.Gte = &v
	default:
		return nil, fmt.Errorf("%w: unsupported operator %s", ErrNotLowerable, op)
	}
	return vectordb.NewFilterSet(vectordb.Must(vectordb.NewNumericRange(field, r))), nil
}

// literalValue returns the Go value of a literal, a negated numeric literal or a
// timestamp("...") call.
func literalValue(e celast.Expr) (any, error) {
	switch e.Kind() {
	case celast.LiteralKind:
		switch lit := e.AsLiteral().(type) {
		case types.Null:
			return nil, nil
		case types.Uint:
			return int64(lit), nil
		default:
			return lit.Value(), nil
		}

	case celast.CallKind:
		call := e.AsCall()
		args := call.Args()
		switch {
		case call.FunctionName() == operators.Negate && len(args) == 1:
			v, err := literalValue(args[0])
			if err != nil {
				return nil, err
			}
			switch n := v.(type) {
			case int64:
				return -n, nil
			case float64:
				return -n, nil
			}
		case call.FunctionName() == "timestamp" && len(args) == 1 && args[0].Kind() == celast.LiteralKind:
			s, ok := args[0].AsLiteral().Value().(string)
			if !ok {
				break
			}
			ts, err := time.Parse(time.RFC3339Nano, s)
			if err != nil {
				return nil, fmt.Errorf("%w: bad timestamp %q", vectordb.ErrFilterSyntax, s)
			}
			return ts, nil
		}
	}
	return nil, notLowerable(e, "expected a literal")
}

func notLowerable(e celast.Expr, msg string) error {
	return fmt.Errorf("%w: %s (expression id %d)", ErrNotLowerable, msg, e.ID())
}

// IsNotLowerable reports whether err came from a predicate that is valid but cannot be
// pushed down to an engine.
func IsNotLowerable(err error) bool {
	return errors.Is(err, ErrNotLowerable)
}
