package filter

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/cel-go/cel"

	"github.com/Aleph-Alpha/vectorindexer/v1/vectordb"
)

// Predicate is a compiled filter expression. It is safe for concurrent use.
type Predicate struct {
	expr    string
	ast     *cel.Ast
	program cel.Program
	columns vectordb.Columns
}

var _ vectordb.Predicate = (*Predicate)(nil)

// Compile parses and checks expr against the configured columns.
//
// Expressions use CEL syntax; the keywords and, or and not are accepted as aliases of
// &&, || and !. With columns configured, referencing an unknown column or comparing a
// column with a value of the wrong type is a syntax error. Without columns every
// identifier is resolved at evaluation time.
//
// An empty expression yields a nil Predicate, which matches everything.
func Compile(expr string, columns vectordb.Columns) (*Predicate, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, nil
	}

	env, err := newEnv(columns)
	if err != nil {
		return nil, fmt.Errorf("creating filter environment: %w", err)
	}

	src := normalize(expr)

	var (
		ast    *cel.Ast
		issues *cel.Issues
	)
	if len(columns) > 0 {
		ast, issues = env.Compile(src)
	} else {
		ast, issues = env.Parse(src)
	}
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("%w: %q: %v", vectordb.ErrFilterSyntax, expr, issues.Err())
	}
	if ast.IsChecked() {
		switch ast.OutputType().String() {
		case "bool", "dyn":
		default:
			return nil, fmt.Errorf("%w: %q evaluates to %s, not bool", vectordb.ErrFilterSyntax, expr, ast.OutputType())
		}
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", vectordb.ErrFilterSyntax, expr, err)
	}

	return &Predicate{expr: expr, ast: ast, program: program, columns: columns}, nil
}

// MustCompile is Compile that panics on error. Intended for tests and constants.
func MustCompile(expr string, columns vectordb.Columns) *Predicate {
	p, err := Compile(expr, columns)
	if err != nil {
		panic(err)
	}
	return p
}

func newEnv(columns vectordb.Columns) (*cel.Env, error) {
	opts := []cel.EnvOption{cel.CrossTypeNumericComparisons(true)}
	for _, name := range columns.Names() {
		opts = append(opts, cel.Variable(name, celType(columns[name])))
	}
	return cel.NewEnv(opts...)
}

// celType declares numeric columns as dyn so that int and float literals can be mixed
// freely (`price <= 3` on a float column).
func celType(t vectordb.ColumnType) *cel.Type {
	switch t {
	case vectordb.ColumnString:
		return cel.StringType
	case vectordb.ColumnBool:
		return cel.BoolType
	case vectordb.ColumnDatetime:
		return cel.TimestampType
	default:
		return cel.DynType
	}
}

// Expression returns the expression as written by the caller.
func (p *Predicate) Expression() string {
	if p == nil {
		return ""
	}
	return p.expr
}

// Match evaluates the predicate against tags. A nil Predicate matches everything;
// evaluation errors (missing attribute, type mismatch) count as no match.
func (p *Predicate) Match(tags map[string]any) bool {
	if p == nil {
		return true
	}
	out, _, err := p.program.Eval(p.activation(tags))
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}

func (p *Predicate) activation(tags map[string]any) map[string]any {
	vars := make(map[string]any, len(tags))
	for k, v := range tags {
		if len(p.columns) > 0 {
			t, ok := p.columns[k]
			if !ok {
				continue
			}
			if t == vectordb.ColumnDatetime {
				if ts, ok := toTime(v); ok {
					vars[k] = ts
				}
				continue
			}
		}
		vars[k] = nativeValue(v)
	}
	return vars
}

// nativeValue widens values to the types CEL compares natively.
func nativeValue(v any) any {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case uint32:
		return uint64(n)
	case float32:
		return float64(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i
		}
		f, _ := n.Float64()
		return f
	default:
		return v
	}
}

func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		ts, err := time.Parse(time.RFC3339Nano, t)
		return ts, err == nil
	}
	return time.Time{}, false
}
