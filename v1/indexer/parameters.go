package indexer

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"strconv"

	"github.com/Aleph-Alpha/vectorindexer/v1/filter"
	"github.com/Aleph-Alpha/vectorindexer/v1/vectordb"
)

// Search parameter names.
const (
	ParamLimit          = "limit"
	ParamFilter         = "filter"
	ParamEf             = "ef"
	ParamExact          = "exact"
	ParamScoreThreshold = "score_threshold"
	ParamWithVector     = "with_vector"
)

// DefaultLimit is the number of matches per query when neither the defaults nor
// the request set a limit.
const DefaultLimit = 20

// ErrInvalidParameter is returned when a search parameter has the wrong type or range.
var ErrInvalidParameter = errors.New("invalid search parameter")

// Parameters are named search parameters as they arrive from a request.
type Parameters map[string]any

// MergeParameters returns defaults overlaid with overrides. On a key collision
// the override wins. The inputs are not modified and may be nil.
func MergeParameters(defaults, overrides Parameters) Parameters {
	merged := make(Parameters, len(defaults)+len(overrides))
	maps.Copy(merged, defaults)
	maps.Copy(merged, overrides)
	return merged
}

// queryOptions resolves merged parameters into backend options. Unknown keys are
// returned so the caller can report them.
func queryOptions(params Parameters, columns vectordb.Columns) (vectordb.QueryOptions, []string, error) {
	opts := vectordb.QueryOptions{Limit: DefaultLimit}
	var unknown []string

	for key, raw := range params {
		var err error
		switch key {
		case ParamLimit:
			opts.Limit, err = toInt(raw)
			if err == nil && opts.Limit <= 0 {
				err = fmt.Errorf("must be positive, got %d", opts.Limit)
			}
		case ParamEf:
			opts.Ef, err = toInt(raw)
			if err == nil && opts.Ef < 0 {
				err = fmt.Errorf("must not be negative, got %d", opts.Ef)
			}
		case ParamExact:
			opts.Exact, err = toBool(raw)
		case ParamWithVector:
			opts.WithVector, err = toBool(raw)
		case ParamScoreThreshold:
			if raw == nil {
				continue
			}
			var f float64
			f, err = toFloat(raw)
			if err == nil {
				opts.ScoreThreshold = vectordb.Ptr(float32(f))
			}
		case ParamFilter:
			opts.Filter, err = toPredicate(raw, columns)
			if err != nil {
				return opts, nil, err
			}
		default:
			unknown = append(unknown, key)
		}
		if err != nil {
			return opts, nil, fmt.Errorf("%w %q: %w", ErrInvalidParameter, key, err)
		}
	}
	return opts, unknown, nil
}

// toPredicate compiles a filter parameter. A nil result means no filter.
func toPredicate(raw any, columns vectordb.Columns) (vectordb.Predicate, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		p, err := filter.Compile(v, columns)
		if err != nil || p == nil {
			// A typed nil *filter.Predicate must not become a non-nil interface.
			return nil, err
		}
		return p, nil
	case vectordb.Predicate:
		return v, nil
	}
	return nil, fmt.Errorf("%w %q: expected a string expression, got %T", ErrInvalidParameter, ParamFilter, raw)
}

func toInt(raw any) (int, error) {
	switch v := raw.(type) {
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case uint:
		return int(v), nil
	case uint64:
		return int(v), nil
	case float32:
		return floatToInt(float64(v))
	case float64:
		// JSON numbers decode as float64.
		return floatToInt(v)
	case string:
		return strconv.Atoi(v)
	}
	return 0, fmt.Errorf("expected an integer, got %T", raw)
}

func floatToInt(f float64) (int, error) {
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("expected an integer, got %v", f)
	}
	return int(f), nil
}

func toFloat(raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		return strconv.ParseFloat(v, 64)
	}
	return 0, fmt.Errorf("expected a number, got %T", raw)
}

func toBool(raw any) (bool, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		return strconv.ParseBool(v)
	}
	return false, fmt.Errorf("expected a boolean, got %T", raw)
}
