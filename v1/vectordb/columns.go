package vectordb

import (
	"fmt"
	"sort"
	"strings"
)

// ColumnType is the scalar type of a filterable column.
type ColumnType string

const (
	ColumnInt      ColumnType = "int"
	ColumnFloat    ColumnType = "float"
	ColumnString   ColumnType = "str"
	ColumnBool     ColumnType = "bool"
	ColumnDatetime ColumnType = "datetime"
)

// ParseColumnType accepts the canonical names and their common aliases.
func ParseColumnType(s string) (ColumnType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "int", "int32", "int64", "integer":
		return ColumnInt, nil
	case "float", "float32", "float64", "double":
		return ColumnFloat, nil
	case "str", "string", "keyword", "varchar":
		return ColumnString, nil
	case "bool", "boolean":
		return ColumnBool, nil
	case "datetime", "timestamp", "time":
		return ColumnDatetime, nil
	}
	return "", fmt.Errorf("unknown column type %q", s)
}

// Columns maps column names to their types.
type Columns map[string]ColumnType

// Names returns the column names in sorted order.
func (c Columns) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseColumns builds Columns from a name to type-name mapping.
func ParseColumns(raw map[string]string) (Columns, error) {
	cols := make(Columns, len(raw))
	for name, typ := range raw {
		if name == "" {
			return nil, fmt.Errorf("column with empty name")
		}
		t, err := ParseColumnType(typ)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", name, err)
		}
		cols[name] = t
	}
	return cols, nil
}
