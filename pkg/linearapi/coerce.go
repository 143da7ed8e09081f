package linearapi

import (
	"fmt"
	"strconv"
)

// =============================================================================
// Coercion helpers for decoded GraphQL JSON.
//
// Linear's API is loosely typed at the edges (nullable fields, numbers that
// arrive as float64, relations that may be absent), so every accessor here is
// total: nil and wrong-shaped inputs fall back to the default instead of
// panicking or returning an error.
// =============================================================================

// Str coerces v to a string. Nil returns def; non-string values get a
// textual rendering.
func Str(v any, def string) string {
	if v == nil {
		return def
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Int coerces v to an int. Floats truncate, integer-form text parses,
// everything else (including "4.2") returns def.
func Int(v any, def int) int {
	switch n := v.(type) {
	case nil:
		return def
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return def
		}
		return i
	default:
		return def
	}
}

// Float coerces v to a float64. Numeric text parses; other types return def.
func Float(v any, def float64) float64 {
	switch n := v.(type) {
	case nil:
		return def
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return def
		}
		return f
	default:
		return def
	}
}

// OptStr coerces v to an optional string, preserving absence: nil stays nil
// instead of collapsing into "".
func OptStr(v any) *string {
	if v == nil {
		return nil
	}
	s := Str(v, "")
	return &s
}

// Bool coerces v to a bool using JSON truthiness: false, 0, "" and empty
// containers are false, everything else present is true.
func Bool(v any, def bool) bool {
	switch b := v.(type) {
	case nil:
		return def
	case bool:
		return b
	case string:
		return b != ""
	case float64:
		return b != 0
	case int:
		return b != 0
	case []any:
		return len(b) > 0
	case map[string]any:
		return len(b) > 0
	default:
		return true
	}
}

// NestedStr reads obj[key] as an optional string. Returns nil when obj is
// not a JSON object or the key is absent. This is the flattener for
// relation fields like state { name } and assignee { name }.
func NestedStr(obj any, key string) *string {
	m, ok := obj.(map[string]any)
	if !ok {
		return nil
	}
	return OptStr(m[key])
}
