// Package values converts loosely typed configuration values.
//
// Values come from TOML (int64, float64, bool, string), from Go callers
// (int, float32) and from environment variables (always strings), so every
// conversion accepts all three shapes. Unconvertible values yield the zero
// value.
package values

import (
	"math"
	"strconv"
	"strings"
)

// String returns v if it is a string.
func String(v any) string {
	s, _ := v.(string)
	return s
}

// Int converts v to an int. Floats are accepted only when whole.
func Int(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case int32:
		return int(n)
	case float64:
		if n == math.Trunc(n) {
			return int(n)
		}
	case float32:
		if f := float64(n); f == math.Trunc(f) {
			return int(f)
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return i
		}
	}
	return 0
}

// Float converts v to a float64.
func Float(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case int32:
		return float64(n)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return f
		}
	}
	return 0
}

// Bool converts v to a bool. Strings use strconv.ParseBool.
func Bool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		return err == nil && parsed
	}
	return false
}

// Flatten turns nested tables into dot-separated keys:
// {"a": {"b": 1}} becomes {"a.b": 1}.
func Flatten(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	flattenInto(out, m, "")
	return out
}

func flattenInto(out, m map[string]any, prefix string) {
	for k, v := range m {
		if prefix != "" {
			k = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			flattenInto(out, nested, k)
			continue
		}
		out[k] = v
	}
}

// Nest is the inverse of Flatten. When a key is both a value and a table
// prefix, the table wins.
func Nest(flat map[string]any) map[string]any {
	out := make(map[string]any)
	for key, v := range flat {
		parts := strings.Split(key, ".")
		table := out
		for _, p := range parts[:len(parts)-1] {
			next, ok := table[p].(map[string]any)
			if !ok {
				next = make(map[string]any)
				table[p] = next
			}
			table = next
		}
		leaf := parts[len(parts)-1]
		if _, isTable := table[leaf].(map[string]any); !isTable {
			table[leaf] = v
		}
	}
	return out
}
