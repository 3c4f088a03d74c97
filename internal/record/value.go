// Package record models character data as decoded from the party data set
// and resolves dot-separated paths into it.
package record

import (
	"bytes"
	"encoding/json"
	"math"
	"sort"
	"strconv"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	Null Kind = iota
	Bool
	Number
	String
	List
	Map
)

func (k Kind) String() string {
	switch k {
	case Bool:
		return "bool"
	case Number:
		return "number"
	case String:
		return "string"
	case List:
		return "list"
	case Map:
		return "map"
	default:
		return "null"
	}
}

// Value is one node of decoded JSON: null, bool, number, string, list or map.
// The zero Value is Null.
type Value struct {
	raw any
}

// ValueOf wraps data produced by encoding/json (nil, bool, float64,
// json.Number, string, []any, map[string]any). Anything else is Null.
func ValueOf(v any) Value {
	switch x := v.(type) {
	case nil, bool, float64, string, []any, map[string]any:
		return Value{raw: x}
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return Value{}
		}
		return Value{raw: f}
	case int:
		return Value{raw: float64(x)}
	case []string:
		items := make([]any, len(x))
		for i, s := range x {
			items[i] = s
		}
		return Value{raw: items}
	default:
		return Value{}
	}
}

func (v Value) Kind() Kind {
	switch v.raw.(type) {
	case bool:
		return Bool
	case float64:
		return Number
	case string:
		return String
	case []any:
		return List
	case map[string]any:
		return Map
	default:
		return Null
	}
}

func (v Value) IsNull() bool { return v.Kind() == Null }

// Lookup returns the member named key. Only maps have members; every other
// kind, a missing key and an explicit null all report false.
func (v Value) Lookup(key string) (Value, bool) {
	m, ok := v.raw.(map[string]any)
	if !ok {
		return Value{}, false
	}
	child, ok := m[key]
	if !ok || child == nil {
		return Value{}, false
	}
	return ValueOf(child), true
}

// Items returns the elements of a list, or false for any other kind.
func (v Value) Items() ([]Value, bool) {
	l, ok := v.raw.([]any)
	if !ok {
		return nil, false
	}
	out := make([]Value, len(l))
	for i, item := range l {
		out[i] = ValueOf(item)
	}
	return out, true
}

// Keys returns the sorted member names of a map.
func (v Value) Keys() []string {
	m, ok := v.raw.(map[string]any)
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Truthy follows JavaScript truthiness: null, false, 0, NaN and "" are
// falsy, everything else (empty lists and maps included) is truthy.
func (v Value) Truthy() bool {
	switch x := v.raw.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0 && !math.IsNaN(x)
	case string:
		return x != ""
	default:
		return true
	}
}

// String is the display form written into documents. Lists and maps are
// rendered as compact JSON with sorted keys.
func (v Value) String() string {
	switch x := v.raw.(type) {
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return formatNumber(x)
	case string:
		return x
	default:
		return marshalCompact(x)
	}
}

func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	abs := math.Abs(f)
	if abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func marshalCompact(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return ""
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n"))
}
