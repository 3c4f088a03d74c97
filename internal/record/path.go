package record

import (
	"sort"
	"strings"
)

// Resolve walks root by the dot-separated segments of path. It reports
// false as soon as a segment is missing, null, or applied to something that
// is not a map. A literal dot inside a key cannot be addressed.
func Resolve(root Value, path string) (Value, bool) {
	if root.IsNull() {
		return Value{}, false
	}
	cur := root
	for _, seg := range strings.Split(path, ".") {
		next, ok := cur.Lookup(seg)
		if !ok {
			return Value{}, false
		}
		cur = next
	}
	return cur, true
}

// Leaf is one addressable scalar or empty container within a record.
type Leaf struct {
	Path  string
	Value Value
}

// Flatten lists every leaf reachable through map members, sorted by path.
// Lists are leaves: paths cannot index into them.
func Flatten(root Value) []Leaf {
	var out []Leaf
	var walk func(prefix string, v Value)
	walk = func(prefix string, v Value) {
		keys := v.Keys()
		if v.Kind() != Map || len(keys) == 0 {
			if prefix != "" {
				out = append(out, Leaf{Path: prefix, Value: v})
			}
			return
		}
		for _, k := range keys {
			child, _ := v.Lookup(k)
			p := k
			if prefix != "" {
				p = prefix + "." + k
			}
			walk(p, child)
		}
	}
	walk("", root)
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
