package record

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
)

// Record is the data for one character.
type Record struct {
	Value
}

// Name returns the record's "name" member when it is a non-empty string.
func (r *Record) Name() (string, bool) {
	v, ok := r.Lookup("name")
	if !ok || v.Kind() != String {
		return "", false
	}
	s := v.String()
	return s, s != ""
}

// Dataset is the decoded party data file: {"characters": {<key>: {...}}}.
type Dataset struct {
	characters map[string]any
}

// Decode parses a party data document. The top level must be a JSON object;
// a missing or malformed "characters" member yields an empty data set.
func Decode(r io.Reader) (*Dataset, error) {
	dec := json.NewDecoder(r)
	var top any
	if err := dec.Decode(&top); err != nil {
		return nil, fmt.Errorf("decode party data: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("decode party data: trailing data after top-level value")
	}
	obj, ok := top.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("decode party data: top level is %s, want object", ValueOf(top).Kind())
	}
	chars, _ := obj["characters"].(map[string]any)
	return &Dataset{characters: chars}, nil
}

// Character returns the record stored under key. Null entries count as
// missing.
func (d *Dataset) Character(key string) (*Record, bool) {
	if d == nil {
		return nil, false
	}
	raw, ok := d.characters[key]
	if !ok || raw == nil {
		return nil, false
	}
	return &Record{Value: ValueOf(raw)}, true
}

// Keys lists the character keys in sorted order.
func (d *Dataset) Keys() []string {
	if d == nil {
		return nil
	}
	keys := make([]string, 0, len(d.characters))
	for k := range d.characters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
