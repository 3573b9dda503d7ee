package domain

import (
	"github.com/mohae/deepcopy"
)

// Data is the handler-opaque key-value bag attached to a node.
// Handlers use it to stash private continuation state (parsed plans, step tags, history).
type Data map[string]any

// Clone returns a deep copy so that branches never share nested values.
func (d Data) Clone() Data {
	if d == nil {
		return nil
	}
	return deepcopy.Copy(d).(Data)
}

// String returns the value stored under key if it is a string.
func (d Data) String(key string) (string, bool) {
	v, ok := d[key].(string)
	return v, ok
}

// Strings returns the value stored under key as a string slice.
// Slices decoded from JSON ([]any) are converted element by element.
func (d Data) Strings(key string) ([]string, bool) {
	switch v := d[key].(type) {
	case []string:
		return v, true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}

// Int returns the value stored under key as an int, accepting JSON numbers.
func (d Data) Int(key string) (int, bool) {
	switch v := d[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// PromptTrace records one generator call made while resolving a node.
type PromptTrace struct {
	Input   string   `json:"input"`
	Outputs []string `json:"outputs"`
}
