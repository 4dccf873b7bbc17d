package forms

import (
	"strconv"
	"strings"
)

// Snapshot is a deep copy of a control value captured at a point in time.
type Snapshot struct {
	Value any
	// Seq increases with every capture on the same form.
	Seq int
}

// Clone returns a deep copy of the captured value.
func (s Snapshot) Clone() any { return cloneValue(s.Value) }

// Lookup resolves a dotted path inside the captured value.
func (s Snapshot) Lookup(path string) (any, bool) {
	v, ok := lookupPath(s.Value, path)
	if !ok {
		return nil, false
	}
	return cloneValue(v), true
}

// Empty reports whether nothing was captured.
func (s Snapshot) Empty() bool { return s.Seq == 0 }

func cloneValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		clone := make(map[string]any, len(typed))
		for k, v := range typed {
			clone[k] = cloneValue(v)
		}
		return clone
	case []any:
		clone := make([]any, len(typed))
		for i, v := range typed {
			clone[i] = cloneValue(v)
		}
		return clone
	case []string:
		return append([]string(nil), typed...)
	default:
		return typed
	}
}

func lookupPath(root any, path string) (any, bool) {
	if path == "" {
		return root, true
	}
	current := root
	for _, segment := range strings.Split(path, ".") {
		switch node := current.(type) {
		case map[string]any:
			next, ok := node[segment]
			if !ok {
				return nil, false
			}
			current = next
		case []any:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			current = node[idx]
		default:
			return nil, false
		}
	}
	return current, true
}
