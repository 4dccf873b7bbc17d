package forms

import (
	"errors"
	"sort"
)

var (
	// ErrMissingValue is returned by SetValue when a group or array value does
	// not carry an entry for every child control.
	ErrMissingValue = errors.New("forms: missing value for control")
	// ErrValueShape is returned when a value cannot be applied to a container
	// (for example a string passed to a group).
	ErrValueShape = errors.New("forms: value shape does not match control")
	// ErrIndexOutOfRange is returned by array operations with an invalid index.
	ErrIndexOutOfRange = errors.New("forms: index out of range")
	// ErrNoControl is returned when a dotted path does not resolve.
	ErrNoControl = errors.New("forms: no control at path")
)

// Payload is the small detail map attached to a single error key, for example
// {"bannedWord": "test"} or {"requiredLength": 2, "actualLength": 1}.
type Payload map[string]any

// Errors maps an error key to its payload. A nil Errors value means "no
// error"; helpers in this package never return an empty non-nil map.
type Errors map[string]Payload

// NewError builds a single-key Errors value. A nil payload is stored as an
// empty Payload so the key is still observable.
func NewError(key string, payload Payload) Errors {
	if payload == nil {
		payload = Payload{}
	}
	return Errors{key: payload}
}

// Has reports whether the error key is present.
func (e Errors) Has(key string) bool {
	if e == nil {
		return false
	}
	_, ok := e[key]
	return ok
}

// Get returns the payload for key.
func (e Errors) Get(key string) (Payload, bool) {
	if e == nil {
		return nil, false
	}
	payload, ok := e[key]
	return payload, ok
}

// Keys returns the error keys in sorted order.
func (e Errors) Keys() []string {
	if len(e) == 0 {
		return nil
	}
	keys := make([]string, 0, len(e))
	for key := range e {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Without returns a copy of e with the provided keys removed.
func (e Errors) Without(keys ...string) Errors {
	if len(e) == 0 {
		return nil
	}
	drop := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		drop[key] = struct{}{}
	}
	out := make(Errors, len(e))
	for key, payload := range e {
		if _, ok := drop[key]; ok {
			continue
		}
		out[key] = payload
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Clone returns a shallow copy of the key set with copied payload maps.
func (e Errors) Clone() Errors {
	if len(e) == 0 {
		return nil
	}
	out := make(Errors, len(e))
	for key, payload := range e {
		cp := make(Payload, len(payload))
		for k, v := range payload {
			cp[k] = v
		}
		out[key] = cp
	}
	return out
}

// Merge combines error sets in order. Later sets win when the same key is
// present more than once. The result is nil when no set carries a key.
func Merge(sets ...Errors) Errors {
	var out Errors
	for _, set := range sets {
		for key, payload := range set {
			if out == nil {
				out = make(Errors)
			}
			if payload == nil {
				payload = Payload{}
			}
			out[key] = payload
		}
	}
	return out
}
