package forms

import (
	"fmt"
	"strconv"
)

// Array is an ordered list of controls addressed by index.
type Array struct {
	node
	items   []Control
	factory func() Control
}

// NewArray creates an array from items.
func NewArray(items []Control, opts ...Option) *Array {
	cfg := newConfig(opts)
	a := &Array{factory: cfg.itemFactory}
	a.init(a, cfg)
	for _, item := range items {
		if item == nil {
			continue
		}
		a.items = append(a.items, item)
	}
	a.reattach()
	if cfg.disabled {
		for _, c := range a.items {
			c.Disable(OnlySelf(), Silent())
		}
	}
	a.update(updateOptions{onlySelf: true, silent: true})
	return a
}

func (a *Array) children() []Control {
	if len(a.items) == 0 {
		return nil
	}
	return append([]Control(nil), a.items...)
}

func (a *Array) lookup(segment string) Control {
	i, err := strconv.Atoi(segment)
	if err != nil || i < 0 || i >= len(a.items) {
		return nil
	}
	return a.items[i]
}

func (a *Array) rebuild() {
	out := make([]any, 0, len(a.items))
	all := a.allDisabled()
	for _, c := range a.items {
		if all || c.core().status != StatusDisabled {
			out = append(out, c.core().value)
		}
	}
	a.value = out
}

func (a *Array) reattach() {
	for i, c := range a.items {
		c.core().attach(&a.node, strconv.Itoa(i))
	}
}

// At returns the control at index i or nil.
func (a *Array) At(i int) Control {
	if i < 0 || i >= len(a.items) {
		return nil
	}
	return a.items[i]
}

// Len reports the number of items.
func (a *Array) Len() int { return len(a.items) }

// Controls returns the items in order.
func (a *Array) Controls() []Control { return a.children() }

// Push appends c.
func (a *Array) Push(c Control, opts ...UpdateOption) {
	if c == nil {
		return
	}
	a.items = append(a.items, c)
	a.reattach()
	a.update(resolveUpdate(opts))
}

// Insert places c at index i. Indexes past the end append; negative indexes
// count from the end.
func (a *Array) Insert(i int, c Control, opts ...UpdateOption) {
	if c == nil {
		return
	}
	i = a.clamp(i)
	a.items = append(a.items, nil)
	copy(a.items[i+1:], a.items[i:])
	a.items[i] = c
	a.reattach()
	a.update(resolveUpdate(opts))
}

// RemoveAt drops the item at index i. Negative indexes count from the end.
func (a *Array) RemoveAt(i int, opts ...UpdateOption) error {
	if i < 0 {
		i += len(a.items)
	}
	if i < 0 || i >= len(a.items) {
		return fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, len(a.items))
	}
	removed := a.items[i]
	a.items = append(a.items[:i:i], a.items[i+1:]...)
	removed.core().detach()
	a.reattach()
	a.update(resolveUpdate(opts))
	return nil
}

// Clear removes every item.
func (a *Array) Clear(opts ...UpdateOption) {
	if len(a.items) == 0 {
		return
	}
	for _, c := range a.items {
		c.core().detach()
	}
	a.items = nil
	a.update(resolveUpdate(opts))
}

func (a *Array) clamp(i int) int {
	if i < 0 {
		i += len(a.items)
		if i < 0 {
			i = 0
		}
	}
	if i > len(a.items) {
		i = len(a.items)
	}
	return i
}

// SetValue requires a slice with exactly one entry per item.
func (a *Array) SetValue(value any, opts ...UpdateOption) error {
	values, ok := asSlice(value)
	if !ok {
		return fmt.Errorf("%w: %s expects a list, got %T", ErrValueShape, label(a), value)
	}
	if len(values) < len(a.items) {
		return fmt.Errorf("%w: %q", ErrMissingValue, joinPath(a.Path(), strconv.Itoa(len(values))))
	}
	if len(values) > len(a.items) {
		return fmt.Errorf("%w: %q", ErrNoControl, joinPath(a.Path(), strconv.Itoa(len(a.items))))
	}
	o := resolveUpdate(opts)
	for i, c := range a.items {
		if err := c.SetValue(values[i], o.self()...); err != nil {
			return err
		}
	}
	a.update(o)
	return nil
}

// PatchValue writes the leading entries that have a matching item.
func (a *Array) PatchValue(value any, opts ...UpdateOption) error {
	if value == nil {
		return nil
	}
	values, ok := asSlice(value)
	if !ok {
		return fmt.Errorf("%w: %s expects a list, got %T", ErrValueShape, label(a), value)
	}
	o := resolveUpdate(opts)
	for i, v := range values {
		if i >= len(a.items) {
			break
		}
		if err := a.items[i].PatchValue(v, o.self()...); err != nil {
			return err
		}
	}
	a.update(o)
	return nil
}

// Reset resets each item to the matching entry of value. With an item
// factory the array is first resized to the length of value.
func (a *Array) Reset(value any, opts ...UpdateOption) error {
	return a.resetValue(value, resolveUpdate(opts))
}

func (a *Array) resetValue(value any, o updateOptions) error {
	values, ok := asSlice(value)
	if !ok && value != nil {
		return fmt.Errorf("%w: %s expects a list, got %T", ErrValueShape, label(a), value)
	}
	if a.factory != nil && value != nil {
		a.resize(len(values))
	}
	child := updateOptions{onlySelf: true, silent: o.silent}
	for i, c := range a.items {
		var v any
		if i < len(values) {
			v = values[i]
		}
		if err := c.resetValue(v, child); err != nil {
			return err
		}
	}
	a.dirty = false
	a.touched = false
	if a.parent != nil && !o.onlySelf {
		a.parent.updatePristine()
		a.parent.updateTouched()
	}
	a.update(o)
	return nil
}

func (a *Array) resize(n int) {
	for len(a.items) > n {
		last := a.items[len(a.items)-1]
		a.items = a.items[:len(a.items)-1]
		last.core().detach()
	}
	for len(a.items) < n {
		c := a.factory()
		if c == nil {
			break
		}
		a.items = append(a.items, c)
	}
	a.reattach()
}

func asSlice(value any) ([]any, bool) {
	switch v := value.(type) {
	case []any:
		return v, true
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, true
	case []map[string]any:
		out := make([]any, len(v))
		for i, m := range v {
			out[i] = m
		}
		return out, true
	case Snapshot:
		s, ok := v.Value.([]any)
		return s, ok
	default:
		return nil, false
	}
}
