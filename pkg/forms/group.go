package forms

import (
	"fmt"
	"sort"
)

// Child names a control inside a group. Groups keep insertion order.
type Child struct {
	Name    string
	Control Control
}

// Group aggregates named child controls. A group whose members are added and
// removed at runtime doubles as a record.
type Group struct {
	node
	names    []string
	controls map[string]Control
}

// NewGroup creates a group from children. Duplicate names keep the first
// control.
func NewGroup(children []Child, opts ...Option) *Group {
	cfg := newConfig(opts)
	g := &Group{controls: make(map[string]Control, len(children))}
	g.init(g, cfg)
	for _, child := range children {
		g.register(child.Name, child.Control)
	}
	if cfg.disabled {
		for _, c := range g.children() {
			c.Disable(OnlySelf(), Silent())
		}
	}
	g.update(updateOptions{onlySelf: true, silent: true})
	return g
}

func (g *Group) children() []Control {
	if len(g.names) == 0 {
		return nil
	}
	out := make([]Control, 0, len(g.names))
	for _, name := range g.names {
		out = append(out, g.controls[name])
	}
	return out
}

func (g *Group) lookup(segment string) Control {
	c, ok := g.controls[segment]
	if !ok {
		return nil
	}
	return c
}

func (g *Group) rebuild() {
	out := make(map[string]any, len(g.names))
	all := g.allDisabled()
	for _, name := range g.names {
		c := g.controls[name]
		if all || c.core().status != StatusDisabled {
			out[name] = c.core().value
		}
	}
	g.value = out
}

func (g *Group) register(name string, c Control) bool {
	if name == "" || c == nil {
		return false
	}
	if _, exists := g.controls[name]; exists {
		return false
	}
	c.core().attach(&g.node, name)
	g.names = append(g.names, name)
	g.controls[name] = c
	return true
}

// Control returns the named child or nil.
func (g *Group) Control(name string) Control { return g.lookup(name) }

// Controls returns the children in insertion order.
func (g *Group) Controls() []Child {
	out := make([]Child, 0, len(g.names))
	for _, name := range g.names {
		out = append(out, Child{Name: name, Control: g.controls[name]})
	}
	return out
}

// Names returns the child names in insertion order.
func (g *Group) Names() []string { return append([]string(nil), g.names...) }

// Len reports the number of children.
func (g *Group) Len() int { return len(g.names) }

// Contains reports whether an enabled child is registered under name.
func (g *Group) Contains(name string) bool {
	c, ok := g.controls[name]
	return ok && c.Enabled()
}

// AddControl registers c under name and re-validates. An existing child
// with the same name is kept.
func (g *Group) AddControl(name string, c Control, opts ...UpdateOption) {
	if !g.register(name, c) {
		return
	}
	g.update(resolveUpdate(opts))
}

// RemoveControl drops the named child and re-validates.
func (g *Group) RemoveControl(name string, opts ...UpdateOption) {
	if !g.unregister(name) {
		return
	}
	g.update(resolveUpdate(opts))
}

// SetControl replaces the named child, registering it if absent.
func (g *Group) SetControl(name string, c Control, opts ...UpdateOption) {
	g.unregister(name)
	g.register(name, c)
	g.update(resolveUpdate(opts))
}

func (g *Group) unregister(name string) bool {
	c, ok := g.controls[name]
	if !ok {
		return false
	}
	delete(g.controls, name)
	for i, n := range g.names {
		if n == name {
			g.names = append(g.names[:i:i], g.names[i+1:]...)
			break
		}
	}
	c.core().detach()
	return true
}

// SetValue requires a map with an entry for every child. Unknown keys are
// rejected.
func (g *Group) SetValue(value any, opts ...UpdateOption) error {
	values, ok := asMap(value)
	if !ok {
		return fmt.Errorf("%w: %s expects an object, got %T", ErrValueShape, label(g), value)
	}
	for _, name := range g.names {
		if _, ok := values[name]; !ok {
			return fmt.Errorf("%w: %q", ErrMissingValue, joinPath(g.Path(), name))
		}
	}
	if unknown := g.unknownKeys(values); len(unknown) > 0 {
		return fmt.Errorf("%w: %q", ErrNoControl, joinPath(g.Path(), unknown[0]))
	}
	o := resolveUpdate(opts)
	for _, name := range g.names {
		if err := g.controls[name].SetValue(values[name], o.self()...); err != nil {
			return err
		}
	}
	g.update(o)
	return nil
}

// PatchValue writes the entries present in value and ignores unknown keys.
func (g *Group) PatchValue(value any, opts ...UpdateOption) error {
	if value == nil {
		return nil
	}
	values, ok := asMap(value)
	if !ok {
		return fmt.Errorf("%w: %s expects an object, got %T", ErrValueShape, label(g), value)
	}
	o := resolveUpdate(opts)
	for _, name := range g.names {
		v, ok := values[name]
		if !ok {
			continue
		}
		if err := g.controls[name].PatchValue(v, o.self()...); err != nil {
			return err
		}
	}
	g.update(o)
	return nil
}

// PatchPaths writes values addressed by dotted path relative to the group.
// Paths are applied in sorted order; an unresolved path aborts the patch.
func (g *Group) PatchPaths(values map[string]any, opts ...UpdateOption) error {
	paths := make([]string, 0, len(values))
	for path := range values {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	o := resolveUpdate(opts)
	for _, path := range paths {
		c := g.Get(path)
		if c == nil {
			return fmt.Errorf("%w: %q", ErrNoControl, joinPath(g.Path(), path))
		}
		if err := c.PatchValue(values[path], o.options()...); err != nil {
			return err
		}
	}
	return nil
}

// Reset resets every child to the matching entry of value (nil when absent).
func (g *Group) Reset(value any, opts ...UpdateOption) error {
	return g.resetValue(value, resolveUpdate(opts))
}

func (g *Group) resetValue(value any, o updateOptions) error {
	values, ok := asMap(value)
	if !ok && value != nil {
		return fmt.Errorf("%w: %s expects an object, got %T", ErrValueShape, label(g), value)
	}
	child := updateOptions{onlySelf: true, silent: o.silent}
	for _, name := range g.names {
		if err := g.controls[name].resetValue(values[name], child); err != nil {
			return err
		}
	}
	g.dirty = false
	g.touched = false
	if g.parent != nil && !o.onlySelf {
		g.parent.updatePristine()
		g.parent.updateTouched()
	}
	g.update(o)
	return nil
}

func (g *Group) unknownKeys(values map[string]any) []string {
	var unknown []string
	for key := range values {
		if _, ok := g.controls[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	return unknown
}

func asMap(value any) (map[string]any, bool) {
	switch v := value.(type) {
	case map[string]any:
		return v, true
	case Snapshot:
		m, ok := v.Value.(map[string]any)
		return m, ok
	case map[string]string:
		out := make(map[string]any, len(v))
		for k, s := range v {
			out[k] = s
		}
		return out, true
	case map[string]bool:
		out := make(map[string]any, len(v))
		for k, b := range v {
			out[k] = b
		}
		return out, true
	default:
		return nil, false
	}
}

func label(c Control) string {
	if path := c.Path(); path != "" {
		return path
	}
	return "root"
}
