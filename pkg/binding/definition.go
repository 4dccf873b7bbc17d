// Package binding declares forms as data. A Definition lists fields by
// dotted path with their directives. It can be read from struct tags, YAML
// or an OpenAPI request body and built into a forms.Group. Bind keeps a Go
// struct in sync with the built controls.
package binding

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-formkit/pkg/forms"
)

// ErrInvalidDefinition is returned for definitions that cannot be built.
var ErrInvalidDefinition = errors.New("binding: invalid definition")

// FieldDef declares one leaf control.
type FieldDef struct {
	// Path is the dotted location of the field, e.g. "address.city".
	Path        string         `yaml:"path" json:"path"`
	Default     any            `yaml:"default,omitempty" json:"default,omitempty"`
	Validators  []DirectiveRef `yaml:"validators,omitempty" json:"validators,omitempty"`
	Async       []DirectiveRef `yaml:"async,omitempty" json:"async,omitempty"`
	UpdateOn    string         `yaml:"updateOn,omitempty" json:"updateOn,omitempty"`
	NonNullable bool           `yaml:"nonNullable,omitempty" json:"nonNullable,omitempty"`
	Disabled    bool           `yaml:"disabled,omitempty" json:"disabled,omitempty"`
}

// GroupDef attaches directives to an intermediate group. Path "" is the
// root.
type GroupDef struct {
	Path       string         `yaml:"path" json:"path"`
	Validators []DirectiveRef `yaml:"validators,omitempty" json:"validators,omitempty"`
	UpdateOn   string         `yaml:"updateOn,omitempty" json:"updateOn,omitempty"`
}

// Definition is a declarative form.
type Definition struct {
	Name     string     `yaml:"name,omitempty" json:"name,omitempty"`
	UpdateOn string     `yaml:"updateOn,omitempty" json:"updateOn,omitempty"`
	Fields   []FieldDef `yaml:"fields" json:"fields"`
	Groups   []GroupDef `yaml:"groups,omitempty" json:"groups,omitempty"`
}

// Field returns the field declared at path.
func (d Definition) Field(path string) (FieldDef, bool) {
	for _, f := range d.Fields {
		if f.Path == path {
			return f, true
		}
	}
	return FieldDef{}, false
}

// Validate checks paths for duplicates and leaf/group collisions.
func (d Definition) Validate() error {
	seen := make(map[string]bool, len(d.Fields))
	prefixes := make(map[string]bool)
	for _, f := range d.Fields {
		path := strings.TrimSpace(f.Path)
		if path == "" || strings.Contains(path, "..") || strings.HasPrefix(path, ".") || strings.HasSuffix(path, ".") {
			return fmt.Errorf("%w: bad field path %q", ErrInvalidDefinition, f.Path)
		}
		if seen[path] {
			return fmt.Errorf("%w: duplicate field %q", ErrInvalidDefinition, path)
		}
		seen[path] = true
		segments := strings.Split(path, ".")
		for i := 1; i < len(segments); i++ {
			prefixes[strings.Join(segments[:i], ".")] = true
		}
	}
	for path := range seen {
		if prefixes[path] {
			return fmt.Errorf("%w: %q is both a field and a group", ErrInvalidDefinition, path)
		}
	}
	for _, g := range d.Groups {
		if g.Path != "" && !prefixes[g.Path] {
			return fmt.Errorf("%w: group %q has no fields", ErrInvalidDefinition, g.Path)
		}
	}
	return nil
}

type pendingGroup struct {
	names   []string
	groups  map[string]*pendingGroup
	fields  map[string]FieldDef
	isGroup map[string]bool
	def     GroupDef
}

func newPendingGroup() *pendingGroup {
	return &pendingGroup{
		groups:  make(map[string]*pendingGroup),
		fields:  make(map[string]FieldDef),
		isGroup: make(map[string]bool),
	}
}

func (p *pendingGroup) add(segments []string, f FieldDef) {
	name := segments[0]
	if len(segments) == 1 {
		p.names = append(p.names, name)
		p.fields[name] = f
		return
	}
	child, ok := p.groups[name]
	if !ok {
		child = newPendingGroup()
		p.groups[name] = child
		p.names = append(p.names, name)
		p.isGroup[name] = true
	}
	child.add(segments[1:], f)
}

func (p *pendingGroup) at(segments []string) *pendingGroup {
	cur := p
	for _, s := range segments {
		if s == "" {
			continue
		}
		next, ok := cur.groups[s]
		if !ok {
			return nil
		}
		cur = next
	}
	return cur
}

// Build creates the control tree. Directives are resolved through reg;
// a nil registry uses NewRegistry().
func (d Definition) Build(reg *Registry) (*forms.Group, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if reg == nil {
		reg = NewRegistry()
	}

	root := newPendingGroup()
	root.def.UpdateOn = d.UpdateOn
	for _, f := range d.Fields {
		root.add(strings.Split(strings.TrimSpace(f.Path), "."), f)
	}
	for _, g := range d.Groups {
		var segments []string
		if g.Path != "" {
			segments = strings.Split(g.Path, ".")
		}
		target := root.at(segments)
		if target == nil {
			return nil, fmt.Errorf("%w: unknown group %q", ErrInvalidDefinition, g.Path)
		}
		target.def.Validators = append(target.def.Validators, g.Validators...)
		if g.UpdateOn != "" {
			target.def.UpdateOn = g.UpdateOn
		}
	}

	var attaches []func()
	group, err := buildGroup(reg, root, &attaches)
	if err != nil {
		return nil, err
	}
	for _, fn := range attaches {
		fn()
	}
	return group, nil
}

func buildGroup(reg *Registry, p *pendingGroup, attaches *[]func()) (*forms.Group, error) {
	children := make([]forms.Child, 0, len(p.names))
	for _, name := range p.names {
		if p.isGroup[name] {
			child, err := buildGroup(reg, p.groups[name], attaches)
			if err != nil {
				return nil, err
			}
			children = append(children, forms.C(name, child))
			continue
		}
		field, err := buildField(reg, p.fields[name], attaches)
		if err != nil {
			return nil, err
		}
		children = append(children, forms.C(name, field))
	}

	rules, err := resolveAll(reg, p.def.Validators)
	if err != nil {
		return nil, err
	}
	opts := []forms.Option{forms.WithValidators(rules.Validators...)}
	if mode := forms.ParseUpdateOn(p.def.UpdateOn); mode != "" {
		opts = append(opts, forms.WithUpdateOn(mode))
	}
	group := forms.NewGroup(children, opts...)
	queueAttach(group, rules, attaches)
	return group, nil
}

func buildField(reg *Registry, f FieldDef, attaches *[]func()) (*forms.Field, error) {
	rules, err := resolveAll(reg, f.Validators)
	if err != nil {
		return nil, fmt.Errorf("binding: field %s: %w", f.Path, err)
	}
	async, err := resolveAll(reg, f.Async)
	if err != nil {
		return nil, fmt.Errorf("binding: field %s: %w", f.Path, err)
	}
	opts := []forms.Option{
		forms.WithValidators(rules.Validators...),
		forms.WithAsyncValidators(append(rules.Async, async.Async...)...),
	}
	if mode := forms.ParseUpdateOn(f.UpdateOn); mode != "" {
		opts = append(opts, forms.WithUpdateOn(mode))
	}
	if f.NonNullable {
		opts = append(opts, forms.NonNullable())
	}
	if f.Disabled {
		opts = append(opts, forms.Disabled())
	}
	field := forms.NewField(f.Default, opts...)
	rules.Attach = append(rules.Attach, async.Attach...)
	queueAttach(field, rules, attaches)
	return field, nil
}

type resolved struct {
	Validators []forms.Validator
	Async      []forms.AsyncValidator
	Attach     []func(forms.Control)
}

func resolveAll(reg *Registry, refs []DirectiveRef) (resolved, error) {
	var out resolved
	for _, ref := range refs {
		rule, err := reg.Resolve(ref)
		if err != nil {
			return resolved{}, err
		}
		out.Validators = append(out.Validators, rule.Validators...)
		out.Async = append(out.Async, rule.Async...)
		if rule.Attach != nil {
			out.Attach = append(out.Attach, rule.Attach)
		}
	}
	return out, nil
}

func queueAttach(c forms.Control, rules resolved, attaches *[]func()) {
	if len(rules.Attach) == 0 {
		return
	}
	*attaches = append(*attaches, func() {
		for _, fn := range rules.Attach {
			fn(c)
		}
		c.UpdateValueAndValidity()
	})
}
