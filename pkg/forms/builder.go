package forms

// Builder is a small convenience layer for assembling groups in code.
type Builder struct {
	defaults []Option
}

// NewBuilder returns a builder whose fields all receive defaults.
func NewBuilder(defaults ...Option) *Builder {
	return &Builder{defaults: defaults}
}

// Field builds a field with the builder defaults followed by opts.
func (b *Builder) Field(initial any, opts ...Option) *Field {
	return NewField(initial, b.with(opts)...)
}

// Group builds a group. Group options are not merged with the defaults.
func (b *Builder) Group(children []Child, opts ...Option) *Group {
	return NewGroup(children, opts...)
}

// Record builds an empty group meant to gain members at runtime.
func (b *Builder) Record(opts ...Option) *Group {
	return NewGroup(nil, opts...)
}

// Array builds an array.
func (b *Builder) Array(items []Control, opts ...Option) *Array {
	return NewArray(items, opts...)
}

func (b *Builder) with(opts []Option) []Option {
	if len(b.defaults) == 0 {
		return opts
	}
	out := make([]Option, 0, len(b.defaults)+len(opts))
	out = append(out, b.defaults...)
	return append(out, opts...)
}

// C names a control for NewGroup.
func C(name string, c Control) Child { return Child{Name: name, Control: c} }
