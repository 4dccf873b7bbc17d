package forms

// Field is a leaf control holding a single value.
type Field struct {
	node
	initial     any
	nonNullable bool

	staged    any
	hasStaged bool
}

// NewField creates a leaf control with the given initial value.
func NewField(initial any, opts ...Option) *Field {
	cfg := newConfig(opts)
	f := &Field{initial: cloneValue(initial), nonNullable: cfg.nonNullable}
	f.init(f, cfg)
	f.value = cloneValue(initial)
	f.update(updateOptions{onlySelf: true, silent: true})
	return f
}

func (f *Field) children() []Control   { return nil }
func (f *Field) lookup(string) Control { return nil }
func (f *Field) rebuild()              {}

// NonNullable reports whether Reset(nil) restores the initial value.
func (f *Field) NonNullable() bool { return f.nonNullable }

// DefaultValue returns the value the field was constructed with.
func (f *Field) DefaultValue() any { return cloneValue(f.initial) }

// StagedValue returns user input not yet committed by its update mode.
func (f *Field) StagedValue() (any, bool) { return cloneValue(f.staged), f.hasStaged }

// SetValue writes value programmatically. It commits immediately regardless
// of the update mode and discards any staged input.
func (f *Field) SetValue(value any, opts ...UpdateOption) error {
	f.value = cloneValue(value)
	f.staged, f.hasStaged = nil, false
	f.update(resolveUpdate(opts))
	return nil
}

// PatchValue is SetValue for a leaf.
func (f *Field) PatchValue(value any, opts ...UpdateOption) error {
	return f.SetValue(value, opts...)
}

// Reset restores value, or the initial value for a non-nullable field given
// nil, and marks the field pristine and untouched.
func (f *Field) Reset(value any, opts ...UpdateOption) error {
	return f.resetValue(value, resolveUpdate(opts))
}

func (f *Field) resetValue(value any, o updateOptions) error {
	if value == nil && f.nonNullable {
		value = f.initial
	}
	f.MarkAsPristine(o.options()...)
	f.MarkAsUntouched(o.options()...)
	return f.SetValue(value, o.options()...)
}

// Input records a user edit. The field is marked dirty and the value is
// committed now in change mode, on Blur in blur mode and on form submit in
// submit mode.
func (f *Field) Input(value any) {
	f.staged = cloneValue(value)
	f.hasStaged = true
	if f.UpdateOn() == UpdateOnChange {
		f.commit()
	}
}

// Blur commits a staged blur-mode value and marks the field touched.
func (f *Field) Blur() {
	mode := f.UpdateOn()
	if mode == UpdateOnBlur && f.hasStaged {
		f.commit()
	}
	if mode != UpdateOnSubmit {
		f.MarkAsTouched()
	}
}

func (f *Field) submit() {
	if f.UpdateOn() != UpdateOnSubmit {
		return
	}
	if f.hasStaged {
		f.commit()
	}
	f.MarkAsTouched()
}

func (f *Field) commit() {
	value := f.staged
	f.staged, f.hasStaged = nil, false
	f.MarkAsDirty()
	f.value = value
	f.update(updateOptions{})
}
