package forms

import (
	"context"
	"strings"
)

// Control is the common surface of fields, groups and arrays.
//
// A control tree is owned by a single goroutine: every method below must be
// called from that goroutine. Async validators run on their own goroutines
// but their results only land when the owner calls Wait or Poll.
type Control interface {
	Name() string
	Path() string
	Parent() Control
	Root() Control

	Value() any
	SetValue(value any, opts ...UpdateOption) error
	PatchValue(value any, opts ...UpdateOption) error
	Reset(value any, opts ...UpdateOption) error

	Status() Status
	Valid() bool
	Invalid() bool
	Pending() bool
	Disabled() bool
	Enabled() bool

	Errors() Errors
	HasError(key string) bool
	GetError(key string) (Payload, bool)
	SetErrors(errs Errors, opts ...UpdateOption)
	ClearErrors(keys ...string)

	Dirty() bool
	Touched() bool
	MarkAsDirty(opts ...UpdateOption)
	MarkAsPristine(opts ...UpdateOption)
	MarkAsTouched(opts ...UpdateOption)
	MarkAsUntouched(opts ...UpdateOption)
	MarkAllAsTouched()

	Enable(opts ...UpdateOption)
	Disable(opts ...UpdateOption)
	UpdateValueAndValidity(opts ...UpdateOption)

	AddValidators(validators ...Validator)
	RemoveValidators(tags ...string)
	SetValidators(validators ...Validator)
	ClearValidators()
	HasValidator(tag string) bool
	AddAsyncValidators(validators ...AsyncValidator)
	RemoveAsyncValidators(tags ...string)
	SetAsyncValidators(validators ...AsyncValidator)
	ClearAsyncValidators()
	HasAsyncValidator(tag string) bool

	UpdateOn() UpdateOn
	Get(path string) Control

	OnValueChange(fn func(value any)) (unsubscribe func())
	OnStatusChange(fn func(status Status)) (unsubscribe func())

	Wait(ctx context.Context) error
	Poll() int

	core() *node
	children() []Control
	lookup(segment string) Control
	rebuild()
	resetValue(value any, o updateOptions) error
}

// node carries the state every control kind shares. Kind-specific behaviour
// is reached through self.
type node struct {
	self   Control
	name   string
	parent *node
	tree   *tree

	value  any
	status Status
	errors Errors

	syncErrors     Errors
	asyncErrors    Errors
	externalErrors Errors

	validators      []Validator
	asyncValidators []AsyncValidator
	updateOn        UpdateOn
	disabled        bool
	dirty           bool
	touched         bool

	slot            asyncSlot
	valueObservers  observerList[any]
	statusObservers observerList[Status]
}

func (n *node) init(self Control, cfg config) {
	n.self = self
	n.tree = newTree()
	n.status = StatusValid
	n.validators = appendValidators(nil, cfg.validators)
	n.asyncValidators = appendAsyncValidators(nil, cfg.async)
	n.updateOn = cfg.updateOn
	n.disabled = cfg.disabled
}

func (n *node) core() *node { return n }

func (n *node) Name() string { return n.name }

// Path returns the dotted path from the root. The root path is empty.
func (n *node) Path() string {
	if n.parent == nil {
		return ""
	}
	return joinPath(n.parent.Path(), n.name)
}

func (n *node) Parent() Control {
	if n.parent == nil {
		return nil
	}
	return n.parent.self
}

func (n *node) Root() Control {
	cur := n
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur.self
}

// Value returns a deep copy of the committed value.
func (n *node) Value() any { return cloneValue(n.value) }

func (n *node) Status() Status { return n.status }
func (n *node) Valid() bool    { return n.status == StatusValid }
func (n *node) Invalid() bool  { return n.status == StatusInvalid }
func (n *node) Pending() bool  { return n.status == StatusPending }
func (n *node) Disabled() bool { return n.status == StatusDisabled }
func (n *node) Enabled() bool  { return n.status != StatusDisabled }

func (n *node) Errors() Errors { return n.errors.Clone() }

func (n *node) HasError(key string) bool { return n.errors.Has(key) }

func (n *node) GetError(key string) (Payload, bool) { return n.errors.Get(key) }

// SetErrors replaces the external error layer. The layer is merged with the
// sync and async results and is dropped the next time the control validates.
func (n *node) SetErrors(errs Errors, opts ...UpdateOption) {
	n.externalErrors = Merge(errs)
	n.mergeErrors()
	n.refreshStatus(resolveUpdate(opts))
}

// ClearErrors removes keys from the external error layer only.
func (n *node) ClearErrors(keys ...string) {
	if len(n.externalErrors) == 0 {
		return
	}
	next := n.externalErrors.Without(keys...)
	if len(next) == len(n.externalErrors) {
		return
	}
	n.externalErrors = next
	n.mergeErrors()
	n.refreshStatus(updateOptions{})
}

func (n *node) mergeErrors() {
	n.errors = Merge(n.syncErrors, n.asyncErrors, n.externalErrors)
}

// refreshStatus recomputes status after an error layer changed without a
// value change, walking up to the root.
func (n *node) refreshStatus(o updateOptions) {
	n.status = n.calculateStatus()
	if !o.silent {
		n.statusObservers.emit(n.status)
	}
	if n.parent != nil {
		n.parent.refreshStatus(o)
	}
}

func (n *node) calculateStatus() Status {
	switch {
	case n.allDisabled():
		return StatusDisabled
	case n.errors != nil:
		return StatusInvalid
	case n.slot.pending || n.anyChildIs(StatusPending):
		return StatusPending
	case n.anyChildIs(StatusInvalid):
		return StatusInvalid
	default:
		return StatusValid
	}
}

func (n *node) allDisabled() bool {
	kids := n.self.children()
	if len(kids) == 0 {
		return n.disabled
	}
	for _, c := range kids {
		if !c.core().allDisabled() {
			return false
		}
	}
	return true
}

func (n *node) anyChildIs(status Status) bool {
	for _, c := range n.self.children() {
		if c.core().status == status {
			return true
		}
	}
	return false
}

func (n *node) Dirty() bool   { return n.dirty }
func (n *node) Touched() bool { return n.touched }

func (n *node) MarkAsDirty(opts ...UpdateOption) {
	o := resolveUpdate(opts)
	n.dirty = true
	if n.parent != nil && !o.onlySelf {
		n.parent.MarkAsDirty(opts...)
	}
}

func (n *node) MarkAsPristine(opts ...UpdateOption) {
	o := resolveUpdate(opts)
	n.dirty = false
	for _, c := range n.self.children() {
		c.MarkAsPristine(OnlySelf())
	}
	if n.parent != nil && !o.onlySelf {
		n.parent.updatePristine()
	}
}

func (n *node) MarkAsTouched(opts ...UpdateOption) {
	o := resolveUpdate(opts)
	n.touched = true
	if n.parent != nil && !o.onlySelf {
		n.parent.MarkAsTouched(opts...)
	}
}

func (n *node) MarkAsUntouched(opts ...UpdateOption) {
	o := resolveUpdate(opts)
	n.touched = false
	for _, c := range n.self.children() {
		c.MarkAsUntouched(OnlySelf())
	}
	if n.parent != nil && !o.onlySelf {
		n.parent.updateTouched()
	}
}

// MarkAllAsTouched marks the control and all of its descendants touched.
func (n *node) MarkAllAsTouched() {
	n.MarkAsTouched(OnlySelf())
	for _, c := range n.self.children() {
		c.MarkAllAsTouched()
	}
}

func (n *node) updatePristine() {
	n.dirty = false
	for _, c := range n.self.children() {
		if c.Enabled() && c.Dirty() {
			n.dirty = true
			break
		}
	}
	if n.parent != nil {
		n.parent.updatePristine()
	}
}

func (n *node) updateTouched() {
	n.touched = false
	for _, c := range n.self.children() {
		if c.Enabled() && c.Touched() {
			n.touched = true
			break
		}
	}
	if n.parent != nil {
		n.parent.updateTouched()
	}
}

// Disable excludes the control from its parent's value and validation.
func (n *node) Disable(opts ...UpdateOption) {
	o := resolveUpdate(opts)
	n.disabled = true
	n.cancelAsync()
	n.syncErrors, n.asyncErrors, n.externalErrors, n.errors = nil, nil, nil, nil
	n.status = StatusDisabled
	for _, c := range n.self.children() {
		c.Disable(o.self()...)
	}
	n.self.rebuild()
	n.emit(o)
	n.updateAncestors(o)
}

func (n *node) Enable(opts ...UpdateOption) {
	o := resolveUpdate(opts)
	n.disabled = false
	for _, c := range n.self.children() {
		c.Enable(o.self()...)
	}
	n.update(updateOptions{onlySelf: true, silent: o.silent})
	n.updateAncestors(o)
}

func (n *node) updateAncestors(o updateOptions) {
	if n.parent == nil || o.onlySelf {
		return
	}
	n.parent.update(o)
	n.parent.updatePristine()
	n.parent.updateTouched()
}

func (n *node) UpdateValueAndValidity(opts ...UpdateOption) {
	n.update(resolveUpdate(opts))
}

// update rebuilds the value, re-runs validation and propagates upwards.
func (n *node) update(o updateOptions) {
	n.self.rebuild()
	if n.allDisabled() {
		n.status = StatusDisabled
	} else {
		n.status = StatusValid
		n.cancelAsync()
		n.externalErrors = nil
		n.asyncErrors = nil
		n.syncErrors = runValidators(n.self, n.validators)
		n.mergeErrors()
		n.status = n.calculateStatus()
		if n.status == StatusValid || n.status == StatusPending {
			n.startAsync()
		}
	}
	n.emit(o)
	if n.parent != nil && !o.onlySelf {
		n.parent.update(o)
	}
}

func (n *node) emit(o updateOptions) {
	if o.silent {
		return
	}
	n.valueObservers.emit(n.Value())
	n.statusObservers.emit(n.status)
}

func (n *node) AddValidators(validators ...Validator) {
	n.validators = appendValidators(n.validators, validators)
}

func (n *node) RemoveValidators(tags ...string) {
	n.validators = dropValidators(n.validators, tags)
}

func (n *node) SetValidators(validators ...Validator) {
	n.validators = appendValidators(nil, validators)
}

func (n *node) ClearValidators() { n.validators = nil }

func (n *node) HasValidator(tag string) bool { return hasValidatorTag(n.validators, tag) }

func (n *node) AddAsyncValidators(validators ...AsyncValidator) {
	n.asyncValidators = appendAsyncValidators(n.asyncValidators, validators)
}

func (n *node) RemoveAsyncValidators(tags ...string) {
	n.asyncValidators = dropAsyncValidators(n.asyncValidators, tags)
}

func (n *node) SetAsyncValidators(validators ...AsyncValidator) {
	n.asyncValidators = appendAsyncValidators(nil, validators)
}

func (n *node) ClearAsyncValidators() { n.asyncValidators = nil }

func (n *node) HasAsyncValidator(tag string) bool { return hasAsyncTag(n.asyncValidators, tag) }

// UpdateOn reports the effective commit mode, inherited from the nearest
// ancestor that sets one.
func (n *node) UpdateOn() UpdateOn {
	for cur := n; cur != nil; cur = cur.parent {
		if cur.updateOn != "" {
			return cur.updateOn
		}
	}
	return UpdateOnChange
}

// Get resolves a dotted path relative to the control. Array items are
// addressed by index.
func (n *node) Get(path string) Control {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	cur := n.self
	for _, segment := range strings.Split(path, ".") {
		if cur == nil {
			return nil
		}
		cur = cur.lookup(segment)
	}
	return cur
}

func (n *node) OnValueChange(fn func(value any)) func() {
	return n.valueObservers.add(fn)
}

func (n *node) OnStatusChange(fn func(status Status)) func() {
	return n.statusObservers.add(fn)
}

// Wait applies async results until no check is outstanding in the tree or
// ctx is done.
func (n *node) Wait(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return n.tree.wait(ctx)
}

// Poll applies the async results that have already arrived and reports how
// many of them were current.
func (n *node) Poll() int { return n.tree.drain() }

func (n *node) attach(parent *node, name string) {
	n.parent = parent
	n.name = name
	if n.tree == parent.tree {
		return
	}
	old := n.tree
	old.mergeInto(parent.tree)
	n.setTree(parent.tree)
}

func (n *node) setTree(t *tree) {
	n.tree = t
	for _, c := range n.self.children() {
		c.core().setTree(t)
	}
}

// detach gives a removed control its own tree again so later edits on it do
// not count against the former parent.
func (n *node) detach() {
	Walk(n.self, func(c Control) bool {
		c.core().cancelAsync()
		return true
	})
	n.parent = nil
	n.setTree(newTree())
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
