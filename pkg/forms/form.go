package forms

// Form is the root of a control tree. It adds submit handling and the
// snapshot that Restore returns to.
type Form struct {
	*Group
	snapshot  Snapshot
	submitted bool
}

// NewForm wraps root. A nil root becomes an empty group.
func NewForm(root *Group) *Form {
	if root == nil {
		root = NewGroup(nil)
	}
	return &Form{Group: root}
}

// Capture stores a deep copy of the current value as the reset target.
func (f *Form) Capture() Snapshot {
	f.snapshot = Snapshot{Value: f.Group.Value(), Seq: f.snapshot.Seq + 1}
	return f.snapshot
}

// Snapshot returns the last captured snapshot and whether one exists.
func (f *Form) Snapshot() (Snapshot, bool) {
	return f.snapshot, !f.snapshot.Empty()
}

// Submitted reports whether Submit ran since the last Restore.
func (f *Form) Submitted() bool { return f.submitted }

// Submit commits staged submit-mode input, captures the value and resets the
// interaction state while keeping that value.
func (f *Form) Submit() (Snapshot, error) {
	for _, field := range Leaves(f.Group) {
		field.submit()
	}
	f.submitted = true
	snap := f.Capture()
	if err := f.Group.Reset(snap.Clone()); err != nil {
		return snap, err
	}
	return snap, nil
}

// Restore resets the tree to the last captured snapshot, or to the field
// defaults when nothing was captured.
func (f *Form) Restore() error {
	f.submitted = false
	if f.snapshot.Empty() {
		return f.Group.Reset(nil)
	}
	return f.Group.Reset(f.snapshot.Clone())
}

// Close cancels every outstanding async check in the tree.
func (f *Form) Close() {
	Walk(f.Group, func(c Control) bool {
		c.core().cancelAsync()
		return true
	})
	f.Group.Poll()
}
