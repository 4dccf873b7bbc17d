package forms

// Walk visits c and its descendants depth first in child order. Returning
// false from fn skips the children of the visited control.
func Walk(c Control, fn func(Control) bool) {
	if c == nil || fn == nil {
		return
	}
	if !fn(c) {
		return
	}
	for _, child := range c.children() {
		Walk(child, fn)
	}
}

// CollectErrors gathers the non-nil error records of c and its descendants
// keyed by dotted path. The root is keyed by its own path, which is empty
// for a tree root.
func CollectErrors(c Control) map[string]Errors {
	out := make(map[string]Errors)
	Walk(c, func(cur Control) bool {
		if cur.Disabled() {
			return false
		}
		if errs := cur.Errors(); errs != nil {
			out[cur.Path()] = errs
		}
		return true
	})
	return out
}

// Leaves returns every Field below c in walk order.
func Leaves(c Control) []*Field {
	var out []*Field
	Walk(c, func(cur Control) bool {
		if f, ok := cur.(*Field); ok {
			out = append(out, f)
		}
		return true
	})
	return out
}
