// Package sanitize detects markup in user supplied values before they reach
// form controls. Values are never rewritten: a value the strict policy would
// change is rejected instead.
package sanitize

import (
	"errors"
	"fmt"
	"html"
	"sort"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// ErrMarkup is returned by Check for strings the strict policy would alter.
var ErrMarkup = errors.New("sanitize: value contains markup")

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

func strict() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.StrictPolicy()
	})
	return policy
}

// Text returns raw as the strict policy renders it: elements are removed and
// entities decoded.
func Text(raw string) string {
	if raw == "" {
		return ""
	}
	return html.UnescapeString(strict().Sanitize(raw))
}

// Clean reports whether raw passes the strict policy unchanged.
func Clean(raw string) bool {
	return Text(raw) == raw
}

// Check walks value, descending into maps and lists, and returns ErrMarkup
// for the first string that is not Clean. Map keys are visited in sorted
// order. Non-string leaves are accepted.
func Check(value any) error {
	switch typed := value.(type) {
	case string:
		if !Clean(typed) {
			return fmt.Errorf("%w: %q", ErrMarkup, typed)
		}
	case map[string]any:
		keys := make([]string, 0, len(typed))
		for k := range typed {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := Check(typed[k]); err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
		}
	case []any:
		for i, v := range typed {
			if err := Check(v); err != nil {
				return fmt.Errorf("%d: %w", i, err)
			}
		}
	}
	return nil
}
