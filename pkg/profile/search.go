package profile

import (
	"sync"
	"time"

	"github.com/goliatone/go-formkit/pkg/forms"
	"github.com/goliatone/go-formkit/pkg/validators"
)

// SearchDebounce is the quiet period before a search term settles.
const SearchDebounce = 250 * time.Millisecond

// Search is a standalone text control outside the form. Its settled value
// trails input by the debounce period and repeats are dropped.
type Search struct {
	control *forms.Field
	stop    func()

	mu      sync.RWMutex
	value   string
	settled []func(string)
}

// NewSearch creates a search control settling after wait.
func NewSearch(wait time.Duration) *Search {
	s := &Search{control: forms.NewField("")}
	s.stop = forms.Debounce(s.control, wait, func(value any) {
		term := validators.Text(value)
		s.mu.Lock()
		s.value = term
		listeners := append(([]func(string))(nil), s.settled...)
		s.mu.Unlock()
		for _, fn := range listeners {
			fn(term)
		}
	})
	return s
}

// Control returns the underlying field.
func (s *Search) Control() *forms.Field { return s.control }

// Input sets the raw term.
func (s *Search) Input(term string) {
	_ = s.control.SetValue(term)
}

// Value returns the last settled term.
func (s *Search) Value() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// OnSettled registers fn for settled terms. fn runs on a timer goroutine.
func (s *Search) OnSettled(fn func(term string)) {
	s.mu.Lock()
	s.settled = append(s.settled, fn)
	s.mu.Unlock()
}

// Close stops delivery.
func (s *Search) Close() {
	s.stop()
}
