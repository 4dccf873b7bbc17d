package forms

import (
	"reflect"
	"sync"
	"time"
)

// Debounce calls fn with the latest value of c once it has been stable for
// wait, skipping values equal to the previously delivered one. fn runs on a
// timer goroutine and must not touch the control tree. The returned func
// stops delivery.
func Debounce(c Control, wait time.Duration, fn func(value any)) (stop func()) {
	if c == nil || fn == nil {
		return func() {}
	}
	var (
		mu        sync.Mutex
		timer     *time.Timer
		seq       uint64
		last      any
		delivered bool
		stopped   bool
	)
	unsubscribe := c.OnValueChange(func(value any) {
		mu.Lock()
		defer mu.Unlock()
		if stopped {
			return
		}
		if timer != nil {
			timer.Stop()
		}
		seq++
		mine := seq
		timer = time.AfterFunc(wait, func() {
			mu.Lock()
			if stopped || mine != seq {
				mu.Unlock()
				return
			}
			if delivered && reflect.DeepEqual(last, value) {
				mu.Unlock()
				return
			}
			last, delivered = value, true
			mu.Unlock()
			fn(value)
		})
	})
	return func() {
		unsubscribe()
		mu.Lock()
		defer mu.Unlock()
		stopped = true
		if timer != nil {
			timer.Stop()
		}
	}
}
