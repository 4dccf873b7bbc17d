package forms

import (
	"context"
	"sync"
)

// asyncSlot tracks the single outstanding async check a control may own.
// Every new check (or cancellation) bumps gen; only a result carrying the
// current gen may commit.
type asyncSlot struct {
	gen     uint64
	pending bool
	cancel  context.CancelFunc
}

type asyncResult struct {
	node   *node
	gen    uint64
	errors Errors
}

// tree is the result queue shared by every control of one control tree.
// Validator goroutines only ever post into it; results are applied by the
// goroutine that calls Wait or Poll, which keeps the error record of each
// control single-writer.
type tree struct {
	mu      sync.Mutex
	ready   []asyncResult
	forward *tree
	signal  chan struct{}

	// owner goroutine only
	outstanding int
}

func newTree() *tree {
	return &tree{signal: make(chan struct{}, 1)}
}

func (t *tree) post(result asyncResult) {
	t.mu.Lock()
	if t.forward != nil {
		next := t.forward
		t.mu.Unlock()
		next.post(result)
		return
	}
	t.ready = append(t.ready, result)
	t.mu.Unlock()
	t.notify()
}

func (t *tree) notify() {
	select {
	case t.signal <- struct{}{}:
	default:
	}
}

// mergeInto redirects this queue into dst when a standalone subtree is
// attached to another tree. Outstanding checks keep posting to t and are
// forwarded.
func (t *tree) mergeInto(dst *tree) {
	if t == dst || dst == nil {
		return
	}
	t.mu.Lock()
	ready := t.ready
	t.ready = nil
	t.forward = dst
	t.mu.Unlock()

	dst.outstanding += t.outstanding
	t.outstanding = 0
	if len(ready) == 0 {
		return
	}
	dst.mu.Lock()
	dst.ready = append(dst.ready, ready...)
	dst.mu.Unlock()
	dst.notify()
}

func (t *tree) drain() int {
	t.mu.Lock()
	ready := t.ready
	t.ready = nil
	t.mu.Unlock()

	applied := 0
	for _, result := range ready {
		t.outstanding--
		if result.node.applyAsync(result) {
			applied++
		}
	}
	if t.outstanding < 0 {
		t.outstanding = 0
	}
	return applied
}

func (t *tree) wait(ctx context.Context) error {
	for {
		t.drain()
		if t.outstanding == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.signal:
		}
	}
}

func runAsyncValidators(ctx context.Context, validators []AsyncValidator, value any) Errors {
	results := make([]Errors, len(validators))
	var wg sync.WaitGroup
	for i, v := range validators {
		wg.Add(1)
		go func(i int, v AsyncValidator) {
			defer wg.Done()
			results[i] = v.Validate(ctx, cloneValue(value))
		}(i, v)
	}
	wg.Wait()
	return Merge(results...)
}

func (n *node) startAsync() {
	if len(n.asyncValidators) == 0 {
		return
	}
	n.status = StatusPending
	n.slot.gen++
	gen := n.slot.gen
	ctx, cancel := context.WithCancel(context.Background())
	n.slot.pending = true
	n.slot.cancel = cancel

	value := cloneValue(n.value)
	validators := append([]AsyncValidator(nil), n.asyncValidators...)
	t := n.tree
	t.outstanding++

	go func() {
		errs := runAsyncValidators(ctx, validators, value)
		t.post(asyncResult{node: n, gen: gen, errors: errs})
	}()
}

func (n *node) cancelAsync() {
	if !n.slot.pending {
		return
	}
	n.slot.pending = false
	n.slot.gen++
	if n.slot.cancel != nil {
		n.slot.cancel()
		n.slot.cancel = nil
	}
}

func (n *node) applyAsync(result asyncResult) bool {
	if !n.slot.pending || result.gen != n.slot.gen {
		return false
	}
	n.slot.pending = false
	if n.slot.cancel != nil {
		n.slot.cancel()
		n.slot.cancel = nil
	}
	n.asyncErrors = Merge(result.errors)
	n.mergeErrors()
	n.refreshStatus(updateOptions{})
	return true
}
