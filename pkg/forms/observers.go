package forms

type observerEntry[T any] struct {
	id int
	fn func(T)
}

// observerList keeps explicitly registered listeners in registration order.
type observerList[T any] struct {
	seq     int
	entries []observerEntry[T]
}

func (l *observerList[T]) add(fn func(T)) func() {
	if fn == nil {
		return func() {}
	}
	l.seq++
	id := l.seq
	l.entries = append(l.entries, observerEntry[T]{id: id, fn: fn})
	return func() {
		for i, entry := range l.entries {
			if entry.id == id {
				l.entries = append(l.entries[:i:i], l.entries[i+1:]...)
				return
			}
		}
	}
}

func (l *observerList[T]) emit(value T) {
	if len(l.entries) == 0 {
		return
	}
	entries := append([]observerEntry[T](nil), l.entries...)
	for _, entry := range entries {
		entry.fn(value)
	}
}
