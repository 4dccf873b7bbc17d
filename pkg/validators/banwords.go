package validators

import (
	"strings"
	"sync"

	"github.com/goliatone/go-formkit/pkg/forms"
)

// KeyBanWords is the default error key of BanWords.
const KeyBanWords = "banWords"

// BanWords rejects values equal to one of words, ignoring case. The error
// payload carries the configured spelling of the matched word.
func BanWords(words ...string) forms.Validator {
	return BanWordsKey(KeyBanWords, words...)
}

// BanWordsKey is BanWords reporting under key.
func BanWordsKey(key string, words ...string) forms.Validator {
	list := append([]string(nil), words...)
	return forms.NewValidator(key, func(c forms.Control) forms.Errors {
		return banned(key, list, c.Value())
	})
}

func banned(key string, words []string, value any) forms.Errors {
	s, ok := value.(string)
	if !ok || s == "" {
		return nil
	}
	for _, word := range words {
		if strings.EqualFold(word, s) {
			return forms.NewError(key, forms.Payload{"bannedWord": word})
		}
	}
	return nil
}

// BanList is a ban-word rule whose words can change after it is attached.
// Set notifies every registered change callback so the attached controls
// re-validate. Set and the callbacks run on the caller's goroutine.
type BanList struct {
	key string

	mu        sync.RWMutex
	words     []string
	listeners []banListener
	nextID    int
}

type banListener struct {
	id int
	fn func()
}

// NewBanList creates a list reporting under key.
func NewBanList(key string, words ...string) *BanList {
	if key == "" {
		key = KeyBanWords
	}
	return &BanList{key: key, words: append([]string(nil), words...)}
}

// Key returns the error key.
func (b *BanList) Key() string { return b.key }

// Words returns a copy of the current words.
func (b *BanList) Words() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]string(nil), b.words...)
}

// Set replaces the words and fires the change callbacks in registration
// order.
func (b *BanList) Set(words ...string) {
	b.mu.Lock()
	b.words = append([]string(nil), words...)
	listeners := append([]banListener(nil), b.listeners...)
	b.mu.Unlock()
	for _, l := range listeners {
		l.fn()
	}
}

// OnChange registers a callback fired by Set. The returned func removes it.
func (b *BanList) OnChange(fn func()) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.listeners = append(b.listeners, banListener{id: id, fn: fn})
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, l := range b.listeners {
			if l.id == id {
				b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
				return
			}
		}
	}
}

// Validator returns the rule reading the current words.
func (b *BanList) Validator() forms.Validator {
	return forms.NewValidator(b.key, func(c forms.Control) forms.Errors {
		return banned(b.key, b.Words(), c.Value())
	})
}

// Attach adds the rule to c and re-validates c whenever the words change.
// A list may be attached to several controls.
func (b *BanList) Attach(c forms.Control) {
	c.AddValidators(b.Validator())
	b.OnChange(func() { c.UpdateValueAndValidity() })
}
