// Package profile builds the user profile form in its two flavours: a
// reactive form assembled in code and a template-driven form declared with
// struct tags and bound to a User value.
package profile

import (
	"context"
	"errors"
	"strings"

	"github.com/goliatone/go-formkit/pkg/clock"
	"github.com/goliatone/go-formkit/pkg/directory"
	"github.com/goliatone/go-formkit/pkg/forms"
	"github.com/goliatone/go-formkit/pkg/validators"
)

// Kind names a profile flavour.
type Kind string

const (
	KindReactive Kind = "reactive"
	KindTemplate Kind = "template"
)

// ParseKind accepts "reactive" and "template" (or "template-driven").
func ParseKind(raw string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(KindReactive):
		return KindReactive, nil
	case string(KindTemplate), "template-driven":
		return KindTemplate, nil
	default:
		return "", ErrUnknownKind
	}
}

var (
	ErrUnknownKind = errors.New("profile: unknown kind")
	// ErrUnsupported is returned by operations the flavour does not have.
	ErrUnsupported = errors.New("profile: operation not supported")
)

// Default ban lists.
var (
	DefaultBannedFirstNames = []string{"test", "noob"}
	DefaultBannedNicknames  = []string{"dummy", "anonymous"}
)

// SkillSource lists the skills offered by the form.
type SkillSource interface {
	Skills(ctx context.Context) ([]string, error)
}

// Instrumenter wraps validators, e.g. to count outcomes.
type Instrumenter interface {
	Validator(v forms.Validator) forms.Validator
	AsyncValidator(v forms.AsyncValidator) forms.AsyncValidator
}

// Deps are the collaborators of a profile form. Zero values fall back to
// working defaults, except Lookup: without one the uniqueness check reports
// unknownError.
type Deps struct {
	Lookup       directory.Lookup
	Skills       SkillSource
	Clock        clock.Clock
	Instrumenter Instrumenter
	// BannedFirstNames and BannedNicknames replace the default ban lists
	// when non-nil.
	BannedFirstNames []string
	BannedNicknames  []string
}

func (d Deps) firstNames() []string {
	if d.BannedFirstNames != nil {
		return d.BannedFirstNames
	}
	return DefaultBannedFirstNames
}

func (d Deps) nicknames() []string {
	if d.BannedNicknames != nil {
		return d.BannedNicknames
	}
	return DefaultBannedNicknames
}

func (d Deps) sync(v forms.Validator) forms.Validator {
	if d.Instrumenter == nil {
		return v
	}
	return d.Instrumenter.Validator(v)
}

func (d Deps) async(v forms.AsyncValidator) forms.AsyncValidator {
	if d.Instrumenter == nil {
		return v
	}
	return d.Instrumenter.AsyncValidator(v)
}

// Profile is the surface shared by both flavours. Like the control tree it
// wraps, a Profile belongs to one goroutine at a time.
type Profile interface {
	Kind() Kind
	Form() *forms.Form
	// LoadSkills fetches the skill list, adds one control per skill and
	// captures the reset snapshot.
	LoadSkills(ctx context.Context) error
	Submit() (forms.Snapshot, error)
	// Reset restores the last captured snapshot.
	Reset() error
	AddPhone() error
	RemovePhone(i int) error
	// Registration is the directory entry for the current value.
	Registration() directory.User
	// SetBannedWords swaps the ban lists and re-validates.
	SetBannedWords(firstNames, nicknames []string)
	Years() []int
	Search() *Search
	Close()
}

// New builds a profile of the given kind.
func New(kind Kind, deps Deps) (Profile, error) {
	switch kind {
	case KindReactive:
		return Reactive(deps), nil
	case KindTemplate:
		p, err := TemplateDriven(deps)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, ErrUnknownKind
	}
}

// Years lists n calendar years starting at the current one, newest first.
func Years(c clock.Clock, n int) []int {
	now := clock.Year(c)
	years := make([]int, 0, n)
	for i := 0; i < n; i++ {
		years = append(years, now-i)
	}
	return years
}

type base struct {
	kind       Kind
	deps       Deps
	form       *forms.Form
	years      []int
	search     *Search
	firstNames *validators.BanList
	nicknames  *validators.BanList
	unbind     []func()
}

func (b *base) Kind() Kind            { return b.kind }
func (b *base) Form() *forms.Form     { return b.form }
func (b *base) Years() []int          { return append([]int(nil), b.years...) }
func (b *base) Search() *Search       { return b.search }
func (b *base) Reset() error          { return b.form.Restore() }
func (b *base) AddPhone() error       { return ErrUnsupported }
func (b *base) RemovePhone(int) error { return ErrUnsupported }

func (b *base) Submit() (forms.Snapshot, error) {
	return b.form.Submit()
}

func (b *base) SetBannedWords(firstNames, nicknames []string) {
	if firstNames != nil {
		b.firstNames.Set(firstNames...)
	}
	if nicknames != nil {
		b.nicknames.Set(nicknames...)
	}
}

func (b *base) registration(first, last, nick, email string) directory.User {
	text := func(path string) string {
		c := b.form.Get(path)
		if c == nil {
			return ""
		}
		return strings.TrimSpace(validators.Text(c.Value()))
	}
	name := strings.TrimSpace(text(first) + " " + text(last))
	return directory.User{
		Name:     name,
		Username: directory.NormalizeUsername(text(nick)),
		Email:    text(email),
	}
}

func (b *base) Close() {
	for _, fn := range b.unbind {
		fn()
	}
	b.unbind = nil
	if b.search != nil {
		b.search.Close()
	}
	b.form.Close()
}
