package binding

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/goliatone/go-formkit/pkg/directory"
	"github.com/goliatone/go-formkit/pkg/forms"
	"github.com/goliatone/go-formkit/pkg/validators"
)

// Built-in directive names.
const (
	DirectiveRequired      = "required"
	DirectiveMinLength     = "minlength"
	DirectiveMaxLength     = "maxlength"
	DirectivePattern       = "pattern"
	DirectiveEmail         = "email"
	DirectiveMin           = "min"
	DirectiveMax           = "max"
	DirectiveBanWords      = "banwords"
	DirectiveUnique        = "unique"
	DirectivePasswordMatch = "passwordmatch"
)

var (
	// ErrUnknownDirective is returned when a definition names a directive the
	// registry does not know.
	ErrUnknownDirective = errors.New("binding: unknown directive")
	// ErrDirectiveArgs is returned when directive arguments are malformed.
	ErrDirectiveArgs = errors.New("binding: invalid directive arguments")
)

// DirectiveRef is one parsed directive: a name, an optional error key
// override and its arguments.
type DirectiveRef struct {
	Name string   `yaml:"name" json:"name"`
	Key  string   `yaml:"key,omitempty" json:"key,omitempty"`
	Args []string `yaml:"args,omitempty" json:"args,omitempty"`
}

// String renders the ref in tag syntax.
func (d DirectiveRef) String() string {
	var b strings.Builder
	b.WriteString(d.Name)
	if d.Key != "" {
		b.WriteByte('@')
		b.WriteString(d.Key)
	}
	if len(d.Args) > 0 {
		b.WriteByte(':')
		b.WriteString(strings.Join(d.Args, "|"))
	}
	return b.String()
}

// ParseDirectives parses tag syntax: directives separated by ";", each
// written name[@key][:arg|arg]. Pattern arguments are never split, so a
// regular expression may contain "|".
func ParseDirectives(tag string) ([]DirectiveRef, error) {
	var refs []DirectiveRef
	for _, raw := range splitDirectives(tag) {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		ref, err := parseDirective(raw)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// splitDirectives splits on ";" except inside a pattern argument, which
// runs to the end of the tag.
func splitDirectives(tag string) []string {
	var out []string
	for tag != "" {
		head := tag
		if i := strings.IndexByte(tag, ';'); i >= 0 {
			head = tag[:i]
		}
		name := strings.TrimSpace(head)
		if j := strings.IndexAny(name, "@:"); j >= 0 {
			name = name[:j]
		}
		if strings.EqualFold(name, DirectivePattern) {
			out = append(out, tag)
			break
		}
		out = append(out, head)
		if len(head) == len(tag) {
			break
		}
		tag = tag[len(head)+1:]
	}
	return out
}

func parseDirective(raw string) (DirectiveRef, error) {
	var ref DirectiveRef
	head, args, hasArgs := strings.Cut(raw, ":")
	name, key, _ := strings.Cut(head, "@")
	ref.Name = strings.ToLower(strings.TrimSpace(name))
	ref.Key = strings.TrimSpace(key)
	if ref.Name == "" {
		return ref, fmt.Errorf("%w: empty directive in %q", ErrDirectiveArgs, raw)
	}
	if !hasArgs {
		return ref, nil
	}
	if ref.Name == DirectivePattern {
		ref.Args = []string{args}
		return ref, nil
	}
	for _, arg := range strings.Split(args, "|") {
		if arg = strings.TrimSpace(arg); arg != "" {
			ref.Args = append(ref.Args, arg)
		}
	}
	return ref, nil
}

// Rule is what a directive contributes to a control.
type Rule struct {
	Validators []forms.Validator
	Async      []forms.AsyncValidator
	// Attach runs once the control is built, for rules that keep a handle on
	// the control.
	Attach func(c forms.Control)
}

// Directive builds a rule from a parsed reference.
type Directive func(ref DirectiveRef) (Rule, error)

// Registry maps directive names to factories. Names are case-insensitive.
type Registry struct {
	mu         sync.RWMutex
	directives map[string]Directive
	lookup     directory.Lookup
	banLists   map[string]*validators.BanList
	decorate   func(Rule) Rule
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLookup supplies the directory used by the unique directive.
func WithLookup(lookup directory.Lookup) RegistryOption {
	return func(r *Registry) {
		r.lookup = lookup
	}
}

// WithDecorator wraps every resolved rule, e.g. to instrument validators.
func WithDecorator(fn func(Rule) Rule) RegistryOption {
	return func(r *Registry) {
		r.decorate = fn
	}
}

// WithBanList makes list available to banwords as the argument "$name".
func WithBanList(name string, list *validators.BanList) RegistryOption {
	return func(r *Registry) {
		if list != nil {
			r.banLists[strings.TrimPrefix(name, "$")] = list
		}
	}
}

// NewRegistry returns a registry with the built-in directives registered.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		directives: make(map[string]Directive),
		banLists:   make(map[string]*validators.BanList),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	r.registerBuiltins()
	return r
}

// Register adds or replaces a directive.
func (r *Registry) Register(name string, d Directive) {
	name = strings.ToLower(strings.TrimSpace(name))
	if r == nil || name == "" || d == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.directives[name] = d
}

// Names lists the registered directives in order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.directives))
	for name := range r.directives {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve builds the rule for ref.
func (r *Registry) Resolve(ref DirectiveRef) (Rule, error) {
	r.mu.RLock()
	d, ok := r.directives[strings.ToLower(ref.Name)]
	r.mu.RUnlock()
	if !ok {
		return Rule{}, fmt.Errorf("%w %q", ErrUnknownDirective, ref.Name)
	}
	rule, err := d(ref)
	if err != nil {
		return Rule{}, fmt.Errorf("binding: directive %s: %w", ref, err)
	}
	if r.decorate != nil {
		rule = r.decorate(rule)
	}
	return rule, nil
}

func (r *Registry) registerBuiltins() {
	r.directives[DirectiveRequired] = keyed(validators.KeyRequired, func(DirectiveRef) (forms.Validator, error) {
		return validators.Required(), nil
	})
	r.directives[DirectiveMinLength] = keyed(validators.KeyMinLength, func(ref DirectiveRef) (forms.Validator, error) {
		n, err := intArg(ref)
		if err != nil {
			return forms.Validator{}, err
		}
		return validators.MinLength(n), nil
	})
	r.directives[DirectiveMaxLength] = keyed(validators.KeyMaxLength, func(ref DirectiveRef) (forms.Validator, error) {
		n, err := intArg(ref)
		if err != nil {
			return forms.Validator{}, err
		}
		return validators.MaxLength(n), nil
	})
	r.directives[DirectivePattern] = keyed(validators.KeyPattern, func(ref DirectiveRef) (forms.Validator, error) {
		if len(ref.Args) != 1 {
			return forms.Validator{}, ErrDirectiveArgs
		}
		return validators.Pattern(ref.Args[0])
	})
	r.directives[DirectiveEmail] = keyed(validators.KeyEmail, func(DirectiveRef) (forms.Validator, error) {
		return validators.Email(), nil
	})
	r.directives[DirectiveMin] = keyed(validators.KeyMin, func(ref DirectiveRef) (forms.Validator, error) {
		n, err := floatArg(ref)
		if err != nil {
			return forms.Validator{}, err
		}
		return validators.Min(n), nil
	})
	r.directives[DirectiveMax] = keyed(validators.KeyMax, func(ref DirectiveRef) (forms.Validator, error) {
		n, err := floatArg(ref)
		if err != nil {
			return forms.Validator{}, err
		}
		return validators.Max(n), nil
	})
	r.directives[DirectiveBanWords] = r.banWords
	r.directives[DirectiveUnique] = func(ref DirectiveRef) (Rule, error) {
		key := orDefault(ref.Key, validators.KeyUniqueName)
		return Rule{Async: []forms.AsyncValidator{validators.UniqueNameKey(key, r.lookup)}}, nil
	}
	r.directives[DirectivePasswordMatch] = func(ref DirectiveRef) (Rule, error) {
		password, confirm := "password", "confirmPassword"
		switch len(ref.Args) {
		case 0:
		case 2:
			password, confirm = ref.Args[0], ref.Args[1]
		default:
			return Rule{}, ErrDirectiveArgs
		}
		key := orDefault(ref.Key, validators.KeyPasswordMatch)
		return Rule{Validators: []forms.Validator{validators.PasswordMatchKey(key, password, confirm)}}, nil
	}
}

func (r *Registry) banWords(ref DirectiveRef) (Rule, error) {
	if len(ref.Args) == 1 && strings.HasPrefix(ref.Args[0], "$") {
		name := strings.TrimPrefix(ref.Args[0], "$")
		list, ok := r.banLists[name]
		if !ok {
			return Rule{}, fmt.Errorf("%w: no ban list %q", ErrDirectiveArgs, name)
		}
		return Rule{Attach: list.Attach}, nil
	}
	key := orDefault(ref.Key, validators.KeyBanWords)
	return Rule{Validators: []forms.Validator{validators.BanWordsKey(key, ref.Args...)}}, nil
}

// keyed adapts a validator factory, retagging the result when the ref
// overrides the key.
func keyed(defaultKey string, build func(DirectiveRef) (forms.Validator, error)) Directive {
	return func(ref DirectiveRef) (Rule, error) {
		v, err := build(ref)
		if err != nil {
			return Rule{}, err
		}
		if ref.Key != "" && ref.Key != defaultKey {
			v = rekey(v, defaultKey, ref.Key)
		}
		return Rule{Validators: []forms.Validator{v}}, nil
	}
}

func rekey(v forms.Validator, from, to string) forms.Validator {
	inner := v.Validate
	return forms.NewValidator(to, func(c forms.Control) forms.Errors {
		errs := inner(c)
		payload, ok := errs.Get(from)
		if !ok {
			return errs
		}
		return forms.Merge(errs.Without(from), forms.NewError(to, payload))
	})
}

func intArg(ref DirectiveRef) (int, error) {
	if len(ref.Args) != 1 {
		return 0, ErrDirectiveArgs
	}
	n, err := strconv.Atoi(ref.Args[0])
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDirectiveArgs, err)
	}
	return n, nil
}

func floatArg(ref DirectiveRef) (float64, error) {
	if len(ref.Args) != 1 {
		return 0, ErrDirectiveArgs
	}
	n, err := strconv.ParseFloat(ref.Args[0], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDirectiveArgs, err)
	}
	return n, nil
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
