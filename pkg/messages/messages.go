// Package messages renders validation error records into user-facing text
// using pongo2 templates, one template per error key.
package messages

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-formkit/pkg/forms"
)

//go:embed templates/*.tpl
var defaultTemplates embed.FS

const (
	templateExt = ".tpl"
	fallbackKey = "fallback"
)

// DefaultAliases maps the template-driven error keys onto the templates of
// their reactive counterparts.
func DefaultAliases() map[string]string {
	return map[string]string{
		"appBanWords":            "banWords",
		"appPasswordShouldMatch": "passwordMatch",
		"appUniqueNickname":      "uniqueName",
	}
}

// Option configures a Catalog.
type Option func(*config)

type config struct {
	files     fs.FS
	templates map[string]string
	aliases   map[string]string
	labels    map[string]string
}

// WithFS layers templates named <key>.tpl from files over the defaults.
func WithFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.files = files
	}
}

// WithTemplates overrides individual templates by error key.
func WithTemplates(templates map[string]string) Option {
	return func(cfg *config) {
		for key, source := range templates {
			cfg.templates[strings.TrimSpace(key)] = source
		}
	}
}

// WithAlias renders key with the template of target.
func WithAlias(key, target string) Option {
	return func(cfg *config) {
		cfg.aliases[key] = target
	}
}

// WithLabels sets display labels by control path.
func WithLabels(labels map[string]string) Option {
	return func(cfg *config) {
		for path, label := range labels {
			cfg.labels[path] = label
		}
	}
}

// Catalog renders error messages. It is safe for concurrent use.
type Catalog struct {
	set       *pongo2.TemplateSet
	files     fs.FS
	overrides map[string]string
	aliases   map[string]string
	labels    map[string]string

	mu    sync.RWMutex
	cache map[string]*pongo2.Template
}

// TemplatesFS exposes the built-in message templates, one <key>.tpl per
// error key, so callers can copy or extend them.
func TemplatesFS() fs.FS {
	sub, err := templatesFS()
	if err != nil {
		return defaultTemplates
	}
	return sub
}

func templatesFS() (fs.FS, error) {
	return fs.Sub(defaultTemplates, "templates")
}

// New builds a catalog from the embedded defaults plus options.
func New(opts ...Option) (*Catalog, error) {
	cfg := &config{
		templates: make(map[string]string),
		aliases:   DefaultAliases(),
		labels:    make(map[string]string),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(cfg)
	}

	sub, err := templatesFS()
	if err != nil {
		return nil, fmt.Errorf("messages: open default templates: %w", err)
	}
	loaders := []pongo2.TemplateLoader{}
	if cfg.files != nil {
		loaders = append(loaders, pongo2.NewFSLoader(cfg.files))
	}
	loaders = append(loaders, pongo2.NewFSLoader(sub))

	c := &Catalog{
		set:       pongo2.NewSet("formkit-messages", loaders...),
		files:     cfg.files,
		overrides: cfg.templates,
		aliases:   cfg.aliases,
		labels:    cfg.labels,
		cache:     make(map[string]*pongo2.Template),
	}
	if _, err := c.template(fallbackKey); err != nil {
		return nil, err
	}
	return c, nil
}

// Render formats one error. data supplies label, value and path; payload
// entries are added on top.
func (c *Catalog) Render(key string, payload forms.Payload, data map[string]any) (string, error) {
	tpl, err := c.template(c.resolve(key))
	if err != nil {
		return "", err
	}
	ctx := pongo2.Context{"key": key}
	for k, v := range data {
		ctx[k] = normalize(v)
	}
	for k, v := range payload {
		ctx[k] = normalize(v)
	}
	out, err := tpl.Execute(ctx)
	if err != nil {
		return "", fmt.Errorf("messages: render %q: %w", key, err)
	}
	return strings.TrimSpace(out), nil
}

// Messages renders every error of c in key order.
func (c *Catalog) Messages(ctrl forms.Control) []string {
	errs := ctrl.Errors()
	if errs == nil {
		return nil
	}
	data := map[string]any{
		"label": c.Label(ctrl.Path()),
		"path":  ctrl.Path(),
		"value": ctrl.Value(),
	}
	out := make([]string, 0, len(errs))
	for _, key := range errs.Keys() {
		text, err := c.Render(key, errs[key], data)
		if err != nil || text == "" {
			text = fmt.Sprintf("%s is invalid (%s).", data["label"], key)
		}
		out = append(out, text)
	}
	return out
}

// ForTree renders the messages of root and every descendant with errors,
// keyed by control path.
func (c *Catalog) ForTree(root forms.Control) map[string][]string {
	out := make(map[string][]string)
	forms.Walk(root, func(ctrl forms.Control) bool {
		if ctrl.Disabled() {
			return false
		}
		if msgs := c.Messages(ctrl); len(msgs) > 0 {
			out[ctrl.Path()] = msgs
		}
		return true
	})
	return out
}

// Label returns the configured label for path or a humanized form of its
// last segment.
func (c *Catalog) Label(path string) string {
	if label, ok := c.labels[path]; ok {
		return label
	}
	if path == "" {
		return "Form"
	}
	segment := path
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		segment = path[i+1:]
	}
	return Humanize(segment)
}

func (c *Catalog) resolve(key string) string {
	if target, ok := c.aliases[key]; ok {
		return target
	}
	return key
}

func (c *Catalog) template(key string) (*pongo2.Template, error) {
	c.mu.RLock()
	tpl, ok := c.cache[key]
	c.mu.RUnlock()
	if ok {
		return tpl, nil
	}

	source, found, err := c.source(key)
	if err != nil {
		return nil, err
	}
	if !found {
		if key == fallbackKey {
			return nil, errors.New("messages: fallback template missing")
		}
		return c.template(fallbackKey)
	}

	tpl, err = c.set.FromString("{% autoescape off %}" + source + "{% endautoescape %}")
	if err != nil {
		return nil, fmt.Errorf("messages: parse %q: %w", key, err)
	}
	c.mu.Lock()
	c.cache[key] = tpl
	c.mu.Unlock()
	return tpl, nil
}

func (c *Catalog) source(key string) (string, bool, error) {
	if source, ok := c.overrides[key]; ok {
		return source, true, nil
	}
	name := key + templateExt
	if c.files != nil {
		if data, err := fs.ReadFile(c.files, name); err == nil {
			return string(data), true, nil
		}
	}
	data, err := defaultTemplates.ReadFile("templates/" + name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("messages: read %q: %w", name, err)
	}
	return string(data), true, nil
}

// normalize renders integral floats without a fractional part.
func normalize(v any) any {
	if f, ok := v.(float64); ok && f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return int64(f)
	}
	return v
}

// Humanize turns a control name such as "firstName" or "confirm-password"
// into "First name" or "Confirm password".
func Humanize(name string) string {
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, strings.ToLower(string(cur)))
			cur = cur[:0]
		}
	}
	runes := []rune(name)
	for i, r := range runes {
		switch {
		case r == '-' || r == '_' || r == ' ' || r == '.':
			flush()
		case unicode.IsUpper(r) && i > 0 && !unicode.IsUpper(runes[i-1]):
			flush()
			cur = append(cur, r)
		default:
			cur = append(cur, r)
		}
	}
	flush()
	if len(words) == 0 {
		return name
	}
	first := []rune(words[0])
	first[0] = unicode.ToUpper(first[0])
	words[0] = string(first)
	return strings.Join(words, " ")
}

// Keys lists the error keys with a default template.
func Keys() []string {
	entries, err := defaultTemplates.ReadDir("templates")
	if err != nil {
		return nil
	}
	var keys []string
	for _, entry := range entries {
		name := strings.TrimSuffix(entry.Name(), templateExt)
		if name == fallbackKey {
			continue
		}
		keys = append(keys, name)
	}
	sort.Strings(keys)
	return keys
}
