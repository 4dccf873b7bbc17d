package prompt

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-formkit/pkg/forms"
	"github.com/goliatone/go-formkit/pkg/messages"
	"github.com/goliatone/go-formkit/pkg/profile"
	"github.com/goliatone/go-formkit/pkg/validators"
)

var (
	// ErrInvalid is returned by Fill when the form is still invalid at the end.
	ErrInvalid = errors.New("prompt: form is invalid")
	// ErrTooManyAttempts is returned when a control stays invalid after the
	// configured number of attempts.
	ErrTooManyAttempts = errors.New("prompt: too many attempts")
)

// Filler walks a profile form and prompts for every enabled field.
type Filler struct {
	driver   Driver
	messages *messages.Catalog

	// CheckTimeout bounds the wait for async checks after each answer.
	CheckTimeout time.Duration
	// MaxAttempts limits re-prompts of an invalid control. Zero means no limit.
	MaxAttempts int
}

// NewFiller creates a filler. A nil catalog uses the default messages.
func NewFiller(driver Driver, catalog *messages.Catalog) (*Filler, error) {
	if catalog == nil {
		var err error
		if catalog, err = messages.New(); err != nil {
			return nil, err
		}
	}
	return &Filler{driver: driver, messages: catalog, CheckTimeout: 10 * time.Second}, nil
}

type fillState struct {
	profile profile.Profile
	choices map[string][]string
}

// Fill prompts for p's fields in order and returns the final form value.
// Each answer is committed with a blur so blur-mode checks run, and the
// field is asked again while it reports errors.
func (f *Filler) Fill(ctx context.Context, p profile.Profile) (any, error) {
	st := &fillState{profile: p, choices: choicesFor(p)}
	form := p.Form()

	for _, child := range form.Controls() {
		if err := f.fillControl(ctx, st, child.Control); err != nil {
			return form.Value(), err
		}
	}

	form.MarkAllAsTouched()
	f.wait(ctx, form)
	if !form.Valid() {
		tree := f.messages.ForTree(form.Group)
		paths := make([]string, 0, len(tree))
		for path := range tree {
			paths = append(paths, path)
		}
		sort.Strings(paths)
		for _, path := range paths {
			for _, msg := range tree[path] {
				f.driver.Info(ctx, fmt.Sprintf("%s: %s", path, msg))
			}
		}
		return form.Value(), ErrInvalid
	}
	return form.Value(), nil
}

func choicesFor(p profile.Profile) map[string][]string {
	years := make([]string, 0, len(p.Years()))
	for _, y := range p.Years() {
		years = append(years, strconv.Itoa(y))
	}
	return map[string][]string{
		"yearOfBirth": years,
		"label":       profile.PhoneLabels,
	}
}

func (f *Filler) fillControl(ctx context.Context, st *fillState, c forms.Control) error {
	if c.Disabled() {
		return nil
	}
	switch ctrl := c.(type) {
	case *forms.Field:
		return f.fillField(ctx, st, ctrl)
	case *forms.Array:
		return f.fillArray(ctx, st, ctrl)
	case *forms.Group:
		if isChecklist(ctrl) {
			return f.fillChecklist(ctx, ctrl)
		}
		return f.retry(ctx, ctrl, func() error {
			for _, child := range ctrl.Controls() {
				if err := f.fillControl(ctx, st, child.Control); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return nil
}

func (f *Filler) fillField(ctx context.Context, st *fillState, field *forms.Field) error {
	return f.retry(ctx, field, func() error {
		value, err := f.ask(ctx, st, field)
		if err != nil {
			return err
		}
		field.Input(value)
		field.Blur()
		return nil
	})
}

// retry runs fill until c reports no errors of its own.
func (f *Filler) retry(ctx context.Context, c forms.Control, fill func() error) error {
	for attempt := 1; ; attempt++ {
		if err := fill(); err != nil {
			return err
		}
		f.wait(ctx, c)
		if c.Errors() == nil {
			return nil
		}
		for _, msg := range f.messages.Messages(c) {
			if err := f.driver.Info(ctx, "  "+msg); err != nil {
				return err
			}
		}
		if f.MaxAttempts > 0 && attempt >= f.MaxAttempts {
			return fmt.Errorf("%w: %s", ErrTooManyAttempts, c.Path())
		}
	}
}

func (f *Filler) ask(ctx context.Context, st *fillState, field *forms.Field) (any, error) {
	label := f.messages.Label(field.Path())
	current := field.Value()

	if options, ok := st.choices[field.Name()]; ok && len(options) > 0 {
		text := validators.Text(current)
		idx, err := f.driver.Select(ctx, SelectConfig{
			Message:      label,
			Options:      options,
			DefaultIndex: indexOf(options, text),
			PageSize:     10,
		})
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= len(options) {
			return current, nil
		}
		return convert(options[idx], current), nil
	}

	if b, ok := current.(bool); ok {
		return f.driver.Confirm(ctx, ConfirmConfig{Message: label, Default: b})
	}

	cfg := InputConfig{Message: label, Default: validators.Text(current)}
	var (
		answer string
		err    error
	)
	if isSecret(field.Name()) {
		answer, err = f.driver.Password(ctx, cfg)
	} else {
		answer, err = f.driver.Input(ctx, cfg)
	}
	if err != nil {
		return nil, err
	}
	return convert(strings.TrimSpace(answer), current), nil
}

func (f *Filler) fillArray(ctx context.Context, st *fillState, arr *forms.Array) error {
	for _, item := range arr.Controls() {
		if err := f.fillControl(ctx, st, item); err != nil {
			return err
		}
	}
	label := f.messages.Label(arr.Path())
	for {
		more, err := f.driver.Confirm(ctx, ConfirmConfig{Message: fmt.Sprintf("Add another entry to %s?", strings.ToLower(label))})
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
		if err := st.profile.AddPhone(); err != nil {
			if errors.Is(err, profile.ErrUnsupported) {
				return nil
			}
			return err
		}
		if err := f.fillControl(ctx, st, arr.At(0)); err != nil {
			return err
		}
	}
}

func (f *Filler) fillChecklist(ctx context.Context, g *forms.Group) error {
	names := g.Names()
	var defaults []int
	for i, child := range g.Controls() {
		if on, _ := child.Control.Value().(bool); on {
			defaults = append(defaults, i)
		}
	}
	picked, err := f.driver.MultiSelect(ctx, SelectConfig{
		Message:  f.messages.Label(g.Path()),
		Options:  names,
		Defaults: defaults,
	})
	if err != nil {
		return err
	}
	selected := make(map[int]bool, len(picked))
	for _, i := range picked {
		selected[i] = true
	}
	for i, child := range g.Controls() {
		field, ok := child.Control.(*forms.Field)
		if !ok {
			continue
		}
		field.Input(selected[i])
		field.Blur()
	}
	return nil
}

// isChecklist reports whether every child of g is a boolean field.
func isChecklist(g *forms.Group) bool {
	if g.Len() == 0 {
		return false
	}
	for _, child := range g.Controls() {
		field, ok := child.Control.(*forms.Field)
		if !ok {
			return false
		}
		if _, ok := field.Value().(bool); !ok {
			return false
		}
	}
	return true
}

func isSecret(name string) bool {
	name = strings.ToLower(name)
	return strings.Contains(name, "password")
}

// convert parses answer into the kind of current.
func convert(answer string, current any) any {
	switch current.(type) {
	case int, int64:
		if n, err := strconv.Atoi(answer); err == nil {
			return n
		}
	case float64:
		if n, err := strconv.ParseFloat(answer, 64); err == nil {
			return n
		}
	}
	return answer
}

func (f *Filler) wait(ctx context.Context, c forms.Control) {
	if f.CheckTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.CheckTimeout)
		defer cancel()
	}
	_ = c.Wait(ctx)
}
