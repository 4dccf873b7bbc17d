package profile_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formkit/pkg/catalog"
	"github.com/goliatone/go-formkit/pkg/clock"
	"github.com/goliatone/go-formkit/pkg/directory"
	"github.com/goliatone/go-formkit/pkg/forms"
	"github.com/goliatone/go-formkit/pkg/profile"
)

func deps() profile.Deps {
	return profile.Deps{
		Lookup: directory.NewMemoryStore(directory.User{Username: "Bret"}),
		Skills: catalog.New(catalog.WithDelay(0)),
		Clock:  clock.AtYear(2024),
	}
}

func settle(t *testing.T, c forms.Control) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.Wait(ctx); err != nil {
		t.Fatalf("wait: %v", err)
	}
}

func loaded(t *testing.T) *profile.ReactiveProfile {
	t.Helper()
	p := profile.Reactive(deps())
	t.Cleanup(p.Close)
	if err := p.LoadSkills(context.Background()); err != nil {
		t.Fatalf("load skills: %v", err)
	}
	settle(t, p.Form())
	return p
}

func TestReactive_Defaults(t *testing.T) {
	p := loaded(t)
	form := p.Form()

	want := map[string]any{
		"firstName":   "Bob",
		"lastName":    "Smith",
		"nickName":    "Bobby",
		"email":       "bob@gmail.com",
		"yearOfBirth": 1975,
		"passport":    "",
		"address":     map[string]any{"fullAddress": "", "city": "", "postCode": 0},
		"phones":      []any{map[string]any{"label": "Main", "phone": ""}},
		"skills":      map[string]any{"Angular": false, "RxJS": false, "Docker": false, "Python": false},
		"password":    map[string]any{"password": "", "confirmPassword": ""},
	}
	if diff := cmp.Diff(want, form.Value()); diff != "" {
		t.Fatalf("value mismatch (-want +got):\n%s", diff)
	}

	years := p.Years()
	if len(years) != profile.ReactiveYears || years[0] != 2024 || years[len(years)-1] != 1975 {
		t.Fatalf("unexpected years %v", years)
	}

	errs := forms.CollectErrors(form)
	for _, path := range []string{"passport", "address.fullAddress", "address.city", "password.password"} {
		if !errs[path].Has("required") {
			t.Fatalf("%s: expected required, got %v", path, errs[path])
		}
	}
	if form.Get("nickName").Errors() != nil {
		t.Fatalf("nickName should be free, got %v", form.Get("nickName").Errors())
	}
	if !form.Invalid() {
		t.Fatalf("expected INVALID, got %s", form.Status())
	}
}

func TestReactive_BanWords(t *testing.T) {
	p := loaded(t)
	first := p.Form().Get("firstName")

	_ = first.SetValue("NOOB")
	want := forms.Errors{"banWords": {"bannedWord": "noob"}}
	if diff := cmp.Diff(want, first.Errors()); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}

	_ = first.SetValue("Alice")
	p.SetBannedWords([]string{"alice"}, nil)
	if !first.HasError("banWords") {
		t.Fatalf("expected new ban list to apply")
	}
}

func TestReactive_NicknameCommitsOnBlur(t *testing.T) {
	p := loaded(t)
	nick := p.Form().Get("nickName").(*forms.Field)

	nick.Input("Bret")
	if nick.Value() != "Bobby" {
		t.Fatalf("input must not commit before blur")
	}
	nick.Blur()
	settle(t, p.Form())
	want := forms.Errors{"uniqueName": {"isTaken": true}}
	if diff := cmp.Diff(want, nick.Errors()); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestReactive_PassportFollowsAge(t *testing.T) {
	p := loaded(t)
	form := p.Form()
	passport := form.Get("passport")
	if passport.Dirty() {
		t.Fatalf("passport must start pristine")
	}

	_ = form.Get("yearOfBirth").SetValue(2010)
	if passport.HasError("required") || !passport.Dirty() {
		t.Fatalf("minor: errors=%v dirty=%v", passport.Errors(), passport.Dirty())
	}

	_ = form.Get("yearOfBirth").SetValue(2006)
	if !passport.HasError("required") {
		t.Fatalf("adult must provide passport")
	}
	_ = passport.SetValue("EA123123")
	if !passport.Valid() {
		t.Fatalf("expected VALID passport, got %v", passport.Errors())
	}
}

func TestReactive_PasswordMismatch(t *testing.T) {
	p := loaded(t)
	form := p.Form()
	_ = form.Get("password.password").SetValue("secret1")
	_ = form.Get("password.confirmPassword").SetValue("secret2")

	if !form.Get("password").HasError("passwordMatch") {
		t.Fatalf("expected group error")
	}
	if !form.Get("password.confirmPassword").HasError("passwordMatch") {
		t.Fatalf("expected confirmation error")
	}
}

func TestReactive_Phones(t *testing.T) {
	p := loaded(t)
	_ = p.Phones().At(0).Get("phone").SetValue("555-0100")

	if err := p.AddPhone(); err != nil {
		t.Fatalf("add phone: %v", err)
	}
	if p.Phones().Len() != 2 || p.Phones().At(0).Get("phone").Value() != "" {
		t.Fatalf("new phone must be inserted first")
	}
	if got := p.Phones().At(1).Get("phone").Path(); got != "phones.1.phone" {
		t.Fatalf("path = %q", got)
	}
	if err := p.RemovePhone(5); !errors.Is(err, forms.ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
	if err := p.RemovePhone(0); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if p.Phones().At(0).Get("phone").Value() != "555-0100" {
		t.Fatalf("wrong row removed")
	}
}

func TestReactive_ResetReturnsToLastSnapshot(t *testing.T) {
	p := loaded(t)
	form := p.Form()

	_ = form.Get("firstName").SetValue("Alice")
	_ = p.AddPhone()
	if err := p.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if form.Get("firstName").Value() != "Bob" || p.Phones().Len() != 1 {
		t.Fatalf("reset before submit must restore the loaded values")
	}

	_ = form.Get("firstName").SetValue("Alice")
	_ = p.AddPhone()
	_ = form.Get("skills.Docker").SetValue(true)
	snap, err := p.Submit()
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if form.Get("firstName").Value() != "Alice" || form.Dirty() || form.Touched() {
		t.Fatalf("submit must keep values and reset flags")
	}
	if got, _ := snap.Lookup("skills.Docker"); got != true {
		t.Fatalf("snapshot missing skill: %v", got)
	}

	_ = form.Get("firstName").SetValue("Carol")
	_ = p.RemovePhone(0)
	_ = p.RemovePhone(0)
	if err := p.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if form.Get("firstName").Value() != "Alice" || p.Phones().Len() != 2 {
		t.Fatalf("reset must restore the submitted snapshot, got %v", form.Value())
	}
	if form.Get("skills.Docker").Value() != true {
		t.Fatalf("skills not restored")
	}
}

func TestReactive_Registration(t *testing.T) {
	p := loaded(t)
	want := directory.User{Name: "Bob Smith", Username: "Bobby", Email: "bob@gmail.com"}
	if diff := cmp.Diff(want, p.Registration()); diff != "" {
		t.Fatalf("registration mismatch (-want +got):\n%s", diff)
	}
}

func TestTemplateDriven_DefaultsAndBinding(t *testing.T) {
	p, err := profile.TemplateDriven(deps())
	if err != nil {
		t.Fatalf("template driven: %v", err)
	}
	defer p.Close()
	if err := p.LoadSkills(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	form := p.Form()
	settle(t, form)
	if !form.Valid() {
		t.Fatalf("expected VALID defaults, got %v", forms.CollectErrors(form))
	}
	if len(p.Years()) != profile.TemplateYears {
		t.Fatalf("unexpected years %v", p.Years())
	}
	if got := form.Get("address.postCode").Value(); got != 12333 {
		t.Fatalf("postCode = %v", got)
	}

	_ = form.Get("address.city").SetValue("Boston")
	_ = form.Get("yearOfBirth").SetValue(2000.0)
	if p.User().City != "Boston" || p.User().YearOfBirth != 2000 {
		t.Fatalf("model not updated: %+v", p.User())
	}

	if err := p.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if p.User().City != "Buffalo" || p.User().YearOfBirth != 1995 {
		t.Fatalf("model not restored: %+v", p.User())
	}
	if err := p.AddPhone(); !errors.Is(err, profile.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestTemplateDriven_ErrorKeys(t *testing.T) {
	p, err := profile.TemplateDriven(deps())
	if err != nil {
		t.Fatalf("template driven: %v", err)
	}
	defer p.Close()
	form := p.Form()

	_ = form.Get("firstName").SetValue("Test")
	want := forms.Errors{"appBanWords": {"bannedWord": "test"}}
	if diff := cmp.Diff(want, form.Get("firstName").Errors()); diff != "" {
		t.Fatalf("ban errors mismatch (-want +got):\n%s", diff)
	}

	_ = form.Get("password.confirm-password").SetValue("321321")
	if !form.Get("password").HasError(profile.KeyAppPasswordShouldMatch) {
		t.Fatalf("expected password group error")
	}

	nick := form.Get("nickname").(*forms.Field)
	nick.Input("bret")
	nick.Blur()
	settle(t, form)
	if !nick.HasError(profile.KeyAppUniqueNickname) {
		t.Fatalf("expected unique error, got %v", nick.Errors())
	}
	if p.User().Nickname != "bret" {
		t.Fatalf("model nickname = %q", p.User().Nickname)
	}
}

func TestNew(t *testing.T) {
	for _, raw := range []string{"reactive", "Template-Driven", "template"} {
		kind, err := profile.ParseKind(raw)
		if err != nil {
			t.Fatalf("%q: %v", raw, err)
		}
		p, err := profile.New(kind, deps())
		if err != nil {
			t.Fatalf("%q: %v", raw, err)
		}
		if p.Kind() != kind {
			t.Fatalf("kind = %s, want %s", p.Kind(), kind)
		}
		p.Close()
	}
	if _, err := profile.ParseKind("wizard"); !errors.Is(err, profile.ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}

type countingInstrumenter struct {
	sync, async int
}

func (c *countingInstrumenter) Validator(v forms.Validator) forms.Validator {
	c.sync++
	return v
}

func (c *countingInstrumenter) AsyncValidator(v forms.AsyncValidator) forms.AsyncValidator {
	c.async++
	return v
}

func TestInstrumenterWrapsRules(t *testing.T) {
	for _, kind := range []profile.Kind{profile.KindReactive, profile.KindTemplate} {
		inst := &countingInstrumenter{}
		d := deps()
		d.Instrumenter = inst
		p, err := profile.New(kind, d)
		if err != nil {
			t.Fatalf("%s: %v", kind, err)
		}
		p.Close()
		if inst.sync == 0 || inst.async != 1 {
			t.Fatalf("%s: sync=%d async=%d", kind, inst.sync, inst.async)
		}
	}
}

func TestSearch_Debounces(t *testing.T) {
	s := profile.NewSearch(20 * time.Millisecond)
	defer s.Close()
	settled := make(chan string, 4)
	s.OnSettled(func(term string) { settled <- term })

	s.Input("a")
	s.Input("an")
	s.Input("ang")
	select {
	case got := <-settled:
		if got != "ang" {
			t.Fatalf("settled %q, want ang", got)
		}
	case <-time.After(time.Second):
		t.Fatalf("search never settled")
	}

	s.Input("ang")
	select {
	case got := <-settled:
		t.Fatalf("repeat delivered: %q", got)
	case <-time.After(100 * time.Millisecond):
	}
	if s.Value() != "ang" {
		t.Fatalf("value = %q", s.Value())
	}
}
