package profile

import (
	"context"
	"fmt"

	"github.com/goliatone/go-formkit/pkg/catalog"
	"github.com/goliatone/go-formkit/pkg/directory"
	"github.com/goliatone/go-formkit/pkg/forms"
	"github.com/goliatone/go-formkit/pkg/validators"
)

// ReactiveYears is the length of the year of birth choice list.
const ReactiveYears = 50

// PhoneLabels are the choices of a phone row label.
var PhoneLabels = []string{"Main", "Work", "Mobile", "Home"}

// Patterns shared by both flavours.
const (
	NicknamePattern = `^[\w.]+$`
	PassportPattern = `^[A-Z]{2}[0-9]{6}$`
)

// ReactiveProfile is the profile form assembled in code.
type ReactiveProfile struct {
	base
	phones *forms.Array
	skills *forms.Group
}

// Reactive builds the reactive profile form.
func Reactive(deps Deps) *ReactiveProfile {
	p := &ReactiveProfile{base: base{kind: KindReactive, deps: deps}}
	p.years = Years(deps.Clock, ReactiveYears)
	p.firstNames = validators.NewBanList(validators.KeyBanWords, deps.firstNames()...)
	p.nicknames = validators.NewBanList(validators.KeyBanWords, deps.nicknames()...)

	fb := forms.NewBuilder()
	rule := deps.sync

	firstName := fb.Field("Bob", forms.WithValidators(
		rule(validators.Required()),
		rule(validators.MinLength(2)),
	))
	lastName := fb.Field("Smith", forms.WithValidators(
		rule(validators.Required()),
		rule(validators.MinLength(2)),
	))
	nickName := fb.Field("Bobby",
		forms.WithValidators(
			rule(validators.Required()),
			rule(validators.MinLength(2)),
			rule(validators.MustPattern(NicknamePattern)),
		),
		forms.WithAsyncValidators(deps.async(validators.UniqueName(deps.Lookup))),
		forms.WithUpdateOn(forms.UpdateOnBlur),
	)
	yearOfBirth := fb.Field(p.years[len(p.years)-1],
		forms.NonNullable(),
		forms.WithValidators(rule(validators.Required())),
	)
	passport := fb.Field("", forms.WithValidators(rule(validators.MustPattern(PassportPattern))))

	address := fb.Group([]forms.Child{
		forms.C("fullAddress", fb.Field("", forms.NonNullable(), forms.WithValidators(rule(validators.Required())))),
		forms.C("city", fb.Field("", forms.NonNullable(), forms.WithValidators(rule(validators.Required())))),
		forms.C("postCode", fb.Field(0, forms.NonNullable(), forms.WithValidators(rule(validators.Required())))),
	})

	p.phones = fb.Array([]forms.Control{newPhone()}, forms.WithItemFactory(func() forms.Control { return newPhone() }))
	p.skills = fb.Record()

	password := fb.Group([]forms.Child{
		forms.C("password", fb.Field("", forms.WithValidators(
			rule(validators.Required()),
			rule(validators.MinLength(6)),
		))),
		forms.C("confirmPassword", fb.Field("")),
	}, forms.WithValidators(rule(validators.PasswordMatch("password", "confirmPassword"))))

	root := fb.Group([]forms.Child{
		forms.C("firstName", firstName),
		forms.C("lastName", lastName),
		forms.C("nickName", nickName),
		forms.C("email", fb.Field("bob@gmail.com", forms.WithValidators(
			rule(validators.Required()),
			rule(validators.Email()),
		))),
		forms.C("yearOfBirth", yearOfBirth),
		forms.C("passport", passport),
		forms.C("address", address),
		forms.C("phones", p.phones),
		forms.C("skills", p.skills),
		forms.C("password", password),
	})
	p.form = forms.NewForm(root)

	p.firstNames.Attach(firstName)
	p.nicknames.Attach(nickName)
	firstName.UpdateValueAndValidity()
	nickName.UpdateValueAndValidity()

	age := validators.AgeRequirement{Clock: deps.Clock, Rule: rule(validators.Required())}
	p.unbind = append(p.unbind, age.Bind(yearOfBirth, passport))
	p.search = NewSearch(SearchDebounce)
	return p
}

func newPhone() *forms.Group {
	return forms.NewGroup([]forms.Child{
		forms.C("label", forms.NewField(PhoneLabels[0], forms.NonNullable())),
		forms.C("phone", forms.NewField("")),
	})
}

// Phones is the phone list.
func (p *ReactiveProfile) Phones() *forms.Array { return p.phones }

// Skills is the skill record.
func (p *ReactiveProfile) Skills() *forms.Group { return p.skills }

// LoadSkills adds a false, non-nullable control per skill and captures the
// snapshot that Reset returns to.
func (p *ReactiveProfile) LoadSkills(ctx context.Context) error {
	source := p.deps.Skills
	if source == nil {
		source = catalog.New(catalog.WithDelay(0))
	}
	skills, err := source.Skills(ctx)
	if err != nil {
		return fmt.Errorf("profile: load skills: %w", err)
	}
	for _, skill := range skills {
		p.skills.AddControl(skill, forms.NewField(false, forms.NonNullable()))
	}
	p.form.Capture()
	return nil
}

// AddPhone inserts an empty phone row at the top of the list.
func (p *ReactiveProfile) AddPhone() error {
	p.phones.Insert(0, newPhone())
	return nil
}

// RemovePhone removes the row at i.
func (p *ReactiveProfile) RemovePhone(i int) error {
	return p.phones.RemoveAt(i)
}

// Registration maps the form value onto a directory entry.
func (p *ReactiveProfile) Registration() directory.User {
	return p.registration("firstName", "lastName", "nickName", "email")
}
