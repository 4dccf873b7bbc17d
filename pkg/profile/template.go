package profile

import (
	"context"
	"fmt"

	"github.com/goliatone/go-formkit/pkg/binding"
	"github.com/goliatone/go-formkit/pkg/directory"
	"github.com/goliatone/go-formkit/pkg/forms"
	"github.com/goliatone/go-formkit/pkg/validators"
)

// TemplateYears is the length of the template-driven year list.
const TemplateYears = 40

// Error keys of the template-driven rules.
const (
	KeyAppBanWords            = "appBanWords"
	KeyAppPasswordShouldMatch = "appPasswordShouldMatch"
	KeyAppUniqueNickname      = "appUniqueNickname"
)

// User is the model of the template-driven form. Address and password
// fields are flat here and grouped by their tags.
type User struct {
	FirstName       string `form:"firstName" json:"firstName" yaml:"firstName" validate:"required;minlength:2;banwords:$firstNames"`
	LastName        string `form:"lastName" json:"lastName" yaml:"lastName" validate:"required;minlength:2"`
	Nickname        string `form:"nickname" json:"nickname" yaml:"nickname" validate:"required;minlength:2;banwords:$nicknames;pattern:^[\\w.]+$" async:"unique@appUniqueNickname" updateOn:"blur"`
	Email           string `form:"email" json:"email" yaml:"email" validate:"required;email"`
	YearOfBirth     int    `form:"yearOfBirth" json:"yearOfBirth" yaml:"yearOfBirth" validate:"required"`
	Passport        string `form:"passport" json:"passport" yaml:"passport" validate:"pattern:^[A-Z]{2}[0-9]{6}$"`
	FullAddress     string `form:"fullAddress" json:"fullAddress" yaml:"fullAddress" group:"address" validate:"required"`
	City            string `form:"city" json:"city" yaml:"city" group:"address" validate:"required"`
	PostCode        int    `form:"postCode" json:"postCode" yaml:"postCode" group:"address" validate:"required"`
	Password        string `form:"password" json:"password" yaml:"password" group:"password;passwordmatch@appPasswordShouldMatch:password|confirm-password" validate:"required;minlength:6"`
	ConfirmPassword string `form:"confirm-password" json:"confirmPassword" yaml:"confirmPassword" group:"password"`
}

// DefaultUser is the preset model of the template-driven form.
func DefaultUser() User {
	return User{
		FirstName:       "Bob",
		LastName:        "Bobson",
		Nickname:        "Bomber",
		Email:           "bobik@gg.gg",
		YearOfBirth:     1995,
		Passport:        "EA123123",
		FullAddress:     "Broadway str. 13",
		City:            "Buffalo",
		PostCode:        12333,
		Password:        "123123",
		ConfirmPassword: "123123",
	}
}

// TemplateProfile is the profile form built from the User tags.
type TemplateProfile struct {
	base
	user   *User
	binder *binding.Binder
}

// TemplateDriven builds the template-driven form around a fresh
// DefaultUser.
func TemplateDriven(deps Deps) (*TemplateProfile, error) {
	user := DefaultUser()
	return TemplateDrivenFor(&user, deps)
}

// TemplateDrivenFor builds the form around user. Control changes are
// written back into user.
func TemplateDrivenFor(user *User, deps Deps) (*TemplateProfile, error) {
	p := &TemplateProfile{base: base{kind: KindTemplate, deps: deps}, user: user}
	p.years = Years(deps.Clock, TemplateYears)
	p.firstNames = validators.NewBanList(KeyAppBanWords, deps.firstNames()...)
	p.nicknames = validators.NewBanList(KeyAppBanWords, deps.nicknames()...)

	def, err := binding.FromStruct(user)
	if err != nil {
		return nil, err
	}
	reg := binding.NewRegistry(
		binding.WithLookup(deps.Lookup),
		binding.WithBanList("firstNames", p.firstNames),
		binding.WithBanList("nicknames", p.nicknames),
		binding.WithDecorator(func(rule binding.Rule) binding.Rule {
			for i, v := range rule.Validators {
				rule.Validators[i] = deps.sync(v)
			}
			for i, v := range rule.Async {
				rule.Async[i] = deps.async(v)
			}
			return rule
		}),
	)
	root, err := def.Build(reg)
	if err != nil {
		return nil, fmt.Errorf("profile: build template form: %w", err)
	}
	p.form = forms.NewForm(root)
	p.binder, err = binding.Bind(user, root)
	if err != nil {
		return nil, err
	}
	p.unbind = append(p.unbind, p.binder.Unbind)

	age := validators.AgeRequirement{Clock: deps.Clock, Rule: deps.sync(validators.Required())}
	p.unbind = append(p.unbind, age.Bind(root.Get("yearOfBirth"), root.Get("passport")))
	p.search = NewSearch(SearchDebounce)
	return p, nil
}

// User returns the bound model.
func (p *TemplateProfile) User() *User { return p.user }

// Binder returns the model binding.
func (p *TemplateProfile) Binder() *binding.Binder { return p.binder }

// LoadSkills captures the initial snapshot. The template-driven form has no
// skill list.
func (p *TemplateProfile) LoadSkills(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.form.Capture()
	return nil
}

// Registration maps the bound user onto a directory entry.
func (p *TemplateProfile) Registration() directory.User {
	return p.registration("firstName", "lastName", "nickname", "email")
}
