// Package formkit is the entry point for building validated forms: the user
// profile in its reactive and template-driven flavours, or any form declared
// in YAML, an OpenAPI request body or struct tags.
package formkit

import (
	"context"

	"github.com/goliatone/go-formkit/pkg/binding"
	"github.com/goliatone/go-formkit/pkg/forms"
	"github.com/goliatone/go-formkit/pkg/messages"
	"github.com/goliatone/go-formkit/pkg/profile"
)

// Form aliases forms.Form for callers that only import the root package.
type Form = forms.Form

// Errors is the error record of one control.
type Errors = forms.Errors

// Profile aliases profile.Profile.
type Profile = profile.Profile

// ProfileDeps collects the profile collaborators.
type ProfileDeps = profile.Deps

// Definition aliases binding.Definition.
type Definition = binding.Definition

// NewProfile builds the profile of the given kind and loads its skills, so
// the returned form is ready with its reset snapshot captured.
func NewProfile(ctx context.Context, kind profile.Kind, deps ProfileDeps) (Profile, error) {
	p, err := profile.New(kind, deps)
	if err != nil {
		return nil, err
	}
	if err := p.LoadSkills(ctx); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

// FormFromYAML builds a form from a YAML definition. Options configure the
// directive registry.
func FormFromYAML(data []byte, options ...binding.RegistryOption) (*Form, error) {
	def, err := binding.FromYAML(data)
	if err != nil {
		return nil, err
	}
	return build(def, options)
}

// FormFromOpenAPI builds a form from the request body schema of operationID.
func FormFromOpenAPI(ctx context.Context, doc []byte, operationID string, options ...binding.RegistryOption) (*Form, error) {
	def, err := binding.FromOpenAPI(ctx, doc, operationID)
	if err != nil {
		return nil, err
	}
	return build(def, options)
}

func build(def Definition, options []binding.RegistryOption) (*Form, error) {
	root, err := def.Build(binding.NewRegistry(options...))
	if err != nil {
		return nil, err
	}
	return forms.NewForm(root), nil
}

// Messages renders the current errors of every enabled control in form,
// keyed by path, using the default message catalog.
func Messages(form *Form) (map[string][]string, error) {
	catalog, err := messages.New()
	if err != nil {
		return nil, err
	}
	return catalog.ForTree(form.Group), nil
}
