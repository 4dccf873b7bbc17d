package server

import (
	"github.com/goliatone/go-formkit/pkg/forms"
	"github.com/goliatone/go-formkit/pkg/messages"
	"github.com/goliatone/go-formkit/pkg/profile"
)

// State is the JSON view of a session.
type State struct {
	ID        string                  `json:"id"`
	Kind      profile.Kind            `json:"kind"`
	Status    forms.Status            `json:"status"`
	Value     any                     `json:"value"`
	Errors    map[string]forms.Errors `json:"errors"`
	Messages  map[string][]string     `json:"messages"`
	Dirty     bool                    `json:"dirty"`
	Touched   bool                    `json:"touched"`
	Pending   bool                    `json:"pending"`
	Submitted bool                    `json:"submitted"`
	Years     []int                   `json:"years,omitempty"`
}

func stateOf(sess *Session, p profile.Profile, catalog *messages.Catalog) State {
	form := p.Form()
	return State{
		ID:        sess.ID,
		Kind:      sess.Kind,
		Status:    form.Status(),
		Value:     form.Value(),
		Errors:    forms.CollectErrors(form.Group),
		Messages:  catalog.ForTree(form.Group),
		Dirty:     form.Dirty(),
		Touched:   form.Touched(),
		Pending:   form.Pending(),
		Submitted: form.Submitted(),
		Years:     p.Years(),
	}
}
