package formkit

import (
	"context"
	"io/fs"
	"strings"
	"testing"

	"github.com/goliatone/go-formkit/pkg/catalog"
	"github.com/goliatone/go-formkit/pkg/clock"
	"github.com/goliatone/go-formkit/pkg/directory"
	"github.com/goliatone/go-formkit/pkg/profile"
)

func TestEmbeddedTemplatesContainsRequired(t *testing.T) {
	data, err := fs.ReadFile(EmbeddedTemplates(), "required.tpl")
	if err != nil {
		t.Fatalf("expected required template to be readable: %v", err)
	}
	if !strings.Contains(string(data), "required") {
		t.Fatalf("unexpected template %q", data)
	}
}

func TestNewProfileLoadsSkills(t *testing.T) {
	p, err := NewProfile(context.Background(), profile.KindReactive, ProfileDeps{
		Lookup: directory.NewMemoryStore(),
		Skills: catalog.New(catalog.WithDelay(0)),
		Clock:  clock.AtYear(2024),
	})
	if err != nil {
		t.Fatalf("NewProfile: %v", err)
	}
	defer p.Close()

	if got := p.Form().Get("skills").(interface{ Len() int }).Len(); got != len(catalog.DefaultSkills()) {
		t.Fatalf("skills = %d", got)
	}
	if _, ok := p.Form().Snapshot(); !ok {
		t.Fatalf("expected a captured snapshot")
	}
}

func TestFormFromYAMLMessages(t *testing.T) {
	form, err := FormFromYAML([]byte(`
fields:
  - path: email
    default: nope
    validators: ["required", "email"]
`))
	if err != nil {
		t.Fatalf("FormFromYAML: %v", err)
	}
	defer form.Close()

	msgs, err := Messages(form)
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if len(msgs["email"]) != 1 {
		t.Fatalf("expected one email message, got %v", msgs)
	}
}
