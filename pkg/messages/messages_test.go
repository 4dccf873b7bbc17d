package messages_test

import (
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formkit/pkg/forms"
	"github.com/goliatone/go-formkit/pkg/messages"
)

func newCatalog(t *testing.T, opts ...messages.Option) *messages.Catalog {
	t.Helper()
	c, err := messages.New(opts...)
	if err != nil {
		t.Fatalf("new catalog: %v", err)
	}
	return c
}

func TestRender_Defaults(t *testing.T) {
	c := newCatalog(t)
	data := map[string]any{"label": "Nickname", "value": "Bret"}

	tests := []struct {
		key     string
		payload forms.Payload
		want    string
	}{
		{"required", nil, "Nickname is required."},
		{"minlength", forms.Payload{"requiredLength": 2, "actualLength": 1}, "Nickname must be at least 2 characters long."},
		{"min", forms.Payload{"min": 1.0, "actual": 0.0}, "Nickname must be at least 1."},
		{"banWords", forms.Payload{"bannedWord": "dummy"}, `Nickname cannot be "dummy".`},
		{"appBanWords", forms.Payload{"bannedWord": "o'neil"}, `Nickname cannot be "o'neil".`},
		{"uniqueName", forms.Payload{"isTaken": true}, `Nickname "Bret" is already taken.`},
		{"appUniqueNickname", forms.Payload{"unknownError": true}, "Could not verify nickname right now, edit the field to retry."},
		{"passwordMatch", forms.Payload{"mismatch": true}, "Passwords do not match."},
		{"somethingElse", nil, "Nickname is invalid."},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := c.Render(tt.key, tt.payload, data)
			if err != nil {
				t.Fatalf("render: %v", err)
			}
			if got != tt.want {
				t.Fatalf("Render(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestRender_Overrides(t *testing.T) {
	files := fstest.MapFS{
		"required.tpl": {Data: []byte("Please fill in {{ label|lower }}.\n")},
	}
	c := newCatalog(t,
		messages.WithFS(files),
		messages.WithTemplates(map[string]string{"email": "{{ value }} is not an email."}),
	)

	got, err := c.Render("required", nil, map[string]any{"label": "City"})
	if err != nil || got != "Please fill in city." {
		t.Fatalf("fs override: %q (%v)", got, err)
	}
	got, err = c.Render("email", nil, map[string]any{"value": "bob@"})
	if err != nil || got != "bob@ is not an email." {
		t.Fatalf("template override: %q (%v)", got, err)
	}
}

func TestForTree(t *testing.T) {
	required := forms.NewValidator("required", func(c forms.Control) forms.Errors {
		if c.Value() == "" {
			return forms.NewError("required", nil)
		}
		return nil
	})
	root := forms.NewGroup([]forms.Child{
		forms.C("firstName", forms.NewField("", forms.WithValidators(required))),
		forms.C("address", forms.NewGroup([]forms.Child{
			forms.C("postCode", forms.NewField("", forms.WithValidators(required))),
		})),
	})

	c := newCatalog(t, messages.WithLabels(map[string]string{"address.postCode": "ZIP"}))
	want := map[string][]string{
		"firstName":        {"First name is required."},
		"address.postCode": {"ZIP is required."},
	}
	if diff := cmp.Diff(want, c.ForTree(root)); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestHumanize(t *testing.T) {
	tests := map[string]string{
		"firstName":        "First name",
		"confirm-password": "Confirm password",
		"yearOfBirth":      "Year of birth",
		"city":             "City",
		"0":                "0",
	}
	for in, want := range tests {
		if got := messages.Humanize(in); got != want {
			t.Fatalf("Humanize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestKeys(t *testing.T) {
	keys := messages.Keys()
	if len(keys) == 0 || keys[0] != "banWords" {
		t.Fatalf("unexpected keys %v", keys)
	}
	for _, key := range keys {
		if key == "fallback" {
			t.Fatalf("fallback must not be listed")
		}
	}
}
