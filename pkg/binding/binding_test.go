package binding_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formkit/pkg/binding"
	"github.com/goliatone/go-formkit/pkg/directory"
	"github.com/goliatone/go-formkit/pkg/forms"
	"github.com/goliatone/go-formkit/pkg/validators"
)

func TestParseDirectives(t *testing.T) {
	tests := []struct {
		tag  string
		want []binding.DirectiveRef
	}{
		{"", nil},
		{"required", []binding.DirectiveRef{{Name: "required"}}},
		{"Required; minlength:2", []binding.DirectiveRef{{Name: "required"}, {Name: "minlength", Args: []string{"2"}}}},
		{"banwords@appBanWords:dummy|anonymous", []binding.DirectiveRef{{Name: "banwords", Key: "appBanWords", Args: []string{"dummy", "anonymous"}}}},
		{"required;pattern:^(a|b);c$", []binding.DirectiveRef{{Name: "required"}, {Name: "pattern", Args: []string{"^(a|b);c$"}}}},
	}
	for _, tt := range tests {
		got, err := binding.ParseDirectives(tt.tag)
		if err != nil {
			t.Fatalf("%q: %v", tt.tag, err)
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Fatalf("%q mismatch (-want +got):\n%s", tt.tag, diff)
		}
	}

	if _, err := binding.ParseDirectives("@key:1"); !errors.Is(err, binding.ErrDirectiveArgs) {
		t.Fatalf("expected ErrDirectiveArgs, got %v", err)
	}
}

type account struct {
	Nickname        string `form:"nickname" validate:"required;minlength:2;banwords@appBanWords:dummy|anonymous" async:"unique@appUniqueNickname" updateOn:"blur"`
	Year            int    `form:"yearOfBirth" validate:"required"`
	City            string `group:"address" validate:"required"`
	PostCode        int    `group:"address" validate:"required"`
	Password        string `group:"password;passwordmatch@appPasswordShouldMatch:password|confirm-password" validate:"required;minlength:6"`
	ConfirmPassword string `form:"confirm-password" group:"password"`
	Internal        string `form:"-"`
	Profile         struct {
		Bio string `validate:"maxlength:5"`
	}
}

func newAccount() *account {
	return &account{
		Nickname:        "Bomber",
		Year:            1995,
		City:            "Buffalo",
		PostCode:        12333,
		Password:        "123123",
		ConfirmPassword: "123123",
	}
}

func TestFromStruct_BuildsTree(t *testing.T) {
	def, err := binding.FromStruct(newAccount())
	if err != nil {
		t.Fatalf("from struct: %v", err)
	}
	var paths []string
	for _, f := range def.Fields {
		paths = append(paths, f.Path)
	}
	want := []string{"nickname", "yearOfBirth", "address.city", "address.postCode", "password.password", "password.confirm-password", "profile.bio"}
	if diff := cmp.Diff(want, paths); diff != "" {
		t.Fatalf("paths mismatch (-want +got):\n%s", diff)
	}

	reg := binding.NewRegistry(binding.WithLookup(directory.NewMemoryStore()))
	group, err := def.Build(reg)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := group.Wait(ctx); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if !group.Valid() {
		t.Fatalf("expected VALID defaults, got %v", forms.CollectErrors(group))
	}
	nick := group.Get("nickname")
	if nick.UpdateOn() != forms.UpdateOnBlur || !nick.HasAsyncValidator("appUniqueNickname") {
		t.Fatalf("nickname options not applied")
	}

	_ = nick.SetValue("Dummy")
	want2 := forms.Errors{"appBanWords": {"bannedWord": "dummy"}}
	if diff := cmp.Diff(want2, nick.Errors()); diff != "" {
		t.Fatalf("nickname errors mismatch (-want +got):\n%s", diff)
	}

	_ = group.Get("password.confirm-password").SetValue("nope")
	if !group.Get("password").HasError("appPasswordShouldMatch") {
		t.Fatalf("expected group mismatch error")
	}
	if !group.Get("password.confirm-password").HasError("appPasswordShouldMatch") {
		t.Fatalf("expected mismatch on confirmation")
	}

	_ = group.Get("profile.bio").SetValue("too long")
	if !group.Get("profile.bio").HasError("maxlength") {
		t.Fatalf("expected nested struct rule")
	}
}

func TestBind_SyncsBothWays(t *testing.T) {
	acc := newAccount()
	def, err := binding.FromStruct(acc)
	if err != nil {
		t.Fatalf("from struct: %v", err)
	}
	group, err := def.Build(nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	b, err := binding.Bind(acc, group)
	if err != nil {
		t.Fatalf("bind: %v", err)
	}

	_ = group.Get("yearOfBirth").SetValue(2001.0)
	_ = group.Get("address.city").SetValue("Boston")
	_ = group.Get("address.postCode").SetValue("02110")
	if acc.Year != 2001 || acc.City != "Boston" || acc.PostCode != 2110 {
		t.Fatalf("struct not updated: %+v", acc)
	}

	_ = group.Get("yearOfBirth").SetValue(1.5)
	if b.Err() == nil {
		t.Fatalf("expected conversion error")
	}

	acc.Nickname = "Neo"
	if err := b.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := group.Get("nickname").Value(); got != "Neo" {
		t.Fatalf("nickname = %v", got)
	}

	b.Unbind()
	_ = group.Get("address.city").SetValue("Austin")
	if acc.City != "Boston" {
		t.Fatalf("unbound binder still writing: %q", acc.City)
	}
}

func TestBind_RejectsNonPointer(t *testing.T) {
	if _, err := binding.Bind(account{}, forms.NewGroup(nil)); !errors.Is(err, binding.ErrNotStruct) {
		t.Fatalf("expected ErrNotStruct, got %v", err)
	}
}

const profileYAML = `
name: signup
fields:
  - path: nickname
    default: Bomber
    updateOn: blur
    validators: ["required", "pattern:^[\\w.]+$"]
    async:
      - {name: unique, key: appUniqueNickname}
  - path: password.password
    default: ""
    validators: ["required", "minlength:6"]
  - path: password.confirm
    default: ""
groups:
  - path: password
    validators: ["passwordmatch:password|confirm"]
`

func TestFromYAML(t *testing.T) {
	def, err := binding.FromYAML([]byte(profileYAML))
	if err != nil {
		t.Fatalf("from yaml: %v", err)
	}
	field, ok := def.Field("nickname")
	if !ok {
		t.Fatalf("nickname missing")
	}
	wantAsync := []binding.DirectiveRef{{Name: "unique", Key: "appUniqueNickname"}}
	if diff := cmp.Diff(wantAsync, field.Async); diff != "" {
		t.Fatalf("async mismatch (-want +got):\n%s", diff)
	}

	store := directory.NewMemoryStore(directory.User{Username: "taken.name"})
	group, err := def.Build(binding.NewRegistry(binding.WithLookup(store)))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !group.Get("password.password").HasError("required") {
		t.Fatalf("expected required password")
	}

	_ = group.Get("nickname").SetValue("taken.name")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := group.Wait(ctx); err != nil {
		t.Fatalf("wait: %v", err)
	}
	want := forms.Errors{"appUniqueNickname": {"isTaken": true}}
	if diff := cmp.Diff(want, group.Get("nickname").Errors()); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}

	out, err := def.YAML()
	if err != nil || len(out) == 0 {
		t.Fatalf("encode: %v", err)
	}
}

func TestDefinition_Validate(t *testing.T) {
	tests := []binding.Definition{
		{Fields: []binding.FieldDef{{Path: "a"}, {Path: "a"}}},
		{Fields: []binding.FieldDef{{Path: "a"}, {Path: "a.b"}}},
		{Fields: []binding.FieldDef{{Path: ".a"}}},
		{Fields: []binding.FieldDef{{Path: "a"}}, Groups: []binding.GroupDef{{Path: "missing"}}},
	}
	for i, def := range tests {
		if err := def.Validate(); !errors.Is(err, binding.ErrInvalidDefinition) {
			t.Fatalf("case %d: expected ErrInvalidDefinition, got %v", i, err)
		}
	}
}

func TestRegistry(t *testing.T) {
	reg := binding.NewRegistry()
	if _, err := reg.Resolve(binding.DirectiveRef{Name: "nope"}); !errors.Is(err, binding.ErrUnknownDirective) {
		t.Fatalf("expected ErrUnknownDirective, got %v", err)
	}
	if _, err := reg.Resolve(binding.DirectiveRef{Name: "minlength", Args: []string{"x"}}); !errors.Is(err, binding.ErrDirectiveArgs) {
		t.Fatalf("expected ErrDirectiveArgs, got %v", err)
	}

	rule, err := reg.Resolve(binding.DirectiveRef{Name: "required", Key: "mustHave"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	got := rule.Validators[0].Validate(forms.NewField(""))
	if diff := cmp.Diff(forms.Errors{"mustHave": {}}, got); diff != "" {
		t.Fatalf("rekeyed errors mismatch (-want +got):\n%s", diff)
	}

	reg.Register("even", func(ref binding.DirectiveRef) (binding.Rule, error) {
		return binding.Rule{Validators: []forms.Validator{forms.NewValidator("even", func(c forms.Control) forms.Errors {
			if n, ok := validators.Number(c.Value()); ok && int(n)%2 != 0 {
				return forms.NewError("even", nil)
			}
			return nil
		})}}, nil
	})
	def := binding.Definition{Fields: []binding.FieldDef{{Path: "n", Default: 3, Validators: []binding.DirectiveRef{{Name: "even"}}}}}
	group, err := def.Build(reg)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !group.Get("n").HasError("even") {
		t.Fatalf("custom directive not applied")
	}
}

func TestRegistry_BanListReference(t *testing.T) {
	list := validators.NewBanList("appBanWords", "test")
	reg := binding.NewRegistry(binding.WithBanList("firstNames", list))
	def := binding.Definition{Fields: []binding.FieldDef{{
		Path:       "firstName",
		Default:    "noob",
		Validators: []binding.DirectiveRef{{Name: "banwords", Args: []string{"$firstNames"}}},
	}}}
	group, err := def.Build(reg)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	field := group.Get("firstName")
	if !field.Valid() {
		t.Fatalf("expected VALID, got %v", field.Errors())
	}
	list.Set("test", "noob")
	if !field.HasError("appBanWords") {
		t.Fatalf("expected re-validation after list change")
	}

	def.Fields[0].Validators[0].Args = []string{"$unknown"}
	if _, err := def.Build(reg); !errors.Is(err, binding.ErrDirectiveArgs) {
		t.Fatalf("expected ErrDirectiveArgs, got %v", err)
	}
}

const signupOpenAPI = `{
  "openapi": "3.0.3",
  "info": {"title": "signup", "version": "1.0.0"},
  "paths": {
    "/users": {
      "post": {
        "operationId": "createUser",
        "requestBody": {
          "content": {
            "application/json": {
              "schema": {
                "type": "object",
                "required": ["email", "nickname"],
                "properties": {
                  "email": {"type": "string", "format": "email", "default": "bob@gmail.com"},
                  "nickname": {
                    "type": "string",
                    "minLength": 2,
                    "pattern": "^[\\w.]+$",
                    "x-formkit-directives": ["banwords:dummy|anonymous"],
                    "x-formkit-async": "unique",
                    "x-formkit-updateOn": "blur"
                  },
                  "address": {
                    "type": "object",
                    "properties": {
                      "postCode": {"type": "integer", "minimum": 1, "maximum": 99999}
                    }
                  }
                }
              }
            }
          }
        },
        "responses": {"201": {"description": "created"}}
      }
    }
  }
}`

func TestFromOpenAPI(t *testing.T) {
	def, err := binding.FromOpenAPI(context.Background(), []byte(signupOpenAPI), "createUser")
	if err != nil {
		t.Fatalf("from openapi: %v", err)
	}
	nick, ok := def.Field("nickname")
	if !ok {
		t.Fatalf("nickname missing")
	}
	want := []binding.DirectiveRef{
		{Name: "required"},
		{Name: "minlength", Args: []string{"2"}},
		{Name: "pattern", Args: []string{`^[\w.]+$`}},
		{Name: "banwords", Args: []string{"dummy", "anonymous"}},
	}
	if diff := cmp.Diff(want, nick.Validators); diff != "" {
		t.Fatalf("validators mismatch (-want +got):\n%s", diff)
	}
	if nick.UpdateOn != "blur" || len(nick.Async) != 1 {
		t.Fatalf("extensions not read: %+v", nick)
	}
	postCode, _ := def.Field("address.postCode")
	wantRange := []binding.DirectiveRef{{Name: "min", Args: []string{"1"}}, {Name: "max", Args: []string{"99999"}}}
	if diff := cmp.Diff(wantRange, postCode.Validators); diff != "" {
		t.Fatalf("range mismatch (-want +got):\n%s", diff)
	}

	group, err := def.Build(binding.NewRegistry(binding.WithLookup(directory.NewMemoryStore())))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if got := group.Get("email").Value(); got != "bob@gmail.com" {
		t.Fatalf("default not applied: %v", got)
	}

	if _, err := binding.FromOpenAPI(context.Background(), []byte(signupOpenAPI), "missing"); !errors.Is(err, binding.ErrOperationNotFound) {
		t.Fatalf("expected ErrOperationNotFound, got %v", err)
	}
}
