package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const testConfig = `
catalog:
  delay: 1ms
logging:
  level: error
`

const validReactive = `
firstName: Alice
lastName: Jones
nickName: alice.j
email: alice@example.com
yearOfBirth: 2000
passport: EA123456
address:
  fullAddress: Main st. 1
  city: Springfield
  postCode: 12345
phones:
  - {label: Work, phone: "555-0100"}
  - {label: Home, phone: "555-0101"}
skills:
  Docker: true
password:
  password: secret1
  confirmPassword: secret1
`

const signupDefinition = `
name: signup
fields:
  - path: nickname
    default: ""
    validators: ["required", "banwords:$nicknames"]
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

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	cfg := writeFile(t, dir, "formkit.yaml", testConfig)

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", cfg}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestSkillsCmd(t *testing.T) {
	out, err := run(t, "skills")
	if err != nil {
		t.Fatalf("skills: %v", err)
	}
	if diff := cmp.Diff("Angular\nRxJS\nDocker\nPython\n", out); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}

	out, err = run(t, "skills", "--json")
	if err != nil {
		t.Fatalf("skills --json: %v", err)
	}
	if strings.TrimSpace(out) != `["Angular","RxJS","Docker","Python"]` {
		t.Errorf("unexpected json %q", out)
	}
}

func TestValidateCmd_ValidReactive(t *testing.T) {
	values := writeFile(t, t.TempDir(), "user.yaml", validReactive)
	out, err := run(t, "validate", values)
	if err != nil {
		t.Fatalf("validate: %v\n%s", err, out)
	}
	if !strings.Contains(out, "form is valid") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestValidateCmd_JSONReport(t *testing.T) {
	values := writeFile(t, t.TempDir(), "user.yaml", validReactive)
	out, err := run(t, "validate", "-o", "json", values)
	if err != nil {
		t.Fatalf("validate: %v\n%s", err, out)
	}
	var r struct {
		Status string         `json:"status"`
		Valid  bool           `json:"valid"`
		Value  map[string]any `json:"value"`
	}
	if err := json.Unmarshal([]byte(out), &r); err != nil {
		t.Fatalf("decode report: %v\n%s", err, out)
	}
	if !r.Valid || r.Status != "VALID" {
		t.Fatalf("report = %+v", r)
	}
	want := []any{
		map[string]any{"label": "Work", "phone": "555-0100"},
		map[string]any{"label": "Home", "phone": "555-0101"},
	}
	if diff := cmp.Diff(want, r.Value["phones"]); diff != "" {
		t.Errorf("phones mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateCmd_InvalidReactive(t *testing.T) {
	values := writeFile(t, t.TempDir(), "user.yaml", `
firstName: test
password:
  password: secret1
  confirmPassword: secret2
`)
	out, err := run(t, "validate", values)
	if !errors.Is(err, errInvalidValues) {
		t.Fatalf("expected errInvalidValues, got %v\n%s", err, out)
	}
	for _, want := range []string{
		"form is INVALID",
		`firstName: First name cannot be "test".`,
		"address.city:",
		"Passwords do not match.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestValidateCmd_Definition(t *testing.T) {
	dir := t.TempDir()
	def := writeFile(t, dir, "signup.yaml", signupDefinition)
	values := writeFile(t, dir, "values.json", `{"nickname": "dummy", "password": {"password": "secret1", "confirm": "secret1"}}`)

	out, err := run(t, "validate", "--definition", def, "-o", "json", values)
	if !errors.Is(err, errInvalidValues) {
		t.Fatalf("expected errInvalidValues, got %v\n%s", err, out)
	}
	var r struct {
		Errors map[string]map[string]any `json:"errors"`
	}
	if err := json.Unmarshal([]byte(out), &r); err != nil {
		t.Fatalf("decode report: %v\n%s", err, out)
	}
	if _, ok := r.Errors["nickname"]["banWords"]; !ok {
		t.Errorf("expected banWords on nickname, got %v", r.Errors)
	}
	if _, ok := r.Errors["password"]; ok {
		t.Errorf("matching passwords should not fail: %v", r.Errors["password"])
	}
}

func TestValidateCmd_FlagErrors(t *testing.T) {
	values := writeFile(t, t.TempDir(), "user.yaml", validReactive)
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"exclusive sources", []string{"--definition", "a.yaml", "--openapi", "b.yaml"}, "mutually exclusive"},
		{"missing operation", []string{"--openapi", "b.yaml"}, "requires --operation"},
		{"bad output", []string{"-o", "xml"}, "unknown output format"},
		{"bad kind", []string{"--kind", "angular"}, "unknown kind"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, append(append([]string{"validate"}, tt.args...), values)...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "absent.yaml"), "skills"})
	if err := root.Execute(); err == nil || !strings.Contains(err.Error(), "config file not found") {
		t.Fatalf("expected missing config error, got %v", err)
	}
}
