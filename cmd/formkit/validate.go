package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formkit/internal/bootstrap"
	"github.com/goliatone/go-formkit/internal/config"
	"github.com/goliatone/go-formkit/pkg/binding"
	"github.com/goliatone/go-formkit/pkg/forms"
	"github.com/goliatone/go-formkit/pkg/messages"
	"github.com/goliatone/go-formkit/pkg/profile"
	"github.com/goliatone/go-formkit/pkg/validators"
)

// errInvalidValues makes the command exit non-zero without repeating the
// report that was already printed.
var errInvalidValues = errors.New("values are invalid")

type validateOptions struct {
	kind       string
	definition string
	openapi    string
	operation  string
	output     string
	timeout    time.Duration
}

// report is the machine readable validation result.
type report struct {
	Status   forms.Status            `json:"status"`
	Valid    bool                    `json:"valid"`
	Value    any                     `json:"value"`
	Errors   map[string]forms.Errors `json:"errors,omitempty"`
	Messages map[string][]string     `json:"messages,omitempty"`
}

// target is the control tree values are checked against.
type target struct {
	root    *forms.Group
	profile profile.Profile
	close   func()
}

func newValidateCmd(g *globals) *cobra.Command {
	opts := &validateOptions{}
	cmd := &cobra.Command{
		Use:   "validate <values-file>",
		Short: "Validate a YAML or JSON values file",
		Long: `Patch the values in the file into a form and report its errors.

The form is the profile of --kind unless a form definition is given with
--definition (YAML) or --openapi plus --operation (request body schema).
Every control is marked as touched and async checks are awaited before
reporting. The command exits non-zero when the form is invalid.

Examples:
  formkit validate user.yaml
  formkit validate --kind template user.json
  formkit validate --definition signup.yaml values.yaml
  formkit validate --openapi api.yaml --operation createUser values.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, g, opts, args[0])
		},
	}
	cmd.Flags().StringVarP(&opts.kind, "kind", "k", string(profile.KindReactive), "profile flavour: reactive or template")
	cmd.Flags().StringVar(&opts.definition, "definition", "", "YAML form definition to validate against")
	cmd.Flags().StringVar(&opts.openapi, "openapi", "", "OpenAPI document to build the form from")
	cmd.Flags().StringVar(&opts.operation, "operation", "", "operation id whose request body defines the form")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "text", "output format: text or json")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "time to wait for async checks")
	return cmd
}

func runValidate(cmd *cobra.Command, g *globals, opts *validateOptions, valuesPath string) error {
	if opts.output != "text" && opts.output != "json" {
		return fmt.Errorf("unknown output format %q", opts.output)
	}
	if opts.definition != "" && opts.openapi != "" {
		return errors.New("--definition and --openapi are mutually exclusive")
	}
	if opts.openapi != "" && opts.operation == "" {
		return errors.New("--openapi requires --operation")
	}

	values, err := readValues(valuesPath)
	if err != nil {
		return err
	}

	cfg, _, err := g.loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := g.logger(cfg)
	svc, err := bootstrap.OpenServices(cfg, logger, nil)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	t, err := buildTarget(ctx, opts, cfg, svc)
	if err != nil {
		return err
	}
	defer t.close()

	if err := t.patch(values); err != nil {
		return fmt.Errorf("apply values: %w", err)
	}
	t.root.MarkAllAsTouched()

	waitCtx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()
	if err := t.root.Wait(waitCtx); err != nil {
		return fmt.Errorf("async checks did not settle: %w", err)
	}

	catalog, err := messages.New()
	if err != nil {
		return err
	}
	r := report{
		Status:   t.root.Status(),
		Valid:    t.root.Valid(),
		Value:    t.root.Value(),
		Errors:   forms.CollectErrors(t.root),
		Messages: catalog.ForTree(t.root),
	}
	if err := writeReport(cmd.OutOrStdout(), opts.output, r); err != nil {
		return err
	}
	if !r.Valid {
		return errInvalidValues
	}
	return nil
}

func readValues(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read values: %w", err)
	}
	values := map[string]any{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parse values %s: %w", path, err)
	}
	return values, nil
}

func buildTarget(ctx context.Context, opts *validateOptions, cfg *config.Config, svc *bootstrap.Services) (*target, error) {
	var (
		def binding.Definition
		err error
	)
	switch {
	case opts.definition != "":
		data, rerr := os.ReadFile(opts.definition)
		if rerr != nil {
			return nil, fmt.Errorf("read definition: %w", rerr)
		}
		def, err = binding.FromYAML(data)
	case opts.openapi != "":
		data, rerr := os.ReadFile(opts.openapi)
		if rerr != nil {
			return nil, fmt.Errorf("read openapi document: %w", rerr)
		}
		def, err = binding.FromOpenAPI(ctx, data, opts.operation)
	default:
		return profileTarget(ctx, opts.kind, cfg, svc)
	}
	if err != nil {
		return nil, err
	}

	reg := binding.NewRegistry(
		binding.WithLookup(svc.Lookup),
		binding.WithBanList("firstNames", validators.NewBanList(validators.KeyBanWords, cfg.Validation.BannedFirstNames...)),
		binding.WithBanList("nicknames", validators.NewBanList(validators.KeyBanWords, cfg.Validation.BannedNicknames...)),
	)
	root, err := def.Build(reg)
	if err != nil {
		return nil, err
	}
	form := forms.NewForm(root)
	return &target{root: root, close: form.Close}, nil
}

func profileTarget(ctx context.Context, kind string, cfg *config.Config, svc *bootstrap.Services) (*target, error) {
	k, err := profile.ParseKind(kind)
	if err != nil {
		return nil, err
	}
	p, err := profile.New(k, svc.ProfileDeps(cfg))
	if err != nil {
		return nil, err
	}
	if err := p.LoadSkills(ctx); err != nil {
		p.Close()
		return nil, err
	}
	return &target{root: p.Form().Group, profile: p, close: p.Close}, nil
}

// patch writes values into the tree, adding phone rows first so every
// listed entry has a control.
func (t *target) patch(values map[string]any) error {
	if t.profile != nil {
		if list, ok := values["phones"].([]any); ok {
			if phones, ok := t.root.Get("phones").(*forms.Array); ok {
				for phones.Len() < len(list) {
					if err := t.profile.AddPhone(); err != nil {
						if errors.Is(err, profile.ErrUnsupported) {
							break
						}
						return err
					}
				}
			}
		}
	}
	return t.root.PatchValue(values)
}

func writeReport(w io.Writer, format string, r report) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}

	if r.Valid {
		fmt.Fprintf(w, "%s form is valid\n", checkMark)
		return nil
	}
	fmt.Fprintf(w, "%s form is %s\n", crossMark, r.Status)
	paths := make([]string, 0, len(r.Messages))
	for path := range r.Messages {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		label := path
		if label == "" {
			label = "(form)"
		}
		for _, msg := range r.Messages[path] {
			fmt.Fprintf(w, "  %s: %s\n", label, msg)
		}
	}
	return nil
}
