package binding

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// OpenAPI extension keys read from request body schemas.
const (
	ExtDirectives  = "x-formkit-directives"
	ExtAsync       = "x-formkit-async"
	ExtUpdateOn    = "x-formkit-updateOn"
	ExtNonNullable = "x-formkit-nonNullable"
)

// ErrOperationNotFound is returned when the document has no operation with
// the requested id.
var ErrOperationNotFound = errors.New("binding: operation not found")

// FromOpenAPI reads the JSON request body schema of operationID. Schema
// keywords map onto directives: required, minLength, maxLength, pattern,
// format email, minimum and maximum. x-formkit-directives and
// x-formkit-async add any other directive in tag syntax. Object properties
// become groups.
func FromOpenAPI(ctx context.Context, doc []byte, operationID string) (Definition, error) {
	if err := ctx.Err(); err != nil {
		return Definition{}, err
	}
	if len(doc) == 0 {
		return Definition{}, errors.New("binding: openapi document is empty")
	}
	loader := &openapi3.Loader{Context: ctx}
	spec, err := loader.LoadFromData(doc)
	if err != nil {
		return Definition{}, fmt.Errorf("binding: load openapi: %w", err)
	}
	if err := spec.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return Definition{}, fmt.Errorf("binding: validate openapi: %w", err)
	}

	op := findOperation(spec, operationID)
	if op == nil {
		return Definition{}, fmt.Errorf("%w: %q", ErrOperationNotFound, operationID)
	}
	schema := requestSchema(op)
	if schema == nil {
		return Definition{}, fmt.Errorf("binding: operation %q has no request body schema", operationID)
	}

	def := Definition{Name: operationID}
	groups := make(map[string]int)
	if err := collectSchema(&def, groups, schema, ""); err != nil {
		return Definition{}, err
	}
	if err := def.Validate(); err != nil {
		return Definition{}, err
	}
	return def, nil
}

func findOperation(spec *openapi3.T, operationID string) *openapi3.Operation {
	if spec.Paths == nil {
		return nil
	}
	for _, item := range spec.Paths.Map() {
		if item == nil {
			continue
		}
		for _, op := range item.Operations() {
			if op != nil && op.OperationID == operationID {
				return op
			}
		}
	}
	return nil
}

func requestSchema(op *openapi3.Operation) *openapi3.Schema {
	if op.RequestBody == nil || op.RequestBody.Value == nil {
		return nil
	}
	content := op.RequestBody.Value.Content
	for _, mediaType := range []string{"application/json", "application/x-www-form-urlencoded"} {
		if mt, ok := content[mediaType]; ok && mt.Schema != nil {
			return mt.Schema.Value
		}
	}
	return nil
}

func collectSchema(def *Definition, groups map[string]int, schema *openapi3.Schema, prefix string) error {
	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}
	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		ref := schema.Properties[name]
		if ref == nil || ref.Value == nil {
			continue
		}
		prop := ref.Value
		path := joinPath(prefix, name)
		extra, err := extensionDirectives(prop.Extensions, ExtDirectives)
		if err != nil {
			return fmt.Errorf("binding: %s: %w", path, err)
		}

		if prop.Type != nil && prop.Type.Is(openapi3.TypeObject) && len(prop.Properties) > 0 {
			addGroupRules(def, groups, path, extra, extensionString(prop.Extensions, ExtUpdateOn))
			if err := collectSchema(def, groups, prop, path); err != nil {
				return err
			}
			continue
		}

		var refs []DirectiveRef
		if required[name] {
			refs = append(refs, DirectiveRef{Name: DirectiveRequired})
		}
		refs = append(refs, schemaDirectives(prop)...)
		refs = append(refs, extra...)
		async, err := extensionDirectives(prop.Extensions, ExtAsync)
		if err != nil {
			return fmt.Errorf("binding: %s: %w", path, err)
		}
		nonNullable, _ := prop.Extensions[ExtNonNullable].(bool)
		def.Fields = append(def.Fields, FieldDef{
			Path:        path,
			Default:     prop.Default,
			Validators:  refs,
			Async:       async,
			UpdateOn:    extensionString(prop.Extensions, ExtUpdateOn),
			NonNullable: nonNullable,
		})
	}
	return nil
}

func schemaDirectives(s *openapi3.Schema) []DirectiveRef {
	var refs []DirectiveRef
	if s.MinLength > 0 {
		refs = append(refs, DirectiveRef{Name: DirectiveMinLength, Args: []string{strconv.FormatUint(s.MinLength, 10)}})
	}
	if s.MaxLength != nil {
		refs = append(refs, DirectiveRef{Name: DirectiveMaxLength, Args: []string{strconv.FormatUint(*s.MaxLength, 10)}})
	}
	if s.Pattern != "" {
		refs = append(refs, DirectiveRef{Name: DirectivePattern, Args: []string{s.Pattern}})
	}
	if strings.EqualFold(s.Format, "email") {
		refs = append(refs, DirectiveRef{Name: DirectiveEmail})
	}
	if s.Min != nil {
		refs = append(refs, DirectiveRef{Name: DirectiveMin, Args: []string{strconv.FormatFloat(*s.Min, 'g', -1, 64)}})
	}
	if s.Max != nil {
		refs = append(refs, DirectiveRef{Name: DirectiveMax, Args: []string{strconv.FormatFloat(*s.Max, 'g', -1, 64)}})
	}
	return refs
}

// extensionDirectives reads a tag-syntax string or a list of them.
func extensionDirectives(ext map[string]any, key string) ([]DirectiveRef, error) {
	raw, ok := ext[key]
	if !ok || raw == nil {
		return nil, nil
	}
	switch v := raw.(type) {
	case string:
		return ParseDirectives(v)
	case []any:
		var refs []DirectiveRef
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s entries must be strings", ErrDirectiveArgs, key)
			}
			parsed, err := ParseDirectives(s)
			if err != nil {
				return nil, err
			}
			refs = append(refs, parsed...)
		}
		return refs, nil
	default:
		return nil, fmt.Errorf("%w: %s must be a string or list", ErrDirectiveArgs, key)
	}
}

func extensionString(ext map[string]any, key string) string {
	s, _ := ext[key].(string)
	return s
}
