package binding

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// FromYAML decodes a definition. Directives may be written in tag syntax
// or as mappings:
//
//	fields:
//	  - path: nickname
//	    default: Bomber
//	    updateOn: blur
//	    validators: ["required", "minlength:2", "banwords@appBanWords:dummy|anonymous"]
//	    async:
//	      - {name: unique, key: appUniqueNickname}
//	groups:
//	  - path: password
//	    validators: ["passwordmatch:password|confirm-password"]
func FromYAML(data []byte) (Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return Definition{}, fmt.Errorf("binding: decode yaml: %w", err)
	}
	if err := def.Validate(); err != nil {
		return Definition{}, err
	}
	return def, nil
}

// YAML encodes the definition in the format FromYAML reads.
func (d Definition) YAML() ([]byte, error) {
	return yaml.Marshal(d)
}

// UnmarshalYAML accepts a tag-syntax scalar or a mapping.
func (d *DirectiveRef) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		refs, err := ParseDirectives(node.Value)
		if err != nil {
			return err
		}
		if len(refs) != 1 {
			return fmt.Errorf("%w: expected one directive at line %d, got %d", ErrDirectiveArgs, node.Line, len(refs))
		}
		*d = refs[0]
		return nil
	}
	type plain DirectiveRef
	var raw plain
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*d = DirectiveRef(raw)
	d.Name = strings.ToLower(strings.TrimSpace(d.Name))
	return nil
}
