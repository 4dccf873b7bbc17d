package forms

import "context"

// ValidatorFunc inspects a control and returns nil when it is valid.
type ValidatorFunc func(c Control) Errors

// Validator is a tagged synchronous validator. Tags identify validators for
// removal and de-duplication; an empty tag is always appended and can only be
// removed through SetValidators or ClearValidators.
type Validator struct {
	Tag      string
	Validate ValidatorFunc
}

// NewValidator constructs a tagged validator.
func NewValidator(tag string, fn ValidatorFunc) Validator {
	return Validator{Tag: tag, Validate: fn}
}

// AsyncValidatorFunc checks a copy of the control value captured when the
// check was issued. Implementations must honour ctx: a superseded check is
// cancelled and its result is discarded regardless of what it returns.
type AsyncValidatorFunc func(ctx context.Context, value any) Errors

// AsyncValidator is a tagged asynchronous validator.
type AsyncValidator struct {
	Tag      string
	Validate AsyncValidatorFunc
}

// NewAsyncValidator constructs a tagged async validator.
func NewAsyncValidator(tag string, fn AsyncValidatorFunc) AsyncValidator {
	return AsyncValidator{Tag: tag, Validate: fn}
}

func runValidators(c Control, validators []Validator) Errors {
	if len(validators) == 0 {
		return nil
	}
	results := make([]Errors, 0, len(validators))
	for _, v := range validators {
		if v.Validate == nil {
			continue
		}
		results = append(results, v.Validate(c))
	}
	return Merge(results...)
}

func appendValidators(list []Validator, extra []Validator) []Validator {
	for _, v := range extra {
		if v.Validate == nil {
			continue
		}
		if v.Tag != "" && hasValidatorTag(list, v.Tag) {
			continue
		}
		list = append(list, v)
	}
	return list
}

func hasValidatorTag(list []Validator, tag string) bool {
	for _, v := range list {
		if v.Tag == tag {
			return true
		}
	}
	return false
}

func dropValidators(list []Validator, tags []string) []Validator {
	if len(list) == 0 || len(tags) == 0 {
		return list
	}
	drop := tagSet(tags)
	out := list[:0:0]
	for _, v := range list {
		if _, ok := drop[v.Tag]; ok && v.Tag != "" {
			continue
		}
		out = append(out, v)
	}
	return out
}

func appendAsyncValidators(list []AsyncValidator, extra []AsyncValidator) []AsyncValidator {
	for _, v := range extra {
		if v.Validate == nil {
			continue
		}
		if v.Tag != "" && hasAsyncTag(list, v.Tag) {
			continue
		}
		list = append(list, v)
	}
	return list
}

func hasAsyncTag(list []AsyncValidator, tag string) bool {
	for _, v := range list {
		if v.Tag == tag {
			return true
		}
	}
	return false
}

func dropAsyncValidators(list []AsyncValidator, tags []string) []AsyncValidator {
	if len(list) == 0 || len(tags) == 0 {
		return list
	}
	drop := tagSet(tags)
	out := list[:0:0]
	for _, v := range list {
		if _, ok := drop[v.Tag]; ok && v.Tag != "" {
			continue
		}
		out = append(out, v)
	}
	return out
}

func tagSet(tags []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		set[tag] = struct{}{}
	}
	return set
}
