package validators

import (
	"context"

	"github.com/goliatone/go-formkit/pkg/directory"
	"github.com/goliatone/go-formkit/pkg/forms"
)

// KeyUniqueName is the default error key of UniqueName.
const KeyUniqueName = "uniqueName"

// UniqueName checks the candidate username against lookup. No match passes,
// any match reports {isTaken: true} and a failed lookup reports
// {unknownError: true}.
func UniqueName(lookup directory.Lookup) forms.AsyncValidator {
	return UniqueNameKey(KeyUniqueName, lookup)
}

// UniqueNameKey is UniqueName reporting under key.
func UniqueNameKey(key string, lookup directory.Lookup) forms.AsyncValidator {
	return forms.NewAsyncValidator(key, func(ctx context.Context, value any) forms.Errors {
		name := directory.NormalizeUsername(Text(value))
		if name == "" {
			return nil
		}
		if lookup == nil {
			return unknownLookupError(key)
		}
		users, err := lookup.FindByUsername(ctx, name)
		if err != nil || ctx.Err() != nil {
			return unknownLookupError(key)
		}
		if len(users) == 0 {
			return nil
		}
		return forms.NewError(key, forms.Payload{"isTaken": true})
	})
}

func unknownLookupError(key string) forms.Errors {
	return forms.NewError(key, forms.Payload{"unknownError": true})
}
