package validators

import (
	"reflect"

	"github.com/goliatone/go-formkit/pkg/forms"
)

// KeyPasswordMatch is the default error key of PasswordMatch.
const KeyPasswordMatch = "passwordMatch"

// PasswordMatch is a group validator comparing the children at the two
// paths with strict equality, so an unset (nil) value does not match "".
// On mismatch the error is set on the confirmation control and also
// returned for the group. On match the confirmation control's copy is
// cleared.
func PasswordMatch(password, confirm string) forms.Validator {
	return PasswordMatchKey(KeyPasswordMatch, password, confirm)
}

// PasswordMatchKey is PasswordMatch reporting under key.
func PasswordMatchKey(key, password, confirm string) forms.Validator {
	return forms.NewValidator(key, func(group forms.Control) forms.Errors {
		pw := group.Get(password)
		cf := group.Get(confirm)
		if reflect.DeepEqual(valueOf(pw), valueOf(cf)) {
			if cf != nil {
				cf.ClearErrors(key)
			}
			return nil
		}
		errs := forms.NewError(key, forms.Payload{"mismatch": true})
		if cf != nil {
			cf.SetErrors(errs)
		}
		return errs
	})
}

func valueOf(c forms.Control) any {
	if c == nil {
		return nil
	}
	return c.Value()
}
