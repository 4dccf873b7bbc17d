// Package validators provides the built-in field rules and the custom
// validators of the profile forms.
package validators

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/goliatone/go-formkit/pkg/forms"
)

// Error keys produced by the built-in rules.
const (
	KeyRequired  = "required"
	KeyMinLength = "minlength"
	KeyMaxLength = "maxlength"
	KeyPattern   = "pattern"
	KeyEmail     = "email"
	KeyMin       = "min"
	KeyMax       = "max"
)

// Required fails for nil, empty strings and empty lists.
func Required() forms.Validator {
	return forms.NewValidator(KeyRequired, func(c forms.Control) forms.Errors {
		if IsEmpty(c.Value()) {
			return forms.NewError(KeyRequired, nil)
		}
		return nil
	})
}

// MinLength fails when a non-empty string or list is shorter than n.
func MinLength(n int) forms.Validator {
	return forms.NewValidator(KeyMinLength, func(c forms.Control) forms.Errors {
		value := c.Value()
		length, ok := lengthOf(value)
		if !ok || IsEmpty(value) || length >= n {
			return nil
		}
		return forms.NewError(KeyMinLength, forms.Payload{"requiredLength": n, "actualLength": length})
	})
}

// MaxLength fails when a string or list is longer than n.
func MaxLength(n int) forms.Validator {
	return forms.NewValidator(KeyMaxLength, func(c forms.Control) forms.Errors {
		length, ok := lengthOf(c.Value())
		if !ok || length <= n {
			return nil
		}
		return forms.NewError(KeyMaxLength, forms.Payload{"requiredLength": n, "actualLength": length})
	})
}

// Pattern fails when a non-empty value does not match expr. The expression
// is anchored at both ends unless it already is.
func Pattern(expr string) (forms.Validator, error) {
	anchored := expr
	if !strings.HasPrefix(anchored, "^") {
		anchored = "^" + anchored
	}
	if !strings.HasSuffix(anchored, "$") {
		anchored += "$"
	}
	re, err := regexp.Compile(anchored)
	if err != nil {
		return forms.Validator{}, fmt.Errorf("validators: compile pattern %q: %w", expr, err)
	}
	return PatternRegexp(re, anchored), nil
}

// MustPattern is Pattern for expressions known at compile time.
func MustPattern(expr string) forms.Validator {
	v, err := Pattern(expr)
	if err != nil {
		panic(err)
	}
	return v
}

// PatternRegexp validates with a pre-compiled expression. required is the
// text reported as requiredPattern.
func PatternRegexp(re *regexp.Regexp, required string) forms.Validator {
	return forms.NewValidator(KeyPattern, func(c forms.Control) forms.Errors {
		value := c.Value()
		if IsEmpty(value) {
			return nil
		}
		s := Text(value)
		if re.MatchString(s) {
			return nil
		}
		return forms.NewError(KeyPattern, forms.Payload{"requiredPattern": required, "actualValue": s})
	})
}

var emailLocal = regexp.MustCompile(`^[a-zA-Z0-9!#$%&'*+/=?^_` + "`" + `{|}~-]+(?:\.[a-zA-Z0-9!#$%&'*+/=?^_` + "`" + `{|}~-]+)*$`)
var emailDomain = regexp.MustCompile(`^[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)

// Email fails when a non-empty value is not a plausible address.
func Email() forms.Validator {
	return forms.NewValidator(KeyEmail, func(c forms.Control) forms.Errors {
		value := c.Value()
		if IsEmpty(value) || IsEmail(Text(value)) {
			return nil
		}
		return forms.NewError(KeyEmail, nil)
	})
}

// IsEmail applies the address rules used by Email.
func IsEmail(s string) bool {
	if len(s) == 0 || len(s) > 254 {
		return false
	}
	at := strings.LastIndexByte(s, '@')
	if at <= 0 || at > 64 {
		return false
	}
	return emailLocal.MatchString(s[:at]) && emailDomain.MatchString(s[at+1:])
}

// Min fails when a numeric value is below min.
func Min(min float64) forms.Validator {
	return forms.NewValidator(KeyMin, func(c forms.Control) forms.Errors {
		n, ok := Number(c.Value())
		if !ok || n >= min {
			return nil
		}
		return forms.NewError(KeyMin, forms.Payload{"min": min, "actual": n})
	})
}

// Max fails when a numeric value is above max.
func Max(max float64) forms.Validator {
	return forms.NewValidator(KeyMax, func(c forms.Control) forms.Errors {
		n, ok := Number(c.Value())
		if !ok || n <= max {
			return nil
		}
		return forms.NewError(KeyMax, forms.Payload{"max": max, "actual": n})
	})
}

// IsEmpty reports whether value counts as missing input.
func IsEmpty(value any) bool {
	if value == nil {
		return true
	}
	switch v := value.(type) {
	case string:
		return v == ""
	case []any:
		return len(v) == 0
	case []string:
		return len(v) == 0
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// Text renders a scalar value as text.
func Text(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// Number converts numeric values and numeric strings. Empty input and NaN
// are reported as not numeric.
func Number(value any) (float64, bool) {
	var n float64
	switch v := value.(type) {
	case nil:
		return 0, false
	case int:
		n = float64(v)
	case int8:
		n = float64(v)
	case int16:
		n = float64(v)
	case int32:
		n = float64(v)
	case int64:
		n = float64(v)
	case uint:
		n = float64(v)
	case uint8:
		n = float64(v)
	case uint16:
		n = float64(v)
	case uint32:
		n = float64(v)
	case uint64:
		n = float64(v)
	case float32:
		n = float64(v)
	case float64:
		n = v
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		n = parsed
	default:
		return 0, false
	}
	if math.IsNaN(n) {
		return 0, false
	}
	return n, true
}

func lengthOf(value any) (int, bool) {
	switch v := value.(type) {
	case string:
		return utf8.RuneCountInString(v), true
	case []any:
		return len(v), true
	case []string:
		return len(v), true
	default:
		return 0, false
	}
}
