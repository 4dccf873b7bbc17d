package validators

import (
	"time"

	"github.com/goliatone/go-formkit/pkg/clock"
	"github.com/goliatone/go-formkit/pkg/forms"
)

// AdultAge is the default minimum age of AgeRequirement.
const AdultAge = 18

// IsAdult reports whether someone born in year is at least AdultAge in the
// calendar year of now.
func IsAdult(year int, now time.Time) bool {
	return IsOldEnough(year, now, AdultAge)
}

// IsOldEnough compares the calendar-year age against minAge.
func IsOldEnough(year int, now time.Time, minAge int) bool {
	return now.Year()-year >= minAge
}

// AgeRequirement makes a target control required only while the birth year
// control describes someone of at least MinAge.
type AgeRequirement struct {
	Clock  clock.Clock
	MinAge int
	// Rule is the validator toggled on the target. Its tag is used for
	// removal. Defaults to Required.
	Rule forms.Validator
}

// Bind evaluates the rule once for the current birth year and again on
// every birth year change, marking the target dirty on changes. The
// returned func stops tracking.
func (a AgeRequirement) Bind(birthYear, target forms.Control) (unbind func()) {
	if birthYear == nil || target == nil {
		return func() {}
	}
	a.apply(birthYear.Value(), target)
	return birthYear.OnValueChange(func(value any) {
		target.MarkAsDirty()
		a.apply(value, target)
	})
}

// Applies reports whether the rule is active for year.
func (a AgeRequirement) Applies(year any) bool {
	y, ok := Number(year)
	if !ok {
		return false
	}
	return IsOldEnough(int(y), a.clock().Now(), a.minAge())
}

func (a AgeRequirement) apply(year any, target forms.Control) {
	rule := a.rule()
	if a.Applies(year) {
		target.AddValidators(rule)
	} else {
		target.RemoveValidators(rule.Tag)
	}
	target.UpdateValueAndValidity()
}

func (a AgeRequirement) clock() clock.Clock {
	if a.Clock == nil {
		return clock.Real{}
	}
	return a.Clock
}

func (a AgeRequirement) minAge() int {
	if a.MinAge <= 0 {
		return AdultAge
	}
	return a.MinAge
}

func (a AgeRequirement) rule() forms.Validator {
	if a.Rule.Validate == nil {
		return Required()
	}
	return a.Rule
}
