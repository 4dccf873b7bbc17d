package forms

// Status is the aggregate validation state of a control.
type Status string

const (
	StatusValid    Status = "VALID"
	StatusInvalid  Status = "INVALID"
	StatusPending  Status = "PENDING"
	StatusDisabled Status = "DISABLED"
)

// UpdateOn selects which user event commits a staged field value.
type UpdateOn string

const (
	UpdateOnChange UpdateOn = "change"
	UpdateOnBlur   UpdateOn = "blur"
	UpdateOnSubmit UpdateOn = "submit"
)

// ParseUpdateOn maps a textual update mode onto UpdateOn. Unknown values
// resolve to the empty mode, which inherits from the parent control.
func ParseUpdateOn(raw string) UpdateOn {
	switch UpdateOn(raw) {
	case UpdateOnChange, UpdateOnBlur, UpdateOnSubmit:
		return UpdateOn(raw)
	default:
		return ""
	}
}
