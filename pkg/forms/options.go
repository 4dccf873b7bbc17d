package forms

// Option configures a control at construction time.
type Option func(*config)

type config struct {
	validators  []Validator
	async       []AsyncValidator
	updateOn    UpdateOn
	nonNullable bool
	disabled    bool
	itemFactory func() Control
}

func newConfig(opts []Option) config {
	var cfg config
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	return cfg
}

// WithValidators attaches synchronous validators in registration order.
func WithValidators(validators ...Validator) Option {
	return func(cfg *config) {
		cfg.validators = append(cfg.validators, validators...)
	}
}

// WithAsyncValidators attaches asynchronous validators.
func WithAsyncValidators(validators ...AsyncValidator) Option {
	return func(cfg *config) {
		cfg.async = append(cfg.async, validators...)
	}
}

// WithUpdateOn selects the event that commits user input. Children without an
// explicit mode inherit from their parent.
func WithUpdateOn(mode UpdateOn) Option {
	return func(cfg *config) {
		cfg.updateOn = mode
	}
}

// NonNullable makes Reset(nil) restore the initial value instead of nil.
func NonNullable() Option {
	return func(cfg *config) {
		cfg.nonNullable = true
	}
}

// Disabled constructs the control in the disabled state.
func Disabled() Option {
	return func(cfg *config) {
		cfg.disabled = true
	}
}

// WithItemFactory lets an Array grow or shrink to the length of the value
// passed to Reset, building new items with fn.
func WithItemFactory(fn func() Control) Option {
	return func(cfg *config) {
		cfg.itemFactory = fn
	}
}

// UpdateOption tunes a single state transition.
type UpdateOption func(*updateOptions)

type updateOptions struct {
	onlySelf bool
	silent   bool
}

func resolveUpdate(opts []UpdateOption) updateOptions {
	var o updateOptions
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&o)
	}
	return o
}

func (o updateOptions) options() []UpdateOption {
	var out []UpdateOption
	if o.onlySelf {
		out = append(out, OnlySelf())
	}
	if o.silent {
		out = append(out, Silent())
	}
	return out
}

func (o updateOptions) self() []UpdateOption {
	out := []UpdateOption{OnlySelf()}
	if o.silent {
		out = append(out, Silent())
	}
	return out
}

// OnlySelf stops the transition from propagating to ancestors.
func OnlySelf() UpdateOption {
	return func(o *updateOptions) {
		o.onlySelf = true
	}
}

// Silent suppresses value and status observers for the transition.
func Silent() UpdateOption {
	return func(o *updateOptions) {
		o.silent = true
	}
}
