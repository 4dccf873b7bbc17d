package directory

import (
	"net/http"

	"github.com/goliatone/go-formkit/pkg/directory"
)

type GuardFunc func(r *http.Request) error

type Options struct {
	RoutePath  string
	QueryParam string
	Guard      GuardFunc

	Lookup directory.Lookup
}

type OptionFn func(*Options)

func DefaultOptions() Options {
	return Options{
		RoutePath:  "/api/users",
		QueryParam: "username",
	}
}

func NewOptions(fns ...OptionFn) Options {
	opts := DefaultOptions()
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		fn(&opts)
	}
	if opts.RoutePath == "" {
		opts.RoutePath = "/api/users"
	}
	if opts.QueryParam == "" {
		opts.QueryParam = "username"
	}
	return opts
}

func WithRoutePath(path string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.RoutePath = path
	}
}

func WithQueryParam(name string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.QueryParam = name
	}
}

func WithGuard(guard GuardFunc) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Guard = guard
	}
}

// WithLookup sets the user source. Without one the handler answers every
// query with an empty list.
func WithLookup(lookup directory.Lookup) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Lookup = lookup
	}
}
