package directory

import (
	"errors"
	"net/http"
	"strings"
)

// ErrNilMux is returned when routes are registered on a nil mux.
var ErrNilMux = errors.New("directory: nil mux")

// Mux registers a handler for a pattern. *http.ServeMux and chi routers
// both satisfy it.
type Mux interface {
	Handle(pattern string, handler http.Handler)
}

// methodMux binds a handler to one method, as chi.Router does.
type methodMux interface {
	Method(method, pattern string, handler http.Handler)
}

// MountPath is the lookup route under basePath.
func MountPath(basePath string, fns ...OptionFn) string {
	return joinRoute(basePath, NewOptions(fns...).RoutePath)
}

// RegisterRoutes mounts the lookup handler under basePath.
func RegisterRoutes(mux Mux, basePath string, fns ...OptionFn) (string, error) {
	return RegisterRoutesWithOptions(mux, basePath, NewOptions(fns...))
}

// RegisterRoutesWithOptions mounts the lookup handler built from opts. On
// routers that bind methods only GET and HEAD are registered; elsewhere the
// handler answers other methods with 405 itself.
func RegisterRoutesWithOptions(mux Mux, basePath string, opts Options) (string, error) {
	if mux == nil {
		return "", ErrNilMux
	}
	opts = NewOptions(func(o *Options) { *o = opts })
	pattern := joinRoute(basePath, opts.RoutePath)
	handler := HandlerWithOptions(opts)

	if m, ok := mux.(methodMux); ok {
		m.Method(http.MethodGet, pattern, handler)
		m.Method(http.MethodHead, pattern, handler)
		return pattern, nil
	}
	mux.Handle(pattern, handler)
	return pattern, nil
}

// joinRoute returns "/base/route" with single slashes; an empty or "/" base
// leaves the route at the root.
func joinRoute(basePath, routePath string) string {
	route := "/" + strings.TrimLeft(strings.TrimSpace(routePath), "/")
	base := strings.Trim(strings.TrimSpace(basePath), "/")
	if base == "" {
		return route
	}
	return "/" + base + route
}
