package directory

import (
	"net/http"
	"strings"

	"github.com/goliatone/go-formkit/pkg/directory"
)

// Component is a mounted username lookup endpoint. It remembers where it was
// mounted so a directory.Client can be pointed back at it.
type Component struct {
	opts    Options
	pattern string
}

// New constructs a component from the default options plus fns.
func New(fns ...OptionFn) *Component {
	return &Component{opts: NewOptions(fns...)}
}

// Options returns a copy of the configuration.
func (c *Component) Options() Options {
	return NewOptions(func(o *Options) { *o = c.opts })
}

// Handler returns the lookup handler without mounting it.
func (c *Component) Handler() http.Handler {
	return HandlerWithOptions(c.opts)
}

// RegisterRoutes mounts the handler under basePath and records the pattern.
func (c *Component) RegisterRoutes(mux Mux, basePath string) (string, error) {
	pattern, err := RegisterRoutesWithOptions(mux, basePath, c.opts)
	if err != nil {
		return "", err
	}
	c.pattern = pattern
	return pattern, nil
}

// Pattern is the route of the last successful RegisterRoutes, or "".
func (c *Component) Pattern() string { return c.pattern }

// Client returns a directory client that queries this component on the
// server at baseURL, using the configured query parameter. Before the
// component is mounted the default route is assumed.
func (c *Component) Client(baseURL string, opts ...directory.ClientOption) *directory.Client {
	pattern := c.pattern
	if pattern == "" {
		pattern = joinRoute("", c.opts.RoutePath)
	}
	opts = append([]directory.ClientOption{directory.WithQueryParam(c.opts.QueryParam)}, opts...)
	return directory.NewClient(strings.TrimRight(baseURL, "/")+pattern, opts...)
}
