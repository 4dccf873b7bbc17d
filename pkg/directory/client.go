package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// DefaultEndpoint is the public placeholder directory the profile form was
// designed against.
const DefaultEndpoint = "https://jsonplaceholder.typicode.com/users"

// StatusError reports a non-2xx response from the directory endpoint.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("directory: unexpected status %d", e.Code)
	}
	return fmt.Sprintf("directory: unexpected status %d: %s", e.Code, e.Body)
}

// StatusCode returns the HTTP status of the failed lookup.
func (e *StatusError) StatusCode() int {
	if e == nil || e.Code <= 0 {
		return http.StatusInternalServerError
	}
	return e.Code
}

// Outcome labels reported to a LookupObserver.
const (
	OutcomeFound    = "found"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// LookupObserver is told how each remote lookup ended and how long it took.
type LookupObserver func(outcome string, elapsed time.Duration)

// Client queries a remote directory with GET <endpoint>?username=<value>
// and expects a JSON array of users.
type Client struct {
	httpClient *http.Client
	endpoint   string
	param      string
	limiter    *rate.Limiter
	logger     zerolog.Logger
	observe    LookupObserver
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

// WithRateLimit throttles outbound lookups to perSecond with the given burst.
// A non-positive rate disables throttling.
func WithRateLimit(perSecond float64, burst int) ClientOption {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithLogger attaches a logger for request diagnostics.
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithQueryParam changes the username query parameter name.
func WithQueryParam(name string) ClientOption {
	return func(c *Client) {
		if name != "" {
			c.param = name
		}
	}
}

// WithObserver registers a callback for lookup outcomes.
func WithObserver(fn LookupObserver) ClientOption {
	return func(c *Client) {
		c.observe = fn
	}
}

// NewClient creates a directory client for endpoint, falling back to
// DefaultEndpoint when empty.
func NewClient(endpoint string, opts ...ClientOption) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	c := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		endpoint:   endpoint,
		param:      "username",
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Endpoint returns the configured endpoint.
func (c *Client) Endpoint() string { return c.endpoint }

// FindByUsername returns the users whose username matches exactly.
func (c *Client) FindByUsername(ctx context.Context, username string) ([]User, error) {
	start := time.Now()
	users, err := c.find(ctx, username)
	elapsed := time.Since(start)

	outcome := OutcomeNotFound
	switch {
	case err != nil:
		outcome = OutcomeError
		c.logger.Warn().Err(err).Str("username", username).Dur("elapsed", elapsed).Msg("directory lookup failed")
	case len(users) > 0:
		outcome = OutcomeFound
	}
	if err == nil {
		c.logger.Debug().Str("username", username).Int("matches", len(users)).Dur("elapsed", elapsed).Msg("directory lookup")
	}
	if c.observe != nil {
		c.observe(outcome, elapsed)
	}
	return users, err
}

func (c *Client) find(ctx context.Context, username string) ([]User, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("directory: rate limit: %w", err)
		}
	}

	target, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("directory: parse endpoint: %w", err)
	}
	query := target.Query()
	query.Set(c.param, username)
	target.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("directory: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("directory: execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{Code: resp.StatusCode, Body: string(body)}
	}

	var users []User
	if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
		return nil, fmt.Errorf("directory: decode response: %w", err)
	}
	return users, nil
}
