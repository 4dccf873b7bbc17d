// Package directory resolves usernames against a user directory, either a
// remote HTTP endpoint or a local store of registered users.
package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrDuplicate is returned by Register when the username is taken.
	ErrDuplicate = errors.New("directory: username already exists")
	// ErrInvalidUser is returned by Register for a user without a username.
	ErrInvalidUser = errors.New("directory: username is required")
)

// User is a directory entry. ID accepts both numeric and string identifiers
// when decoded from JSON.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// UnmarshalJSON accepts numeric ids as served by public placeholder APIs.
func (u *User) UnmarshalJSON(data []byte) error {
	type alias User
	var raw struct {
		alias
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*u = User(raw.alias)
	u.ID = ""
	if len(raw.ID) == 0 || string(raw.ID) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw.ID, &s); err == nil {
		u.ID = s
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(raw.ID, &n); err != nil {
		return fmt.Errorf("directory: decode user id: %w", err)
	}
	if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
		u.ID = strconv.FormatInt(i, 10)
		return nil
	}
	u.ID = n.String()
	return nil
}

// Lookup finds users by exact username.
type Lookup interface {
	FindByUsername(ctx context.Context, username string) ([]User, error)
}

// Registry is a Lookup that also accepts new users.
type Registry interface {
	Lookup
	Register(ctx context.Context, user User) (User, error)
}

// LookupFunc adapts a function to Lookup.
type LookupFunc func(ctx context.Context, username string) ([]User, error)

// FindByUsername calls f.
func (f LookupFunc) FindByUsername(ctx context.Context, username string) ([]User, error) {
	return f(ctx, username)
}

// NormalizeUsername trims surrounding whitespace. Comparisons in the local
// stores are case-insensitive.
func NormalizeUsername(username string) string {
	return strings.TrimSpace(username)
}

func sameUsername(a, b string) bool {
	return strings.EqualFold(NormalizeUsername(a), NormalizeUsername(b))
}
