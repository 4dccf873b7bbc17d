// Package catalog is the mocked skills source the profile forms populate
// their skills record from.
package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// DefaultDelay is how long Skills takes to answer.
const DefaultDelay = time.Second

// DefaultSkills returns the fixed skills list.
func DefaultSkills() []string {
	return []string{"Angular", "RxJS", "Docker", "Python"}
}

// Service answers with a fixed list after a fixed delay.
type Service struct {
	skills []string
	delay  time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithDelay overrides the answer delay. Zero answers immediately.
func WithDelay(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.delay = d
		}
	}
}

// WithSkills overrides the served list.
func WithSkills(skills ...string) Option {
	return func(s *Service) {
		s.skills = append([]string(nil), skills...)
	}
}

// New creates a Service with the default list and delay.
func New(opts ...Option) *Service {
	s := &Service{skills: DefaultSkills(), delay: DefaultDelay}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Delay returns the configured delay.
func (s *Service) Delay() time.Duration { return s.delay }

// Skills waits for the configured delay and returns a copy of the list.
func (s *Service) Skills(ctx context.Context) ([]string, error) {
	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]string(nil), s.skills...), nil
}

type skillsResponse struct {
	Data []string `json:"data"`
}

// Handler serves the list as {"data": [...]} on GET and HEAD.
func (s *Service) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", http.MethodGet+", "+http.MethodHead)
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		skills, err := s.Skills(r.Context())
		if err != nil {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodHead {
			return
		}
		_ = json.NewEncoder(w).Encode(skillsResponse{Data: skills})
	})
}
