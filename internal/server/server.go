// Package server exposes the profile forms over HTTP. Each session holds one
// form; edits are applied in order and async checks settle before the
// response is written.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	dircomponent "github.com/goliatone/go-formkit/components/directory"
	"github.com/goliatone/go-formkit/internal/config"
	"github.com/goliatone/go-formkit/internal/metrics"
	"github.com/goliatone/go-formkit/pkg/catalog"
	"github.com/goliatone/go-formkit/pkg/clock"
	"github.com/goliatone/go-formkit/pkg/directory"
	"github.com/goliatone/go-formkit/pkg/messages"
	"github.com/goliatone/go-formkit/pkg/profile"
)

// Deps contains the server's collaborators.
type Deps struct {
	Config  *config.Holder
	Logger  zerolog.Logger
	Metrics *metrics.Collector
	// Store receives registered users and backs the /api/users lookup.
	Store directory.Registry
	// Lookup answers the nickname uniqueness check. Nil uses Store.
	Lookup   directory.Lookup
	Catalog  *catalog.Service
	Clock    clock.Clock
	Messages *messages.Catalog
}

// Server is the HTTP surface of the profile forms.
type Server struct {
	cfg      *config.Holder
	logger   zerolog.Logger
	metrics  *metrics.Collector
	store    directory.Registry
	lookup   directory.Lookup
	catalog  *catalog.Service
	clock    clock.Clock
	messages *messages.Catalog
	sessions *SessionStore
	router   chi.Router
}

// New creates a server. Missing collaborators get working defaults.
func New(deps Deps) (*Server, error) {
	s := &Server{
		cfg:      deps.Config,
		logger:   deps.Logger,
		metrics:  deps.Metrics,
		store:    deps.Store,
		lookup:   deps.Lookup,
		catalog:  deps.Catalog,
		clock:    deps.Clock,
		messages: deps.Messages,
		sessions: NewSessionStore(),
	}
	if s.cfg == nil {
		s.cfg = config.Static(config.Default(), deps.Logger)
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	if s.store == nil {
		s.store = directory.NewMemoryStore()
	}
	if s.lookup == nil {
		s.lookup = s.store
	}
	if s.catalog == nil {
		s.catalog = catalog.New(catalog.WithDelay(s.cfg.Get().Catalog.Delay))
	}
	if s.clock == nil {
		s.clock = clock.Real{}
	}
	if s.messages == nil {
		msgs, err := messages.New()
		if err != nil {
			return nil, err
		}
		s.messages = msgs
	}

	s.cfg.OnChange(s.ApplyConfig)

	router, err := s.routes()
	if err != nil {
		return nil, err
	}
	s.router = router
	return s, nil
}

func (s *Server) routes() (chi.Router, error) {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.Middleware)
	if timeout := s.cfg.Get().Server.RequestTimeout; timeout > 0 {
		r.Use(middleware.Timeout(timeout))
	}

	r.Get("/healthz", s.Health)
	r.Handle("/metrics", s.metrics.Handler())

	r.Method(http.MethodGet, "/api/skills", s.catalog.Handler())
	users := dircomponent.New(dircomponent.WithLookup(s.store))
	if _, err := users.RegisterRoutes(r, "/"); err != nil {
		return nil, err
	}

	r.Post("/api/forms/{kind}/sessions", s.CreateSession)
	r.Route("/api/forms/sessions/{id}", func(r chi.Router) {
		r.Get("/", s.GetSession)
		r.Patch("/", s.EditSession)
		r.Delete("/", s.DeleteSession)
		r.Post("/submit", s.SubmitSession)
		r.Post("/reset", s.ResetSession)
		r.Post("/phones", s.AddPhone)
		r.Delete("/phones/{index}", s.RemovePhone)
	})
	return r, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// Sessions returns the session store.
func (s *Server) Sessions() *SessionStore { return s.sessions }

// ApplyConfig pushes reloaded ban lists into every open session.
func (s *Server) ApplyConfig(cfg *config.Config) {
	s.metrics.ConfigReloads.Inc()
	s.sessions.Each(func(sess *Session) {
		sess.Do(func(p profile.Profile) {
			p.SetBannedWords(cfg.Validation.BannedFirstNames, cfg.Validation.BannedNicknames)
		})
	})
	s.logger.Info().Int("sessions", s.sessions.Len()).Msg("ban lists updated")
}

// Close closes every open session.
func (s *Server) Close() {
	s.sessions.Close()
	s.metrics.SessionsActive.Set(0)
}

func (s *Server) profileDeps() profile.Deps {
	cfg := s.cfg.Get()
	return profile.Deps{
		Lookup:           s.lookup,
		Skills:           s.catalog,
		Clock:            s.clock,
		Instrumenter:     s.metrics,
		BannedFirstNames: cfg.Validation.BannedFirstNames,
		BannedNicknames:  cfg.Validation.BannedNicknames,
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request")
	})
}

// settle waits for async checks, bounded by ctx. A deadline leaves the
// checks running and the state pending.
func settle(ctx context.Context, p profile.Profile) {
	_ = p.Form().Wait(ctx)
}
