// Package bootstrap wires configuration, stores and the HTTP server into a
// runnable application.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-formkit/internal/config"
	"github.com/goliatone/go-formkit/internal/metrics"
	"github.com/goliatone/go-formkit/internal/server"
	"github.com/goliatone/go-formkit/pkg/catalog"
	"github.com/goliatone/go-formkit/pkg/clock"
	"github.com/goliatone/go-formkit/pkg/directory"
	"github.com/goliatone/go-formkit/pkg/profile"
)

// Services are the collaborators shared by the server and the CLI commands.
type Services struct {
	Store   directory.Registry
	Lookup  directory.Lookup
	Catalog *catalog.Service
	Clock   clock.Clock

	closeStore func() error
}

// OpenServices builds the directory store, the uniqueness lookup and the
// skills catalog from cfg. m may be nil.
func OpenServices(cfg *config.Config, logger zerolog.Logger, m *metrics.Collector) (*Services, error) {
	svc := &Services{
		Catalog:    catalog.New(catalog.WithDelay(cfg.Catalog.Delay)),
		Clock:      clock.Real{},
		closeStore: func() error { return nil },
	}

	if path := cfg.Storage.SQLitePath; path != "" {
		store, err := directory.OpenSQLite(path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		svc.Store = store
		svc.closeStore = store.Close
		logger.Info().Str("path", path).Msg("using sqlite directory store")
	} else {
		svc.Store = directory.NewMemoryStore()
		logger.Info().Msg("using in-memory directory store")
	}

	svc.Lookup = svc.Store
	if endpoint := cfg.Directory.Endpoint; endpoint != "" {
		opts := []directory.ClientOption{
			directory.WithTimeout(cfg.Directory.Timeout),
			directory.WithLogger(logger),
		}
		if cfg.Directory.RatePerSecond > 0 {
			opts = append(opts, directory.WithRateLimit(cfg.Directory.RatePerSecond, 1))
		}
		if m != nil {
			opts = append(opts, directory.WithObserver(m.ObserveLookup))
		}
		svc.Lookup = directory.NewClient(endpoint, opts...)
		logger.Info().Str("endpoint", endpoint).Msg("using remote directory lookup")
	}
	return svc, nil
}

// ProfileDeps returns the profile collaborators for cfg.
func (s *Services) ProfileDeps(cfg *config.Config) profile.Deps {
	return profile.Deps{
		Lookup:           s.Lookup,
		Skills:           s.Catalog,
		Clock:            s.Clock,
		BannedFirstNames: cfg.Validation.BannedFirstNames,
		BannedNicknames:  cfg.Validation.BannedNicknames,
	}
}

// Close releases the store.
func (s *Services) Close() error {
	return s.closeStore()
}

// App is the running formkit service.
type App struct {
	Config     *config.Holder
	Logger     zerolog.Logger
	Metrics    *metrics.Collector
	Services   *Services
	Server     *server.Server
	HTTPServer *http.Server
}

// New wires an App from holder.
func New(holder *config.Holder, logger zerolog.Logger) (*App, error) {
	cfg := holder.Get()
	m := metrics.New()

	svc, err := OpenServices(cfg, logger, m)
	if err != nil {
		return nil, err
	}

	srv, err := server.New(server.Deps{
		Config:  holder,
		Logger:  logger,
		Metrics: m,
		Store:   svc.Store,
		Lookup:  svc.Lookup,
		Catalog: svc.Catalog,
		Clock:   svc.Clock,
	})
	if err != nil {
		svc.Close()
		return nil, fmt.Errorf("build server: %w", err)
	}

	return &App{
		Config:   holder,
		Logger:   logger,
		Metrics:  m,
		Services: svc,
		Server:   srv,
		HTTPServer: &http.Server{
			Addr:    cfg.Server.Addr,
			Handler: srv.Handler(),
		},
	}, nil
}

// Run serves until ctx is cancelled, SIGINT or SIGTERM arrives, or the
// listener fails.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().
			Str("addr", a.HTTPServer.Addr).
			Msg("starting http server")
		if err := a.HTTPServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.Shutdown()
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		a.Logger.Info().Msg("shutting down")
	}
	return a.Shutdown()
}

// Shutdown gracefully stops the application.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.Config.Get().Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("http server shutdown error")
			errs = append(errs, err)
		}
	}

	a.Config.Stop()
	a.Server.Close()

	if err := a.Services.Close(); err != nil {
		a.Logger.Error().Err(err).Msg("store close error")
		errs = append(errs, err)
	}

	a.Logger.Info().Msg("shutdown complete")
	return errors.Join(errs...)
}
