package main

import (
	"github.com/spf13/cobra"

	"github.com/goliatone/go-formkit/internal/bootstrap"
	"github.com/goliatone/go-formkit/internal/config"
)

func newServeCmd(g *globals) *cobra.Command {
	var hotReload bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the form session HTTP service",
		Long: `Start the HTTP service exposing profile form sessions.

With --hot-reload the config file is watched and re-read on change or
SIGHUP. Ban lists and the log level take effect on open sessions.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, fromFile, err := g.loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := g.logger(cfg)

			var holder *config.Holder
			if hotReload && fromFile {
				holder, err = config.NewHolder(g.cfgFile, logger)
				if err != nil {
					return err
				}
				if err := holder.WatchFile(); err != nil {
					holder.Stop()
					return err
				}
				holder.WatchSignals()
				logger.Info().Str("path", g.cfgFile).Msg("config hot reload enabled")
			} else {
				if hotReload {
					logger.Warn().Msg("hot reload needs a config file; serving static config")
				}
				holder = config.Static(cfg, logger)
			}

			app, err := bootstrap.New(holder, logger)
			if err != nil {
				holder.Stop()
				return err
			}
			return app.Run(cmd.Context())
		},
	}
	cmd.Flags().BoolVar(&hotReload, "hot-reload", true, "watch the config file and reload on change")
	return cmd
}
