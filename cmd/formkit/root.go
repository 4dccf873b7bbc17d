package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-formkit/internal/config"
	"github.com/goliatone/go-formkit/internal/logging"
)

const (
	checkMark = "✓"
	crossMark = "✗"
)

// globals are the persistent flags shared by every command.
type globals struct {
	cfgFile   string
	logLevel  string
	logFormat string
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:   "formkit",
		Short: "Reactive form validation for the user profile form",
		Long: `formkit models forms as a tree of validated controls.

It ships the user profile form in two flavours (reactive and
template-driven), an HTTP service exposing form sessions and an
interactive terminal filler.

Examples:
  formkit serve                     # Start the HTTP service
  formkit fill --kind template      # Fill the form in the terminal
  formkit validate values.yaml      # Validate a values file
  formkit skills                    # Print the skills catalog`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&g.cfgFile, "config", "c", "formkit.yaml", "config file path")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "log level override: debug, info, warn, error")
	root.PersistentFlags().StringVar(&g.logFormat, "log-format", "", "log format override: json or console")

	root.AddCommand(
		newServeCmd(g),
		newFillCmd(g),
		newValidateCmd(g),
		newSkillsCmd(g),
	)
	return root
}

// loadConfig reads the config file when it exists. A missing default file
// falls back to defaults plus FORMKIT_* variables; a missing file named
// with --config is an error.
func (g *globals) loadConfig(cmd *cobra.Command) (*config.Config, bool, error) {
	if _, err := os.Stat(g.cfgFile); err == nil {
		cfg, err := config.Load(g.cfgFile)
		if err != nil {
			return nil, false, err
		}
		return cfg, true, nil
	}
	if cmd.Flags().Changed("config") {
		return nil, false, fmt.Errorf("config file not found: %s", g.cfgFile)
	}
	return config.Default(), false, nil
}

func (g *globals) logger(cfg *config.Config) zerolog.Logger {
	level, format := cfg.Logging.Level, cfg.Logging.Format
	if g.logLevel != "" {
		level = g.logLevel
	}
	if g.logFormat != "" {
		format = g.logFormat
	}
	return logging.New(level, format)
}
