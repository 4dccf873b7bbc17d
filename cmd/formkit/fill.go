package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formkit/internal/bootstrap"
	"github.com/goliatone/go-formkit/internal/prompt"
	"github.com/goliatone/go-formkit/pkg/profile"
)

func newFillCmd(g *globals) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "fill",
		Short: "Fill the profile form interactively",
		Long: `Prompt for every field of the profile form in order.

Invalid answers are explained and asked again. The final form value is
printed as JSON.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			k, err := profile.ParseKind(kind)
			if err != nil {
				return err
			}
			cfg, _, err := g.loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := g.logger(cfg)

			svc, err := bootstrap.OpenServices(cfg, logger, nil)
			if err != nil {
				return err
			}
			defer svc.Close()

			p, err := profile.New(k, svc.ProfileDeps(cfg))
			if err != nil {
				return err
			}
			defer p.Close()
			if err := p.LoadSkills(cmd.Context()); err != nil {
				return err
			}

			filler, err := prompt.NewFiller(prompt.NewSurveyDriver(cmd.OutOrStdout()), nil)
			if err != nil {
				return err
			}
			value, err := filler.Fill(cmd.Context(), p)
			if errors.Is(err, prompt.ErrAborted) {
				return errors.New("aborted")
			}
			if err != nil && !errors.Is(err, prompt.ErrInvalid) {
				return err
			}

			out, merr := json.MarshalIndent(value, "", "  ")
			if merr != nil {
				return merr
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			if err != nil {
				return fmt.Errorf("%s form is invalid", k)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s form is valid\n", checkMark, k)
			return nil
		},
	}
	cmd.Flags().StringVarP(&kind, "kind", "k", string(profile.KindReactive), "profile flavour: reactive or template")
	return cmd
}
