package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formkit/pkg/catalog"
)

func newSkillsCmd(g *globals) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "skills",
		Short: "Print the skills catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := g.loadConfig(cmd)
			if err != nil {
				return err
			}
			skills, err := catalog.New(catalog.WithDelay(cfg.Catalog.Delay)).Skills(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				out, err := json.Marshal(skills)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			}
			for _, skill := range skills {
				fmt.Fprintln(cmd.OutOrStdout(), skill)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the list as JSON")
	return cmd
}
