package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newShowCmd() *cobra.Command {
	var configPath, format string
	var expired bool

	cmd := &cobra.Command{
		Use:   "show <fingerprint>",
		Short: "Print a previously generated plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), configPath, false)
			if err != nil {
				return err
			}
			defer a.Close()

			p, ok := a.pipeline.Lookup(args[0], expired)
			if !ok {
				return fmt.Errorf("no plan for fingerprint %q", args[0])
			}

			encoded, err := encodePlan(p, format)
			if err != nil {
				return err
			}
			fmt.Print(encoded)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "autorfp.yaml", "path to config file")
	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "output format: yaml or json")
	cmd.Flags().BoolVar(&expired, "expired", false, "also return expired cache entries")
	return cmd
}
