package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	var configPath, output string
	var pivot bool

	cmd := &cobra.Command{
		Use:   "export <fingerprint>",
		Short: "Export a plan as CSV, flat or pivoted by category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), configPath, false)
			if err != nil {
				return err
			}
			defer a.Close()

			p, ok := a.pipeline.Lookup(args[0], false)
			if !ok {
				return fmt.Errorf("no plan for fingerprint %q", args[0])
			}

			out := os.Stdout
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				defer f.Close()
				out = f
			}
			if err := p.WriteCSV(out, pivot); err != nil {
				return err
			}
			if output != "" {
				fmt.Fprintf(os.Stderr, "wrote %s\n", output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "autorfp.yaml", "path to config file")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write CSV to a file instead of stdout")
	cmd.Flags().BoolVar(&pivot, "pivot", false, "pivot rows by category")
	return cmd
}
