package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/autorfp-ai/autorfp/pkg/artifact"
	"github.com/autorfp-ai/autorfp/pkg/plan"
)

func newGenerateCmd() *cobra.Command {
	var configPath, format, output string
	var force bool

	cmd := &cobra.Command{
		Use:   "generate <document>",
		Short: "Generate a project plan from a statement of work",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), configPath, true)
			if err != nil {
				return err
			}
			defer a.Close()

			text, err := a.readers.Read(args[0])
			if err != nil {
				return err
			}

			res, err := a.pipeline.Run(cmd.Context(), text, force)
			if err != nil {
				return err
			}
			a.pipeline.Flush()

			encoded, err := encodePlan(res.Plan, format)
			if err != nil {
				return err
			}

			fmt.Fprintf(os.Stderr, "fingerprint: %s\n", res.Fingerprint)
			if res.Cached {
				fmt.Fprintln(os.Stderr, "served from cache")
			} else {
				fmt.Fprintf(os.Stderr, "generated from %d candidate(s)\n", res.Candidates)
			}
			fmt.Fprintf(os.Stderr, "total: %.1f hours across %d subtasks\n", res.Plan.Hours(), res.Plan.SubtaskCount())

			if output == "" {
				fmt.Print(encoded)
				return nil
			}
			if err := os.WriteFile(output, []byte(encoded), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintf(os.Stderr, "wrote %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "autorfp.yaml", "path to config file")
	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "output format: yaml or json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the plan to a file instead of stdout")
	cmd.Flags().BoolVar(&force, "force", false, "regenerate even when a cached plan exists")
	return cmd
}

func encodePlan(p *plan.Plan, format string) (string, error) {
	switch format {
	case "yaml", "":
		return artifact.ToYAML(p)
	case "json":
		return artifact.ToJSON(p)
	default:
		return "", fmt.Errorf("unknown format %q (want yaml or json)", format)
	}
}
