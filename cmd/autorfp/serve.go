package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/autorfp-ai/autorfp/pkg/server"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), configPath, true)
			if err != nil {
				return err
			}
			defer a.Close()
			defer a.pipeline.Flush()

			srv := server.NewServer(a.pipeline, a.readers)
			log.Printf("starting autorfp server on %s", a.cfg.Listen)
			return srv.Run(a.cfg.Listen)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "autorfp.yaml", "path to config file")
	return cmd
}
