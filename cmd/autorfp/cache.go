package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/autorfp-ai/autorfp/pkg/pipeline"
)

func newCacheCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the generation cache",
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), configPath, false)
			if err != nil {
				return err
			}
			defer a.Close()

			stats := a.cache.Stats(pipeline.PlanCollection)
			fmt.Printf("Entries: %d\nHits:    %d\nMisses:  %d\nExpired: %d\n",
				stats.Entries, stats.Hits, stats.Misses, stats.Expired)
			return nil
		},
	}

	var expiredOnly bool
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear cache entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), configPath, false)
			if err != nil {
				return err
			}
			defer a.Close()

			removed := a.cache.Clear(pipeline.PlanCollection, expiredOnly)
			if expiredOnly {
				fmt.Printf("Cleared %d expired cache entries.\n", removed)
			} else {
				fmt.Printf("Cleared %d cache entries.\n", removed)
			}
			return nil
		},
	}
	clearCmd.Flags().BoolVar(&expiredOnly, "expired", false, "only clear expired entries")

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "autorfp.yaml", "path to config file")
	cmd.AddCommand(statsCmd, clearCmd)
	return cmd
}
