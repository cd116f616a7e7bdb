package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:     "autorfp",
		Short:   "autorfp — turn statements of work into estimated project plans",
		Version: version,
	}

	root.AddCommand(
		newGenerateCmd(),
		newShowCmd(),
		newExportCmd(),
		newCacheCmd(),
		newServeCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
