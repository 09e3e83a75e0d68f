package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sydlexius/festival-scraper/internal/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	defaultConfig := os.Getenv("FS_CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = "config.yaml"
	}

	root := &cobra.Command{
		Use:     "festival-scraper",
		Short:   "Publish enriched festival line-ups",
		Version: version.String(),
		Long: `festival-scraper collects the artist line-ups of configured festivals,
identifies every artist in the Spotify catalog and publishes one JSON
artifact per festival. Artists that cannot be identified get a GitHub
issue so they can be looked up manually; the issue is closed once a
later run finds them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", defaultConfig, "path to the YAML config file")

	root.AddCommand(runCmd())
	root.AddCommand(identifyCmd())
	root.AddCommand(overridesCmd())
	root.AddCommand(paramsCmd())
	return root
}
