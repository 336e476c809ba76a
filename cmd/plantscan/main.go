package main

import (
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "plantscan",
		Short:         "Plant disease scanner",
		Long:          `plantscan reconciles object-detector output with a disease knowledge base and serves diagnoses over HTTP and Telegram`,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().String("config", "", "path to a config file (default: ./config.yaml if present)")

	root.AddCommand(newServeCmd())
	root.AddCommand(newAnalyzeCmd())
	root.AddCommand(newDiseasesCmd())
	root.AddCommand(newMigrateCmd())

	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
