package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dunamismax/scriptdeploy/internal/cli"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	rootCmd := &cobra.Command{
		Use:   "scriptdeploy",
		Short: "Concurrent script deployment utility",
		Long: `scriptdeploy copies script files from a source tree into a destination
directory, skipping files whose content has not changed and normalizing
ownership and permissions on everything it manages.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add global flags
	cli.AddGlobalFlags(rootCmd)

	// Add commands
	rootCmd.AddCommand(cli.NewDeployCommand())
	rootCmd.AddCommand(cli.NewConfigCommand())
	rootCmd.AddCommand(cli.NewVersionCommand())

	return rootCmd.Execute()
}
