package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dunamismax/scriptdeploy/pkg/config"
)

// NewConfigCommand creates the config command
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  `View or modify scriptdeploy configuration.`,
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigInitCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			fmt.Printf("Source: %s\n", cfg.Deploy.Source)
			fmt.Printf("Destination: %s\n", cfg.Deploy.Dest)
			fmt.Printf("Extensions: %s\n", strings.Join(cfg.Deploy.Extensions, ", "))
			fmt.Printf("Fingerprint: %s\n", cfg.Deploy.Fingerprint)
			fmt.Printf("Owner: %s\n", cfg.Permissions.Owner)
			fmt.Printf("File Mode: %s\n", cfg.Permissions.FileMode)
			fmt.Printf("Dir Mode: %s\n", cfg.Permissions.DirMode)
			fmt.Printf("Max Workers: %d\n", cfg.Performance.MaxWorkers)
			fmt.Printf("Output Format: %s\n", cfg.Output.Format)
			fmt.Printf("Log Format: %s\n", cfg.Logging.Format)
			fmt.Printf("Log Level: %s\n", cfg.Logging.Level)

			return nil
		},
	}
}

func newConfigInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.DefaultConfigPath()
			if err != nil {
				return err
			}

			cfg := config.Default()
			if err := config.SaveToFile(cfg, path); err != nil {
				return err
			}

			fmt.Printf("Configuration file created at: %s\n", path)
			return nil
		},
	}
}
