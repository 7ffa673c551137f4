package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dunamismax/scriptdeploy/pkg/deploy"
	"github.com/dunamismax/scriptdeploy/pkg/logging"
	"github.com/dunamismax/scriptdeploy/pkg/output"
)

// DeployFlags holds deploy command flags
type DeployFlags struct {
	Source      string
	Dest        string
	Owner       string
	Extensions  []string
	Fingerprint string
	FileMode    string
	DirMode     string
	Parallel    int
	Output      string
	// Logging flags
	LogFile   string
	LogFormat string
	LogLevel  string
}

var deployFlags DeployFlags

// NewDeployCommand creates the deploy command
func NewDeployCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy scripts to the destination directory",
		Long: `Deploy script files from the source tree into the destination directory.
Only new and changed files are copied; ownership and permissions are
normalized on every matching file.`,
		RunE: runDeploy,
	}

	cmd.Flags().StringVarP(&deployFlags.Source, "source", "s", "", "source directory (default from config)")
	cmd.Flags().StringVarP(&deployFlags.Dest, "dest", "d", "", "destination directory (default from config)")
	cmd.Flags().StringVar(&deployFlags.Owner, "owner", "", "owner applied to deployed files (empty disables chown)")
	cmd.Flags().StringSliceVarP(&deployFlags.Extensions, "extensions", "e", nil, "file extensions to deploy (default: .py, .sh)")
	cmd.Flags().StringVar(&deployFlags.Fingerprint, "fingerprint", "", "change detection digest: md5, sha256")
	cmd.Flags().StringVar(&deployFlags.FileMode, "file-mode", "", "octal mode applied to deployed files (default: 0644)")
	cmd.Flags().StringVar(&deployFlags.DirMode, "dir-mode", "", "octal mode applied to created directories (default: 0755)")
	cmd.Flags().IntVarP(&deployFlags.Parallel, "parallel", "p", 0, "number of parallel workers (default: 4)")
	cmd.Flags().StringVarP(&deployFlags.Output, "output", "o", "", "output format: human, json, progress")

	// Logging flags
	cmd.Flags().StringVar(&deployFlags.LogFile, "log-file", "", "write logs to file (enables file logging)")
	cmd.Flags().StringVar(&deployFlags.LogFormat, "log-format", "text", "log format: text, json")
	cmd.Flags().StringVar(&deployFlags.LogLevel, "log-level", "info", "log level: debug, info, warn, error")

	return cmd
}

func runDeploy(cmd *cobra.Command, args []string) error {
	baseCtx := cmd.Context()
	if baseCtx == nil {
		baseCtx = context.Background()
	}

	// Load configuration and layer flags on top
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyFlagsToConfig(cfg)

	// --owner "" is meaningful (disables chown), so the flag overrides
	// the config whenever it was set at all
	if cmd.Flags().Changed("owner") {
		cfg.Permissions.Owner = deployFlags.Owner
	}

	if err := validateDeployPaths(cfg); err != nil {
		return err
	}

	operation, err := createDeployOperation(cfg)
	if err != nil {
		return fmt.Errorf("failed to create deploy operation: %w", err)
	}

	// Create output formatter
	var formatter output.Formatter
	if !cfg.Output.Quiet {
		switch cfg.Output.Format {
		case "json":
			formatter = output.NewJSONFormatter()
		case "progress":
			formatter = output.NewProgressFormatter()
		default:
			formatter = output.NewHumanFormatter()
		}
	}

	// Create logger
	logger, err := createLogger(cfg.Logging.File, cfg.Logging.Format, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Close()

	// Interrupt handling: first signal cancels the run, already-copied
	// files stay in place
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var received syscall.Signal = -1
	go func() {
		sig, ok := <-sigCh
		if !ok {
			return
		}
		if s, isSyscall := sig.(syscall.Signal); isSyscall {
			received = s
		}
		cancel()
	}()

	deployer := deploy.New(operation, formatter, logger)
	result, err := deployer.Run(ctx)

	if errors.Is(err, context.Canceled) && received >= 0 {
		fmt.Fprintf(os.Stderr, "Interrupted by signal %d\n", received)
		os.Exit(128 + int(received))
	}
	if err != nil {
		return fmt.Errorf("deployment failed: %w", err)
	}

	os.Exit(result.Status().ExitCode())
	return nil
}

// createLogger creates a logger based on configuration
func createLogger(logFile, logFormat, logLevel string) (logging.Logger, error) {
	level := logging.ParseLevel(logLevel)

	if logFile == "" {
		if globalFlags.Verbose {
			return logging.NewStderrLogger(logging.DebugLevel), nil
		}
		return logging.NewNullLogger(), nil
	}

	var format logging.Format
	switch logFormat {
	case "json":
		format = logging.FormatJSON
	default:
		format = logging.FormatText
	}

	config := logging.FileLoggerConfig{
		Path:       logFile,
		Format:     format,
		Level:      level,
		MaxSize:    10 * 1024 * 1024, // 10 MB
		MaxBackups: 5,
	}

	return logging.NewFileLogger(config)
}
