package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/dunamismax/scriptdeploy/internal/platform"
	"github.com/dunamismax/scriptdeploy/pkg/config"
	"github.com/dunamismax/scriptdeploy/pkg/models"
)

// loadConfig loads configuration from file or returns default
func loadConfig() (*config.Config, error) {
	if globalFlags.ConfigFile != "" {
		return config.LoadFromFile(globalFlags.ConfigFile)
	}
	return config.LoadDefault()
}

// applyFlagsToConfig overrides config values with command-line flags
func applyFlagsToConfig(cfg *config.Config) {
	if deployFlags.Source != "" {
		cfg.Deploy.Source = deployFlags.Source
	}
	if deployFlags.Dest != "" {
		cfg.Deploy.Dest = deployFlags.Dest
	}
	if len(deployFlags.Extensions) > 0 {
		cfg.Deploy.Extensions = deployFlags.Extensions
	}
	if deployFlags.Fingerprint != "" {
		cfg.Deploy.Fingerprint = models.FingerprintMethod(deployFlags.Fingerprint)
	}

	if deployFlags.FileMode != "" {
		cfg.Permissions.FileMode = deployFlags.FileMode
	}
	if deployFlags.DirMode != "" {
		cfg.Permissions.DirMode = deployFlags.DirMode
	}

	if deployFlags.Parallel > 0 {
		cfg.Performance.MaxWorkers = deployFlags.Parallel
	}

	if deployFlags.Output != "" {
		cfg.Output.Format = deployFlags.Output
	}
	if deployFlags.LogFile != "" {
		cfg.Logging.Enabled = true
		cfg.Logging.File = deployFlags.LogFile
	}
	if deployFlags.LogFormat != "" {
		cfg.Logging.Format = deployFlags.LogFormat
	}
	if deployFlags.LogLevel != "" {
		cfg.Logging.Level = deployFlags.LogLevel
	}

	if globalFlags.Quiet {
		cfg.Output.Quiet = true
	}
}

// validateDeployPaths expands and sanity-checks the source and destination,
// rewriting them in the config to their absolute forms
func validateDeployPaths(cfg *config.Config) error {
	source, err := platform.NormalizePath(cfg.Deploy.Source)
	if err != nil {
		return fmt.Errorf("invalid source path: %w", err)
	}

	dest, err := platform.NormalizePath(cfg.Deploy.Dest)
	if err != nil {
		return fmt.Errorf("invalid destination path: %w", err)
	}

	if info, err := os.Stat(source); os.IsNotExist(err) {
		return fmt.Errorf("source directory does not exist: %s", source)
	} else if err != nil {
		return fmt.Errorf("failed to access source directory: %w", err)
	} else if !info.IsDir() {
		return fmt.Errorf("source path is not a directory: %s", source)
	}

	if source == dest {
		return fmt.Errorf("source and destination cannot be the same: %s", source)
	}

	if nested, _ := platform.IsSubPath(source, dest); nested {
		return fmt.Errorf("destination cannot be inside source directory")
	}
	if nested, _ := platform.IsSubPath(dest, source); nested {
		return fmt.Errorf("source cannot be inside destination directory")
	}

	cfg.Deploy.Source = source
	cfg.Deploy.Dest = dest
	return nil
}

// createDeployOperation creates a deploy operation from configuration
func createDeployOperation(cfg *config.Config) (*models.DeployOperation, error) {
	fileMode, err := config.ParseMode(cfg.Permissions.FileMode)
	if err != nil {
		return nil, fmt.Errorf("invalid file mode %q: %w", cfg.Permissions.FileMode, err)
	}

	dirMode, err := config.ParseMode(cfg.Permissions.DirMode)
	if err != nil {
		return nil, fmt.Errorf("invalid dir mode %q: %w", cfg.Permissions.DirMode, err)
	}

	operation := &models.DeployOperation{
		ID:          uuid.New().String(),
		SourceDir:   cfg.Deploy.Source,
		DestDir:     cfg.Deploy.Dest,
		Extensions:  cfg.Deploy.Extensions,
		Fingerprint: cfg.Deploy.Fingerprint,
		Owner:       cfg.Permissions.Owner,
		FileMode:    fileMode,
		DirMode:     dirMode,
		MaxWorkers:  cfg.Performance.MaxWorkers,
		BufferSize:  cfg.Performance.BufferSize,
		CreatedAt:   time.Now(),
	}

	if err := operation.Validate(); err != nil {
		return nil, err
	}

	return operation, nil
}
