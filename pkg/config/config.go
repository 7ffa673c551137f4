package config

import (
	"io/fs"
	"strconv"

	"github.com/dunamismax/scriptdeploy/pkg/models"
)

// Config represents the application configuration
type Config struct {
	Deploy      DeployConfig      `yaml:"deploy"`
	Permissions PermissionsConfig `yaml:"permissions"`
	Performance PerformanceConfig `yaml:"performance"`
	Output      OutputConfig      `yaml:"output"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// DeployConfig holds source/destination settings
type DeployConfig struct {
	Source      string                   `yaml:"source"`
	Dest        string                   `yaml:"dest"`
	Extensions  []string                 `yaml:"extensions"`
	Fingerprint models.FingerprintMethod `yaml:"fingerprint"`
}

// PermissionsConfig holds ownership and mode settings. Modes are octal
// strings ("0644") so the YAML reads the way chmod arguments do.
type PermissionsConfig struct {
	Owner    string `yaml:"owner"`
	FileMode string `yaml:"file_mode"`
	DirMode  string `yaml:"dir_mode"`
}

// PerformanceConfig holds performance-related settings
type PerformanceConfig struct {
	MaxWorkers int `yaml:"max_workers"`
	BufferSize int `yaml:"buffer_size"`
}

// OutputConfig holds output-related settings
type OutputConfig struct {
	Format string `yaml:"format"` // "human", "json", or "progress"
	Quiet  bool   `yaml:"quiet"`  // Suppress non-error output
}

// LoggingConfig holds logging-related settings
type LoggingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Format  string `yaml:"format"` // "json" or "text"
	Level   string `yaml:"level"`  // "debug", "info", "warn", "error"
	File    string `yaml:"file"`   // Log file path (empty = stderr)
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Deploy: DeployConfig{
			Source:      "~/github/macos/scripts",
			Dest:        "~/bin",
			Extensions:  []string{".py", ".sh"},
			Fingerprint: models.FingerprintMD5,
		},
		Permissions: PermissionsConfig{
			Owner:    "sawyer",
			FileMode: "0644",
			DirMode:  "0755",
		},
		Performance: PerformanceConfig{
			MaxWorkers: 4,
			BufferSize: 65536,
		},
		Output: OutputConfig{
			Format: "human",
			Quiet:  false,
		},
		Logging: LoggingConfig{
			Enabled: true,
			Format:  "text",
			Level:   "info",
			File:    "",
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Deploy.Source == "" {
		return &models.ValidationError{
			Field:   "deploy.source",
			Message: "source directory is required",
		}
	}

	if c.Deploy.Dest == "" {
		return &models.ValidationError{
			Field:   "deploy.dest",
			Message: "destination directory is required",
		}
	}

	if len(c.Deploy.Extensions) == 0 {
		return &models.ValidationError{
			Field:   "deploy.extensions",
			Message: "at least one extension is required",
		}
	}

	validFingerprints := map[models.FingerprintMethod]bool{
		models.FingerprintMD5:    true,
		models.FingerprintSHA256: true,
	}
	if !validFingerprints[c.Deploy.Fingerprint] {
		return &models.ValidationError{
			Field:   "deploy.fingerprint",
			Message: "must be 'md5' or 'sha256'",
		}
	}

	if _, err := ParseMode(c.Permissions.FileMode); err != nil {
		return &models.ValidationError{
			Field:   "permissions.file_mode",
			Message: "must be an octal mode like '0644'",
		}
	}

	if _, err := ParseMode(c.Permissions.DirMode); err != nil {
		return &models.ValidationError{
			Field:   "permissions.dir_mode",
			Message: "must be an octal mode like '0755'",
		}
	}

	if c.Performance.MaxWorkers < 1 {
		return &models.ValidationError{
			Field:   "performance.max_workers",
			Message: "must be at least 1",
		}
	}

	if c.Performance.BufferSize < 1024 {
		return &models.ValidationError{
			Field:   "performance.buffer_size",
			Message: "must be at least 1024 bytes",
		}
	}

	validFormats := map[string]bool{"human": true, "json": true, "progress": true}
	if !validFormats[c.Output.Format] {
		return &models.ValidationError{
			Field:   "output.format",
			Message: "must be 'human', 'json', or 'progress'",
		}
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		return &models.ValidationError{
			Field:   "logging.format",
			Message: "must be 'json' or 'text'",
		}
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return &models.ValidationError{
			Field:   "logging.level",
			Message: "must be 'debug', 'info', 'warn', or 'error'",
		}
	}

	return nil
}

// ParseMode parses an octal mode string such as "0644" into a file mode
func ParseMode(s string) (fs.FileMode, error) {
	bits, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return 0, err
	}
	return fs.FileMode(bits), nil
}
