package models

import (
	"io/fs"
	"time"
)

// FingerprintMethod defines which digest is used to detect content changes
type FingerprintMethod string

const (
	// FingerprintMD5 uses MD5 digests (fast, adequate for change detection)
	FingerprintMD5 FingerprintMethod = "md5"
	// FingerprintSHA256 uses SHA-256 digests
	FingerprintSHA256 FingerprintMethod = "sha256"
)

// DeployOperation holds the configuration of a single deployment run
type DeployOperation struct {
	ID          string
	SourceDir   string
	DestDir     string
	Extensions  []string
	Fingerprint FingerprintMethod

	// Permission reconciliation
	Owner    string
	FileMode fs.FileMode
	DirMode  fs.FileMode

	MaxWorkers int
	BufferSize int

	CreatedAt time.Time
}

// Validate checks if the operation configuration is valid
func (op *DeployOperation) Validate() error {
	if op.SourceDir == "" {
		return &ValidationError{Field: "SourceDir", Message: "source directory is required"}
	}
	if op.DestDir == "" {
		return &ValidationError{Field: "DestDir", Message: "destination directory is required"}
	}
	if len(op.Extensions) == 0 {
		return &ValidationError{Field: "Extensions", Message: "at least one file extension is required"}
	}
	if op.MaxWorkers < 1 {
		return &ValidationError{Field: "MaxWorkers", Message: "max workers must be at least 1"}
	}
	if op.BufferSize < 1024 {
		return &ValidationError{Field: "BufferSize", Message: "buffer size must be at least 1024 bytes"}
	}
	return nil
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
