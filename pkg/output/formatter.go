package output

import (
	"io"

	"github.com/dunamismax/scriptdeploy/pkg/models"
)

// ProgressUpdate represents a progress notification emitted by the
// deployment engine. The engine publishes these events without knowing how
// they are rendered; formatters subscribe independently of the sync logic.
type ProgressUpdate struct {
	Type              string // "file_start", "file_complete", "file_error"
	Path              string
	Status            models.FileStatus
	PermissionChanged bool
	FileIndex         int
	TotalFiles        int
	Error             error
}

// Formatter defines the interface for rendering a deployment run.
// Implementations include human-readable, JSON, and progress-bar output.
type Formatter interface {
	// Start initializes the formatter before file processing begins
	Start(writer io.Writer, op *models.DeployOperation, totalFiles int) error

	// Progress reports a per-file event during the run
	Progress(update ProgressUpdate) error

	// Complete finalizes output and displays the run summary
	Complete(result *models.DeploymentResult) error

	// Error reports a run-level error
	Error(err error) error

	// Name returns the formatter name
	Name() string
}
