package output

import (
	"fmt"
	"io"
	"os"
	"os/user"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/dunamismax/scriptdeploy/pkg/models"
)

// maxDetailFiles caps the modified-files listing in the summary
const maxDetailFiles = 20

// HumanFormatter renders colored, human-readable output
type HumanFormatter struct {
	mu         sync.Mutex
	writer     io.Writer
	totalFiles int

	success *color.Color
	info    *color.Color
	warning *color.Color
	failure *color.Color
	muted   *color.Color
}

// NewHumanFormatter creates a new human-readable formatter
func NewHumanFormatter() *HumanFormatter {
	return &HumanFormatter{
		success: color.New(color.FgGreen, color.Bold),
		info:    color.New(color.FgCyan, color.Bold),
		warning: color.New(color.FgYellow, color.Bold),
		failure: color.New(color.FgRed, color.Bold),
		muted:   color.New(color.FgHiBlack),
	}
}

// Start prints the deployment details preamble
func (f *HumanFormatter) Start(writer io.Writer, op *models.DeployOperation, totalFiles int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if writer == nil {
		writer = os.Stdout
	}
	f.writer = writer
	f.totalFiles = totalFiles

	f.info.Fprintln(writer, "Deployment Details")
	fmt.Fprintf(writer, "  Source:      %s\n", op.SourceDir)
	fmt.Fprintf(writer, "  Target:      %s\n", op.DestDir)
	fmt.Fprintf(writer, "  Owner:       %s\n", displayOwner(op.Owner))
	fmt.Fprintf(writer, "  Permissions: files %04o, dirs %04o\n", op.FileMode, op.DirMode)
	fmt.Fprintf(writer, "  Workers:     %d\n", op.MaxWorkers)

	current, runningAs := runningUser()
	fmt.Fprintf(writer, "  Running as:  %s\n", runningAs)
	if os.Geteuid() != 0 && op.Owner != "" && op.Owner != current {
		f.warning.Fprintln(writer, "  Warning: not running as root, ownership changes may fail")
	}

	fmt.Fprintf(writer, "\nDeploying %d files\n", totalFiles)
	return nil
}

// Progress prints one line per completed file
func (f *HumanFormatter) Progress(update ProgressUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.writer == nil {
		return nil
	}

	switch update.Type {
	case "file_complete":
		prefix := fmt.Sprintf("[%d/%d]", update.FileIndex, update.TotalFiles)
		switch update.Status {
		case models.StatusNew:
			f.success.Fprintf(f.writer, "%s ✓ %s (new)\n", prefix, update.Path)
		case models.StatusUpdated:
			f.info.Fprintf(f.writer, "%s ↺ %s (updated)\n", prefix, update.Path)
		default:
			f.muted.Fprintf(f.writer, "%s ● %s\n", prefix, update.Path)
		}

	case "file_error":
		f.failure.Fprintf(f.writer, "[%d/%d] ✗ %s: %v\n",
			update.FileIndex, update.TotalFiles, update.Path, update.Error)
	}

	return nil
}

// Complete prints the statistics table and the modified-files listing
func (f *HumanFormatter) Complete(result *models.DeploymentResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.writer == nil {
		f.writer = io.Discard
	}
	w := f.writer

	fmt.Fprintln(w)
	f.info.Fprintln(w, "Deployment Statistics")
	fmt.Fprintf(w, "  New Files:          %d\n", result.NewFiles)
	fmt.Fprintf(w, "  Updated Files:      %d\n", result.UpdatedFiles)
	fmt.Fprintf(w, "  Unchanged Files:    %d\n", result.UnchangedFiles)
	fmt.Fprintf(w, "  Failed Files:       %d\n", result.FailedFiles)
	fmt.Fprintf(w, "  Total Files:        %d\n", result.TotalFiles())
	fmt.Fprintf(w, "  Permission Changes: %d\n", result.PermissionChanges)
	fmt.Fprintf(w, "  Elapsed Time:       %s\n", result.ElapsedTime().Round(time.Millisecond))

	modified := modifiedRecords(result)
	if len(modified) > 0 {
		fmt.Fprintln(w)
		f.info.Fprintln(w, "Modified Files")
		shown := modified
		if len(shown) > maxDetailFiles {
			shown = shown[:maxDetailFiles]
		}
		for _, record := range shown {
			perms := "standard"
			if record.PermissionChanged {
				perms = "changed"
			}
			fmt.Fprintf(w, "  %-40s %-9s permissions: %s\n", record.RelativePath, record.Status, perms)
		}
		if len(modified) > maxDetailFiles {
			f.muted.Fprintf(w, "  ... and %d more files\n", len(modified)-maxDetailFiles)
		}
	}

	if result.FailedFiles > 0 {
		fmt.Fprintln(w)
		f.failure.Fprintln(w, "Failures")
		for _, record := range result.Files {
			if record.Status == models.StatusFailed {
				fmt.Fprintf(w, "  %s: %s\n", record.RelativePath, record.ErrorMessage)
			}
		}
	}

	fmt.Fprintln(w)
	deployed := result.NewFiles + result.UpdatedFiles
	if deployed > 0 {
		f.success.Fprintf(w, "Deployed %d files, changed permissions on %d paths\n",
			deployed, result.PermissionChanges)
	} else {
		f.muted.Fprintf(w, "All files up to date, verified permissions on %d paths\n",
			result.PermissionChanges)
	}
	fmt.Fprintf(w, "Status: %s\n", result.Status())

	return nil
}

// Error reports a run-level error
func (f *HumanFormatter) Error(err error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	w := f.writer
	if w == nil {
		w = os.Stderr
	}
	f.failure.Fprintf(w, "Error: %v\n", err)
	return nil
}

// Name returns the formatter name
func (f *HumanFormatter) Name() string {
	return "human"
}

// modifiedRecords returns records that resulted in a content copy
func modifiedRecords(result *models.DeploymentResult) []models.FileRecord {
	var modified []models.FileRecord
	for _, record := range result.Files {
		if record.Status == models.StatusNew || record.Status == models.StatusUpdated {
			modified = append(modified, record)
		}
	}
	return modified
}

func displayOwner(owner string) string {
	if owner == "" {
		return "(unchanged)"
	}
	return owner
}

func runningUser() (username, display string) {
	current, err := user.Current()
	if err != nil {
		return "", "unknown"
	}
	role := "non-root"
	if os.Geteuid() == 0 {
		role = "root"
	}
	return current.Username, fmt.Sprintf("%s (%s)", current.Username, role)
}
