package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dunamismax/scriptdeploy/pkg/models"
)

// JSONFormatter renders the final report as a single JSON document for
// automation and scripting. Per-file progress events are not streamed.
type JSONFormatter struct {
	mu     sync.Mutex
	writer io.Writer
	op     *models.DeployOperation
}

// JSONReport is the machine-readable deployment report
type JSONReport struct {
	OperationID string           `json:"operation_id,omitempty"`
	Source      string           `json:"source"`
	Dest        string           `json:"dest"`
	Status      string           `json:"status"`
	Duration    string           `json:"duration"`
	DurationMs  int64            `json:"duration_ms"`
	Stats       JSONStats        `json:"stats"`
	Files       []JSONFileRecord `json:"files"`
}

// JSONStats holds the aggregate counters
type JSONStats struct {
	NewFiles          int `json:"new_files"`
	UpdatedFiles      int `json:"updated_files"`
	UnchangedFiles    int `json:"unchanged_files"`
	FailedFiles       int `json:"failed_files"`
	TotalFiles        int `json:"total_files"`
	PermissionChanges int `json:"permission_changes"`
}

// JSONFileRecord is one per-file outcome
type JSONFileRecord struct {
	Path              string `json:"path"`
	Status            string `json:"status"`
	PermissionChanged bool   `json:"permission_changed"`
	Error             string `json:"error,omitempty"`
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Start records the operation for the final report
func (f *JSONFormatter) Start(writer io.Writer, op *models.DeployOperation, totalFiles int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if writer != nil {
		f.writer = writer
	} else if f.writer == nil {
		f.writer = os.Stdout
	}
	f.op = op
	return nil
}

// Progress is a no-op; the JSON report is emitted once at completion
func (f *JSONFormatter) Progress(update ProgressUpdate) error {
	return nil
}

// Complete writes the full report as one JSON document
func (f *JSONFormatter) Complete(result *models.DeploymentResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.writer == nil {
		f.writer = os.Stdout
	}

	report := JSONReport{
		Status:     string(result.Status()),
		Duration:   result.ElapsedTime().Round(time.Millisecond).String(),
		DurationMs: result.ElapsedTime().Milliseconds(),
		Stats: JSONStats{
			NewFiles:          result.NewFiles,
			UpdatedFiles:      result.UpdatedFiles,
			UnchangedFiles:    result.UnchangedFiles,
			FailedFiles:       result.FailedFiles,
			TotalFiles:        result.TotalFiles(),
			PermissionChanges: result.PermissionChanges,
		},
		Files: make([]JSONFileRecord, 0, len(result.Files)),
	}

	if f.op != nil {
		report.OperationID = f.op.ID
		report.Source = f.op.SourceDir
		report.Dest = f.op.DestDir
	}

	for _, record := range result.Files {
		report.Files = append(report.Files, JSONFileRecord{
			Path:              record.RelativePath,
			Status:            string(record.Status),
			PermissionChanged: record.PermissionChanged,
			Error:             record.ErrorMessage,
		})
	}

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// Error writes a run-level error as a JSON object
func (f *JSONFormatter) Error(err error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	w := f.writer
	if w == nil {
		w = os.Stderr
	}
	return json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

// Name returns the formatter name
func (f *JSONFormatter) Name() string {
	return "json"
}
