package models

import (
	"sync"
	"time"
)

// DeploymentResult aggregates per-file outcomes for one deployment run.
// Counters are maintained incrementally by AddFile, never recomputed by
// iterating Files. Files is append-only in completion order, which differs
// from enumeration order because processing is concurrent.
type DeploymentResult struct {
	mu sync.Mutex

	// Counters per status category
	NewFiles       int
	UpdatedFiles   int
	UnchangedFiles int
	FailedFiles    int

	// PermissionChanges counts files and directories whose ownership or
	// mode bits were actually altered
	PermissionChanges int

	// Files holds every processed record in completion order
	Files []FileRecord

	// Timing
	StartTime time.Time
	EndTime   time.Time
}

// NewDeploymentResult creates a result with the start time set to now
func NewDeploymentResult() *DeploymentResult {
	return &DeploymentResult{
		StartTime: time.Now(),
	}
}

// AddFile records a completed file. This is the single aggregation point;
// it is safe to call from multiple workers.
func (r *DeploymentResult) AddFile(record FileRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Files = append(r.Files, record)

	switch record.Status {
	case StatusNew:
		r.NewFiles++
	case StatusUpdated:
		r.UpdatedFiles++
	case StatusUnchanged:
		r.UnchangedFiles++
	case StatusFailed:
		r.FailedFiles++
	}

	if record.PermissionChanged {
		r.PermissionChanges++
	}
}

// AddPermissionChange records a permission fix on a path that is not a
// deployed file (the destination root or a created directory).
func (r *DeploymentResult) AddPermissionChange() {
	r.mu.Lock()
	r.PermissionChanges++
	r.mu.Unlock()
}

// Complete finalizes the result; after this the result is read-only
func (r *DeploymentResult) Complete() {
	r.mu.Lock()
	r.EndTime = time.Now()
	r.mu.Unlock()
}

// TotalFiles returns the number of processed files across all categories
func (r *DeploymentResult) TotalFiles() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.NewFiles + r.UpdatedFiles + r.UnchangedFiles + r.FailedFiles
}

// ElapsedTime returns the run duration. Before Complete is called it is
// measured against the current time.
func (r *DeploymentResult) ElapsedTime() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.EndTime.IsZero() {
		return time.Since(r.StartTime)
	}
	return r.EndTime.Sub(r.StartTime)
}

// Status derives the overall run status from the failure count
func (r *DeploymentResult) Status() DeployStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	total := r.NewFiles + r.UpdatedFiles + r.UnchangedFiles + r.FailedFiles
	switch {
	case r.FailedFiles == 0:
		return StatusSuccess
	case r.FailedFiles == total:
		return StatusError
	default:
		return StatusPartial
	}
}

// DeployStatus represents the overall result of a run
type DeployStatus string

const (
	// StatusSuccess indicates every file deployed without error
	StatusSuccess DeployStatus = "success"
	// StatusPartial indicates some files failed
	StatusPartial DeployStatus = "partial"
	// StatusError indicates every file failed
	StatusError DeployStatus = "error"
	// StatusCancelled indicates the run was interrupted
	StatusCancelled DeployStatus = "cancelled"
)

// ExitCode returns the process exit code for the status
func (s DeployStatus) ExitCode() int {
	switch s {
	case StatusSuccess:
		return 0
	case StatusPartial:
		return 1
	case StatusError:
		return 2
	case StatusCancelled:
		return 3
	default:
		return 2
	}
}
