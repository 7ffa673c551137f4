package deploy

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/dunamismax/scriptdeploy/pkg/fingerprint"
	"github.com/dunamismax/scriptdeploy/pkg/logging"
	"github.com/dunamismax/scriptdeploy/pkg/models"
	"github.com/dunamismax/scriptdeploy/pkg/output"
	"github.com/dunamismax/scriptdeploy/pkg/permissions"
	"github.com/dunamismax/scriptdeploy/pkg/storage"
)

// Deployer brings a destination directory into content and permission
// parity with a source directory, without needless writes. Files are
// independent units processed with bounded concurrency; the only shared
// mutable state between workers is the DeploymentResult aggregator.
type Deployer struct {
	op        *models.DeployOperation
	formatter output.Formatter
	logger    logging.Logger
	state     *runState

	// Wired during Run
	source     storage.Backend
	dest       storage.Backend
	classifier *fingerprint.Classifier
	reconciler *permissions.Reconciler
}

// New creates a deployer for the given operation. Formatter and logger
// may be nil.
func New(op *models.DeployOperation, formatter output.Formatter, logger logging.Logger) *Deployer {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &Deployer{
		op:        op,
		formatter: formatter,
		logger:    logger,
		state:     newRunState(),
	}
}

// Phase returns the current lifecycle phase of the run
func (d *Deployer) Phase() Phase {
	return d.state.get()
}

// Run executes the deployment. Only run-level fatal errors are returned;
// per-file failures are absorbed into the result's failed count. A nil
// error with FailedFiles > 0 means the run finished but some files did
// not deploy.
func (d *Deployer) Run(ctx context.Context) (*models.DeploymentResult, error) {
	result := models.NewDeploymentResult()

	d.logger.Info(ctx, "Starting deployment", logging.Fields{
		"operation_id": d.op.ID,
		"source":       d.op.SourceDir,
		"dest":         d.op.DestDir,
		"max_workers":  d.op.MaxWorkers,
	})

	d.state.set(PhaseVerifying)
	if err := d.verifyPaths(ctx, result); err != nil {
		d.state.set(PhaseAborted)
		d.reportError(err)
		return nil, err
	}

	d.state.set(PhaseEnumerating)
	files, err := d.enumerate(ctx)
	if err != nil {
		d.state.set(PhaseAborted)
		d.reportError(err)
		return nil, err
	}

	if d.formatter != nil {
		d.formatter.Start(nil, d.op, len(files))
	}

	if len(files) == 0 {
		d.logger.Warn(ctx, "No matching files found in source directory", logging.Fields{
			"source":     d.op.SourceDir,
			"extensions": strings.Join(d.op.Extensions, ","),
		})
		result.Complete()
		d.state.set(PhaseCompleted)
		if d.formatter != nil {
			d.formatter.Complete(result)
		}
		return result, nil
	}

	d.state.set(PhaseProcessing)
	d.processAll(ctx, files, result)

	result.Complete()

	if ctx.Err() != nil {
		// Interrupted: already-copied files remain valid, but no final
		// report is produced
		d.state.set(PhaseAborted)
		d.logger.Warn(ctx, "Deployment interrupted", logging.Fields{
			"processed": result.TotalFiles(),
			"total":     len(files),
		})
		return result, ctx.Err()
	}

	d.state.set(PhaseCompleted)
	if d.formatter != nil {
		d.formatter.Complete(result)
	}

	d.logger.Info(ctx, "Deployment completed", logging.Fields{
		"new":                result.NewFiles,
		"updated":            result.UpdatedFiles,
		"unchanged":          result.UnchangedFiles,
		"failed":             result.FailedFiles,
		"permission_changes": result.PermissionChanges,
		"elapsed":            result.ElapsedTime().String(),
	})

	return result, nil
}

// verifyPaths checks the source root, creates the destination root if
// needed, and wires the backends, classifier, and reconciler
func (d *Deployer) verifyPaths(ctx context.Context, result *models.DeploymentResult) error {
	source, err := storage.NewLocal(d.op.SourceDir)
	if err != nil {
		return &DirectoryError{Path: d.op.SourceDir, Op: "verify-source", Err: err}
	}
	d.source = source

	destInfo, err := os.Stat(d.op.DestDir)
	switch {
	case os.IsNotExist(err):
		if err := os.MkdirAll(d.op.DestDir, d.op.DirMode); err != nil {
			return &DirectoryError{Path: d.op.DestDir, Op: "verify-dest", Err: err}
		}
		d.logger.Info(ctx, "Created destination directory", logging.Fields{"dest": d.op.DestDir})
	case err != nil:
		return &DirectoryError{Path: d.op.DestDir, Op: "verify-dest", Err: err}
	case !destInfo.IsDir():
		return &DirectoryError{Path: d.op.DestDir, Op: "verify-dest", Err: errNotDirectory}
	}

	dest, err := storage.NewLocal(d.op.DestDir)
	if err != nil {
		return &DirectoryError{Path: d.op.DestDir, Op: "verify-dest", Err: err}
	}
	d.dest = dest

	hasher, err := fingerprint.NewHasher(d.op.Fingerprint, d.op.BufferSize)
	if err != nil {
		return err
	}
	d.classifier = fingerprint.NewClassifier(d.source, d.dest, hasher, d.logger)
	d.reconciler = permissions.NewReconciler(d.dest, d.op.Owner, d.op.FileMode, d.op.DirMode, d.logger)

	// The destination root itself is subject to reconciliation
	if changed, err := d.reconciler.Reconcile(ctx, ".", true); err != nil {
		d.logger.Warn(ctx, "Failed to reconcile destination root permissions", logging.Fields{
			"dest":  d.op.DestDir,
			"error": err.Error(),
		})
	} else if changed {
		result.AddPermissionChange()
	}

	return nil
}

// enumerate walks the source tree and returns the relative paths of files
// matching the configured extensions, sorted lexicographically so that
// reporting is reproducible regardless of walk order
func (d *Deployer) enumerate(ctx context.Context) ([]string, error) {
	entries, err := d.source.List(ctx, "")
	if err != nil {
		return nil, &DirectoryError{Path: d.op.SourceDir, Op: "enumerate", Err: err}
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir {
			continue
		}
		if d.matchesExtension(entry.RelativePath) {
			files = append(files, entry.RelativePath)
		}
	}

	sort.Strings(files)
	return files, nil
}

// matchesExtension reports whether the file name ends in one of the
// recognized extensions
func (d *Deployer) matchesExtension(relPath string) bool {
	name := filepath.Base(relPath)
	for _, ext := range d.op.Extensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// processAll fans out file processing over a bounded worker pool and
// collects every outcome into the shared result
func (d *Deployer) processAll(ctx context.Context, files []string, result *models.DeploymentResult) {
	maxWorkers := d.op.MaxWorkers
	if maxWorkers < 1 {
		maxWorkers = 1
	}

	var wg sync.WaitGroup
	var completed atomic.Int32
	semaphore := make(chan struct{}, maxWorkers)
	total := len(files)

	for _, relPath := range files {
		select {
		case <-ctx.Done():
			// Stop scheduling; in-flight copies finish below
			wg.Wait()
			return
		case semaphore <- struct{}{}:
		}

		wg.Add(1)
		go func(relPath string) {
			defer wg.Done()
			defer func() { <-semaphore }()

			record := d.processFile(ctx, relPath, result)
			result.AddFile(record)

			index := int(completed.Add(1))
			d.emit(record, index, total)
		}(relPath)
	}

	wg.Wait()
}

// processFile runs the per-file pipeline: ensure parent directories,
// classify, copy when needed, reconcile permissions. All failures are
// confined to the returned record.
func (d *Deployer) processFile(ctx context.Context, relPath string, result *models.DeploymentResult) models.FileRecord {
	record := models.FileRecord{
		RelativePath: relPath,
		SourcePath:   filepath.Join(d.op.SourceDir, relPath),
		DestPath:     filepath.Join(d.op.DestDir, relPath),
	}

	if d.formatter != nil {
		d.formatter.Progress(output.ProgressUpdate{
			Type: "file_start",
			Path: relPath,
		})
	}

	if parent := filepath.Dir(relPath); parent != "." {
		created, err := d.dest.MkdirAll(ctx, parent, d.op.DirMode)
		if err != nil {
			record.Status = models.StatusFailed
			record.ErrorMessage = err.Error()
			return record
		}
		for _, dir := range created {
			if changed, err := d.reconciler.Reconcile(ctx, dir, true); err == nil && changed {
				result.AddPermissionChange()
			}
		}
	}

	status, reason := d.classifier.Classify(ctx, relPath)
	record.Status = status
	d.logger.Debug(ctx, "Classified file", logging.Fields{
		"path":   relPath,
		"status": string(status),
		"reason": reason,
	})

	if status == models.StatusNew || status == models.StatusUpdated {
		if err := d.copyFile(ctx, relPath); err != nil {
			record.Status = models.StatusFailed
			record.ErrorMessage = err.Error()
			d.logger.Error(ctx, "Failed to copy file", err, logging.Fields{"path": relPath})
			return record
		}
	}

	changed, err := d.reconciler.Reconcile(ctx, relPath, false)
	if err != nil {
		// Degraded, not failed: content is in place
		d.logger.Warn(ctx, "Failed to reconcile file permissions", logging.Fields{
			"path":  relPath,
			"error": err.Error(),
		})
	}
	record.PermissionChanged = changed

	return record
}

// copyFile streams the source file into the destination backend, which
// stages it in a temp file and renames it into place
func (d *Deployer) copyFile(ctx context.Context, relPath string) error {
	reader, err := d.source.Read(ctx, relPath)
	if err != nil {
		return err
	}
	defer reader.Close()

	return d.dest.Write(ctx, relPath, reader, d.op.FileMode)
}

// emit publishes a completion event for a processed file
func (d *Deployer) emit(record models.FileRecord, index, total int) {
	if d.formatter == nil {
		return
	}

	update := output.ProgressUpdate{
		Path:              record.RelativePath,
		Status:            record.Status,
		PermissionChanged: record.PermissionChanged,
		FileIndex:         index,
		TotalFiles:        total,
	}

	if record.Status == models.StatusFailed {
		update.Type = "file_error"
		update.Error = errFileFailed(record.ErrorMessage)
	} else {
		update.Type = "file_complete"
	}

	d.formatter.Progress(update)
}

// reportError surfaces a run-level error through the formatter
func (d *Deployer) reportError(err error) {
	if d.formatter != nil {
		d.formatter.Error(err)
	}
}
