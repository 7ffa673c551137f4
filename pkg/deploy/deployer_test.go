package deploy

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dunamismax/scriptdeploy/pkg/models"
)

func newTestDirs(t *testing.T) (sourceDir, destDir string) {
	t.Helper()

	sourceDir, err := os.MkdirTemp("", "scriptdeploy-deploy-src-*")
	if err != nil {
		t.Fatalf("failed to create source dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(sourceDir) })

	destDir, err = os.MkdirTemp("", "scriptdeploy-deploy-dst-*")
	if err != nil {
		t.Fatalf("failed to create dest dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(destDir) })

	return sourceDir, destDir
}

func newTestOp(sourceDir, destDir string) *models.DeployOperation {
	return &models.DeployOperation{
		ID:          "test-op",
		SourceDir:   sourceDir,
		DestDir:     destDir,
		Extensions:  []string{".py", ".sh"},
		Fingerprint: models.FingerprintMD5,
		FileMode:    0644,
		DirMode:     0755,
		MaxWorkers:  4,
		BufferSize:  4096,
		CreatedAt:   time.Now(),
	}
}

func writeSourceFile(t *testing.T, sourceDir, relPath, content string) {
	t.Helper()
	fullPath := filepath.Join(sourceDir, relPath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		t.Fatalf("failed to create parent dirs: %v", err)
	}
	if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write source file: %v", err)
	}
}

// TestRunDeploysNewFiles tests a first deployment into an empty destination
func TestRunDeploysNewFiles(t *testing.T) {
	sourceDir, destDir := newTestDirs(t)
	writeSourceFile(t, sourceDir, "a.py", "print('a')")
	writeSourceFile(t, sourceDir, "b.sh", "echo b")
	writeSourceFile(t, sourceDir, "readme.txt", "not a script")

	deployer := New(newTestOp(sourceDir, destDir), nil, nil)
	result, err := deployer.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.NewFiles != 2 {
		t.Errorf("NewFiles = %d, want 2", result.NewFiles)
	}
	if result.TotalFiles() != 2 {
		t.Errorf("TotalFiles() = %d, want 2", result.TotalFiles())
	}
	if deployer.Phase() != PhaseCompleted {
		t.Errorf("Phase() = %v, want %v", deployer.Phase(), PhaseCompleted)
	}

	content, err := os.ReadFile(filepath.Join(destDir, "a.py"))
	if err != nil {
		t.Fatalf("deployed file missing: %v", err)
	}
	if string(content) != "print('a')" {
		t.Errorf("deployed content = %q, want %q", content, "print('a')")
	}

	if _, err := os.Stat(filepath.Join(destDir, "readme.txt")); !os.IsNotExist(err) {
		t.Error("non-matching extension should not be deployed")
	}

	info, err := os.Stat(filepath.Join(destDir, "b.sh"))
	if err != nil {
		t.Fatalf("deployed file missing: %v", err)
	}
	if info.Mode().Perm() != 0644 {
		t.Errorf("deployed mode = %o, want 644", info.Mode().Perm())
	}
}

// TestRunUpdatesChangedFiles tests that changed content triggers a copy
func TestRunUpdatesChangedFiles(t *testing.T) {
	sourceDir, destDir := newTestDirs(t)
	writeSourceFile(t, sourceDir, "tool.py", "version 2")

	if err := os.WriteFile(filepath.Join(destDir, "tool.py"), []byte("version 1"), 0644); err != nil {
		t.Fatalf("failed to seed dest file: %v", err)
	}

	result, err := New(newTestOp(sourceDir, destDir), nil, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.UpdatedFiles != 1 {
		t.Errorf("UpdatedFiles = %d, want 1", result.UpdatedFiles)
	}

	content, _ := os.ReadFile(filepath.Join(destDir, "tool.py"))
	if string(content) != "version 2" {
		t.Errorf("dest content = %q, want %q", content, "version 2")
	}
}

// TestRunSkipsUnchangedFiles tests that identical content is not rewritten
func TestRunSkipsUnchangedFiles(t *testing.T) {
	sourceDir, destDir := newTestDirs(t)
	writeSourceFile(t, sourceDir, "same.sh", "identical")

	destPath := filepath.Join(destDir, "same.sh")
	if err := os.WriteFile(destPath, []byte("identical"), 0644); err != nil {
		t.Fatalf("failed to seed dest file: %v", err)
	}
	ancient := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(destPath, ancient, ancient); err != nil {
		t.Fatalf("failed to backdate dest file: %v", err)
	}

	result, err := New(newTestOp(sourceDir, destDir), nil, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.UnchangedFiles != 1 {
		t.Errorf("UnchangedFiles = %d, want 1", result.UnchangedFiles)
	}

	info, err := os.Stat(destPath)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if info.ModTime().After(ancient.Add(time.Hour)) {
		t.Error("unchanged file should not be rewritten")
	}
}

// TestRunIsIdempotent tests that a second run over the same tree is all no-ops
func TestRunIsIdempotent(t *testing.T) {
	sourceDir, destDir := newTestDirs(t)
	writeSourceFile(t, sourceDir, "one.py", "1")
	writeSourceFile(t, sourceDir, "nested/two.sh", "2")

	op := newTestOp(sourceDir, destDir)

	first, err := New(op, nil, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	if first.NewFiles != 2 {
		t.Fatalf("first run NewFiles = %d, want 2", first.NewFiles)
	}

	second, err := New(op, nil, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if second.UnchangedFiles != 2 {
		t.Errorf("second run UnchangedFiles = %d, want 2", second.UnchangedFiles)
	}
	if second.NewFiles != 0 || second.UpdatedFiles != 0 {
		t.Errorf("second run should not copy anything: new=%d updated=%d",
			second.NewFiles, second.UpdatedFiles)
	}
	if second.PermissionChanges != 0 {
		t.Errorf("second run PermissionChanges = %d, want 0", second.PermissionChanges)
	}
}

// TestRunFixesPermissionsOnly tests mode correction without a content copy
func TestRunFixesPermissionsOnly(t *testing.T) {
	sourceDir, destDir := newTestDirs(t)
	writeSourceFile(t, sourceDir, "loose.sh", "same bytes")

	destPath := filepath.Join(destDir, "loose.sh")
	if err := os.WriteFile(destPath, []byte("same bytes"), 0644); err != nil {
		t.Fatalf("failed to seed dest file: %v", err)
	}
	if err := os.Chmod(destPath, 0600); err != nil {
		t.Fatalf("failed to chmod dest file: %v", err)
	}

	result, err := New(newTestOp(sourceDir, destDir), nil, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.UnchangedFiles != 1 {
		t.Errorf("UnchangedFiles = %d, want 1", result.UnchangedFiles)
	}
	if len(result.Files) != 1 {
		t.Fatalf("len(Files) = %d, want 1", len(result.Files))
	}
	record := result.Files[0]
	if record.Status != models.StatusUnchanged {
		t.Errorf("Status = %q, want %q", record.Status, models.StatusUnchanged)
	}
	if !record.PermissionChanged {
		t.Error("PermissionChanged = false, want true for a mode fix")
	}

	info, err := os.Stat(destPath)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if info.Mode().Perm() != 0644 {
		t.Errorf("mode = %o, want 644", info.Mode().Perm())
	}
}

// TestRunConcurrencyInvariance tests that worker count does not change outcomes
func TestRunConcurrencyInvariance(t *testing.T) {
	sourceDir, _ := newTestDirs(t)
	for _, name := range []string{"a.py", "b.py", "c.sh", "d.sh", "e.py", "sub/f.sh", "sub/deep/g.py"} {
		writeSourceFile(t, sourceDir, name, "content of "+name)
	}

	runWith := func(workers int) *models.DeploymentResult {
		destDir, err := os.MkdirTemp("", "scriptdeploy-deploy-dst-*")
		if err != nil {
			t.Fatalf("failed to create dest dir: %v", err)
		}
		t.Cleanup(func() { os.RemoveAll(destDir) })

		op := newTestOp(sourceDir, destDir)
		op.MaxWorkers = workers
		result, err := New(op, nil, nil).Run(context.Background())
		if err != nil {
			t.Fatalf("Run() with %d workers error = %v", workers, err)
		}
		return result
	}

	serial := runWith(1)
	parallel := runWith(16)

	if serial.NewFiles != parallel.NewFiles {
		t.Errorf("NewFiles differ: 1 worker = %d, 16 workers = %d", serial.NewFiles, parallel.NewFiles)
	}
	if serial.TotalFiles() != 7 || parallel.TotalFiles() != 7 {
		t.Errorf("TotalFiles() = %d/%d, want 7/7", serial.TotalFiles(), parallel.TotalFiles())
	}
	if len(parallel.Files) != 7 {
		t.Errorf("len(Files) = %d, want one record per file", len(parallel.Files))
	}
}

// TestRunMissingSource tests the fatal error for a nonexistent source root
func TestRunMissingSource(t *testing.T) {
	_, destDir := newTestDirs(t)

	op := newTestOp("/nonexistent/scriptdeploy/source", destDir)
	deployer := New(op, nil, nil)
	_, err := deployer.Run(context.Background())
	if err == nil {
		t.Fatal("Run() should fail for a missing source directory")
	}

	var dirErr *DirectoryError
	if !errors.As(err, &dirErr) {
		t.Fatalf("error type = %T, want *DirectoryError", err)
	}
	if dirErr.Op != "verify-source" {
		t.Errorf("Op = %q, want %q", dirErr.Op, "verify-source")
	}
	if deployer.Phase() != PhaseAborted {
		t.Errorf("Phase() = %v, want %v", deployer.Phase(), PhaseAborted)
	}
}

// TestRunDestIsFile tests the fatal error when the destination exists as a file
func TestRunDestIsFile(t *testing.T) {
	sourceDir, _ := newTestDirs(t)
	writeSourceFile(t, sourceDir, "x.py", "x")

	blocker, err := os.CreateTemp("", "scriptdeploy-deploy-blocker-*")
	if err != nil {
		t.Fatalf("failed to create blocker file: %v", err)
	}
	blocker.Close()
	t.Cleanup(func() { os.Remove(blocker.Name()) })

	_, err = New(newTestOp(sourceDir, blocker.Name()), nil, nil).Run(context.Background())

	var dirErr *DirectoryError
	if !errors.As(err, &dirErr) {
		t.Fatalf("error type = %T, want *DirectoryError", err)
	}
	if dirErr.Op != "verify-dest" {
		t.Errorf("Op = %q, want %q", dirErr.Op, "verify-dest")
	}
}

// TestRunCreatesMissingDest tests that a missing destination root is created
func TestRunCreatesMissingDest(t *testing.T) {
	sourceDir, destParent := newTestDirs(t)
	writeSourceFile(t, sourceDir, "new.sh", "body")

	destDir := filepath.Join(destParent, "bin")
	result, err := New(newTestOp(sourceDir, destDir), nil, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.NewFiles != 1 {
		t.Errorf("NewFiles = %d, want 1", result.NewFiles)
	}

	info, err := os.Stat(destDir)
	if err != nil {
		t.Fatalf("destination not created: %v", err)
	}
	if !info.IsDir() {
		t.Error("destination should be a directory")
	}
}

// TestRunEmptySource tests that an empty source is a valid no-op run
func TestRunEmptySource(t *testing.T) {
	sourceDir, destDir := newTestDirs(t)

	deployer := New(newTestOp(sourceDir, destDir), nil, nil)
	result, err := deployer.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.TotalFiles() != 0 {
		t.Errorf("TotalFiles() = %d, want 0", result.TotalFiles())
	}
	if result.Status() != models.StatusSuccess {
		t.Errorf("Status() = %q, want success", result.Status())
	}
	if deployer.Phase() != PhaseCompleted {
		t.Errorf("Phase() = %v, want %v", deployer.Phase(), PhaseCompleted)
	}
}

// TestRunFailedFileDoesNotAbort tests that a per-file failure leaves the
// rest of the run intact
func TestRunFailedFileDoesNotAbort(t *testing.T) {
	sourceDir, destDir := newTestDirs(t)
	writeSourceFile(t, sourceDir, "good.py", "fine")
	writeSourceFile(t, sourceDir, "sub/bad.py", "blocked")

	// A regular file where the run needs a directory makes sub/bad.py
	// fail while good.py still deploys
	if err := os.WriteFile(filepath.Join(destDir, "sub"), []byte("in the way"), 0644); err != nil {
		t.Fatalf("failed to create blocking file: %v", err)
	}

	result, err := New(newTestOp(sourceDir, destDir), nil, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v, per-file failures must not abort", err)
	}

	if result.FailedFiles != 1 {
		t.Errorf("FailedFiles = %d, want 1", result.FailedFiles)
	}
	if result.NewFiles != 1 {
		t.Errorf("NewFiles = %d, want 1", result.NewFiles)
	}
	if result.Status() != models.StatusPartial {
		t.Errorf("Status() = %q, want partial", result.Status())
	}

	var failed *models.FileRecord
	for i := range result.Files {
		if result.Files[i].Status == models.StatusFailed {
			failed = &result.Files[i]
		}
	}
	if failed == nil {
		t.Fatal("no failed record in Files")
	}
	if failed.ErrorMessage == "" {
		t.Error("failed record should carry an error message")
	}
}

// TestRunCancelledContext tests that cancellation stops scheduling
func TestRunCancelledContext(t *testing.T) {
	sourceDir, destDir := newTestDirs(t)
	writeSourceFile(t, sourceDir, "never.py", "unreached")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	deployer := New(newTestOp(sourceDir, destDir), nil, nil)
	_, err := deployer.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	if deployer.Phase() != PhaseAborted {
		t.Errorf("Phase() = %v, want %v", deployer.Phase(), PhaseAborted)
	}
}

// TestRunNestedDirectories tests that parent directories are created with
// the configured directory mode
func TestRunNestedDirectories(t *testing.T) {
	sourceDir, destDir := newTestDirs(t)
	writeSourceFile(t, sourceDir, "lib/util/helper.py", "nested")

	result, err := New(newTestOp(sourceDir, destDir), nil, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.NewFiles != 1 {
		t.Errorf("NewFiles = %d, want 1", result.NewFiles)
	}

	for _, dir := range []string{"lib", "lib/util"} {
		info, err := os.Stat(filepath.Join(destDir, dir))
		if err != nil {
			t.Fatalf("directory %s not created: %v", dir, err)
		}
		if info.Mode().Perm() != 0755 {
			t.Errorf("dir %s mode = %o, want 755", dir, info.Mode().Perm())
		}
	}
}
