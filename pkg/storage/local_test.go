package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestNewLocal tests the Local backend constructor
func TestNewLocal(t *testing.T) {
	t.Run("ValidDirectory", func(t *testing.T) {
		tempDir, err := os.MkdirTemp("", "scriptdeploy-storage-test-*")
		if err != nil {
			t.Fatalf("failed to create temp dir: %v", err)
		}
		defer os.RemoveAll(tempDir)

		local, err := NewLocal(tempDir)
		if err != nil {
			t.Fatalf("NewLocal() error = %v", err)
		}
		if local == nil {
			t.Fatal("NewLocal() returned nil")
		}
		if local.Root() != tempDir {
			t.Errorf("Root() = %s, want %s", local.Root(), tempDir)
		}
		defer local.Close()
	})

	t.Run("NonExistentPath", func(t *testing.T) {
		_, err := NewLocal("/nonexistent/path/that/does/not/exist")
		if err == nil {
			t.Error("NewLocal() should fail for non-existent path")
		}
	})

	t.Run("FileNotDirectory", func(t *testing.T) {
		tempFile, err := os.CreateTemp("", "scriptdeploy-file-*")
		if err != nil {
			t.Fatalf("failed to create temp file: %v", err)
		}
		tempFile.Close()
		defer os.Remove(tempFile.Name())

		_, err = NewLocal(tempFile.Name())
		if err == nil {
			t.Error("NewLocal() should fail for file path (not directory)")
		}
	})
}

// TestLocalList tests the List method
func TestLocalList(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "scriptdeploy-storage-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	files := map[string][]byte{
		"deploy.sh":        []byte("#!/bin/sh\n"),
		"tool.py":          []byte("print('hi')\n"),
		"nested/backup.sh": []byte("#!/bin/sh\nexit 0\n"),
	}

	for path, content := range files {
		fullPath := filepath.Join(tempDir, path)
		if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
			t.Fatalf("failed to create dir: %v", err)
		}
		if err := os.WriteFile(fullPath, content, 0644); err != nil {
			t.Fatalf("failed to create file: %v", err)
		}
	}

	local, err := NewLocal(tempDir)
	if err != nil {
		t.Fatalf("NewLocal() error = %v", err)
	}
	defer local.Close()

	ctx := context.Background()

	entries, err := local.List(ctx, "")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	found := make(map[string]FileInfo)
	for _, e := range entries {
		if !e.IsDir {
			found[e.RelativePath] = e
		}
	}

	if len(found) != len(files) {
		t.Errorf("List() returned %d files, want %d", len(found), len(files))
	}
	for path, content := range files {
		entry, ok := found[path]
		if !ok {
			t.Errorf("List() missing %s", path)
			continue
		}
		if entry.Size != int64(len(content)) {
			t.Errorf("Size for %s = %d, want %d", path, entry.Size, len(content))
		}
		if entry.UID < 0 || entry.GID < 0 {
			t.Errorf("ownership for %s not resolved: uid=%d gid=%d", path, entry.UID, entry.GID)
		}
	}
}

// TestLocalReadWrite tests Read and the atomic Write
func TestLocalReadWrite(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "scriptdeploy-storage-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	local, err := NewLocal(tempDir)
	if err != nil {
		t.Fatalf("NewLocal() error = %v", err)
	}
	defer local.Close()

	ctx := context.Background()

	t.Run("WriteThenRead", func(t *testing.T) {
		content := []byte("#!/bin/sh\necho deployed\n")
		if err := local.Write(ctx, "run.sh", bytes.NewReader(content), 0644); err != nil {
			t.Fatalf("Write() error = %v", err)
		}

		reader, err := local.Read(ctx, "run.sh")
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		defer reader.Close()

		got, err := io.ReadAll(reader)
		if err != nil {
			t.Fatalf("ReadAll() error = %v", err)
		}
		if !bytes.Equal(got, content) {
			t.Errorf("read content = %q, want %q", got, content)
		}
	})

	t.Run("WriteSetsMode", func(t *testing.T) {
		if err := local.Write(ctx, "mode.sh", strings.NewReader("x"), 0644); err != nil {
			t.Fatalf("Write() error = %v", err)
		}

		info, err := local.Stat(ctx, "mode.sh")
		if err != nil {
			t.Fatalf("Stat() error = %v", err)
		}
		if info.Mode != 0644 {
			t.Errorf("Mode = %o, want 644", info.Mode)
		}
	})

	t.Run("WriteOverwrites", func(t *testing.T) {
		if err := local.Write(ctx, "again.py", strings.NewReader("v1"), 0644); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		if err := local.Write(ctx, "again.py", strings.NewReader("v2"), 0644); err != nil {
			t.Fatalf("Write() error = %v", err)
		}

		reader, err := local.Read(ctx, "again.py")
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		defer reader.Close()

		got, _ := io.ReadAll(reader)
		if string(got) != "v2" {
			t.Errorf("content = %q, want v2", got)
		}
	})

	t.Run("WriteLeavesNoTempFiles", func(t *testing.T) {
		if err := local.Write(ctx, "clean.sh", strings.NewReader("x"), 0644); err != nil {
			t.Fatalf("Write() error = %v", err)
		}

		dirEntries, err := os.ReadDir(tempDir)
		if err != nil {
			t.Fatalf("ReadDir() error = %v", err)
		}
		for _, e := range dirEntries {
			if strings.Contains(e.Name(), ".tmp-") {
				t.Errorf("temp file left behind: %s", e.Name())
			}
		}
	})

	t.Run("ReadMissingFile", func(t *testing.T) {
		_, err := local.Read(ctx, "does-not-exist.py")
		if err == nil {
			t.Error("Read() should fail for missing file")
		}
	})
}

// TestLocalMkdirAll tests directory creation and created-path reporting
func TestLocalMkdirAll(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "scriptdeploy-storage-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	local, err := NewLocal(tempDir)
	if err != nil {
		t.Fatalf("NewLocal() error = %v", err)
	}
	defer local.Close()

	ctx := context.Background()

	t.Run("CreatesNestedDirs", func(t *testing.T) {
		created, err := local.MkdirAll(ctx, "a/b/c", 0755)
		if err != nil {
			t.Fatalf("MkdirAll() error = %v", err)
		}

		want := []string{"a", filepath.Join("a", "b"), filepath.Join("a", "b", "c")}
		if len(created) != len(want) {
			t.Fatalf("created = %v, want %v", created, want)
		}
		for i := range want {
			if created[i] != want[i] {
				t.Errorf("created[%d] = %s, want %s", i, created[i], want[i])
			}
		}

		info, err := local.Stat(ctx, "a/b/c")
		if err != nil {
			t.Fatalf("Stat() error = %v", err)
		}
		if !info.IsDir {
			t.Error("created path should be a directory")
		}
	})

	t.Run("ExistingDirsNotReported", func(t *testing.T) {
		created, err := local.MkdirAll(ctx, "a/b/d", 0755)
		if err != nil {
			t.Fatalf("MkdirAll() error = %v", err)
		}
		if len(created) != 1 || created[0] != filepath.Join("a", "b", "d") {
			t.Errorf("created = %v, want only a/b/d", created)
		}
	})

	t.Run("CurrentDirIsNoop", func(t *testing.T) {
		created, err := local.MkdirAll(ctx, ".", 0755)
		if err != nil {
			t.Fatalf("MkdirAll() error = %v", err)
		}
		if len(created) != 0 {
			t.Errorf("created = %v, want none", created)
		}
	})

	t.Run("FileInTheWay", func(t *testing.T) {
		if err := local.Write(ctx, "blocker", strings.NewReader("x"), 0644); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		if _, err := local.MkdirAll(ctx, "blocker/sub", 0755); err == nil {
			t.Error("MkdirAll() should fail when a file blocks the path")
		}
	})
}

// TestLocalChmod tests mode changes
func TestLocalChmod(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "scriptdeploy-storage-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	local, err := NewLocal(tempDir)
	if err != nil {
		t.Fatalf("NewLocal() error = %v", err)
	}
	defer local.Close()

	ctx := context.Background()

	if err := local.Write(ctx, "script.sh", strings.NewReader("x"), 0600); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	if err := local.Chmod(ctx, "script.sh", 0644); err != nil {
		t.Fatalf("Chmod() error = %v", err)
	}

	info, err := local.Stat(ctx, "script.sh")
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if info.Mode != 0644 {
		t.Errorf("Mode = %o, want 644", info.Mode)
	}
}

// TestLocalExists tests existence checks
func TestLocalExists(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "scriptdeploy-storage-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	local, err := NewLocal(tempDir)
	if err != nil {
		t.Fatalf("NewLocal() error = %v", err)
	}
	defer local.Close()

	ctx := context.Background()

	if err := local.Write(ctx, "present.py", strings.NewReader("x"), 0644); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	exists, err := local.Exists(ctx, "present.py")
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if !exists {
		t.Error("Exists() = false for present file")
	}

	exists, err = local.Exists(ctx, "absent.py")
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if exists {
		t.Error("Exists() = true for absent file")
	}
}
