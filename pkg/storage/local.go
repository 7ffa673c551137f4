package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// Local is a filesystem-based storage backend rooted at a single directory
type Local struct {
	rootPath string
}

// NewLocal creates a new local filesystem backend. The root must exist and
// be a directory.
func NewLocal(rootPath string) (*Local, error) {
	absPath, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to access path: %w", err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", absPath)
	}

	return &Local{rootPath: absPath}, nil
}

// List returns all entries under the directory recursively
func (l *Local) List(ctx context.Context, path string) ([]FileInfo, error) {
	fullPath := filepath.Join(l.rootPath, path)
	var entries []FileInfo

	err := filepath.WalkDir(fullPath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		relPath, err := filepath.Rel(l.rootPath, p)
		if err != nil {
			return err
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		uid, gid := ownerOf(p)
		entries = append(entries, FileInfo{
			Path:         p,
			RelativePath: relPath,
			Size:         info.Size(),
			ModTime:      info.ModTime(),
			IsDir:        info.IsDir(),
			Mode:         info.Mode().Perm(),
			UID:          uid,
			GID:          gid,
		})

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	return entries, nil
}

// Read opens a file for reading
func (l *Local) Read(ctx context.Context, path string) (io.ReadCloser, error) {
	fullPath := filepath.Join(l.rootPath, path)

	file, err := os.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return file, nil
}

// Write atomically creates or replaces a file. Content is staged in a
// temporary file next to the target and renamed into place, so an
// interrupted copy never leaves a partial file at the destination path.
func (l *Local) Write(ctx context.Context, path string, reader io.Reader, mode fs.FileMode) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	fullPath := filepath.Join(l.rootPath, path)
	dir := filepath.Dir(fullPath)

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(fullPath)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, reader); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write file: %w", err)
	}

	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set mode on temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// Exists checks if a file or directory exists
func (l *Local) Exists(ctx context.Context, path string) (bool, error) {
	fullPath := filepath.Join(l.rootPath, path)

	_, err := os.Stat(fullPath)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check existence: %w", err)
}

// Stat returns file metadata including ownership
func (l *Local) Stat(ctx context.Context, path string) (*FileInfo, error) {
	fullPath := filepath.Join(l.rootPath, path)

	info, err := os.Stat(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	relPath, err := filepath.Rel(l.rootPath, fullPath)
	if err != nil {
		return nil, err
	}

	uid, gid := ownerOf(fullPath)
	return &FileInfo{
		Path:         fullPath,
		RelativePath: relPath,
		Size:         info.Size(),
		ModTime:      info.ModTime(),
		IsDir:        info.IsDir(),
		Mode:         info.Mode().Perm(),
		UID:          uid,
		GID:          gid,
	}, nil
}

// MkdirAll creates a directory and all necessary parents with the given
// mode, returning the relative paths of directories it actually created
// (outermost first) so the caller can reconcile their permissions.
func (l *Local) MkdirAll(ctx context.Context, path string, mode fs.FileMode) ([]string, error) {
	cleaned := filepath.Clean(path)
	if cleaned == "." || cleaned == string(filepath.Separator) {
		return nil, nil
	}

	var created []string
	var partial string
	for _, component := range strings.Split(cleaned, string(filepath.Separator)) {
		partial = filepath.Join(partial, component)
		fullPath := filepath.Join(l.rootPath, partial)

		info, err := os.Stat(fullPath)
		if err == nil {
			if !info.IsDir() {
				return created, fmt.Errorf("path exists but is not a directory: %s", fullPath)
			}
			continue
		}
		if !os.IsNotExist(err) {
			return created, fmt.Errorf("failed to stat directory: %w", err)
		}

		if err := os.Mkdir(fullPath, mode); err != nil && !os.IsExist(err) {
			return created, fmt.Errorf("failed to create directory: %w", err)
		}
		created = append(created, partial)
	}

	return created, nil
}

// Chown changes ownership of a path
func (l *Local) Chown(ctx context.Context, path string, uid, gid int) error {
	fullPath := filepath.Join(l.rootPath, path)

	if err := os.Chown(fullPath, uid, gid); err != nil {
		return fmt.Errorf("failed to change ownership: %w", err)
	}
	return nil
}

// Chmod changes the mode bits of a path
func (l *Local) Chmod(ctx context.Context, path string, mode fs.FileMode) error {
	fullPath := filepath.Join(l.rootPath, path)

	if err := os.Chmod(fullPath, mode); err != nil {
		return fmt.Errorf("failed to change mode: %w", err)
	}
	return nil
}

// Root returns the absolute root path of the backend
func (l *Local) Root() string {
	return l.rootPath
}

// Close releases resources (no-op for local filesystem)
func (l *Local) Close() error {
	return nil
}

// ownerOf returns the numeric ownership of a path, or -1/-1 when it
// cannot be determined
func ownerOf(path string) (uid, gid int) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return -1, -1
	}
	return int(st.Uid), int(st.Gid)
}
