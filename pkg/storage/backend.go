package storage

import (
	"context"
	"io"
	"io/fs"
	"time"
)

// FileInfo represents metadata about a file or directory
type FileInfo struct {
	Path         string
	RelativePath string
	Size         int64
	ModTime      time.Time
	IsDir        bool
	Mode         fs.FileMode
	UID          int
	GID          int
}

// Backend defines the interface for filesystem operations used by the
// deployment engine. The only implementation today is the local filesystem;
// the interface exists so the engine, classifier, and reconciler can be
// exercised against any root without touching globals.
type Backend interface {
	// List returns all entries under the given directory recursively
	List(ctx context.Context, path string) ([]FileInfo, error)

	// Read opens a file for reading
	Read(ctx context.Context, path string) (io.ReadCloser, error)

	// Write atomically creates or replaces a file with the given content.
	// Content is staged in a temporary file in the same directory and
	// renamed into place, so a concurrent reader never observes a
	// partially written file.
	Write(ctx context.Context, path string, reader io.Reader, mode fs.FileMode) error

	// Exists checks if a file or directory exists
	Exists(ctx context.Context, path string) (bool, error)

	// Stat returns file metadata including ownership
	Stat(ctx context.Context, path string) (*FileInfo, error)

	// MkdirAll creates a directory and all necessary parents, returning
	// the relative paths of directories it actually created
	MkdirAll(ctx context.Context, path string, mode fs.FileMode) ([]string, error)

	// Chown changes ownership of a path
	Chown(ctx context.Context, path string, uid, gid int) error

	// Chmod changes the mode bits of a path
	Chmod(ctx context.Context, path string, mode fs.FileMode) error

	// Root returns the absolute root path of the backend
	Root() string

	// Close releases any resources held by the backend
	Close() error
}
