package deploy

import (
	"errors"
	"fmt"
)

var errNotDirectory = errors.New("path exists but is not a directory")

// errFileFailed rehydrates a stored per-file failure message into an
// error for progress reporting
func errFileFailed(message string) error {
	return errors.New(message)
}

// DirectoryError is a run-level fatal error: the source or destination
// root is missing, inaccessible, or not a directory. It aborts the run
// before (or instead of) file processing and is distinguishable from a
// successful run that simply found zero files.
type DirectoryError struct {
	// Path is the directory that failed verification
	Path string
	// Op names the failed step: "verify-source", "verify-dest", "enumerate"
	Op string
	// Err is the underlying cause
	Err error
}

func (e *DirectoryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s %s", e.Op, e.Path)
}

func (e *DirectoryError) Unwrap() error {
	return e.Err
}
