package platform

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandUser expands a leading ~ or ~/ prefix to the current user's home
// directory, mirroring shell tilde expansion. Paths without the prefix
// are returned cleaned but otherwise untouched.
func ExpandUser(path string) (string, error) {
	if path == "" {
		return "", &PathError{Path: path, Message: "path is empty"}
	}

	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", &PathError{Path: path, Message: "cannot resolve home directory: " + err.Error()}
		}
		return home, nil
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", &PathError{Path: path, Message: "cannot resolve home directory: " + err.Error()}
		}
		return filepath.Join(home, path[2:]), nil
	}

	// ~user expansion is deliberately unsupported; it needs NSS lookups
	// and the deployment paths never use it
	if strings.HasPrefix(path, "~") {
		return "", &PathError{Path: path, Message: "~user expansion is not supported"}
	}

	return filepath.Clean(path), nil
}

// NormalizePath cleans a path and resolves it to an absolute form
func NormalizePath(path string) (string, error) {
	expanded, err := ExpandUser(path)
	if err != nil {
		return "", err
	}

	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", &PathError{Path: path, Message: err.Error()}
	}

	return abs, nil
}

// IsSubPath reports whether child lies inside (or equals) parent after
// both are made absolute. Used to reject nested source/destination pairs.
func IsSubPath(parent, child string) (bool, error) {
	absParent, err := filepath.Abs(parent)
	if err != nil {
		return false, err
	}
	absChild, err := filepath.Abs(child)
	if err != nil {
		return false, err
	}

	rel, err := filepath.Rel(absParent, absChild)
	if err != nil {
		return false, nil
	}

	return rel == "." || (!strings.HasPrefix(rel, "..") && !filepath.IsAbs(rel)), nil
}

// ValidatePath checks basic path sanity
func ValidatePath(path string) error {
	if path == "" {
		return &PathError{Path: path, Message: "path is empty"}
	}
	if strings.ContainsRune(path, 0) {
		return &PathError{Path: path, Message: "path contains a NUL byte"}
	}
	return nil
}

// PathError represents a path validation error
type PathError struct {
	Path    string
	Message string
}

func (e *PathError) Error() string {
	return "invalid path '" + e.Path + "': " + e.Message
}
