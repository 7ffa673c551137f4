package fingerprint

import (
	"context"
	"fmt"

	"github.com/dunamismax/scriptdeploy/pkg/models"
	"github.com/dunamismax/scriptdeploy/pkg/storage"
)

// Hasher computes a streaming content digest of a file. Two files are
// considered content-identical iff their digests are equal.
type Hasher interface {
	// Sum returns the hex-encoded digest of the file at path
	Sum(ctx context.Context, backend storage.Backend, path string) (string, error)

	// Name returns the name of the digest algorithm
	Name() string
}

// NewHasher creates a hasher for the given fingerprint method
func NewHasher(method models.FingerprintMethod, bufferSize int) (Hasher, error) {
	switch method {
	case models.FingerprintMD5, "":
		return NewMD5Hasher(bufferSize), nil
	case models.FingerprintSHA256:
		return NewSHA256Hasher(bufferSize), nil
	default:
		return nil, fmt.Errorf("unsupported fingerprint method: %s (use: md5, sha256)", method)
	}
}
