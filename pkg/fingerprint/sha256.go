package fingerprint

import (
	"context"
	"crypto/sha256"
	"sync"

	"github.com/dunamismax/scriptdeploy/pkg/storage"
)

// SHA256Hasher computes SHA-256 digests for change detection
type SHA256Hasher struct {
	bufferSize int
	bufferPool *sync.Pool
}

// NewSHA256Hasher creates a new SHA-256-based hasher
func NewSHA256Hasher(bufferSize int) *SHA256Hasher {
	if bufferSize < 4096 {
		bufferSize = 4096
	}
	return &SHA256Hasher{
		bufferSize: bufferSize,
		bufferPool: &sync.Pool{
			New: func() interface{} {
				buf := make([]byte, bufferSize)
				return &buf
			},
		},
	}
}

// Sum computes the SHA-256 digest of the file at path
func (h *SHA256Hasher) Sum(ctx context.Context, backend storage.Backend, path string) (string, error) {
	return streamSum(ctx, backend, path, sha256.New(), h.bufferPool)
}

// Name returns the hasher name
func (h *SHA256Hasher) Name() string {
	return "sha256"
}
