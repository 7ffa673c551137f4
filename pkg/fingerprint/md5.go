package fingerprint

import (
	"context"
	"crypto/md5"
	"fmt"
	"hash"
	"io"
	"sync"

	"github.com/dunamismax/scriptdeploy/pkg/storage"
)

// MD5Hasher computes MD5 digests. Collision resistance is not security
// critical here: the digest only decides whether a copy is needed.
type MD5Hasher struct {
	bufferSize int
	bufferPool *sync.Pool
}

// NewMD5Hasher creates a new MD5-based hasher
func NewMD5Hasher(bufferSize int) *MD5Hasher {
	if bufferSize < 4096 {
		bufferSize = 4096
	}
	return &MD5Hasher{
		bufferSize: bufferSize,
		bufferPool: &sync.Pool{
			New: func() interface{} {
				buf := make([]byte, bufferSize)
				return &buf
			},
		},
	}
}

// Sum computes the MD5 digest of the file at path
func (h *MD5Hasher) Sum(ctx context.Context, backend storage.Backend, path string) (string, error) {
	return streamSum(ctx, backend, path, md5.New(), h.bufferPool)
}

// Name returns the hasher name
func (h *MD5Hasher) Name() string {
	return "md5"
}

// streamSum reads the file in fixed-size chunks and feeds it to the digest
func streamSum(ctx context.Context, backend storage.Backend, path string, digest hash.Hash, pool *sync.Pool) (string, error) {
	reader, err := backend.Read(ctx, path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	bufPtr := pool.Get().(*[]byte)
	defer pool.Put(bufPtr)
	buf := *bufPtr

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		n, err := reader.Read(buf)
		if n > 0 {
			digest.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to read file: %w", err)
		}
	}

	return fmt.Sprintf("%x", digest.Sum(nil)), nil
}
