package fingerprint

import (
	"context"
	"fmt"
	"sync"

	"github.com/dunamismax/scriptdeploy/pkg/logging"
	"github.com/dunamismax/scriptdeploy/pkg/models"
	"github.com/dunamismax/scriptdeploy/pkg/storage"
)

// Classifier decides what a deployment run should do with a single file by
// comparing source and destination content fingerprints.
type Classifier struct {
	source storage.Backend
	dest   storage.Backend
	hasher Hasher
	logger logging.Logger
}

// NewClassifier creates a classifier over the given backends
func NewClassifier(source, dest storage.Backend, hasher Hasher, logger logging.Logger) *Classifier {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &Classifier{
		source: source,
		dest:   dest,
		hasher: hasher,
		logger: logger,
	}
}

// Classify returns the copy status for relPath:
//
//   - destination missing: StatusNew
//   - fingerprints differ: StatusUpdated
//   - fingerprints equal:  StatusUnchanged
//
// When either fingerprint cannot be computed the file is conservatively
// classified as StatusUpdated with a warning, forcing a copy rather than
// silently skipping a file whose state is unknown.
func (c *Classifier) Classify(ctx context.Context, relPath string) (models.FileStatus, string) {
	destExists, err := c.dest.Exists(ctx, relPath)
	if err != nil {
		c.logger.Warn(ctx, "Failed to check destination file, forcing copy", logging.Fields{
			"path":  relPath,
			"error": err.Error(),
		})
		return models.StatusUpdated, "destination state unknown"
	}
	if !destExists {
		return models.StatusNew, "destination file does not exist"
	}

	// Quick rejection: differing sizes cannot have equal fingerprints
	sourceInfo, sourceStatErr := c.source.Stat(ctx, relPath)
	destInfo, destStatErr := c.dest.Stat(ctx, relPath)
	if sourceStatErr == nil && destStatErr == nil && sourceInfo.Size != destInfo.Size {
		return models.StatusUpdated, fmt.Sprintf("size mismatch: source=%d, dest=%d", sourceInfo.Size, destInfo.Size)
	}

	// Compute both fingerprints in parallel
	var sourceSum, destSum string
	var sourceErr, destErr error
	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		sourceSum, sourceErr = c.hasher.Sum(ctx, c.source, relPath)
	}()
	go func() {
		defer wg.Done()
		destSum, destErr = c.hasher.Sum(ctx, c.dest, relPath)
	}()
	wg.Wait()

	if sourceErr != nil || destErr != nil {
		hashErr := sourceErr
		if hashErr == nil {
			hashErr = destErr
		}
		c.logger.Warn(ctx, "Failed to fingerprint file, forcing copy", logging.Fields{
			"path":   relPath,
			"method": c.hasher.Name(),
			"error":  hashErr.Error(),
		})
		return models.StatusUpdated, "fingerprint comparison failed"
	}

	if sourceSum != destSum {
		return models.StatusUpdated, "fingerprints differ"
	}
	return models.StatusUnchanged, "fingerprints match"
}
