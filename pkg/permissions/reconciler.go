package permissions

import (
	"context"
	"fmt"
	"io/fs"
	"os/user"
	"strconv"

	"github.com/dunamismax/scriptdeploy/pkg/logging"
	"github.com/dunamismax/scriptdeploy/pkg/storage"
)

// Reconciler brings ownership and mode bits of destination paths in line
// with the configured target, independent of content copies.
//
// Ownership reconciliation is best-effort: when the configured owner cannot
// be resolved against the host identity database it is disabled entirely,
// and a chown rejected for lack of privilege is logged and skipped rather
// than failing the file.
type Reconciler struct {
	backend  storage.Backend
	logger   logging.Logger
	fileMode fs.FileMode
	dirMode  fs.FileMode

	uid, gid     int
	ownerEnabled bool
}

// NewReconciler creates a reconciler for the given destination backend.
// The owner name is resolved once; resolution failure disables ownership
// reconciliation but keeps mode reconciliation active.
func NewReconciler(backend storage.Backend, owner string, fileMode, dirMode fs.FileMode, logger logging.Logger) *Reconciler {
	if logger == nil {
		logger = logging.NewNullLogger()
	}

	r := &Reconciler{
		backend:  backend,
		logger:   logger,
		fileMode: fileMode,
		dirMode:  dirMode,
		uid:      -1,
		gid:      -1,
	}

	if owner == "" {
		return r
	}

	entry, err := user.Lookup(owner)
	if err != nil {
		logger.Warn(context.Background(), "Owner not found, skipping ownership reconciliation", logging.Fields{
			"owner": owner,
			"error": err.Error(),
		})
		return r
	}

	uid, uidErr := strconv.Atoi(entry.Uid)
	gid, gidErr := strconv.Atoi(entry.Gid)
	if uidErr != nil || gidErr != nil {
		logger.Warn(context.Background(), "Owner has non-numeric uid/gid, skipping ownership reconciliation", logging.Fields{
			"owner": owner,
		})
		return r
	}

	r.uid = uid
	r.gid = gid
	r.ownerEnabled = true
	return r
}

// OwnerEnabled reports whether the configured owner was resolved
func (r *Reconciler) OwnerEnabled() bool {
	return r.ownerEnabled
}

// OwnerIDs returns the resolved uid/gid, or -1/-1 when disabled
func (r *Reconciler) OwnerIDs() (uid, gid int) {
	return r.uid, r.gid
}

// Reconcile ensures the path has the configured ownership and mode bits,
// returning whether either was actually altered. A no-op counts as
// unchanged. The mode applied depends on whether the path is a directory.
func (r *Reconciler) Reconcile(ctx context.Context, relPath string, isDir bool) (bool, error) {
	info, err := r.backend.Stat(ctx, relPath)
	if err != nil {
		return false, fmt.Errorf("failed to inspect path: %w", err)
	}

	changed := false

	if r.ownerEnabled && (info.UID != r.uid || info.GID != r.gid) {
		if err := r.backend.Chown(ctx, relPath, r.uid, r.gid); err != nil {
			r.logger.Warn(ctx, "Failed to change ownership", logging.Fields{
				"path":  relPath,
				"uid":   r.uid,
				"gid":   r.gid,
				"error": err.Error(),
			})
		} else {
			changed = true
		}
	}

	wantMode := r.fileMode
	if isDir {
		wantMode = r.dirMode
	}

	if info.Mode != wantMode {
		if err := r.backend.Chmod(ctx, relPath, wantMode); err != nil {
			return changed, fmt.Errorf("failed to change mode: %w", err)
		}
		changed = true
	}

	return changed, nil
}
