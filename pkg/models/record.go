package models

// FileStatus classifies the copy outcome for a single deployed file
type FileStatus string

const (
	// StatusNew indicates the file did not exist in the destination
	StatusNew FileStatus = "new"
	// StatusUpdated indicates the destination content differed and was replaced
	StatusUpdated FileStatus = "updated"
	// StatusUnchanged indicates source and destination content already matched
	StatusUnchanged FileStatus = "unchanged"
	// StatusFailed indicates the file could not be deployed
	StatusFailed FileStatus = "failed"
)

// FileRecord is the per-file outcome of a deployment run.
// Status is computed once and never revised; PermissionChanged is independent
// of Status (an unchanged file may still need an ownership or mode fix).
type FileRecord struct {
	// RelativePath is the path relative to the source root (unique per run)
	RelativePath string

	// Status is the copy outcome classification
	Status FileStatus

	// PermissionChanged reports whether ownership or mode bits were altered
	// on the destination
	PermissionChanged bool

	// SourcePath is the absolute path of the source file
	SourcePath string

	// DestPath is the absolute path of the destination file
	DestPath string

	// ErrorMessage is populated only when Status is StatusFailed
	ErrorMessage string
}
