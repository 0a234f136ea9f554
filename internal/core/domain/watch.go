package domain

import "time"

// FileOp is the kind of change a file watcher observed.
type FileOp int

const (
	// FileChanged means a file was created or written.
	FileChanged FileOp = iota

	// FileRemoved means a file was deleted or renamed away.
	FileRemoved
)

// String returns the operation name for logs.
func (o FileOp) String() string {
	if o == FileRemoved {
		return "removed"
	}
	return "changed"
}

// FileEvent is a change to one file under a watched folder.
type FileEvent struct {
	Path string
	Op   FileOp
}

// WatchRun reports one re-ingestion triggered by watch mode.
type WatchRun struct {
	StartedAt time.Time
	EndedAt   time.Time

	// Removed lists file names whose chunks were deleted before re-ingesting.
	Removed []string

	// Result is the ingestion outcome. It is zero when Err is set.
	Result IngestResult

	Err error
}
