package driven

import (
	"context"

	"github.com/custodia-labs/citeqa/internal/core/domain"
)

// FileSource provides read-only access to the files being ingested.
type FileSource interface {
	// List recursively returns the paths under root whose extension is in
	// extensions, compared case-insensitively. Paths are sorted.
	// Returns domain.ErrNotFound if root does not exist.
	List(ctx context.Context, root string, extensions []string) ([]string, error)

	// Read returns the content of a file.
	Read(ctx context.Context, path string) ([]byte, error)
}

// FileWatcher reports changes to files under a folder.
type FileWatcher interface {
	// Watch emits an event for every change to a file under root whose
	// extension is in extensions. The channel is closed when ctx is done.
	// Returns domain.ErrNotFound if root does not exist.
	Watch(ctx context.Context, root string, extensions []string) (<-chan domain.FileEvent, error)
}
