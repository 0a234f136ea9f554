package driving

import (
	"context"

	"github.com/custodia-labs/citeqa/internal/core/domain"
)

// WatchService keeps a collection in step with a folder.
type WatchService interface {
	// Run ingests req.Folder once, then re-ingests whenever files under it
	// change, until ctx is done or Stop is called. Each run is passed to
	// report, which may be nil.
	Run(ctx context.Context, req domain.IngestRequest, report func(domain.WatchRun)) error

	// Stop ends a Run in progress and waits for the current run to finish.
	Stop()
}
