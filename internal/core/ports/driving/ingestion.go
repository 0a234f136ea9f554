package driving

import (
	"context"

	"github.com/custodia-labs/citeqa/internal/core/domain"
)

// IngestionService loads documents into vector collections.
// Runs against the same collection are serialised.
type IngestionService interface {
	// Ingest adds every allow-listed file under req.Folder whose name is not
	// already in the collection. It is all-or-nothing per call.
	Ingest(ctx context.Context, req domain.IngestRequest) (domain.IngestResult, error)

	// IngestFile adds a single file. A file whose name is already in the
	// collection is rejected with domain.ErrValidation.
	IngestFile(ctx context.Context, path, collection, documentURL, productName string) (domain.IngestResult, error)

	// BackfillURLs sets document_url on chunks that lack one and returns
	// how many were updated.
	BackfillURLs(ctx context.Context, collection, defaultURL string) (int, error)

	// ApplyCatalog sets product_name and document_url on the chunks of each
	// catalogued file.
	ApplyCatalog(ctx context.Context, collection string, records []domain.CatalogRecord) (domain.CatalogResult, error)

	// ListDocuments returns the sorted, unique file names in a collection.
	ListDocuments(ctx context.Context, collection string) ([]string, error)

	// RemoveDocument deletes every chunk of one file and returns the count.
	RemoveDocument(ctx context.Context, collection, fileName string) (int, error)

	// ListCollections returns all collection names.
	ListCollections(ctx context.Context) ([]string, error)
}
