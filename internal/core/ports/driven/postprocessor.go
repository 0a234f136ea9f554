package driven

import (
	"context"

	"github.com/custodia-labs/citeqa/internal/core/domain"
)

// Chunker splits loaded pages into chunks ready for embedding.
// Each chunk carries file_name, file_path and, when known, page_label.
type Chunker interface {
	// Name returns the chunker name for logging.
	Name() string

	// Chunk splits the pages of one file into chunks without embeddings.
	Chunk(ctx context.Context, raw *domain.RawDocument, pages []domain.Page) ([]domain.DocumentChunk, error)
}
