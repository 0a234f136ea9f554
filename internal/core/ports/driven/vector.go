package driven

import (
	"context"

	"github.com/custodia-labs/citeqa/internal/core/domain"
)

// VectorStore persists named collections of embedded chunks and answers
// similarity queries over them.
//
// Operations on a collection that does not exist return domain.ErrNotFound,
// except GetOrCreate. Writes are atomic: a concurrent reader sees either a
// fully written chunk or no chunk.
type VectorStore interface {
	// ListCollectionNames returns the names of all collections.
	ListCollectionNames(ctx context.Context) ([]string, error)

	// GetOrCreate ensures a collection with the given name exists.
	GetOrCreate(ctx context.Context, name string) error

	// Upsert writes chunks into a collection in a single transaction.
	Upsert(ctx context.Context, collection string, chunks []domain.DocumentChunk) error

	// SimilarityQuery returns the topK chunks most similar to embedding,
	// highest score first. Ties keep insertion order.
	SimilarityQuery(ctx context.Context, collection string, embedding []float32, topK int) ([]domain.ScoredChunk, error)

	// GetByMetadataFilter returns chunks whose metadata matches every
	// key/value in filter. A nil filter returns every chunk.
	// Embeddings are not populated.
	GetByMetadataFilter(ctx context.Context, collection string, filter map[string]string) ([]domain.DocumentChunk, error)

	// Delete removes chunks by ID. Unknown IDs are ignored.
	Delete(ctx context.Context, collection string, ids []string) error

	// UpdateMetadata replaces the metadata of each chunk in ids with the
	// metadata at the same index.
	UpdateMetadata(ctx context.Context, collection string, ids []string, metadatas []map[string]any) error

	// Close releases resources.
	Close() error
}
