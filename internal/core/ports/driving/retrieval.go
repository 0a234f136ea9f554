package driving

import (
	"context"

	"github.com/custodia-labs/citeqa/internal/core/domain"
)

// RetrievalService finds the chunks most relevant to a query.
type RetrievalService interface {
	// Retrieve returns up to topK chunks ranked by similarity, each with a
	// citation header prepended to its text. A topK of zero uses the default.
	// Returns domain.ErrNotFound if the collection does not exist.
	Retrieve(ctx context.Context, query, collection string, topK int) ([]domain.ScoredChunk, error)
}
