package driving

import (
	"context"

	"github.com/custodia-labs/citeqa/internal/core/domain"
)

// QueryService answers questions over a collection.
type QueryService interface {
	// Answer synthesises a cited answer. history holds the turns before the
	// current question. domain.ErrNotFound means the collection has not been
	// ingested; any other failure matches domain.ErrSynthesisFailure.
	Answer(ctx context.Context, query, collection string, history []domain.ConversationTurn) (domain.Answer, error)
}
