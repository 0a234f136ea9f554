package services

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/custodia-labs/citeqa/internal/core/domain"
	"github.com/custodia-labs/citeqa/internal/core/ports/driven"
	"github.com/custodia-labs/citeqa/internal/core/ports/driving"
	"github.com/custodia-labs/citeqa/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// citationSeparator sits between a citation header and the chunk text.
const citationSeparator = "\n---\n"

// RetrievalService embeds queries and runs similarity search against a
// collection, returning chunks annotated with citation headers.
type RetrievalService struct {
	store    driven.VectorStore
	embedder driven.EmbeddingService
	topK     int
}

// NewRetrievalService creates a new retrieval service.
// A topK of zero or less uses domain.DefaultTopK.
func NewRetrievalService(store driven.VectorStore, embedder driven.EmbeddingService, topK int) *RetrievalService {
	if topK <= 0 {
		topK = domain.DefaultTopK
	}
	return &RetrievalService{
		store:    store,
		embedder: embedder,
		topK:     topK,
	}
}

// Retrieve returns up to topK annotated chunks ranked by similarity.
func (s *RetrievalService) Retrieve(
	ctx context.Context, query, collection string, topK int,
) ([]domain.ScoredChunk, error) {
	logger.Section("Retrieve")

	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrValidation)
	}
	if topK <= 0 {
		topK = s.topK
	}

	names, err := s.store.ListCollectionNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	if !slices.Contains(names, collection) {
		return nil, fmt.Errorf("collection %q: %w", collection, domain.ErrNotFound)
	}

	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	logger.Debug("Query embedded with %s (%d dims)", s.embedder.ModelName(), len(embedding))

	hits, err := s.store.SimilarityQuery(ctx, collection, embedding, topK)
	if err != nil {
		return nil, fmt.Errorf("similarity query: %w", err)
	}
	logger.Debug("Collection %q returned %d chunks (top_k=%d)", collection, len(hits), topK)

	annotated := make([]domain.ScoredChunk, len(hits))
	for i, hit := range hits {
		chunk, err := AnnotateCitation(hit.Chunk)
		if err != nil {
			logger.Warn("Citation annotation failed for chunk %s: %v", hit.Chunk.ID, err)
			chunk = hit.Chunk.Clone()
		}
		annotated[i] = domain.ScoredChunk{Chunk: chunk, Score: hit.Score}
	}
	return annotated, nil
}

// AnnotateCitation returns a copy of chunk whose text is prefixed with a
// citation header of the form "[Source: file, Page: page]". The page segment
// is omitted when page_label is missing, and a missing file_name reads
// "Unknown Source". The input chunk is not modified.
func AnnotateCitation(chunk domain.DocumentChunk) (domain.DocumentChunk, error) {
	fileName, ok, err := chunk.MetadataString(domain.MetaFileName)
	if err != nil {
		return domain.DocumentChunk{}, err
	}
	if !ok {
		fileName = domain.UnknownSource
	}
	page, hasPage, err := chunk.MetadataString(domain.MetaPageLabel)
	if err != nil {
		return domain.DocumentChunk{}, err
	}

	var header strings.Builder
	header.WriteString("[Source: ")
	header.WriteString(fileName)
	if hasPage {
		header.WriteString(", Page: ")
		header.WriteString(page)
	}
	header.WriteString("]")

	out := chunk.Clone()
	out.Text = header.String() + citationSeparator + chunk.Text
	return out, nil
}
