package mcp

import (
	"context"

	"github.com/custodia-labs/citeqa/internal/core/domain"
	"github.com/custodia-labs/citeqa/internal/core/ports/driving"
)

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	answer     domain.Answer
	err        error
	collection string
	query      string
}

func (m *mockQueryService) Answer(
	_ context.Context, query, collection string, _ []domain.ConversationTurn,
) (domain.Answer, error) {
	m.query = query
	m.collection = collection
	return m.answer, m.err
}

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	chunks []domain.ScoredChunk
	err    error
	topK   int
}

func (m *mockRetrievalService) Retrieve(
	_ context.Context, _, _ string, topK int,
) ([]domain.ScoredChunk, error) {
	m.topK = topK
	return m.chunks, m.err
}

// mockIngestionService implements the listing half of driving.IngestionService.
type mockIngestionService struct {
	driving.IngestionService

	collections []string
	documents   map[string][]string
	err         error
}

func (m *mockIngestionService) ListCollections(_ context.Context) ([]string, error) {
	return m.collections, m.err
}

func (m *mockIngestionService) ListDocuments(_ context.Context, collection string) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.documents[collection], nil
}
