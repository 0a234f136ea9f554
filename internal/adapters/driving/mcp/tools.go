package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/citeqa/internal/core/domain"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question   string `json:"question" jsonschema:"the question to answer from the ingested documents"`
	Collection string `json:"collection,omitempty" jsonschema:"collection to search (default: the configured collection)"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer           string              `json:"answer"`
	SourceNodesCount int                 `json:"source_nodes_count"`
	Sources          []domain.SourceInfo `json:"sources"`
}

// RetrieveInput is the input schema for the retrieve tool.
type RetrieveInput struct {
	Query      string `json:"query" jsonschema:"text to find similar passages for"`
	Collection string `json:"collection,omitempty" jsonschema:"collection to search (default: the configured collection)"`
	TopK       int    `json:"top_k,omitempty" jsonschema:"number of passages to return (default: the configured top_k)"`
}

// RetrieveOutput is the output schema for the retrieve tool.
type RetrieveOutput struct {
	Passages []PassageOutput `json:"passages"`
	Count    int             `json:"count"`
}

// PassageOutput is one retrieved passage.
type PassageOutput struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
	domain.SourceInfo
}

// ListDocumentsInput is the input schema for the list_documents tool.
type ListDocumentsInput struct {
	Collection string `json:"collection,omitempty" jsonschema:"collection to list (default: the configured collection)"`
}

// ListDocumentsOutput is the output schema for the list_documents tool.
type ListDocumentsOutput struct {
	Collection string   `json:"collection"`
	Documents  []string `json:"documents"`
	Count      int      `json:"count"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question from the ingested documents, citing file, page and URL",
	}, s.handleAsk)

	if s.ports.Retrieval != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "retrieve",
			Description: "Return the passages most similar to a query, without generating an answer",
		}, s.handleRetrieve)
	}

	if s.ports.Ingestion != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "list_documents",
			Description: "List the file names ingested into a collection",
		}, s.handleListDocuments)
	}
}

func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := s.ports.Query.Answer(ctx, input.Question, s.ports.collection(input.Collection), nil)
	if err != nil {
		return nil, AskOutput{}, err
	}

	sources := answer.Sources
	if sources == nil {
		sources = []domain.SourceInfo{}
	}
	return nil, AskOutput{
		Answer:           answer.Text,
		SourceNodesCount: answer.SourceNodesCount,
		Sources:          sources,
	}, nil
}

func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	chunks, err := s.ports.Retrieval.Retrieve(ctx, input.Query, s.ports.collection(input.Collection), input.TopK)
	if err != nil {
		return nil, RetrieveOutput{}, err
	}

	fallback := s.ports.FallbackURL
	if fallback == "" {
		fallback = domain.DefaultFallbackURL
	}
	output := RetrieveOutput{
		Passages: make([]PassageOutput, len(chunks)),
		Count:    len(chunks),
	}
	for i, sc := range chunks {
		output.Passages[i] = PassageOutput{
			Text:       sc.Chunk.Text,
			Score:      sc.Score,
			SourceInfo: domain.SourceInfoFromMetadata(sc.Chunk.Metadata, fallback),
		}
	}
	return nil, output, nil
}

func (s *Server) handleListDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListDocumentsInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	collection := s.ports.collection(input.Collection)
	names, err := s.ports.Ingestion.ListDocuments(ctx, collection)
	if err != nil {
		return nil, ListDocumentsOutput{}, fmt.Errorf("listing documents: %w", err)
	}
	if names == nil {
		names = []string{}
	}
	return nil, ListDocumentsOutput{Collection: collection, Documents: names, Count: len(names)}, nil
}
