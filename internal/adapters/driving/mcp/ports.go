package mcp

import (
	"github.com/custodia-labs/citeqa/internal/core/domain"
	"github.com/custodia-labs/citeqa/internal/core/ports/driving"
)

// Ports aggregates the driving ports the MCP server calls.
type Ports struct {
	// Query answers questions. Required.
	Query driving.QueryService

	// Retrieval returns raw passages. Optional; the retrieve tool is
	// registered only when set.
	Retrieval driving.RetrievalService

	// Ingestion lists collections and documents. Optional.
	Ingestion driving.IngestionService

	// DefaultCollection is used when a tool call names none.
	DefaultCollection string

	// FallbackURL is reported for passages without a document_url.
	FallbackURL string
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Query == nil {
		return ErrMissingQueryService
	}
	return nil
}

func (p *Ports) collection(name string) string {
	if name != "" {
		return name
	}
	if p.DefaultCollection != "" {
		return p.DefaultCollection
	}
	return domain.DefaultCollection
}
