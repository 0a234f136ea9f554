// Package postprocessors builds the chunking stage of the ingestion pipeline.
package postprocessors

import (
	"github.com/custodia-labs/citeqa/internal/core/domain"
	"github.com/custodia-labs/citeqa/internal/core/ports/driven"
	"github.com/custodia-labs/citeqa/internal/postprocessors/chunker"
)

// NewChunker creates the chunker configured by the ingestion settings.
// A non-positive chunk size or negative overlap falls back to the default.
func NewChunker(cfg domain.IngestionSettings) driven.Chunker {
	var opts []chunker.Option
	if cfg.ChunkSize > 0 {
		opts = append(opts, chunker.WithChunkSize(cfg.ChunkSize))
	}
	if cfg.ChunkOverlap >= 0 {
		opts = append(opts, chunker.WithOverlap(cfg.ChunkOverlap))
	}
	return chunker.New(opts...)
}
