package postprocessors

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/citeqa/internal/core/domain"
)

func TestNewChunker_UsesSettings(t *testing.T) {
	c := NewChunker(domain.IngestionSettings{ChunkSize: 10, ChunkOverlap: 0})
	raw := &domain.RawDocument{Name: "a.txt", Path: "/data/a.txt"}

	chunks, err := c.Chunk(context.Background(), raw, []domain.Page{{Text: strings.Repeat("x", 25)}})

	require.NoError(t, err)
	assert.Len(t, chunks, 3)
	assert.Equal(t, "chunker", c.Name())
}

func TestNewChunker_Defaults(t *testing.T) {
	c := NewChunker(domain.IngestionSettings{})
	raw := &domain.RawDocument{Name: "a.txt"}

	chunks, err := c.Chunk(context.Background(), raw, []domain.Page{{Text: strings.Repeat("y", 1000)}})

	require.NoError(t, err)
	assert.Len(t, chunks, 1)
}
