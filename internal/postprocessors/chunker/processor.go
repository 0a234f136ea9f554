// Package chunker provides the fixed-size text chunker used during ingestion.
package chunker

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/custodia-labs/citeqa/internal/core/domain"
	"github.com/custodia-labs/citeqa/internal/core/ports/driven"
)

// Ensure Chunker implements the interface.
var _ driven.Chunker = (*Chunker)(nil)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// Chunker splits page text into overlapping chunks of at most chunkSize
// runes, preferring to break on whitespace.
type Chunker struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a new chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Overlap must leave room for progress.
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}

	return c
}

// Name returns the chunker name.
func (c *Chunker) Name() string {
	return "chunker"
}

// Chunk splits each page separately so that every chunk keeps the label of
// the page it came from. Chunks have no embedding yet.
func (c *Chunker) Chunk(ctx context.Context, raw *domain.RawDocument, pages []domain.Page) ([]domain.DocumentChunk, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: nil document", domain.ErrValidation)
	}

	now := time.Now()
	var chunks []domain.DocumentChunk
	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, text := range c.split(page.Text) {
			metadata := map[string]any{
				domain.MetaFileName: raw.Name,
				domain.MetaFilePath: raw.Path,
			}
			if page.Label != "" {
				metadata[domain.MetaPageLabel] = page.Label
			}
			chunks = append(chunks, domain.DocumentChunk{
				ID:        uuid.New().String(),
				Text:      text,
				Metadata:  metadata,
				CreatedAt: now,
			})
		}
	}
	return chunks, nil
}

// split cuts text into windows of chunkSize runes that overlap by overlap runes.
func (c *Chunker) split(text string) []string {
	runes := []rune(text)
	var pieces []string

	for start := 0; start < len(runes); {
		end := min(start+c.chunkSize, len(runes))
		if end < len(runes) {
			end = breakPoint(runes, start, end, c.chunkSize/4)
		}

		if piece := strings.TrimSpace(string(runes[start:end])); piece != "" {
			pieces = append(pieces, piece)
		}
		if end == len(runes) {
			break
		}

		next := end - c.overlap
		if next <= start {
			next = end
		}
		start = next
	}

	return pieces
}

// breakPoint moves end back to just after the nearest whitespace within
// slack runes. It returns end unchanged when there is none.
func breakPoint(runes []rune, start, end, slack int) int {
	for i := end; i > start && i >= end-slack; i-- {
		if unicode.IsSpace(runes[i-1]) {
			return i
		}
	}
	return end
}
