package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/citeqa/internal/adapters/driven/storage/similarity"
	"github.com/custodia-labs/citeqa/internal/core/domain"
	"github.com/custodia-labs/citeqa/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// VectorStore is an in-memory implementation of driven.VectorStore.
// Chunks are copied on the way in and out, so callers never share state
// with the store.
type VectorStore struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

type collection struct {
	chunks []domain.DocumentChunk
	index  map[string]int
}

// NewVectorStore creates a new in-memory vector store.
func NewVectorStore() *VectorStore {
	return &VectorStore{
		collections: make(map[string]*collection),
	}
}

// ListCollectionNames returns all collection names, sorted.
func (s *VectorStore) ListCollectionNames(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// GetOrCreate ensures a collection exists.
func (s *VectorStore) GetOrCreate(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[name]; !ok {
		s.collections[name] = &collection{index: make(map[string]int)}
	}
	return nil
}

// Upsert writes chunks into a collection.
func (s *VectorStore) Upsert(_ context.Context, name string, chunks []domain.DocumentChunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[name]
	if !ok {
		return fmt.Errorf("collection %q: %w", name, domain.ErrNotFound)
	}
	for _, chunk := range chunks {
		cp := chunk.Clone()
		if i, exists := c.index[chunk.ID]; exists {
			c.chunks[i] = cp
			continue
		}
		c.index[chunk.ID] = len(c.chunks)
		c.chunks = append(c.chunks, cp)
	}
	return nil
}

// SimilarityQuery returns the topK most similar chunks.
func (s *VectorStore) SimilarityQuery(
	_ context.Context, name string, embedding []float32, topK int,
) ([]domain.ScoredChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	if !ok {
		return nil, fmt.Errorf("collection %q: %w", name, domain.ErrNotFound)
	}

	vectors := make([][]float32, len(c.chunks))
	for i := range c.chunks {
		vectors[i] = c.chunks[i].Embedding
	}

	ranked := similarity.TopK(embedding, vectors, topK)
	results := make([]domain.ScoredChunk, len(ranked))
	for i, r := range ranked {
		results[i] = domain.ScoredChunk{Chunk: c.chunks[r.Index].Clone(), Score: r.Score}
	}
	return results, nil
}

// GetByMetadataFilter returns chunks matching every filter entry.
func (s *VectorStore) GetByMetadataFilter(
	_ context.Context, name string, filter map[string]string,
) ([]domain.DocumentChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	if !ok {
		return nil, fmt.Errorf("collection %q: %w", name, domain.ErrNotFound)
	}

	var out []domain.DocumentChunk
	for i := range c.chunks {
		if !matches(c.chunks[i].Metadata, filter) {
			continue
		}
		cp := c.chunks[i].Clone()
		cp.Embedding = nil
		out = append(out, cp)
	}
	return out, nil
}

// Delete removes chunks by ID.
func (s *VectorStore) Delete(_ context.Context, name string, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[name]
	if !ok {
		return fmt.Errorf("collection %q: %w", name, domain.ErrNotFound)
	}

	remove := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		remove[id] = struct{}{}
	}
	kept := c.chunks[:0]
	for _, chunk := range c.chunks {
		if _, drop := remove[chunk.ID]; !drop {
			kept = append(kept, chunk)
		}
	}
	c.chunks = kept
	c.index = make(map[string]int, len(kept))
	for i := range kept {
		c.index[kept[i].ID] = i
	}
	return nil
}

// UpdateMetadata replaces chunk metadata.
func (s *VectorStore) UpdateMetadata(
	_ context.Context, name string, ids []string, metadatas []map[string]any,
) error {
	if len(ids) != len(metadatas) {
		return fmt.Errorf("%w: %d ids but %d metadatas", domain.ErrValidation, len(ids), len(metadatas))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[name]
	if !ok {
		return fmt.Errorf("collection %q: %w", name, domain.ErrNotFound)
	}
	for i, id := range ids {
		idx, exists := c.index[id]
		if !exists {
			continue
		}
		c.chunks[idx].Metadata = domain.CopyMetadata(metadatas[i])
	}
	return nil
}

// Close is a no-op.
func (s *VectorStore) Close() error {
	return nil
}

// matches reports whether meta has every key/value in filter.
func matches(meta map[string]any, filter map[string]string) bool {
	for k, want := range filter {
		got, ok := meta[k].(string)
		if !ok || got != want {
			return false
		}
	}
	return true
}
