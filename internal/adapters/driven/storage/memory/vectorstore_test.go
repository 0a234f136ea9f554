package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/citeqa/internal/core/domain"
)

func testChunk(id, file string, embedding ...float32) domain.DocumentChunk {
	return domain.DocumentChunk{
		ID:        id,
		Text:      "text of " + id,
		Embedding: embedding,
		Metadata:  map[string]any{domain.MetaFileName: file},
	}
}

func TestVectorStore_GetOrCreateAndList(t *testing.T) {
	store := NewVectorStore()
	ctx := context.Background()

	require.NoError(t, store.GetOrCreate(ctx, "b"))
	require.NoError(t, store.GetOrCreate(ctx, "a"))
	require.NoError(t, store.GetOrCreate(ctx, "a"))

	names, err := store.ListCollectionNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)
}

func TestVectorStore_MissingCollection(t *testing.T) {
	store := NewVectorStore()
	ctx := context.Background()

	assert.ErrorIs(t, store.Upsert(ctx, "x", nil), domain.ErrNotFound)
	_, err := store.SimilarityQuery(ctx, "x", []float32{1}, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = store.GetByMetadataFilter(ctx, "x", nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "x", []string{"a"}), domain.ErrNotFound)
	assert.ErrorIs(t, store.UpdateMetadata(ctx, "x", nil, nil), domain.ErrNotFound)
}

func TestVectorStore_SimilarityQuery(t *testing.T) {
	store := NewVectorStore()
	ctx := context.Background()
	require.NoError(t, store.GetOrCreate(ctx, "docs"))
	require.NoError(t, store.Upsert(ctx, "docs", []domain.DocumentChunk{
		testChunk("x", "x.pdf", 1, 0),
		testChunk("y", "y.pdf", 0, 1),
		testChunk("xy", "xy.pdf", 1, 1),
	}))

	hits, err := store.SimilarityQuery(ctx, "docs", []float32{1, 0.1}, 2)

	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "x", hits[0].Chunk.ID)
	assert.Equal(t, "xy", hits[1].Chunk.ID)
	assert.Greater(t, hits[0].Score, hits[1].Score)
}

func TestVectorStore_UpsertReplacesByID(t *testing.T) {
	store := NewVectorStore()
	ctx := context.Background()
	require.NoError(t, store.GetOrCreate(ctx, "docs"))
	require.NoError(t, store.Upsert(ctx, "docs", []domain.DocumentChunk{testChunk("a", "a.pdf", 1)}))

	replacement := testChunk("a", "renamed.pdf", 1)
	require.NoError(t, store.Upsert(ctx, "docs", []domain.DocumentChunk{replacement}))

	chunks, err := store.GetByMetadataFilter(ctx, "docs", nil)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "renamed.pdf", chunks[0].FileName())
}

func TestVectorStore_ReturnsCopies(t *testing.T) {
	store := NewVectorStore()
	ctx := context.Background()
	require.NoError(t, store.GetOrCreate(ctx, "docs"))
	in := testChunk("a", "a.pdf", 1)
	require.NoError(t, store.Upsert(ctx, "docs", []domain.DocumentChunk{in}))

	in.Metadata[domain.MetaFileName] = "mutated.pdf"
	hits, err := store.SimilarityQuery(ctx, "docs", []float32{1}, 1)
	require.NoError(t, err)
	hits[0].Chunk.Metadata["extra"] = true

	chunks, err := store.GetByMetadataFilter(ctx, "docs", nil)
	require.NoError(t, err)
	assert.Equal(t, "a.pdf", chunks[0].FileName())
	assert.NotContains(t, chunks[0].Metadata, "extra")
	assert.Nil(t, chunks[0].Embedding)
}

func TestVectorStore_FilterDeleteUpdate(t *testing.T) {
	store := NewVectorStore()
	ctx := context.Background()
	require.NoError(t, store.GetOrCreate(ctx, "docs"))
	require.NoError(t, store.Upsert(ctx, "docs", []domain.DocumentChunk{
		testChunk("a1", "a.pdf", 1),
		testChunk("a2", "a.pdf", 1),
		testChunk("b1", "b.pdf", 1),
	}))

	aChunks, err := store.GetByMetadataFilter(ctx, "docs", map[string]string{domain.MetaFileName: "a.pdf"})
	require.NoError(t, err)
	assert.Len(t, aChunks, 2)

	require.NoError(t, store.UpdateMetadata(ctx, "docs", []string{"b1", "unknown"}, []map[string]any{
		{domain.MetaFileName: "b.pdf", domain.MetaDocumentURL: "https://example.org/b"},
		{domain.MetaFileName: "ghost.pdf"},
	}))
	bChunks, err := store.GetByMetadataFilter(ctx, "docs", map[string]string{
		domain.MetaDocumentURL: "https://example.org/b",
	})
	require.NoError(t, err)
	require.Len(t, bChunks, 1)
	assert.Equal(t, "b1", bChunks[0].ID)

	require.NoError(t, store.Delete(ctx, "docs", []string{"a1", "a2", "missing"}))
	all, err := store.GetByMetadataFilter(ctx, "docs", nil)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "b1", all[0].ID)
}

func TestVectorStore_UpdateMetadataLengthMismatch(t *testing.T) {
	store := NewVectorStore()
	ctx := context.Background()
	require.NoError(t, store.GetOrCreate(ctx, "docs"))

	err := store.UpdateMetadata(ctx, "docs", []string{"a"}, nil)

	assert.ErrorIs(t, err, domain.ErrValidation)
}
