package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/citeqa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/citeqa/internal/core/domain"
)

type ingestFixture struct {
	svc      *IngestionService
	store    *memory.VectorStore
	embedder *mockEmbedder
	files    *mockFileSource
}

func newIngestFixture(t *testing.T, files map[string]string) *ingestFixture {
	t.Helper()
	f := &ingestFixture{
		store:    memory.NewVectorStore(),
		embedder: &mockEmbedder{},
		files:    &mockFileSource{files: files},
	}
	f.svc = NewIngestionService(f.store, f.embedder, f.files, mockNormalisers{}, &mockChunker{}, IngestionConfig{
		BatchSize:   2,
		Concurrency: 2,
	})
	return f
}

func (f *ingestFixture) chunks(t *testing.T, collection string) []domain.DocumentChunk {
	t.Helper()
	chunks, err := f.store.GetByMetadataFilter(context.Background(), collection, nil)
	require.NoError(t, err)
	return chunks
}

func TestIngestionService_IngestNewFiles(t *testing.T) {
	f := newIngestFixture(t, map[string]string{
		"/docs/a.pdf":      "page one\fpage two",
		"/docs/sub/b.docx": "word text",
		"/docs/notes.txt":  "ignored",
		"/docs/sheet.XLSX": "sheet text",
	})

	result, err := f.svc.Ingest(context.Background(), domain.IngestRequest{Folder: "/docs", Collection: "docs"})

	require.NoError(t, err)
	assert.Equal(t, 4, result.ChunksAdded)
	assert.ElementsMatch(t, []string{"a.pdf", "b.docx", "sheet.XLSX"}, result.Files)
	assert.Empty(t, result.Skipped)

	chunks := f.chunks(t, "docs")
	assert.Len(t, chunks, 4)
	for _, c := range chunks {
		assert.NotEmpty(t, c.FileName())
	}
}

func TestIngestionService_IngestIsIdempotent(t *testing.T) {
	f := newIngestFixture(t, map[string]string{
		"/docs/a.pdf": "alpha",
		"/docs/b.pdf": "beta",
	})
	ctx := context.Background()
	req := domain.IngestRequest{Folder: "/docs", Collection: "docs"}

	first, err := f.svc.Ingest(ctx, req)
	require.NoError(t, err)
	require.Equal(t, 2, first.ChunksAdded)
	embedded := f.embedder.embedded.Load()
	reads := f.files.reads.Load()

	second, err := f.svc.Ingest(ctx, req)

	require.NoError(t, err)
	assert.Zero(t, second.ChunksAdded)
	assert.Len(t, f.chunks(t, "docs"), 2)
	assert.Equal(t, embedded, f.embedder.embedded.Load(), "nothing re-embedded")
	assert.Equal(t, reads, f.files.reads.Load(), "nothing reloaded")
}

func TestIngestionService_IngestOnlyNewFiles(t *testing.T) {
	files := map[string]string{"/docs/a.pdf": "alpha"}
	f := newIngestFixture(t, files)
	ctx := context.Background()
	req := domain.IngestRequest{Folder: "/docs", Collection: "docs"}
	_, err := f.svc.Ingest(ctx, req)
	require.NoError(t, err)

	files["/docs/b.pdf"] = "beta"
	result, err := f.svc.Ingest(ctx, req)

	require.NoError(t, err)
	assert.Equal(t, []string{"b.pdf"}, result.Files)
	assert.Equal(t, 1, result.ChunksAdded)
}

func TestIngestionService_DuplicateBaseNames(t *testing.T) {
	f := newIngestFixture(t, map[string]string{
		"/docs/a/report.pdf": "first",
		"/docs/b/report.pdf": "second",
	})

	result, err := f.svc.Ingest(context.Background(), domain.IngestRequest{Folder: "/docs", Collection: "docs"})

	require.NoError(t, err)
	assert.Equal(t, []string{"report.pdf"}, result.Files)
	assert.Equal(t, []string{"/docs/b/report.pdf"}, result.Skipped)
	chunks := f.chunks(t, "docs")
	require.Len(t, chunks, 1)
	assert.Equal(t, "first", chunks[0].Text)
}

func TestIngestionService_AttachesURLAndProduct(t *testing.T) {
	f := newIngestFixture(t, map[string]string{"/docs/a.pdf": "alpha"})

	_, err := f.svc.Ingest(context.Background(), domain.IngestRequest{
		Folder:      "/docs",
		Collection:  "docs",
		DocumentURL: "https://example.org/a",
		ProductName: "RT-1",
	})

	require.NoError(t, err)
	chunks := f.chunks(t, "docs")
	require.Len(t, chunks, 1)
	assert.Equal(t, "https://example.org/a", chunks[0].Metadata[domain.MetaDocumentURL])
	assert.Equal(t, "RT-1", chunks[0].Metadata[domain.MetaProductName])
}

func TestIngestionService_MissingFolder(t *testing.T) {
	f := newIngestFixture(t, map[string]string{})

	_, err := f.svc.Ingest(context.Background(), domain.IngestRequest{Folder: "/missing", Collection: "docs"})

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIngestionService_LoaderFailureWritesNothing(t *testing.T) {
	f := newIngestFixture(t, map[string]string{
		"/docs/a.pdf": "alpha",
		"/docs/b.pdf": "CORRUPT",
	})

	_, err := f.svc.Ingest(context.Background(), domain.IngestRequest{Folder: "/docs", Collection: "docs"})

	assert.ErrorIs(t, err, domain.ErrIngestionFailure)
	names, err := f.store.ListCollectionNames(context.Background())
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestIngestionService_EmbedFailureWritesNothing(t *testing.T) {
	f := newIngestFixture(t, map[string]string{
		"/docs/a.pdf": "one\ftwo\fthree",
		"/docs/b.pdf": "four\ffive",
	})
	f.embedder.failOnCall = 2

	_, err := f.svc.Ingest(context.Background(), domain.IngestRequest{Folder: "/docs", Collection: "docs"})

	assert.ErrorIs(t, err, domain.ErrIngestionFailure)
	names, err := f.store.ListCollectionNames(context.Background())
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestIngestionService_EmptyCollectionName(t *testing.T) {
	f := newIngestFixture(t, map[string]string{"/docs/a.pdf": "alpha"})

	_, err := f.svc.Ingest(context.Background(), domain.IngestRequest{Folder: "/docs"})

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestIngestionService_ConcurrentIngestDoesNotDuplicate(t *testing.T) {
	f := newIngestFixture(t, map[string]string{
		"/docs/a.pdf": "alpha",
		"/docs/b.pdf": "beta",
	})
	req := domain.IngestRequest{Folder: "/docs", Collection: "docs"}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Ingest(context.Background(), req)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, f.chunks(t, "docs"), 2)
}

func TestIngestionService_IngestFile(t *testing.T) {
	f := newIngestFixture(t, map[string]string{"/docs/a.pdf": "alpha"})
	ctx := context.Background()

	result, err := f.svc.IngestFile(ctx, "/docs/a.pdf", "docs", "https://example.org/a", "")
	require.NoError(t, err)
	assert.Equal(t, 1, result.ChunksAdded)
	assert.Equal(t, []string{"a.pdf"}, result.Files)

	_, err = f.svc.IngestFile(ctx, "/docs/a.pdf", "docs", "", "")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.IngestFile(ctx, "/docs/a.txt", "docs", "", "")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.IngestFile(ctx, "/docs/missing.pdf", "docs", "", "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIngestionService_FilesWithoutTextAreNotReported(t *testing.T) {
	f := newIngestFixture(t, map[string]string{
		"/docs/a.pdf":       "alpha",
		"/docs/scanned.pdf": "   ",
	})
	ctx := context.Background()

	result, err := f.svc.Ingest(ctx, domain.IngestRequest{Folder: "/docs", Collection: "docs"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.pdf"}, result.Files)
	assert.Equal(t, []string{"scanned.pdf"}, result.Empty)
	assert.Equal(t, 1, result.ChunksAdded)

	again, err := f.svc.Ingest(ctx, domain.IngestRequest{Folder: "/docs", Collection: "docs"})
	require.NoError(t, err)
	assert.Empty(t, again.Files)
	assert.Equal(t, []string{"scanned.pdf"}, again.Empty)
}

func TestIngestionService_IngestFileWithoutText(t *testing.T) {
	f := newIngestFixture(t, map[string]string{"/docs/blank.pdf": ""})

	result, err := f.svc.IngestFile(context.Background(), "/docs/blank.pdf", "docs", "", "")

	require.NoError(t, err)
	assert.Zero(t, result.ChunksAdded)
	assert.Empty(t, result.Files)
	assert.Equal(t, []string{"blank.pdf"}, result.Empty)
}

func TestIngestionService_BackfillURLs(t *testing.T) {
	f := newIngestFixture(t, map[string]string{
		"/docs/a.pdf": "alpha\fmore",
		"/docs/b.pdf": "beta",
	})
	ctx := context.Background()
	_, err := f.svc.IngestFile(ctx, "/docs/b.pdf", "docs", "https://example.org/b", "")
	require.NoError(t, err)
	_, err = f.svc.IngestFile(ctx, "/docs/a.pdf", "docs", "", "")
	require.NoError(t, err)

	updated, err := f.svc.BackfillURLs(ctx, "docs", "https://fallback.test/")
	require.NoError(t, err)
	assert.Equal(t, 2, updated)

	for _, c := range f.chunks(t, "docs") {
		switch c.FileName() {
		case "a.pdf":
			assert.Equal(t, "https://fallback.test/", c.Metadata[domain.MetaDocumentURL])
		case "b.pdf":
			assert.Equal(t, "https://example.org/b", c.Metadata[domain.MetaDocumentURL])
		}
		assert.NotEmpty(t, c.Metadata[domain.MetaPageLabel], "other metadata kept")
	}

	again, err := f.svc.BackfillURLs(ctx, "docs", "https://fallback.test/")
	require.NoError(t, err)
	assert.Zero(t, again)
}

func TestIngestionService_BackfillURLsErrors(t *testing.T) {
	f := newIngestFixture(t, map[string]string{})
	ctx := context.Background()

	_, err := f.svc.BackfillURLs(ctx, "docs", "")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.BackfillURLs(ctx, "missing", "https://fallback.test/")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIngestionService_ApplyCatalog(t *testing.T) {
	f := newIngestFixture(t, map[string]string{
		"/docs/a.pdf": "alpha\fmore",
		"/docs/b.pdf": "beta",
	})
	ctx := context.Background()
	_, err := f.svc.Ingest(ctx, domain.IngestRequest{Folder: "/docs", Collection: "docs"})
	require.NoError(t, err)

	result, err := f.svc.ApplyCatalog(ctx, "docs", []domain.CatalogRecord{
		{ProductName: "RT-1", FileName: "a.pdf", DocumentURL: "https://example.org/a"},
		{ProductName: "RT-2", FileName: "b.pdf"},
		{ProductName: "RT-3", FileName: "gone.pdf"},
	})

	require.NoError(t, err)
	assert.Equal(t, 2, result.UpdatedFiles)
	assert.Equal(t, 3, result.UpdatedChunks)
	assert.Equal(t, []string{"gone.pdf"}, result.Missing)

	for _, c := range f.chunks(t, "docs") {
		switch c.FileName() {
		case "a.pdf":
			assert.Equal(t, "RT-1", c.Metadata[domain.MetaProductName])
			assert.Equal(t, "https://example.org/a", c.Metadata[domain.MetaDocumentURL])
		case "b.pdf":
			assert.Equal(t, "RT-2", c.Metadata[domain.MetaProductName])
			assert.NotContains(t, c.Metadata, domain.MetaDocumentURL)
		}
	}
}

func TestIngestionService_ListAndRemoveDocuments(t *testing.T) {
	f := newIngestFixture(t, map[string]string{
		"/docs/b.pdf": "beta\fmore",
		"/docs/a.pdf": "alpha",
	})
	ctx := context.Background()
	_, err := f.svc.Ingest(ctx, domain.IngestRequest{Folder: "/docs", Collection: "docs"})
	require.NoError(t, err)

	names, err := f.svc.ListDocuments(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, names)

	removed, err := f.svc.RemoveDocument(ctx, "docs", "b.pdf")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	names, err = f.svc.ListDocuments(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.pdf"}, names)

	_, err = f.svc.RemoveDocument(ctx, "docs", "b.pdf")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.ListDocuments(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIngestionService_ListCollections(t *testing.T) {
	f := newIngestFixture(t, map[string]string{"/docs/a.pdf": "alpha"})
	ctx := context.Background()
	_, err := f.svc.Ingest(ctx, domain.IngestRequest{Folder: "/docs", Collection: "docs"})
	require.NoError(t, err)

	names, err := f.svc.ListCollections(ctx)

	require.NoError(t, err)
	assert.Equal(t, []string{"docs"}, names)
}
