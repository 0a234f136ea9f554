package services

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/citeqa/internal/core/domain"
	"github.com/custodia-labs/citeqa/internal/core/ports/driven"
	"github.com/custodia-labs/citeqa/internal/core/ports/driving"
	"github.com/custodia-labs/citeqa/internal/logger"
)

// Ensure IngestionService implements the interface.
var _ driving.IngestionService = (*IngestionService)(nil)

// IngestionConfig configures an IngestionService.
type IngestionConfig struct {
	// Extensions is the allow-list of file extensions, without dots.
	Extensions []string

	// BatchSize is the number of chunks per embedding request.
	BatchSize int

	// Concurrency bounds parallel embedding requests.
	Concurrency int
}

// IngestionService loads files into vector collections incrementally.
// A file already represented in a collection is never reloaded or
// re-embedded, and each call either writes all of its chunks or none.
type IngestionService struct {
	store       driven.VectorStore
	embedder    driven.EmbeddingService
	files       driven.FileSource
	normalisers driven.NormaliserRegistry
	chunker     driven.Chunker
	cfg         IngestionConfig
	locks       *collectionLocks
}

// NewIngestionService creates a new ingestion service.
func NewIngestionService(
	store driven.VectorStore,
	embedder driven.EmbeddingService,
	files driven.FileSource,
	normalisers driven.NormaliserRegistry,
	chunker driven.Chunker,
	cfg IngestionConfig,
) *IngestionService {
	cfg.Extensions = AllowedExtensions(cfg.Extensions)
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = domain.DefaultBatchSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = domain.DefaultConcurrency
	}
	return &IngestionService{
		store:       store,
		embedder:    embedder,
		files:       files,
		normalisers: normalisers,
		chunker:     chunker,
		cfg:         cfg,
		locks:       newCollectionLocks(),
	}
}

// Ingest adds every allow-listed file under req.Folder that is not yet in
// the collection.
func (s *IngestionService) Ingest(ctx context.Context, req domain.IngestRequest) (domain.IngestResult, error) {
	logger.Section("Ingest")
	if strings.TrimSpace(req.Collection) == "" {
		return domain.IngestResult{}, fmt.Errorf("%w: collection name is required", domain.ErrValidation)
	}

	unlock := s.locks.lock(req.Collection)
	defer unlock()

	existing, err := s.existingFileNames(ctx, req.Collection)
	if err != nil {
		return domain.IngestResult{}, err
	}
	logger.Debug("Collection %q already holds %d files", req.Collection, len(existing))

	paths, err := s.files.List(ctx, req.Folder, s.cfg.Extensions)
	if err != nil {
		return domain.IngestResult{}, fmt.Errorf("list %s: %w", req.Folder, err)
	}

	var result domain.IngestResult
	var fresh []string
	chosen := make(map[string]bool)
	for _, path := range paths {
		name := filepath.Base(path)
		if existing[name] {
			continue
		}
		if chosen[name] {
			logger.Warn("Skipping %s: another file named %q is already being ingested", path, name)
			result.Skipped = append(result.Skipped, path)
			continue
		}
		chosen[name] = true
		fresh = append(fresh, path)
	}

	if len(fresh) == 0 {
		logger.Info("No new files in %s", req.Folder)
		return result, nil
	}
	logger.Info("Ingesting %d new files into %q", len(fresh), req.Collection)

	written, err := s.ingestPaths(ctx, req.Collection, fresh, req.DocumentURL, req.ProductName)
	if err != nil {
		return domain.IngestResult{}, err
	}
	result.ChunksAdded = written.ChunksAdded
	result.Files = written.Files
	result.Empty = written.Empty
	return result, nil
}

// IngestFile adds one file. Its name must not already be in the collection.
func (s *IngestionService) IngestFile(
	ctx context.Context, path, collection, documentURL, productName string,
) (domain.IngestResult, error) {
	logger.Section("Ingest File")
	if strings.TrimSpace(collection) == "" {
		return domain.IngestResult{}, fmt.Errorf("%w: collection name is required", domain.ErrValidation)
	}
	ext := normaliseExtension(filepath.Ext(path))
	if !slices.Contains(s.cfg.Extensions, ext) {
		return domain.IngestResult{}, fmt.Errorf("%w: unsupported file extension %q", domain.ErrValidation, ext)
	}

	unlock := s.locks.lock(collection)
	defer unlock()

	existing, err := s.existingFileNames(ctx, collection)
	if err != nil {
		return domain.IngestResult{}, err
	}
	name := filepath.Base(path)
	if existing[name] {
		return domain.IngestResult{}, fmt.Errorf("%w: %q is already in collection %q", domain.ErrValidation, name, collection)
	}

	return s.ingestPaths(ctx, collection, []string{path}, documentURL, productName)
}

// ingestPaths loads, chunks and embeds paths, then writes every chunk in
// one upsert. Nothing is written if any step fails. Only files that
// produced chunks are reported in Files. Callers hold the collection lock.
func (s *IngestionService) ingestPaths(
	ctx context.Context, collection string, paths []string, documentURL, productName string,
) (domain.IngestResult, error) {
	var result domain.IngestResult
	if s.embedder == nil {
		return result, domain.ErrEmbeddingUnavailable
	}

	var chunks []domain.DocumentChunk
	for _, path := range paths {
		fileChunks, err := s.loadFile(ctx, path)
		if err != nil {
			return domain.IngestResult{}, fmt.Errorf("%w: load %s: %w", domain.ErrIngestionFailure, path, err)
		}
		if len(fileChunks) == 0 {
			logger.Warn("%s produced no text", path)
			result.Empty = append(result.Empty, filepath.Base(path))
			continue
		}
		result.Files = append(result.Files, filepath.Base(path))
		for i := range fileChunks {
			if documentURL != "" {
				fileChunks[i].Metadata[domain.MetaDocumentURL] = documentURL
			}
			if productName != "" {
				fileChunks[i].Metadata[domain.MetaProductName] = productName
			}
		}
		chunks = append(chunks, fileChunks...)
	}
	if len(chunks) == 0 {
		return result, nil
	}

	if err := s.embedChunks(ctx, chunks); err != nil {
		return domain.IngestResult{}, fmt.Errorf("%w: %w", domain.ErrIngestionFailure, err)
	}

	if err := s.store.GetOrCreate(ctx, collection); err != nil {
		return domain.IngestResult{}, fmt.Errorf("%w: create collection %q: %w", domain.ErrIngestionFailure, collection, err)
	}
	if err := s.store.Upsert(ctx, collection, chunks); err != nil {
		return domain.IngestResult{}, fmt.Errorf("%w: upsert into %q: %w", domain.ErrIngestionFailure, collection, err)
	}
	logger.Info("Added %d chunks from %d files to %q", len(chunks), len(result.Files), collection)
	result.ChunksAdded = len(chunks)
	return result, nil
}

// loadFile reads, normalises and chunks one file.
func (s *IngestionService) loadFile(ctx context.Context, path string) ([]domain.DocumentChunk, error) {
	content, err := s.files.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	raw := &domain.RawDocument{
		Path:      path,
		Name:      filepath.Base(path),
		Extension: normaliseExtension(filepath.Ext(path)),
		Content:   content,
	}
	pages, err := s.normalisers.Normalise(ctx, raw)
	if err != nil {
		return nil, err
	}
	logger.Debug("%s: %d pages", raw.Name, len(pages))
	return s.chunker.Chunk(ctx, raw, pages)
}

// embedChunks fills in chunk embeddings, sending batches in parallel.
// The first failure cancels the remaining batches.
func (s *IngestionService) embedChunks(ctx context.Context, chunks []domain.DocumentChunk) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)

	total := (len(chunks) + s.cfg.BatchSize - 1) / s.cfg.BatchSize
	for start := 0; start < len(chunks); start += s.cfg.BatchSize {
		end := min(start+s.cfg.BatchSize, len(chunks))
		g.Go(func() error {
			texts := make([]string, end-start)
			for i := range texts {
				texts[i] = chunks[start+i].Text
			}
			logger.Debug("Embedding batch %d/%d (%d chunks)", start/s.cfg.BatchSize+1, total, len(texts))

			vectors, err := s.embedder.EmbedBatch(gctx, texts)
			if err != nil {
				return fmt.Errorf("embed batch at chunk %d: %w", start, err)
			}
			if len(vectors) != len(texts) {
				return fmt.Errorf("embed batch at chunk %d: got %d vectors for %d texts", start, len(vectors), len(texts))
			}
			for i, v := range vectors {
				if len(v) == 0 {
					return fmt.Errorf("embed batch at chunk %d: empty vector at %d", start, i)
				}
				chunks[start+i].Embedding = v
			}
			return nil
		})
	}
	return g.Wait()
}

// BackfillURLs sets document_url on every chunk lacking one.
func (s *IngestionService) BackfillURLs(ctx context.Context, collection, defaultURL string) (int, error) {
	logger.Section("Backfill URLs")
	if strings.TrimSpace(defaultURL) == "" {
		return 0, fmt.Errorf("%w: default URL is required", domain.ErrValidation)
	}

	unlock := s.locks.lock(collection)
	defer unlock()

	chunks, err := s.allChunks(ctx, collection)
	if err != nil {
		return 0, err
	}

	var ids []string
	var metas []map[string]any
	for _, chunk := range chunks {
		if url, ok, _ := chunk.MetadataString(domain.MetaDocumentURL); ok && url != "" {
			continue
		}
		meta := domain.CopyMetadata(chunk.Metadata)
		if meta == nil {
			meta = make(map[string]any)
		}
		meta[domain.MetaDocumentURL] = defaultURL
		ids = append(ids, chunk.ID)
		metas = append(metas, meta)
	}

	if len(ids) == 0 {
		logger.Info("All %d chunks in %q already have a document URL", len(chunks), collection)
		return 0, nil
	}
	if err := s.store.UpdateMetadata(ctx, collection, ids, metas); err != nil {
		return 0, fmt.Errorf("update metadata: %w", err)
	}
	logger.Info("Backfilled document URL on %d chunks", len(ids))
	return len(ids), nil
}

// ApplyCatalog sets product_name and document_url on the chunks of every
// catalogued file. Empty catalogue fields leave existing values untouched.
func (s *IngestionService) ApplyCatalog(
	ctx context.Context, collection string, records []domain.CatalogRecord,
) (domain.CatalogResult, error) {
	logger.Section("Apply Catalog")

	unlock := s.locks.lock(collection)
	defer unlock()

	chunks, err := s.allChunks(ctx, collection)
	if err != nil {
		return domain.CatalogResult{}, err
	}

	byFile := make(map[string][]int)
	for i := range chunks {
		name := chunks[i].FileName()
		byFile[name] = append(byFile[name], i)
	}

	var result domain.CatalogResult
	updated := make(map[int]map[string]any)
	for _, rec := range records {
		name := strings.TrimSpace(rec.FileName)
		if name == "" {
			continue
		}
		idxs, ok := byFile[name]
		if !ok {
			result.Missing = append(result.Missing, name)
			continue
		}
		result.UpdatedFiles++
		for _, i := range idxs {
			meta, seen := updated[i]
			if !seen {
				meta = domain.CopyMetadata(chunks[i].Metadata)
				if meta == nil {
					meta = make(map[string]any)
				}
				updated[i] = meta
			}
			if rec.ProductName != "" {
				meta[domain.MetaProductName] = rec.ProductName
			}
			if rec.DocumentURL != "" {
				meta[domain.MetaDocumentURL] = rec.DocumentURL
			}
		}
	}

	if len(updated) == 0 {
		return result, nil
	}

	order := make([]int, 0, len(updated))
	for i := range updated {
		order = append(order, i)
	}
	sort.Ints(order)
	ids := make([]string, len(order))
	metas := make([]map[string]any, len(order))
	for n, i := range order {
		ids[n] = chunks[i].ID
		metas[n] = updated[i]
	}
	if err := s.store.UpdateMetadata(ctx, collection, ids, metas); err != nil {
		return domain.CatalogResult{}, fmt.Errorf("update metadata: %w", err)
	}
	result.UpdatedChunks = len(ids)
	logger.Info("Catalog updated %d chunks across %d files", result.UpdatedChunks, result.UpdatedFiles)
	return result, nil
}

// ListDocuments returns the sorted, unique file names in a collection.
func (s *IngestionService) ListDocuments(ctx context.Context, collection string) ([]string, error) {
	chunks, err := s.allChunks(ctx, collection)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var names []string
	for _, chunk := range chunks {
		name := chunk.FileName()
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// RemoveDocument deletes every chunk of fileName from a collection.
func (s *IngestionService) RemoveDocument(ctx context.Context, collection, fileName string) (int, error) {
	unlock := s.locks.lock(collection)
	defer unlock()

	if _, err := s.allChunks(ctx, collection); err != nil {
		return 0, err
	}
	chunks, err := s.store.GetByMetadataFilter(ctx, collection, map[string]string{domain.MetaFileName: fileName})
	if err != nil {
		return 0, fmt.Errorf("find chunks of %q: %w", fileName, err)
	}
	if len(chunks) == 0 {
		return 0, fmt.Errorf("document %q: %w", fileName, domain.ErrNotFound)
	}

	ids := make([]string, len(chunks))
	for i := range chunks {
		ids[i] = chunks[i].ID
	}
	if err := s.store.Delete(ctx, collection, ids); err != nil {
		return 0, fmt.Errorf("delete chunks of %q: %w", fileName, err)
	}
	logger.Info("Removed %d chunks of %q from %q", len(ids), fileName, collection)
	return len(ids), nil
}

// ListCollections returns all collection names.
func (s *IngestionService) ListCollections(ctx context.Context) ([]string, error) {
	return s.store.ListCollectionNames(ctx)
}

// existingFileNames returns the file names already in a collection.
// A missing collection yields an empty set.
func (s *IngestionService) existingFileNames(ctx context.Context, collection string) (map[string]bool, error) {
	names, err := s.store.ListCollectionNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	existing := make(map[string]bool)
	if !slices.Contains(names, collection) {
		return existing, nil
	}

	chunks, err := s.store.GetByMetadataFilter(ctx, collection, nil)
	if err != nil {
		return nil, fmt.Errorf("scan collection %q: %w", collection, err)
	}
	for _, chunk := range chunks {
		if name := chunk.FileName(); name != "" {
			existing[name] = true
		}
	}
	return existing, nil
}

// allChunks returns every chunk in an existing collection.
func (s *IngestionService) allChunks(ctx context.Context, collection string) ([]domain.DocumentChunk, error) {
	names, err := s.store.ListCollectionNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	if !slices.Contains(names, collection) {
		return nil, fmt.Errorf("collection %q: %w", collection, domain.ErrNotFound)
	}
	chunks, err := s.store.GetByMetadataFilter(ctx, collection, nil)
	if err != nil {
		return nil, fmt.Errorf("scan collection %q: %w", collection, err)
	}
	return chunks, nil
}

// normaliseExtension lower-cases ext and strips a leading dot.
// AllowedExtensions lower-cases exts and strips leading dots. An empty
// list yields the default allow-list.
func AllowedExtensions(exts []string) []string {
	if len(exts) == 0 {
		exts = domain.DefaultExtensions()
	}
	out := make([]string, len(exts))
	for i, ext := range exts {
		out[i] = normaliseExtension(ext)
	}
	return out
}

// Extensions returns the allow-list this service ingests.
func (s *IngestionService) Extensions() []string {
	return slices.Clone(s.cfg.Extensions)
}

func normaliseExtension(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// collectionLocks serialises writers per collection name.
type collectionLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newCollectionLocks() *collectionLocks {
	return &collectionLocks{locks: make(map[string]*sync.Mutex)}
}

// lock acquires the mutex for name and returns its release function.
func (c *collectionLocks) lock(name string) func() {
	c.mu.Lock()
	m, ok := c.locks[name]
	if !ok {
		m = &sync.Mutex{}
		c.locks[name] = m
	}
	c.mu.Unlock()

	start := time.Now()
	m.Lock()
	if waited := time.Since(start); waited > time.Second {
		logger.Debug("Waited %s for collection %q", waited.Round(time.Millisecond), name)
	}
	return m.Unlock
}
