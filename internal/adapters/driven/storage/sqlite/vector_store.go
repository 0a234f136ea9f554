package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/citeqa/internal/adapters/driven/storage/similarity"
	"github.com/custodia-labs/citeqa/internal/core/domain"
	"github.com/custodia-labs/citeqa/internal/core/ports/driven"
)

// vectorStore implements driven.VectorStore. Embeddings are stored as
// little-endian float32 blobs and ranked in process.
type vectorStore struct {
	store *Store
}

var _ driven.VectorStore = (*vectorStore)(nil)

// ListCollectionNames returns all collection names, sorted.
func (s *vectorStore) ListCollectionNames(ctx context.Context) ([]string, error) {
	rows, err := s.store.db.QueryContext(ctx, "SELECT name FROM collections ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("querying collections: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning collection: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating collections: %w", err)
	}
	return names, nil
}

// GetOrCreate ensures a collection exists.
func (s *vectorStore) GetOrCreate(ctx context.Context, name string) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO collections (name, created_at) VALUES (?, ?)
		ON CONFLICT(name) DO NOTHING
	`, name, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("creating collection: %w", err)
	}
	return nil
}

// Upsert writes chunks into a collection in one transaction.
func (s *vectorStore) Upsert(ctx context.Context, collection string, chunks []domain.DocumentChunk) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := lockCollection(ctx, tx, collection); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, collection, text, embedding, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET
			text = excluded.text,
			embedding = excluded.embedding,
			metadata = excluded.metadata
	`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i := range chunks {
		c := &chunks[i]
		metaJSON, err := marshalMetadata(c.Metadata)
		if err != nil {
			return err
		}
		createdAt := c.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		if _, err := stmt.ExecContext(ctx, c.ID, collection, c.Text,
			float32SliceToBytes(c.Embedding), metaJSON, createdAt); err != nil {
			return fmt.Errorf("upserting chunk %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing upsert: %w", err)
	}
	return nil
}

// SimilarityQuery returns the topK chunks most similar to embedding.
func (s *vectorStore) SimilarityQuery(
	ctx context.Context, collection string, embedding []float32, topK int,
) ([]domain.ScoredChunk, error) {
	if err := requireCollection(ctx, s.store.db, collection); err != nil {
		return nil, err
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, text, embedding, metadata, created_at
		FROM chunks WHERE collection = ? ORDER BY seq
	`, collection)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.DocumentChunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, *chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	vectors := make([][]float32, len(chunks))
	for i := range chunks {
		vectors[i] = chunks[i].Embedding
	}

	ranked := similarity.TopK(embedding, vectors, topK)
	results := make([]domain.ScoredChunk, len(ranked))
	for i, r := range ranked {
		results[i] = domain.ScoredChunk{Chunk: chunks[r.Index], Score: r.Score}
	}
	return results, nil
}

// GetByMetadataFilter returns chunks whose metadata matches every filter
// entry, in insertion order. Embeddings are not loaded.
func (s *vectorStore) GetByMetadataFilter(
	ctx context.Context, collection string, filter map[string]string,
) ([]domain.DocumentChunk, error) {
	if err := requireCollection(ctx, s.store.db, collection); err != nil {
		return nil, err
	}

	query := "SELECT id, text, NULL, metadata, created_at FROM chunks WHERE collection = ?"
	args := []any{collection}
	for key, value := range filter {
		query += " AND json_extract(metadata, ?) = ?"
		args = append(args, jsonPath(key), value)
	}
	query += " ORDER BY seq"

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.DocumentChunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, *chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return chunks, nil
}

// Delete removes chunks by ID.
func (s *vectorStore) Delete(ctx context.Context, collection string, ids []string) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := lockCollection(ctx, tx, collection); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, "DELETE FROM chunks WHERE collection = ? AND id = ?")
	if err != nil {
		return fmt.Errorf("preparing delete: %w", err)
	}
	defer stmt.Close()

	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, collection, id); err != nil {
			return fmt.Errorf("deleting chunk %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing delete: %w", err)
	}
	return nil
}

// UpdateMetadata replaces the metadata of each chunk in ids.
func (s *vectorStore) UpdateMetadata(
	ctx context.Context, collection string, ids []string, metadatas []map[string]any,
) error {
	if len(ids) != len(metadatas) {
		return fmt.Errorf("%w: %d ids but %d metadatas", domain.ErrValidation, len(ids), len(metadatas))
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := lockCollection(ctx, tx, collection); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, "UPDATE chunks SET metadata = ? WHERE collection = ? AND id = ?")
	if err != nil {
		return fmt.Errorf("preparing update: %w", err)
	}
	defer stmt.Close()

	for i, id := range ids {
		metaJSON, err := marshalMetadata(metadatas[i])
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, metaJSON, collection, id); err != nil {
			return fmt.Errorf("updating chunk %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing update: %w", err)
	}
	return nil
}

// Close is a no-op; the owning Store closes the database.
func (s *vectorStore) Close() error {
	return nil
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// requireCollection returns domain.ErrNotFound if collection does not exist.
func requireCollection(ctx context.Context, q querier, collection string) error {
	var one int
	err := q.QueryRowContext(ctx, "SELECT 1 FROM collections WHERE name = ?", collection).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("collection %q: %w", collection, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("checking collection: %w", err)
	}
	return nil
}

// lockCollection opens tx with a write, so it holds the write lock before
// reading, and returns domain.ErrNotFound if collection does not exist.
func lockCollection(ctx context.Context, tx *sql.Tx, collection string) error {
	res, err := tx.ExecContext(ctx, "UPDATE collections SET name = name WHERE name = ?", collection)
	if err != nil {
		return fmt.Errorf("locking collection: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("locking collection: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("collection %q: %w", collection, domain.ErrNotFound)
	}
	return nil
}

// jsonPath returns the JSON path selecting a top-level metadata key.
func jsonPath(key string) string {
	return `$."` + strings.ReplaceAll(key, `"`, `\"`) + `"`
}

// scanChunk scans a chunk from *sql.Rows.
func scanChunk(rows *sql.Rows) (*domain.DocumentChunk, error) {
	var chunk domain.DocumentChunk
	var embeddingBlob []byte
	var metadataJSON string
	var createdAt sql.NullTime

	if err := rows.Scan(&chunk.ID, &chunk.Text, &embeddingBlob, &metadataJSON, &createdAt); err != nil {
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}

	chunk.Embedding = bytesToFloat32Slice(embeddingBlob)
	meta, err := unmarshalMetadata(metadataJSON)
	if err != nil {
		return nil, fmt.Errorf("chunk %s: %w", chunk.ID, err)
	}
	chunk.Metadata = meta
	chunk.CreatedAt = timeOrZero(createdAt)

	return &chunk, nil
}
