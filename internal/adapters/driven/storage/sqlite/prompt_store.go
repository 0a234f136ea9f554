package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/citeqa/internal/core/domain"
	"github.com/custodia-labs/citeqa/internal/core/ports/driven"
)

// promptStore implements driven.PromptVersionRepository.
type promptStore struct {
	store *Store
}

var _ driven.PromptVersionRepository = (*promptStore)(nil)

// Create inserts an inactive version numbered after the highest existing
// version of name. Allocation and insert happen in a single statement, so
// concurrent creates never share a number.
func (s *promptStore) Create(
	ctx context.Context, name, content, description string,
) (domain.SystemPromptVersion, error) {
	v := domain.SystemPromptVersion{
		ID:          uuid.New().String(),
		Name:        name,
		Content:     content,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}

	row := s.store.db.QueryRowContext(ctx, `
		INSERT INTO prompt_versions (id, name, version, content, description, is_active, created_at)
		SELECT ?, ?, COALESCE(MAX(version), 0) + 1, ?, ?, 0, ?
		FROM prompt_versions WHERE name = ?
		RETURNING version
	`, v.ID, v.Name, v.Content, v.Description, v.CreatedAt, v.Name)
	if err := row.Scan(&v.Version); err != nil {
		return domain.SystemPromptVersion{}, fmt.Errorf("inserting prompt version: %w", err)
	}
	return v, nil
}

// Get retrieves a version by ID.
func (s *promptStore) Get(ctx context.Context, id string) (*domain.SystemPromptVersion, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, name, version, content, description, is_active, created_at
		FROM prompt_versions WHERE id = ?
	`, id)
	return scanPromptVersion(row)
}

// List returns versions of name ordered by version, or of every name when
// name is empty.
func (s *promptStore) List(ctx context.Context, name string) ([]domain.SystemPromptVersion, error) {
	query := `
		SELECT id, name, version, content, description, is_active, created_at
		FROM prompt_versions`
	var args []any
	if name != "" {
		query += " WHERE name = ?"
		args = append(args, name)
	}
	query += " ORDER BY name, version"

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying prompt versions: %w", err)
	}
	defer rows.Close()

	var versions []domain.SystemPromptVersion //nolint:prealloc // size unknown from query
	for rows.Next() {
		v, err := scanPromptVersion(rows)
		if err != nil {
			return nil, err
		}
		versions = append(versions, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating prompt versions: %w", err)
	}
	return versions, nil
}

// Activate makes (name, version) the only active version of name in one
// transaction. The transaction opens with a write, so it holds the write
// lock for the whole transition. A missing target leaves the previously
// active version in place.
func (s *promptStore) Activate(ctx context.Context, name string, version int) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	// The unique index on active versions is checked per row, so the
	// current version is cleared before the target is set.
	if _, err := tx.ExecContext(ctx,
		"UPDATE prompt_versions SET is_active = 0 WHERE name = ? AND is_active = 1", name); err != nil {
		return fmt.Errorf("deactivating prompt versions: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		"UPDATE prompt_versions SET is_active = 1 WHERE name = ? AND version = ?", name, version)
	if err != nil {
		return fmt.Errorf("activating prompt version: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("activating prompt version: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("prompt %s v%d: %w", name, version, domain.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing activation: %w", err)
	}
	return nil
}

// Delete removes an inactive version.
func (s *promptStore) Delete(ctx context.Context, id string) error {
	res, err := s.store.db.ExecContext(ctx,
		"DELETE FROM prompt_versions WHERE id = ? AND is_active = 0", id)
	if err != nil {
		return fmt.Errorf("deleting prompt version: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting prompt version: %w", err)
	}
	if n > 0 {
		return nil
	}

	v, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: cannot delete active version %s v%d", domain.ErrInvalidOperation, v.Name, v.Version)
}

// GetActive returns the active version of name.
func (s *promptStore) GetActive(ctx context.Context, name string) (*domain.SystemPromptVersion, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, name, version, content, description, is_active, created_at
		FROM prompt_versions WHERE name = ? AND is_active = 1
	`, name)
	return scanPromptVersion(row)
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanPromptVersion scans a prompt version row.
func scanPromptVersion(row rowScanner) (*domain.SystemPromptVersion, error) {
	var v domain.SystemPromptVersion
	var createdAt sql.NullTime
	if err := row.Scan(&v.ID, &v.Name, &v.Version, &v.Content, &v.Description,
		&v.IsActive, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning prompt version: %w", err)
	}
	v.CreatedAt = timeOrZero(createdAt)
	return &v, nil
}
