package driven

import (
	"context"

	"github.com/custodia-labs/citeqa/internal/core/domain"
)

// PromptVersionRepository persists prompt template versions.
//
// Implementations must keep at most one active version per name at all
// times, including while Activate is in progress.
type PromptVersionRepository interface {
	// Create inserts an inactive version numbered max(existing)+1 for name,
	// or 1 for a new name. Allocation is atomic with the insert.
	Create(ctx context.Context, name, content, description string) (domain.SystemPromptVersion, error)

	// Get returns a version by ID, or domain.ErrNotFound.
	Get(ctx context.Context, id string) (*domain.SystemPromptVersion, error)

	// List returns versions for name ordered by version, or every version
	// ordered by name then version when name is empty.
	List(ctx context.Context, name string) ([]domain.SystemPromptVersion, error)

	// Activate makes (name, version) the only active version for name in one
	// atomic step. Returns domain.ErrNotFound if the version does not exist.
	Activate(ctx context.Context, name string, version int) error

	// Delete removes a version. Returns domain.ErrInvalidOperation if it is
	// active and domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, id string) error

	// GetActive returns the active version for name, or domain.ErrNotFound.
	GetActive(ctx context.Context, name string) (*domain.SystemPromptVersion, error)
}
