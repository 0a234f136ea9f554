package driving

import (
	"context"

	"github.com/custodia-labs/citeqa/internal/core/domain"
)

// PromptService manages versioned prompt templates.
type PromptService interface {
	// Create stores a new inactive version of name and returns it.
	Create(ctx context.Context, name, content, description string) (domain.SystemPromptVersion, error)

	// Update stores a new inactive version copied from version id, with
	// content and description replaced when non-nil.
	Update(ctx context.Context, id string, content, description *string) (domain.SystemPromptVersion, error)

	// Activate makes (name, version) the only active version of name.
	Activate(ctx context.Context, name string, version int) error

	// Delete removes an inactive version.
	Delete(ctx context.Context, id string) error

	// Get returns a version by ID.
	Get(ctx context.Context, id string) (*domain.SystemPromptVersion, error)

	// List returns the versions of name, or of every name when empty.
	List(ctx context.Context, name string) ([]domain.SystemPromptVersion, error)

	// Import validates every seed, then creates one version per seed and
	// activates the flagged ones. A seed that fails validation aborts the
	// import before anything is written.
	Import(ctx context.Context, seeds []domain.PromptSeed) ([]domain.SystemPromptVersion, error)

	// GetActive resolves the template to use for name: the active stored
	// version, else the builtin default.
	GetActive(ctx context.Context, name string) (domain.Template, error)
}
