package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/citeqa/internal/core/domain"
	"github.com/custodia-labs/citeqa/internal/core/ports/driven"
	"github.com/custodia-labs/citeqa/internal/core/ports/driving"
	"github.com/custodia-labs/citeqa/internal/logger"
)

// Ensure PromptService implements the interface.
var _ driving.PromptService = (*PromptService)(nil)

// PromptService manages versioned prompt templates and resolves the
// template to use for synthesis.
type PromptService struct {
	repo driven.PromptVersionRepository
}

// NewPromptService creates a new prompt service.
func NewPromptService(repo driven.PromptVersionRepository) *PromptService {
	return &PromptService{repo: repo}
}

// Create stores a new inactive version of name.
func (s *PromptService) Create(
	ctx context.Context, name, content, description string,
) (domain.SystemPromptVersion, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.SystemPromptVersion{}, fmt.Errorf("%w: prompt name is required", domain.ErrValidation)
	}
	if err := validateTemplate(name, content); err != nil {
		return domain.SystemPromptVersion{}, err
	}

	v, err := s.repo.Create(ctx, name, content, description)
	if err != nil {
		return domain.SystemPromptVersion{}, fmt.Errorf("create prompt %q: %w", name, err)
	}
	logger.Debug("Created prompt %s v%d", v.Name, v.Version)
	return v, nil
}

// Update stores a new inactive version copied from the version with the
// given ID. The source version is never modified.
func (s *PromptService) Update(
	ctx context.Context, id string, content, description *string,
) (domain.SystemPromptVersion, error) {
	base, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.SystemPromptVersion{}, fmt.Errorf("get prompt version %s: %w", id, err)
	}

	newContent := base.Content
	if content != nil {
		newContent = *content
	}
	newDescription := base.Description
	if description != nil {
		newDescription = *description
	}

	if err := validateTemplate(base.Name, newContent); err != nil {
		return domain.SystemPromptVersion{}, err
	}

	v, err := s.repo.Create(ctx, base.Name, newContent, newDescription)
	if err != nil {
		return domain.SystemPromptVersion{}, fmt.Errorf("update prompt %q: %w", base.Name, err)
	}
	logger.Debug("Updated prompt %s v%d -> v%d", v.Name, base.Version, v.Version)
	return v, nil
}

// Activate makes (name, version) the only active version of name.
func (s *PromptService) Activate(ctx context.Context, name string, version int) error {
	if version <= 0 {
		return fmt.Errorf("%w: version must be positive", domain.ErrValidation)
	}
	if err := s.repo.Activate(ctx, name, version); err != nil {
		return fmt.Errorf("activate prompt %s v%d: %w", name, version, err)
	}
	logger.Info("Activated prompt %s v%d", name, version)
	return nil
}

// Delete removes an inactive version.
func (s *PromptService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete prompt version %s: %w", id, err)
	}
	return nil
}

// Get returns a version by ID.
func (s *PromptService) Get(ctx context.Context, id string) (*domain.SystemPromptVersion, error) {
	return s.repo.Get(ctx, id)
}

// List returns the versions of name, or of every name when empty.
func (s *PromptService) List(ctx context.Context, name string) ([]domain.SystemPromptVersion, error) {
	return s.repo.List(ctx, name)
}

// Import creates one version per seed, activating flagged seeds.
func (s *PromptService) Import(ctx context.Context, seeds []domain.PromptSeed) ([]domain.SystemPromptVersion, error) {
	for i, seed := range seeds {
		if strings.TrimSpace(seed.Name) == "" {
			return nil, fmt.Errorf("%w: prompt %d has no name", domain.ErrValidation, i+1)
		}
		if err := validateTemplate(strings.TrimSpace(seed.Name), seed.Content); err != nil {
			return nil, fmt.Errorf("prompt %d: %w", i+1, err)
		}
	}

	created := make([]domain.SystemPromptVersion, 0, len(seeds))
	for _, seed := range seeds {
		v, err := s.Create(ctx, seed.Name, seed.Content, seed.Description)
		if err != nil {
			return created, err
		}
		if seed.Activate {
			if err := s.Activate(ctx, v.Name, v.Version); err != nil {
				return created, err
			}
			v.IsActive = true
		}
		created = append(created, v)
	}
	logger.Info("Imported %d prompt versions", len(created))
	return created, nil
}

// GetActive resolves the template for name. A stored active version wins;
// otherwise the builtin default is returned. Names with neither return
// domain.ErrNotFound.
func (s *PromptService) GetActive(ctx context.Context, name string) (domain.Template, error) {
	v, err := s.repo.GetActive(ctx, name)
	switch {
	case err == nil:
		return domain.StoredTemplate(*v), nil
	case !errors.Is(err, domain.ErrNotFound):
		return domain.Template{}, fmt.Errorf("get active prompt %q: %w", name, err)
	}

	if text, ok := BuiltinTemplate(name); ok {
		return domain.BuiltinTemplate(name, text), nil
	}
	return domain.Template{}, fmt.Errorf("prompt %q: %w", name, domain.ErrNotFound)
}

// BuiltinNames returns the names that have builtin defaults, sorted.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtinTemplates))
	for name := range builtinTemplates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// validateTemplate rejects empty content and, for known names, content
// missing a required placeholder.
func validateTemplate(name, content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("%w: prompt content is required", domain.ErrValidation)
	}
	var missing []string
	for _, p := range domain.RequiredPlaceholders(name) {
		if !strings.Contains(content, p) {
			missing = append(missing, p)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s must contain %s", domain.ErrValidation, name, strings.Join(missing, ", "))
	}
	return nil
}
