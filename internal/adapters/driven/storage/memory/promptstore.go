package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/citeqa/internal/core/domain"
	"github.com/custodia-labs/citeqa/internal/core/ports/driven"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptVersionRepository = (*PromptStore)(nil)

// PromptStore is an in-memory implementation of driven.PromptVersionRepository.
type PromptStore struct {
	mu       sync.RWMutex
	versions map[string]domain.SystemPromptVersion
}

// NewPromptStore creates a new in-memory prompt store.
func NewPromptStore() *PromptStore {
	return &PromptStore{
		versions: make(map[string]domain.SystemPromptVersion),
	}
}

// Create inserts an inactive version numbered after the highest existing one.
func (s *PromptStore) Create(
	_ context.Context, name, content, description string,
) (domain.SystemPromptVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := 1
	for _, v := range s.versions {
		if v.Name == name && v.Version >= next {
			next = v.Version + 1
		}
	}

	v := domain.SystemPromptVersion{
		ID:          uuid.New().String(),
		Name:        name,
		Version:     next,
		Content:     content,
		Description: description,
		CreatedAt:   time.Now(),
	}
	s.versions[v.ID] = v
	return v, nil
}

// Get returns a version by ID.
func (s *PromptStore) Get(_ context.Context, id string) (*domain.SystemPromptVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.versions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &v, nil
}

// List returns versions for name, or all versions when name is empty.
func (s *PromptStore) List(_ context.Context, name string) ([]domain.SystemPromptVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.SystemPromptVersion
	for _, v := range s.versions {
		if name == "" || v.Name == name {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Version < out[j].Version
	})
	return out, nil
}

// Activate makes (name, version) the only active version of name.
// The store lock is held for the whole transition.
func (s *PromptStore) Activate(_ context.Context, name string, version int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	targetID := ""
	for id, v := range s.versions {
		if v.Name == name && v.Version == version {
			targetID = id
			break
		}
	}
	if targetID == "" {
		return fmt.Errorf("prompt %s v%d: %w", name, version, domain.ErrNotFound)
	}

	for id, v := range s.versions {
		if v.Name == name {
			v.IsActive = id == targetID
			s.versions[id] = v
		}
	}
	return nil
}

// Delete removes an inactive version.
func (s *PromptStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.versions[id]
	if !ok {
		return domain.ErrNotFound
	}
	if v.IsActive {
		return fmt.Errorf("%w: cannot delete active version %s v%d", domain.ErrInvalidOperation, v.Name, v.Version)
	}
	delete(s.versions, id)
	return nil
}

// GetActive returns the active version for name.
func (s *PromptStore) GetActive(_ context.Context, name string) (*domain.SystemPromptVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.versions {
		if v.Name == name && v.IsActive {
			return &v, nil
		}
	}
	return nil, domain.ErrNotFound
}
