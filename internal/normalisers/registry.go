package normalisers

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/citeqa/internal/core/domain"
	"github.com/custodia-labs/citeqa/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry maps file extensions to normalisers.
type Registry struct {
	mu          sync.RWMutex
	normalisers map[string]driven.Normaliser
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{normalisers: make(map[string]driven.Normaliser)}
}

// Register adds a normaliser for each of its extensions.
// A later registration for the same extension replaces the earlier one.
func (r *Registry) Register(normaliser driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range normaliser.SupportedExtensions() {
		r.normalisers[strings.ToLower(strings.TrimPrefix(ext, "."))] = normaliser
	}
}

// Normalise extracts pages using the normaliser registered for raw.Extension.
func (r *Registry) Normalise(ctx context.Context, raw *domain.RawDocument) ([]domain.Page, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: nil document", domain.ErrValidation)
	}

	ext := strings.ToLower(strings.TrimPrefix(raw.Extension, "."))
	r.mu.RLock()
	normaliser, ok := r.normalisers[ext]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: unsupported file type %q", domain.ErrValidation, raw.Extension)
	}

	pages, err := normaliser.Normalise(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("normalise %s: %w", raw.Name, err)
	}
	return pages, nil
}

// SupportedExtensions returns all registered extensions, sorted.
func (r *Registry) SupportedExtensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make([]string, 0, len(r.normalisers))
	for ext := range r.normalisers {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
