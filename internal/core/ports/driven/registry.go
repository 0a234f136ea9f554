package driven

import (
	"context"

	"github.com/custodia-labs/citeqa/internal/core/domain"
)

// NormaliserRegistry dispatches raw files to the normaliser registered
// for their extension.
type NormaliserRegistry interface {
	// Normalise extracts pages using the matching normaliser.
	// Returns domain.ErrValidation for an unsupported extension.
	Normalise(ctx context.Context, raw *domain.RawDocument) ([]domain.Page, error)

	// Register adds a normaliser. A later registration for the same
	// extension replaces the earlier one.
	Register(normaliser Normaliser)

	// SupportedExtensions returns all extensions that can be normalised.
	SupportedExtensions() []string
}
