package driven

import (
	"context"

	"github.com/custodia-labs/citeqa/internal/core/domain"
)

// Normaliser extracts page text from a raw file.
// Each normaliser handles specific file extensions (e.g., pdf, docx).
type Normaliser interface {
	// SupportedExtensions returns lower-cased extensions without dots.
	SupportedExtensions() []string

	// Normalise extracts labelled pages of text. A file with no text
	// returns no pages and no error.
	Normalise(ctx context.Context, raw *domain.RawDocument) ([]domain.Page, error)
}
