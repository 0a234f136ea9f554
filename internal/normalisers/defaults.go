package normalisers

import (
	"github.com/custodia-labs/citeqa/internal/normalisers/docx"
	"github.com/custodia-labs/citeqa/internal/normalisers/markdown"
	"github.com/custodia-labs/citeqa/internal/normalisers/pdf"
	"github.com/custodia-labs/citeqa/internal/normalisers/plaintext"
	"github.com/custodia-labs/citeqa/internal/normalisers/xlsx"
)

// DefaultRegistry returns a registry with every built-in normaliser.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(pdf.New())
	r.Register(docx.New())
	r.Register(xlsx.New())
	r.Register(markdown.New())
	r.Register(plaintext.New())
	return r
}
