// Package docx provides a normaliser for Office Open XML word documents.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/citeqa/internal/core/domain"
	"github.com/custodia-labs/citeqa/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

const documentPart = "word/document.xml"

// Normaliser handles DOCX documents.
type Normaliser struct{}

// New creates a new DOCX normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedExtensions returns the extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{"docx"}
}

// Normalise extracts the body text of the document as a single unlabelled
// page. Paragraphs are separated by newlines and table cells by tabs.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) ([]domain.Page, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: nil document", domain.ErrValidation)
	}

	reader, err := zip.NewReader(bytes.NewReader(raw.Content), int64(len(raw.Content)))
	if err != nil {
		return nil, fmt.Errorf("%w: not a docx archive: %w", domain.ErrValidation, err)
	}

	part, err := reader.Open(documentPart)
	if err != nil {
		return nil, fmt.Errorf("%w: missing %s", domain.ErrValidation, documentPart)
	}
	defer part.Close()

	text, err := extractText(part)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", domain.ErrValidation, documentPart, err)
	}
	if text == "" {
		return nil, nil
	}
	return []domain.Page{{Text: text}}, nil
}

// extractText walks the WordprocessingML token stream and collects run text.
func extractText(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)
	var (
		out    strings.Builder
		inText bool
	)

	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				out.WriteByte('\t')
			case "br", "cr":
				out.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				out.WriteByte('\n')
			case "tc":
				trimTrailingNewline(&out)
				out.WriteByte('\t')
			case "tr":
				trimTrailingTab(&out)
				out.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				out.Write(t)
			}
		}
	}

	return strings.TrimSpace(out.String()), nil
}

func trimTrailingNewline(b *strings.Builder) {
	s := b.String()
	if strings.HasSuffix(s, "\n") {
		b.Reset()
		b.WriteString(strings.TrimSuffix(s, "\n"))
	}
}

func trimTrailingTab(b *strings.Builder) {
	s := b.String()
	if strings.HasSuffix(s, "\t") {
		b.Reset()
		b.WriteString(strings.TrimSuffix(s, "\t"))
	}
}
