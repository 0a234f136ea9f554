package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/citeqa/internal/core/domain"
)

const wordNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

// createTestDOCX creates a minimal DOCX archive in memory.
func createTestDOCX(t *testing.T, body string) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)

	ct, err := w.Create("[Content_Types].xml")
	require.NoError(t, err)
	_, err = ct.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`))
	require.NoError(t, err)

	if body != "" {
		doc, err := w.Create("word/document.xml")
		require.NoError(t, err)
		_, err = doc.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><w:document ` + wordNS + `><w:body>` + body + `</w:body></w:document>`))
		require.NoError(t, err)
	}

	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestSupportedExtensions(t *testing.T) {
	assert.Equal(t, []string{"docx"}, New().SupportedExtensions())
}

func TestNormalise(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "paragraphs",
			body: `<w:p><w:r><w:t>First</w:t></w:r></w:p><w:p><w:r><w:t xml:space="preserve">Second </w:t></w:r><w:r><w:t>line</w:t></w:r></w:p>`,
			want: "First\nSecond line",
		},
		{
			name: "tab and break",
			body: `<w:p><w:r><w:t>a</w:t><w:tab/><w:t>b</w:t><w:br/><w:t>c</w:t></w:r></w:p>`,
			want: "a\tb\nc",
		},
		{
			name: "table",
			body: `<w:tbl><w:tr><w:tc><w:p><w:r><w:t>Phase</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>Score</w:t></w:r></w:p></w:tc></w:tr></w:tbl>`,
			want: "Phase\tScore",
		},
		{
			name: "ignores instruction text",
			body: `<w:p><w:r><w:instrText>PAGE</w:instrText><w:t>kept</w:t></w:r></w:p>`,
			want: "kept",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := &domain.RawDocument{Name: "doc.docx", Extension: "docx", Content: createTestDOCX(t, tt.body)}

			pages, err := New().Normalise(context.Background(), raw)

			require.NoError(t, err)
			require.Len(t, pages, 1)
			assert.Empty(t, pages[0].Label)
			assert.Equal(t, tt.want, pages[0].Text)
		})
	}
}

func TestNormalise_EmptyBody(t *testing.T) {
	raw := &domain.RawDocument{Content: createTestDOCX(t, `<w:p/>`)}

	pages, err := New().Normalise(context.Background(), raw)

	require.NoError(t, err)
	assert.Empty(t, pages)
}

func TestNormalise_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  *domain.RawDocument
	}{
		{name: "nil", raw: nil},
		{name: "not a zip", raw: &domain.RawDocument{Content: []byte("plain text")}},
		{name: "missing document part", raw: &domain.RawDocument{Content: createTestDOCX(t, "")}},
		{name: "malformed xml", raw: &domain.RawDocument{Content: createTestDOCX(t, `<w:p><w:r>`)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New().Normalise(context.Background(), tt.raw)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}
