package pdf

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/citeqa/internal/core/domain"
)

// buildPDF writes a minimal uncompressed PDF with one text line per page.
// An empty string produces a page with no content.
func buildPDF(pageTexts ...string) []byte {
	pageCount := len(pageTexts)
	// Objects: 1 catalog, 2 pages, 3 font, then a page and content pair per page.
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}
	kids := ""
	for i, text := range pageTexts {
		pageObj := 4 + i*2
		contentObj := pageObj + 1
		kids += fmt.Sprintf("%d 0 R ", pageObj)
		objects = append(objects, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>",
			contentObj))
		stream := ""
		if text != "" {
			stream = fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		}
		objects = append(objects, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream))
	}
	objects[1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, pageCount)

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestSupportedExtensions(t *testing.T) {
	assert.Equal(t, []string{"pdf"}, New().SupportedExtensions())
}

func TestNormalise_LabelsPages(t *testing.T) {
	raw := &domain.RawDocument{
		Name:      "pdri.pdf",
		Extension: "pdf",
		Content:   buildPDF("Project definition rating", "", "Scope of work"),
	}

	pages, err := New().Normalise(context.Background(), raw)

	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, "1", pages[0].Label)
	assert.Contains(t, pages[0].Text, "Project definition rating")
	assert.Equal(t, "3", pages[1].Label)
	assert.Contains(t, pages[1].Text, "Scope of work")
}

func TestNormalise_Invalid(t *testing.T) {
	_, err := New().Normalise(context.Background(), &domain.RawDocument{Name: "x.pdf", Content: []byte("not a pdf at all, just some text long enough to be read from the end of the file ok")})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestNormalise_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Normalise(ctx, &domain.RawDocument{Content: buildPDF("text")})

	assert.ErrorIs(t, err, context.Canceled)
}
