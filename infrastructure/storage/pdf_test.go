package storage

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makePDF writes a minimal uncompressed PDF with one text line per page.
func makePDF(t *testing.T, pages ...string) []byte {
	t.Helper()
	n := len(pages)
	fontObj := 3 + 2*n

	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
	}
	kids := make([]string, n)
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 3+2*i)
	}
	objs = append(objs, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), n))
	for i, text := range pages {
		content := fmt.Sprintf("BT /F1 12 Tf 72 712 Td (%s) Tj ET", text)
		objs = append(objs,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R >>", fontObj, 4+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		)
	}
	objs = append(objs, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, o := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return buf.Bytes()
}

// TestPDFExtractor_Extract verifies page-by-page text extraction.
func TestPDFExtractor_Extract(t *testing.T) {
	data := makePDF(t, "Revenue grew in Q3", "Churn fell")

	pages, err := PDFExtractor{}.Extract(bytes.NewReader(data), int64(len(data)))

	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Contains(t, pages[0], "Revenue grew in Q3")
	assert.Contains(t, pages[1], "Churn fell")
}

// TestPDFExtractor_Text verifies that pages are joined by blank lines.
func TestPDFExtractor_Text(t *testing.T) {
	data := makePDF(t, "first", "second")

	text, n, err := PDFExtractor{}.Text(bytes.NewReader(data), int64(len(data)))

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Contains(t, text, "\n\n")
	assert.Less(t, strings.Index(text, "first"), strings.Index(text, "second"))
}

// TestPDFExtractor_Validate covers the header check and parse failures.
func TestPDFExtractor_Validate(t *testing.T) {
	x := PDFExtractor{}

	assert.NoError(t, x.Validate(makePDF(t, "ok")))
	assert.ErrorIs(t, x.Validate([]byte("hello, not a pdf")), ErrInvalidPDF)
	assert.ErrorIs(t, x.Validate(nil), ErrInvalidPDF)

	truncated := makePDF(t, "ok")
	truncated = truncated[:len(truncated)/2]
	assert.ErrorIs(t, x.Validate(truncated), ErrInvalidPDF)
}
