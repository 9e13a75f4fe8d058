// Package storage loads documents for indexing from S3-compatible blob
// storage or a local directory.
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrInvalidPDF is returned for content that is not a readable PDF.
var ErrInvalidPDF = errors.New("invalid pdf")

var pdfMagic = []byte("%PDF-")

// PDFExtractor pulls plain text out of PDF files page by page.
type PDFExtractor struct {
	Logger *slog.Logger
}

func (x PDFExtractor) logger() *slog.Logger {
	if x.Logger == nil {
		return slog.Default()
	}
	return x.Logger
}

// Validate reports whether data looks like a PDF and parses.
func (x PDFExtractor) Validate(data []byte) error {
	if !bytes.HasPrefix(data, pdfMagic) {
		return fmt.Errorf("%w: missing %s header", ErrInvalidPDF, pdfMagic)
	}
	if _, err := openPDF(bytes.NewReader(data), int64(len(data))); err != nil {
		return err
	}
	return nil
}

// Extract returns the text of each page. Pages that fail to decode are
// logged and skipped; pages without text are kept as empty strings so page
// numbers stay aligned with the source.
func (x PDFExtractor) Extract(r io.ReaderAt, size int64) ([]string, error) {
	reader, err := openPDF(r, size)
	if err != nil {
		return nil, err
	}

	n := reader.NumPage()
	pages := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		text, err := pageText(reader.Page(i))
		if err != nil {
			x.logger().Warn("skipping unreadable pdf page", slog.Int("page", i), slog.Any("error", err))
			continue
		}
		pages = append(pages, text)
	}
	return pages, nil
}

// Text joins the extracted pages with blank lines.
func (x PDFExtractor) Text(r io.ReaderAt, size int64) (text string, pages int, err error) {
	p, err := x.Extract(r, size)
	if err != nil {
		return "", 0, err
	}
	return strings.TrimSpace(strings.Join(p, "\n\n")), len(p), nil
}

// openPDF wraps pdf.NewReader, which panics on some malformed inputs.
func openPDF(r io.ReaderAt, size int64) (reader *pdf.Reader, err error) {
	defer func() {
		if p := recover(); p != nil {
			reader, err = nil, fmt.Errorf("%w: %v", ErrInvalidPDF, p)
		}
	}()
	reader, err = pdf.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}
	return reader, nil
}

// pageText resolves fonts per page, since resource names such as /F1 are
// only unique within a page.
func pageText(p pdf.Page) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("decode page: %v", r)
		}
	}()
	if p.V.IsNull() {
		return "", nil
	}
	fonts := make(map[string]*pdf.Font)
	for _, name := range p.Fonts() {
		f := p.Font(name)
		fonts[name] = &f
	}
	return p.GetPlainText(fonts)
}
