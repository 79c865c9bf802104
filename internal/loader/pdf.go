// Package loader reads the source document into page-level text records.
package loader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

var (
	ErrLoadFailed = errors.New("document load failed")
	ErrEmptyPath  = errors.New("document path is empty")
)

// Page is the extracted text of a single PDF page.
type Page struct {
	// Number is the 1-based page number in the source file
	Number int `json:"number"`

	// Text is the plain text extracted from the page
	Text string `json:"text"`
}

// Loader produces the ordered pages of a document.
type Loader interface {
	Load(ctx context.Context, path string) ([]Page, error)
}

// PDFLoader extracts page text with ledongthuc/pdf.
type PDFLoader struct{}

// NewPDFLoader creates a PDF loader.
func NewPDFLoader() *PDFLoader {
	return &PDFLoader{}
}

// Load opens the PDF at path and returns one Page per page that has a content stream.
// Pages are returned in document order.
func (l *PDFLoader) Load(ctx context.Context, path string) (pages []Page, err error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	// The pdf package panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("%w: %s: %v", ErrLoadFailed, path, r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	defer f.Close()

	total := reader.NumPage()
	pages = make([]Page, 0, total)

	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		p := reader.Page(i)
		if p.V.IsNull() {
			continue
		}

		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %w", ErrLoadFailed, i, err)
		}

		pages = append(pages, Page{
			Number: i,
			Text:   normalizeText(text),
		})
	}

	return pages, nil
}

// normalizeText converts line endings to \n and drops NUL bytes left by some encoders.
func normalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.ReplaceAll(text, "\x00", "")
}
