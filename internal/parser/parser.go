package parser

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupported is returned for file extensions no decoder handles.
var ErrUnsupported = errors.New("unsupported file extension")

// Decoder opens documents for page-level text access.
type Decoder interface {
	Open(path string) (Document, error)
}

// Document is an open document handle. Page numbers are 1-based.
// Callers must Close every Document they open.
type Document interface {
	Name() string
	// Title returns the title stored in the document metadata, or "".
	Title() string
	PageCount() int
	PageText(n int) (string, error)
	// PageBlocks returns the text blocks of a page in reading order.
	PageBlocks(n int) ([]string, error)
	Close() error
}

// ForFile returns the appropriate decoder for a filename.
func ForFile(filename string, fallbackPdftotext bool) (Decoder, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return &PDFDecoder{FallbackPdftotext: fallbackPdftotext}, nil
	case ".txt":
		return &TextDecoder{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, ext)
	}
}

// IsPDF reports whether filename has a .pdf extension in any case.
func IsPDF(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".pdf")
}

// ByExtension dispatches Open to the decoder registered for the file's extension.
type ByExtension struct {
	FallbackPdftotext bool
}

func (d ByExtension) Open(path string) (Document, error) {
	dec, err := ForFile(path, d.FallbackPdftotext)
	if err != nil {
		return nil, err
	}
	return dec.Open(path)
}

// splitBlocks breaks page text into paragraphs separated by blank lines.
func splitBlocks(text string) []string {
	var blocks []string
	var current strings.Builder
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			if current.Len() > 0 {
				blocks = append(blocks, current.String())
				current.Reset()
			}
			continue
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		blocks = append(blocks, current.String())
	}
	return blocks
}

func pageInRange(n, count int) error {
	if n < 1 || n > count {
		return fmt.Errorf("page %d out of range [1, %d]", n, count)
	}
	return nil
}
