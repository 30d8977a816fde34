package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// TextDecoder handles plain text files. Pages are separated by form feeds,
// the same separator pdftotext emits.
type TextDecoder struct{}

func (d *TextDecoder) Open(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read text file: %w", err)
	}
	return &textDocument{
		name:  filepath.Base(path),
		pages: splitPages(string(data)),
	}, nil
}

type textDocument struct {
	name   string
	pages  []string
	closed bool
}

func (d *textDocument) Name() string   { return d.name }
func (d *textDocument) Title() string  { return "" }
func (d *textDocument) PageCount() int { return len(d.pages) }

func (d *textDocument) PageText(n int) (string, error) {
	if d.closed {
		return "", fmt.Errorf("%s: document closed", d.name)
	}
	if err := pageInRange(n, len(d.pages)); err != nil {
		return "", err
	}
	return d.pages[n-1], nil
}

func (d *textDocument) PageBlocks(n int) ([]string, error) {
	text, err := d.PageText(n)
	if err != nil {
		return nil, err
	}
	return splitBlocks(text), nil
}

func (d *textDocument) Close() error {
	d.closed = true
	return nil
}

// splitPages splits on form feeds. Empty input is a document with no pages.
func splitPages(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(text, "\f")
}
