package parser

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// PDFDecoder handles PDF files. It tries the Go library first,
// then falls back to pdftotext if available.
type PDFDecoder struct {
	FallbackPdftotext bool
}

func (d *PDFDecoder) Open(path string) (Document, error) {
	doc, err := openPDF(path, d.FallbackPdftotext)
	if err == nil {
		return doc, nil
	}
	if !d.FallbackPdftotext {
		return nil, err
	}
	fallback, ferr := openPdftotext(path)
	if ferr != nil {
		return nil, fmt.Errorf("open pdf: %w (pdftotext: %v)", err, ferr)
	}
	return fallback, nil
}

type pdfDocument struct {
	name     string
	path     string
	f        *os.File
	r        *pdflib.Reader
	fallback bool
}

func openPDF(path string, fallback bool) (doc *pdfDocument, err error) {
	defer recoverDecode(filepath.Base(path), &err)

	f, r, err := pdflib.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	return &pdfDocument{
		name:     filepath.Base(path),
		path:     path,
		f:        f,
		r:        r,
		fallback: fallback,
	}, nil
}

func (d *pdfDocument) Name() string   { return d.name }
func (d *pdfDocument) PageCount() int { return d.r.NumPage() }

func (d *pdfDocument) Title() (title string) {
	defer func() {
		if recover() != nil {
			title = ""
		}
	}()
	return strings.TrimSpace(d.r.Trailer().Key("Info").Key("Title").Text())
}

// PageText returns the page's text lines joined with newlines.
func (d *pdfDocument) PageText(n int) (string, error) {
	lines, err := d.PageBlocks(n)
	if err != nil {
		return "", err
	}
	return strings.Join(lines, "\n"), nil
}

// PageBlocks returns one block per text line, rebuilt from glyph positions.
func (d *pdfDocument) PageBlocks(n int) ([]string, error) {
	if err := pageInRange(n, d.PageCount()); err != nil {
		return nil, err
	}
	lines, err := d.pageLines(n)
	if err != nil && d.fallback {
		text, ferr := pdftotextPage(d.path, n)
		if ferr != nil {
			return nil, err
		}
		return splitLines(text), nil
	}
	return lines, err
}

func (d *pdfDocument) pageLines(n int) (lines []string, err error) {
	defer recoverDecode(d.name, &err)

	page := d.r.Page(n)
	if page.V.IsNull() {
		return nil, nil
	}
	return textLines(page.Content().Text), nil
}

func (d *pdfDocument) Close() error {
	return d.f.Close()
}

// pdftotextDocument reads pages lazily through the pdftotext binary.
type pdftotextDocument struct {
	name  string
	path  string
	count int
	pages map[int]string
}

func openPdftotext(path string) (*pdftotextDocument, error) {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	count, err := api.PageCount(f, nil)
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("page count: %w", err)
	}
	return &pdftotextDocument{
		name:  filepath.Base(path),
		path:  path,
		count: count,
		pages: make(map[int]string),
	}, nil
}

func (d *pdftotextDocument) Name() string   { return d.name }
func (d *pdftotextDocument) Title() string  { return "" }
func (d *pdftotextDocument) PageCount() int { return d.count }

func (d *pdftotextDocument) PageText(n int) (string, error) {
	if err := pageInRange(n, d.count); err != nil {
		return "", err
	}
	if text, ok := d.pages[n]; ok {
		return text, nil
	}
	text, err := pdftotextPage(d.path, n)
	if err != nil {
		return "", err
	}
	d.pages[n] = text
	return text, nil
}

func (d *pdftotextDocument) PageBlocks(n int) ([]string, error) {
	text, err := d.PageText(n)
	if err != nil {
		return nil, err
	}
	return splitLines(text), nil
}

func (d *pdftotextDocument) Close() error {
	d.pages = nil
	return nil
}

// pdftotextArgs selects page n in reading order. No -layout: layout mode
// merges the lines of side-by-side columns.
func pdftotextArgs(path string, n int) []string {
	page := strconv.Itoa(n)
	return []string{"-f", page, "-l", page, path, "-"}
}

func pdftotextPage(path string, n int) (string, error) {
	cmd := exec.Command("pdftotext", pdftotextArgs(path, n)...)
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext page %d: %w", n, err)
	}
	return strings.TrimRight(string(out), "\f"), nil
}

// recoverDecode converts a panic inside the PDF library into an error.
func recoverDecode(name string, err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%s: pdf decode panic: %v", name, r)
	}
}
