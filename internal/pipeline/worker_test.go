package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/docsections/internal/doctree"
	"github.com/dgallion1/docsections/internal/parser"
	"github.com/dgallion1/docsections/internal/parser/pdftest"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// fakeDecoder serves in-memory pages and counts Close calls.
type fakeDecoder struct {
	docs    map[string][]string
	openErr map[string]error
	pageErr map[string]error
	onOpen  func(name string)
	closed  atomic.Int32
}

func (d *fakeDecoder) Open(path string) (parser.Document, error) {
	name := filepath.Base(path)
	if d.onOpen != nil {
		d.onOpen(name)
	}
	if err := d.openErr[name]; err != nil {
		return nil, err
	}
	return &fakeDocument{dec: d, name: name, pages: d.docs[name], pageErr: d.pageErr[name]}, nil
}

type fakeDocument struct {
	dec     *fakeDecoder
	name    string
	pages   []string
	pageErr error
}

func (d *fakeDocument) Name() string   { return d.name }
func (d *fakeDocument) Title() string  { return "" }
func (d *fakeDocument) PageCount() int { return len(d.pages) }
func (d *fakeDocument) PageText(n int) (string, error) {
	if d.pageErr != nil {
		return "", d.pageErr
	}
	return d.pages[n-1], nil
}
func (d *fakeDocument) PageBlocks(n int) ([]string, error) { return nil, nil }
func (d *fakeDocument) Close() error {
	d.dec.closed.Add(1)
	return nil
}

func TestWorker_Process(t *testing.T) {
	path := writeDoc(t, t.TempDir(), "study.pdf",
		"Introduction\nbackground and motivation of the study\n\fMethodology\nWe survey introduction material.\nIntroduction")

	w := NewWorker(&parser.TextDecoder{}, discardLogger(), 5, 5)
	c := w.Process(context.Background(), DocumentRequest{Path: path, Persona: "Researcher", JobToBeDone: "Review"})

	require.NoError(t, c.Err)
	assert.Equal(t, "study.pdf", c.Document)
	assert.Equal(t, []doctree.ExtractedSection{
		{Document: "study.pdf", SectionTitle: "Introduction", ImportanceRank: 1, PageNumber: 1},
		{Document: "study.pdf", SectionTitle: "Methodology", ImportanceRank: 2, PageNumber: 2},
		{Document: "study.pdf", SectionTitle: "We survey introduction material.", ImportanceRank: 3, PageNumber: 2},
	}, c.Sections)

	require.Len(t, c.Analyses, 3)
	for i, a := range c.Analyses {
		assert.Equal(t, c.Sections[i].Document, a.Document)
		assert.Equal(t, c.Sections[i].PageNumber, a.PageNumber)
	}
	assert.True(t, strings.HasPrefix(c.Analyses[0].RefinedText, "Introduction background and motivation"))
	assert.NotContains(t, c.Analyses[1].RefinedText, "\n")
}

func TestWorker_ProcessPDF(t *testing.T) {
	path := pdftest.Write(t, t.TempDir(), "guide.pdf", "Field Guide",
		pdftest.Lines("Introduction", "this is body text for the section.", "Methodology"),
		"BT /F1 12 Tf 72 720 Td [(Project) -250 (Overview)] TJ 0 -20 Td (more body text here) Tj ET",
	)

	w := NewWorker(&parser.PDFDecoder{}, discardLogger(), 5, 5)
	c := w.Process(context.Background(), DocumentRequest{Path: path})

	require.NoError(t, c.Err)
	assert.Equal(t, []doctree.ExtractedSection{
		{Document: "guide.pdf", SectionTitle: "Introduction", ImportanceRank: 1, PageNumber: 1},
		{Document: "guide.pdf", SectionTitle: "Methodology", ImportanceRank: 2, PageNumber: 1},
		{Document: "guide.pdf", SectionTitle: "Project Overview", ImportanceRank: 3, PageNumber: 2},
	}, c.Sections)
	require.Len(t, c.Analyses, 3)
	assert.Equal(t, "Introduction this is body text for the section. Methodology Project Overview more body text here", c.Analyses[0].RefinedText)
	assert.Equal(t, 2, c.Analyses[2].PageNumber)
}

func TestWorker_KeepsAtMostMaxSections(t *testing.T) {
	path := writeDoc(t, t.TempDir(), "many.pdf", "A\nB\nC\nD\nE\nF\nG")

	c := NewWorker(&parser.TextDecoder{}, discardLogger(), 5, 5).Process(context.Background(), DocumentRequest{Path: path})
	require.Len(t, c.Sections, 5)
	for i, s := range c.Sections {
		assert.Equal(t, i+1, s.ImportanceRank)
	}
	assert.Equal(t, "E", c.Sections[4].SectionTitle)
}

func TestWorker_PageScanLimit(t *testing.T) {
	pages := []string{"One", "Two", "Three", "Four", "Five", "Six"}
	path := writeDoc(t, t.TempDir(), "long.pdf", strings.Join(pages, "\f"))

	c := NewWorker(&parser.TextDecoder{}, discardLogger(), 2, 5).Process(context.Background(), DocumentRequest{Path: path})
	require.Len(t, c.Sections, 2)
	assert.Equal(t, "Two", c.Sections[1].SectionTitle)
	for _, s := range c.Sections {
		assert.LessOrEqual(t, s.PageNumber, 2)
	}
}

func TestWorker_EmptyText(t *testing.T) {
	dec := &fakeDecoder{docs: map[string][]string{"blank.pdf": {"  \n", "\t"}}}
	c := NewWorker(dec, discardLogger(), 5, 5).Process(context.Background(), DocumentRequest{Path: "/x/blank.pdf"})

	assert.NoError(t, c.Err, "empty text is not a decode failure")
	assert.Empty(t, c.Sections)
	assert.Empty(t, c.Analyses)
	assert.Equal(t, int32(1), dec.closed.Load())
}

func TestWorker_NoCandidates(t *testing.T) {
	dec := &fakeDecoder{docs: map[string][]string{"lower.pdf": {"all lower case text\nmore of it"}}}
	c := NewWorker(dec, discardLogger(), 5, 5).Process(context.Background(), DocumentRequest{Path: "lower.pdf"})
	assert.NoError(t, c.Err)
	assert.Empty(t, c.Sections)
}

func TestWorker_DecodeFailures(t *testing.T) {
	dec := &fakeDecoder{
		docs:    map[string][]string{"page.pdf": {"Title"}},
		openErr: map[string]error{"open.pdf": errors.New("not a pdf")},
		pageErr: map[string]error{"page.pdf": errors.New("bad stream")},
	}
	w := NewWorker(dec, discardLogger(), 5, 5)

	c := w.Process(context.Background(), DocumentRequest{Path: "open.pdf"})
	assert.EqualError(t, c.Err, "not a pdf")
	assert.Empty(t, c.Sections)

	c = w.Process(context.Background(), DocumentRequest{Path: "page.pdf"})
	assert.EqualError(t, c.Err, "bad stream")
	assert.Empty(t, c.Sections)
	assert.Equal(t, int32(1), dec.closed.Load(), "document closed on the error path")
}

func TestWorker_RecoversPanic(t *testing.T) {
	dec := &fakeDecoder{onOpen: func(string) { panic("boom") }}
	c := NewWorker(dec, discardLogger(), 5, 5).Process(context.Background(), DocumentRequest{Path: "p.pdf"})
	assert.ErrorContains(t, c.Err, "boom")
	assert.Equal(t, "p.pdf", c.Document)
}

func TestWorker_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	dec := &fakeDecoder{docs: map[string][]string{"a.pdf": {"Title"}}}
	c := NewWorker(dec, discardLogger(), 5, 5).Process(ctx, DocumentRequest{Path: "a.pdf"})
	assert.ErrorIs(t, c.Err, context.Canceled)
	assert.Equal(t, int32(0), dec.closed.Load())
}
