package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docsections/internal/doctree"
	"github.com/dgallion1/docsections/internal/parser"
	"github.com/dgallion1/docsections/internal/sections"
)

// DocumentRequest names one document to process.
type DocumentRequest struct {
	Path string
	// Persona and JobToBeDone are carried through but do not influence
	// ranking; importance is order of first appearance.
	Persona     string
	JobToBeDone string
}

// Contribution is one document's share of the collection output.
// Sections[i] and Analyses[i] always describe the same candidate.
type Contribution struct {
	Document string
	Sections []doctree.ExtractedSection
	Analyses []doctree.SubsectionAnalysis
	// Err is set when the document could not be decoded. It has already
	// been logged; the contribution is then empty.
	Err error
}

// Worker turns a single document into its Contribution.
type Worker struct {
	decoder       parser.Decoder
	log           *slog.Logger
	pageScanLimit int
	maxSections   int
}

func NewWorker(dec parser.Decoder, log *slog.Logger, pageScanLimit, maxSections int) *Worker {
	return &Worker{
		decoder:       dec,
		log:           log,
		pageScanLimit: pageScanLimit,
		maxSections:   maxSections,
	}
}

// Process decodes the leading pages of the document, extracts title
// candidates and ranks the first maxSections of them. Decode failures are
// logged and yield an empty Contribution.
func (w *Worker) Process(ctx context.Context, req DocumentRequest) (c Contribution) {
	name := filepath.Base(req.Path)
	log := w.log.With("document", name)
	c.Document = name

	defer func() {
		if r := recover(); r != nil {
			c = Contribution{Document: name, Err: fmt.Errorf("panic: %v", r)}
			log.Error("document failed", "error", c.Err)
		}
	}()

	if err := ctx.Err(); err != nil {
		c.Err = err
		log.Warn("document skipped", "error", err)
		return c
	}

	pages, err := w.decode(req.Path)
	if err != nil {
		c.Err = err
		log.Error("decode failed", "error", err)
		return c
	}

	texts := make([]string, len(pages))
	for i, p := range pages {
		texts[i] = p.Text
	}
	text := strings.Join(texts, "\n")
	if strings.TrimSpace(text) == "" {
		log.Info("no extractable text")
		return c
	}

	titles := sections.Top(sections.ExtractCandidates(text), w.maxSections)
	for i, title := range titles {
		page := sections.LocatePage(title, pages)
		c.Sections = append(c.Sections, doctree.ExtractedSection{
			Document:       name,
			SectionTitle:   title,
			ImportanceRank: i + 1,
			PageNumber:     page,
		})
		c.Analyses = append(c.Analyses, doctree.SubsectionAnalysis{
			Document:    name,
			RefinedText: sections.Snippet(text, title),
			PageNumber:  page,
		})
	}

	log.Debug("document processed", "pages", len(pages), "sections", len(titles))
	return c
}

// decode returns the first min(PageCount, pageScanLimit) pages.
// The document is closed on every path.
func (w *Worker) decode(path string) ([]doctree.Page, error) {
	doc, err := w.decoder.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := doc.Close(); cerr != nil {
			w.log.Warn("close failed", "document", doc.Name(), "error", cerr)
		}
	}()

	n := min(doc.PageCount(), w.pageScanLimit)
	pages := make([]doctree.Page, 0, n)
	for i := 1; i <= n; i++ {
		text, err := doc.PageText(i)
		if err != nil {
			return nil, err
		}
		pages = append(pages, doctree.Page{Number: i, Text: text})
	}
	return pages, nil
}
