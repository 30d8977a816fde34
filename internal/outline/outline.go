package outline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/docsections/internal/doctree"
	"github.com/dgallion1/docsections/internal/parser"
)

// Build classifies every text block of every page of doc.
func Build(doc parser.Document) (doctree.Outline, error) {
	out := doctree.Outline{
		Title:   doc.Title(),
		Outline: []doctree.OutlineEntry{},
	}
	if out.Title == "" {
		out.Title = baseName(doc.Name())
	}

	for n := 1; n <= doc.PageCount(); n++ {
		blocks, err := doc.PageBlocks(n)
		if err != nil {
			return doctree.Outline{}, fmt.Errorf("page %d: %w", n, err)
		}
		for _, b := range blocks {
			text := CleanText(b)
			if text == "" {
				continue
			}
			level, ok := Classify(text)
			if !ok {
				continue
			}
			out.Outline = append(out.Outline, doctree.OutlineEntry{
				Level: string(level),
				Text:  text,
				Page:  n,
			})
		}
	}
	return out, nil
}

// BuildFile opens path with dec, builds its outline and closes it.
func BuildFile(dec parser.Decoder, path string) (doctree.Outline, error) {
	doc, err := dec.Open(path)
	if err != nil {
		return doctree.Outline{}, err
	}
	defer doc.Close()
	return Build(doc)
}

// Summary reports the result of a directory run.
type Summary struct {
	Written []string
	Failed  []string
}

// Runner writes one outline JSON file per PDF in a directory.
type Runner struct {
	decoder parser.Decoder
	log     *slog.Logger
	workers int
}

func NewRunner(dec parser.Decoder, log *slog.Logger, workers int) *Runner {
	if workers <= 0 {
		workers = 1
	}
	return &Runner{decoder: dec, log: log, workers: workers}
}

// Run processes every .pdf in inDir and writes <base>.json files into outDir.
// Only an unreadable inDir or an uncreatable outDir is an error; per-file
// failures are logged and listed in the summary.
func (r *Runner) Run(ctx context.Context, inDir, outDir string) (Summary, error) {
	entries, err := os.ReadDir(inDir)
	if err != nil {
		return Summary{}, fmt.Errorf("read input directory: %w", err)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return Summary{}, fmt.Errorf("create output directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && parser.IsPDF(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var (
		mu      sync.Mutex
		summary Summary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for _, name := range names {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			log := r.log.With("document", name)
			outPath := filepath.Join(outDir, baseName(name)+".json")

			o, err := BuildFile(r.decoder, filepath.Join(inDir, name))
			if err == nil {
				err = writeJSON(outPath, o)
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Error("outline failed", "error", err)
				summary.Failed = append(summary.Failed, name)
				return nil
			}
			log.Info("outline written", "path", outPath, "headings", len(o.Outline))
			summary.Written = append(summary.Written, name)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return summary, err
	}

	sort.Strings(summary.Written)
	sort.Strings(summary.Failed)
	return summary, nil
}

func baseName(name string) string {
	name = filepath.Base(name)
	if parser.IsPDF(name) {
		return strings.TrimSuffix(name, filepath.Ext(name))
	}
	return name
}

func writeJSON(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
