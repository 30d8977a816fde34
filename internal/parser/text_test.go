package parser

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTextDecoder_FormFeedPages(t *testing.T) {
	path := writeFile(t, "notes.txt", "Introduction\nbody text\fMethodology\nmore text")
	doc, err := (&TextDecoder{}).Open(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer doc.Close()

	if doc.Name() != "notes.txt" {
		t.Errorf("expected name %q, got %q", "notes.txt", doc.Name())
	}
	if doc.PageCount() != 2 {
		t.Fatalf("expected 2 pages, got %d", doc.PageCount())
	}
	want := []string{"Introduction\nbody text", "Methodology\nmore text"}
	for i, w := range want {
		got, err := doc.PageText(i + 1)
		if err != nil {
			t.Fatalf("page %d: unexpected error: %v", i+1, err)
		}
		if got != w {
			t.Errorf("page %d: expected %q, got %q", i+1, w, got)
		}
	}
}

func TestTextDecoder_EmptyInput(t *testing.T) {
	path := writeFile(t, "empty.txt", "")
	doc, err := (&TextDecoder{}).Open(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer doc.Close()
	if doc.PageCount() != 0 {
		t.Errorf("expected 0 pages for empty input, got %d", doc.PageCount())
	}
}

func TestTextDecoder_PageOutOfRange(t *testing.T) {
	path := writeFile(t, "one.txt", "Hello world")
	doc, err := (&TextDecoder{}).Open(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer doc.Close()
	if _, err := doc.PageText(0); err == nil {
		t.Error("expected error for page 0")
	}
	if _, err := doc.PageText(2); err == nil {
		t.Error("expected error for page 2")
	}
}

func TestTextDecoder_MissingFile(t *testing.T) {
	_, err := (&TextDecoder{}).Open(filepath.Join(t.TempDir(), "nope.txt"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestTextDecoder_BlocksSplitOnBlankLines(t *testing.T) {
	// Multiple blank and whitespace-only lines should not produce empty blocks.
	path := writeFile(t, "gaps.txt", "Para one.\nstill one.\n\n   \n\nPara two.")
	doc, err := (&TextDecoder{}).Open(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer doc.Close()

	blocks, err := doc.PageBlocks(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d: %q", len(blocks), blocks)
	}
	if blocks[0] != "Para one.\nstill one." {
		t.Errorf("expected first block %q, got %q", "Para one.\nstill one.", blocks[0])
	}
}

func TestTextDecoder_ClosedDocument(t *testing.T) {
	path := writeFile(t, "c.txt", "Text")
	doc, err := (&TextDecoder{}).Open(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	doc.Close()
	if _, err := doc.PageText(1); err == nil {
		t.Error("expected error reading a closed document")
	}
}

func TestForFile(t *testing.T) {
	if _, err := ForFile("a.PDF", false); err != nil {
		t.Errorf("expected pdf decoder, got error %v", err)
	}
	if _, err := ForFile("a.txt", false); err != nil {
		t.Errorf("expected text decoder, got error %v", err)
	}
	_, err := ForFile("a.docx", false)
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
	for name, want := range map[string]bool{"a.pdf": true, "B.PDF": true, "c.txt": false, "pdf": false} {
		if got := IsPDF(name); got != want {
			t.Errorf("IsPDF(%q) = %v, expected %v", name, got, want)
		}
	}
}

func TestByExtension_OpensText(t *testing.T) {
	path := writeFile(t, "doc.txt", "A\fB\fC")
	doc, err := ByExtension{}.Open(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer doc.Close()
	if doc.PageCount() != 3 {
		t.Errorf("expected 3 pages, got %d", doc.PageCount())
	}
}

func TestPDFDecoder_InvalidFileWithoutFallback(t *testing.T) {
	path := writeFile(t, "broken.pdf", "this is not a pdf")
	_, err := (&PDFDecoder{}).Open(path)
	if err == nil {
		t.Fatal("expected error for invalid pdf")
	}
}
