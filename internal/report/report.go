// Package report renders a collection output as a human-readable HTML page.
package report

import (
	"bytes"
	"fmt"
	"html"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/dgallion1/docsections/internal/collection"
)

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Markdown builds a Markdown summary of out with one table per sequence.
func Markdown(title string, out *collection.Output) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", cell(title))
	fmt.Fprintf(&b, "- **Persona:** %s\n", cell(out.Metadata.Persona))
	fmt.Fprintf(&b, "- **Job to be done:** %s\n", cell(out.Metadata.JobToBeDone))
	fmt.Fprintf(&b, "- **Generated:** %s\n", cell(out.Metadata.Timestamp))
	fmt.Fprintf(&b, "- **Documents:** %d\n", len(out.Metadata.InputDocuments))
	for _, d := range out.Metadata.InputDocuments {
		fmt.Fprintf(&b, "  - %s\n", cell(d))
	}

	b.WriteString("\n## Extracted sections\n\n")
	if len(out.ExtractedSections) == 0 {
		b.WriteString("_No sections extracted._\n")
	} else {
		b.WriteString("| Document | Rank | Section | Page |\n|---|---:|---|---:|\n")
		for _, s := range out.ExtractedSections {
			fmt.Fprintf(&b, "| %s | %d | %s | %d |\n", cell(s.Document), s.ImportanceRank, cell(s.SectionTitle), s.PageNumber)
		}
	}

	b.WriteString("\n## Subsection analysis\n\n")
	if len(out.SubsectionAnalysis) == 0 {
		b.WriteString("_No subsections analysed._\n")
	} else {
		b.WriteString("| Document | Page | Refined text |\n|---|---:|---|\n")
		for _, a := range out.SubsectionAnalysis {
			fmt.Fprintf(&b, "| %s | %d | %s |\n", cell(a.Document), a.PageNumber, cell(a.RefinedText))
		}
	}
	return b.String()
}

// HTML renders the Markdown summary to a standalone HTML page.
func HTML(title string, out *collection.Output) ([]byte, error) {
	var body bytes.Buffer
	if err := md.Convert([]byte(Markdown(title, out)), &body); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>")
	page.WriteString(html.EscapeString(title))
	page.WriteString("</title>\n</head>\n<body>\n")
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")
	return page.Bytes(), nil
}

// Write renders the report for the collection in dir to dir/challenge1b_report.html.
func Write(dir string, out *collection.Output) error {
	data, err := HTML(filepath.Base(dir), out)
	if err != nil {
		return err
	}
	return collection.WriteFileAtomic(filepath.Join(dir, collection.ReportFile), data)
}

var cellReplacer = strings.NewReplacer(
	"\\", "\\\\",
	"|", "\\|",
	"*", "\\*",
	"_", "\\_",
	"`", "\\`",
	"<", "&lt;",
	">", "&gt;",
	"\r", " ",
	"\n", " ",
)

// cell escapes text for a single-line Markdown table cell.
func cell(s string) string {
	return cellReplacer.Replace(s)
}
