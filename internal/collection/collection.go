// Package collection reads collection input descriptors and writes the
// ranked-section output descriptor.
package collection

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/dgallion1/docsections/internal/doctree"
	"github.com/dgallion1/docsections/internal/parser"
)

const (
	InputFile  = "challenge1b_input.json"
	OutputFile = "challenge1b_output.json"
	ReportFile = "challenge1b_report.html"
	PDFDir     = "PDFs"

	// DirPrefix is matched case-insensitively against collection directory names.
	DirPrefix = "collection"

	// TimestampLayout is the metadata timestamp format.
	TimestampLayout = "2006-01-02 15:04:05.000000"
)

var (
	ErrMissingInput   = errors.New("missing input descriptor")
	ErrMalformedInput = errors.New("malformed input descriptor")
)

// Input is the parsed challenge1b_input.json.
type Input struct {
	Persona     string
	JobToBeDone string
	Documents   []DocumentRef
}

// DocumentRef is an entry of the optional "documents" array.
type DocumentRef struct {
	Filename string `json:"filename"`
	Title    string `json:"title"`
}

// Metadata describes one output run.
type Metadata struct {
	InputDocuments []string `json:"input_documents"`
	Persona        string   `json:"persona"`
	JobToBeDone    string   `json:"job_to_be_done"`
	Timestamp      string   `json:"timestamp"`
}

// Output is the challenge1b_output.json document.
type Output struct {
	Metadata           Metadata                     `json:"metadata"`
	ExtractedSections  []doctree.ExtractedSection   `json:"extracted_sections"`
	SubsectionAnalysis []doctree.SubsectionAnalysis `json:"subsection_analysis"`
}

// NewOutput assembles an Output stamped with the current local time.
// Nil slices are replaced with empty ones so they encode as [].
func NewOutput(in Input, docs []string, sections []doctree.ExtractedSection, analyses []doctree.SubsectionAnalysis) *Output {
	if docs == nil {
		docs = []string{}
	}
	if sections == nil {
		sections = []doctree.ExtractedSection{}
	}
	if analyses == nil {
		analyses = []doctree.SubsectionAnalysis{}
	}
	return &Output{
		Metadata: Metadata{
			InputDocuments: docs,
			Persona:        in.Persona,
			JobToBeDone:    in.JobToBeDone,
			Timestamp:      time.Now().Format(TimestampLayout),
		},
		ExtractedSections:  sections,
		SubsectionAnalysis: analyses,
	}
}

const inputSchema = `{
  "type": "object",
  "required": ["persona", "job_to_be_done"],
  "properties": {
    "persona": {
      "oneOf": [
        {"type": "string"},
        {"type": "object", "required": ["role"], "properties": {"role": {"type": "string"}}}
      ]
    },
    "job_to_be_done": {
      "oneOf": [
        {"type": "string"},
        {"type": "object", "required": ["task"], "properties": {"task": {"type": "string"}}}
      ]
    },
    "documents": {
      "type": "array",
      "items": {"type": "object", "properties": {"filename": {"type": "string"}, "title": {"type": "string"}}}
    }
  }
}`

var schema = jsonschema.MustCompileString("challenge1b_input.schema.json", inputSchema)

// ReadInput loads and validates dir/challenge1b_input.json.
func ReadInput(dir string) (Input, error) {
	data, err := os.ReadFile(filepath.Join(dir, InputFile))
	if errors.Is(err, fs.ErrNotExist) {
		return Input{}, fmt.Errorf("%w: %s", ErrMissingInput, filepath.Join(dir, InputFile))
	}
	if err != nil {
		return Input{}, fmt.Errorf("read %s: %w", InputFile, err)
	}
	return ParseInput(data)
}

// ParseInput validates and decodes descriptor bytes. persona and
// job_to_be_done may be plain strings or objects carrying "role" and "task".
func ParseInput(data []byte) (Input, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return Input{}, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	if err := schema.Validate(doc); err != nil {
		return Input{}, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}

	var raw struct {
		Persona     json.RawMessage `json:"persona"`
		JobToBeDone json.RawMessage `json:"job_to_be_done"`
		Documents   []DocumentRef   `json:"documents"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Input{}, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	return Input{
		Persona:     textOrField(raw.Persona, "role"),
		JobToBeDone: textOrField(raw.JobToBeDone, "task"),
		Documents:   raw.Documents,
	}, nil
}

func textOrField(raw json.RawMessage, field string) string {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var obj map[string]any
	if json.Unmarshal(raw, &obj) == nil {
		s, _ = obj[field].(string)
	}
	return s
}

// ListPDFs returns the sorted file names of the PDFs in dir/PDFs.
// A missing PDFs directory is an empty collection.
func ListPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(dir, PDFDir))
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", PDFDir, err)
	}
	names := []string{}
	for _, e := range entries {
		if !e.IsDir() && parser.IsPDF(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// MissingDocuments returns the descriptor's document entries whose file is
// not among names, in descriptor order.
func MissingDocuments(in Input, names []string) []DocumentRef {
	present := make(map[string]bool, len(names))
	for _, n := range names {
		present[n] = true
	}
	var missing []DocumentRef
	for _, ref := range in.Documents {
		if ref.Filename != "" && !present[ref.Filename] {
			missing = append(missing, ref)
		}
	}
	return missing
}

// IsCollectionDir reports whether name carries the collection prefix.
func IsCollectionDir(name string) bool {
	return strings.HasPrefix(strings.ToLower(name), DirPrefix)
}

// ListCollections returns the sorted collection directory names under root.
func ListCollections(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read root: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() && IsCollectionDir(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// WriteOutput writes out to dir/challenge1b_output.json, replacing any
// previous file atomically.
func WriteOutput(dir string, out *Output) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return WriteFileAtomic(filepath.Join(dir, OutputFile), buf.Bytes())
}

// ReadOutput loads a previously written output descriptor.
func ReadOutput(dir string) (*Output, error) {
	data, err := os.ReadFile(filepath.Join(dir, OutputFile))
	if err != nil {
		return nil, err
	}
	var out Output
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", OutputFile, err)
	}
	return &out, nil
}

// WriteFileAtomic writes data to a temp file beside path and renames it over path.
func WriteFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename output: %w", err)
	}
	return nil
}
