package doctree

// Page is one decoded page of a document.
type Page struct {
	Number int    // 1-based
	Text   string // One line per text line of the page
}

// Outline is the heading outline of a single document.
type Outline struct {
	Title   string         `json:"title"`
	Outline []OutlineEntry `json:"outline"`
}

// OutlineEntry is one classified heading.
type OutlineEntry struct {
	Level string `json:"level"` // H1, H2 or H3
	Text  string `json:"text"`
	Page  int    `json:"page"`
}

// ExtractedSection is a ranked section title found in a document.
type ExtractedSection struct {
	Document       string `json:"document"`
	SectionTitle   string `json:"section_title"`
	ImportanceRank int    `json:"importance_rank"`
	PageNumber     int    `json:"page_number"`
}

// SubsectionAnalysis is the context snippet paired with an ExtractedSection.
type SubsectionAnalysis struct {
	Document    string `json:"document"`
	RefinedText string `json:"refined_text"`
	PageNumber  int    `json:"page_number"`
}
