// Package extract defines the extraction boundary between document
// acquisition and the retrieval core, plus minimal extractors for
// common corpus file types.
package extract

// Segment types recognized in a structural outline.
const (
	SegmentTitle     = "title"
	SegmentParagraph = "paragraph"
)

// Extraction statuses.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Segment is one labeled element of a document's structural outline.
type Segment struct {
	Text  string `json:"text"`
	Type  string `json:"type"`  // "title" or "paragraph"
	Page  int    `json:"page"`  // 1-based page number, 0 if unknown
	Level int    `json:"level"` // heading level for titles, 0 for paragraphs
}

// Result is the output of text extraction for one document.
// Structure is nil when the extractor could not recover an outline;
// the chunker then falls back to splitting the raw text.
type Result struct {
	Text      string    `json:"text"`
	Structure []Segment `json:"structure,omitempty"`

	PageCount int    `json:"page_count"`
	CharCount int    `json:"char_count"`
	WordCount int    `json:"word_count"`
	Method    string `json:"extraction_method"`
	Status    string `json:"extraction_status"`
	Filename  string `json:"source_filename"`
	SizeBytes int64  `json:"source_size_bytes"`
}
