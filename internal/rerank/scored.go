// Package rerank re-scores retrieval candidates with a
// precision-oriented relevance model.
package rerank

// ScoredChunk is a transient retrieval result carrying both ranking
// scores and denormalized attribution fields. It is never persisted.
type ScoredChunk struct {
	ChunkID      string  `json:"chunk_id"`
	DocID        string  `json:"doc_id"`
	Text         string  `json:"text"`
	PageNumber   int     `json:"page_number"`
	SectionTitle string  `json:"section_title"`
	CosineScore  float32 `json:"cosine_score"`
	RerankScore  float32 `json:"rerank_score"`

	// Attribution, empty when unknown
	DocTitle     string `json:"doc_title"`
	DocAuthors   string `json:"doc_authors"`
	APAReference string `json:"apa_reference"`
}
