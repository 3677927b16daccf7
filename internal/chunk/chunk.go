// Package chunk splits extracted documents into retrieval-sized units.
package chunk

import "fmt"

// Chunk is one retrievable unit of a document's text.
//
// ChunkIndex values for a document form a contiguous 0-based sequence
// once splitting completes. PageNumber is 1-based; 0 means unknown.
type Chunk struct {
	DocID        string `json:"doc_id"`
	ChunkIndex   int    `json:"chunk_index"`
	Text         string `json:"text"`
	PageNumber   int    `json:"page_number"`
	SectionTitle string `json:"section_title"`
}

// ID returns the chunk's globally unique identifier, derived from the
// owning document id and the zero-padded chunk index (e.g. "doc1_0005").
func (c Chunk) ID() string {
	return fmt.Sprintf("%s_%04d", c.DocID, c.ChunkIndex)
}
