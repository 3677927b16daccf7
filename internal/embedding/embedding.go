// Package embedding provides vector embedding generation for corpus
// text and search queries.
package embedding

import (
	"context"
	"math"
)

// Input conventions required by E5-family embedding models. Omitting
// the distinguishing prefix materially degrades ranking quality, so
// every implementation must apply them.
const (
	PassagePrefix = "passage: "
	QueryPrefix   = "query: "
)

// Embedder generates L2-normalized embeddings from text.
type Embedder interface {
	// EmbedDocuments embeds corpus texts, applying the passage prefix.
	// Implementations batch many texts per model invocation.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery embeds a search query, applying the query prefix.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// ModelName returns the name of the embedding model.
	ModelName() string

	// Dimensions returns the fixed vector dimensionality.
	Dimensions() int
}

// l2Normalize scales a vector to unit length in place. Zero vectors
// are returned unchanged.
func l2Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= norm
	}
	return v
}
