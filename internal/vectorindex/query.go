package vectorindex

import (
	"math"
	"sort"
)

// Result is one nearest-neighbor match. Distance is 1 − cosine
// similarity, so smaller is closer.
type Result struct {
	ChunkID  string
	DocID    string
	Distance float32
}

// Score returns the similarity score for the result (1 − distance).
func (r Result) Score() float32 {
	return 1 - r.Distance
}

// cosineSimilarity computes the cosine similarity between two vectors.
// Returns 0 for mismatched lengths or zero vectors.
func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float32
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	denominator := float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB)))
	if denominator == 0 {
		return 0
	}

	return dot / denominator
}

// Query returns the topK nearest chunks to the query vector, ordered
// by ascending distance. A non-nil docFilter restricts candidates to
// chunks whose document is in the set; nil imposes no restriction.
func (idx *Index) Query(vector []float32, topK int, docFilter []string) []Result {
	if len(vector) != idx.Dimensions || len(idx.Vectors) == 0 {
		return nil
	}

	var allowed map[string]bool
	if docFilter != nil {
		allowed = make(map[string]bool, len(docFilter))
		for _, id := range docFilter {
			allowed[id] = true
		}
	}

	results := make([]Result, 0, len(idx.Vectors))
	for chunkID, emb := range idx.Vectors {
		meta := idx.Meta[chunkID]
		if allowed != nil && !allowed[meta.DocID] {
			continue
		}
		results = append(results, Result{
			ChunkID:  chunkID,
			DocID:    meta.DocID,
			Distance: 1 - cosineSimilarity(vector, emb),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].ChunkID < results[j].ChunkID
	})

	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results
}
