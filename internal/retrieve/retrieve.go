// Package retrieve wires the two retrieval stages together: metadata
// prefilter, vector similarity, then optional cross-encoder reranking.
package retrieve

import (
	"context"
	"fmt"

	"github.com/orchestria/corpus/internal/embedding"
	"github.com/orchestria/corpus/internal/rerank"
	"github.com/orchestria/corpus/internal/store"
	"github.com/orchestria/corpus/internal/vectorindex"
)

// Retrieval defaults.
const (
	DefaultTopN = 10
	DefaultTopK = 5
)

// Options shape a single retrieval call.
type Options struct {
	// TopN is how many candidates the similarity stage returns.
	TopN int
	// TopK is the final result count after reranking (or truncation
	// when reranking is off). Zero means DefaultTopK.
	TopK int
	// Filter narrows the searched documents before vector search.
	Filter store.DocumentFilter
	// NoRerank skips the precision stage even when a reranker is
	// configured.
	NoRerank bool
}

// Engine runs two-stage retrieval over a store and vector index. The
// reranker is optional; without one, results keep similarity order.
type Engine struct {
	store    *store.Store
	index    *vectorindex.Index
	provider *embedding.Provider
	reranker *rerank.Reranker
}

// NewEngine assembles a retrieval engine. Pass a nil reranker for
// similarity-only retrieval.
func NewEngine(st *store.Store, idx *vectorindex.Index, provider *embedding.Provider, reranker *rerank.Reranker) *Engine {
	return &Engine{store: st, index: idx, provider: provider, reranker: reranker}
}

// Retrieve returns the chunks most relevant to the query. The store
// prefilter runs first so the vector search only considers permitted
// documents; an empty prefilter result short-circuits to no results.
func (e *Engine) Retrieve(ctx context.Context, query string, opts Options) ([]rerank.ScoredChunk, error) {
	topN := opts.TopN
	if topN <= 0 {
		topN = DefaultTopN
	}
	topK := opts.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	var docFilter []string
	if !opts.Filter.IsZero() {
		ids, err := e.store.DocIDsByFilter(opts.Filter)
		if err != nil {
			return nil, fmt.Errorf("prefiltering documents: %w", err)
		}
		if len(ids) == 0 {
			return []rerank.ScoredChunk{}, nil
		}
		docFilter = ids
	}

	embedder, err := e.provider.Get(ctx)
	if err != nil {
		return nil, err
	}
	vec, err := embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	candidates, err := e.hydrate(e.index.Query(vec, topN, docFilter))
	if err != nil {
		return nil, err
	}

	if e.reranker != nil && !opts.NoRerank {
		return e.reranker.Rerank(ctx, query, candidates, topK)
	}
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}
	return candidates, nil
}

// hydrate joins index results with stored chunk text and document
// attribution. Chunks the store no longer knows are skipped; the index
// may lag behind a document deletion.
func (e *Engine) hydrate(results []vectorindex.Result) ([]rerank.ScoredChunk, error) {
	candidates := []rerank.ScoredChunk{}
	docs := make(map[string]*store.DocumentMetadata)

	for _, r := range results {
		c, err := e.store.GetChunk(r.ChunkID)
		if err != nil {
			return nil, fmt.Errorf("loading chunk %s: %w", r.ChunkID, err)
		}
		if c == nil {
			continue
		}

		doc, ok := docs[c.DocID]
		if !ok {
			doc, err = e.store.GetDocument(c.DocID)
			if err != nil {
				return nil, fmt.Errorf("loading document %s: %w", c.DocID, err)
			}
			docs[c.DocID] = doc
		}

		sc := rerank.ScoredChunk{
			ChunkID:      c.ID(),
			DocID:        c.DocID,
			Text:         c.Text,
			PageNumber:   c.PageNumber,
			SectionTitle: c.SectionTitle,
			CosineScore:  r.Score(),
		}
		if doc != nil {
			sc.DocTitle = doc.Title
			sc.DocAuthors = doc.Authors
			sc.APAReference = doc.APAReference
		}
		candidates = append(candidates, sc)
	}
	return candidates, nil
}
