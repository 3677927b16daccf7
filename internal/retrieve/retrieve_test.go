package retrieve

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/orchestria/corpus/internal/chunk"
	"github.com/orchestria/corpus/internal/embedding"
	"github.com/orchestria/corpus/internal/rerank"
	"github.com/orchestria/corpus/internal/store"
	"github.com/orchestria/corpus/internal/vectorindex"
)

// stubEmbedder returns a fixed query vector.
type stubEmbedder struct {
	queryVec []float32
}

func (s *stubEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = s.queryVec
	}
	return out, nil
}

func (s *stubEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return s.queryVec, nil
}

func (s *stubEmbedder) ModelName() string { return "stub" }
func (s *stubEmbedder) Dimensions() int   { return len(s.queryVec) }

type stubScorer struct {
	scores []float32
	calls  atomic.Int32
}

func (s *stubScorer) Score(ctx context.Context, query string, texts []string) ([]float32, error) {
	s.calls.Add(1)
	return s.scores[:len(texts)], nil
}

// newTestEngine builds an engine over three indexed chunks. With a
// query vector of (1,0), cosine scores are d1_0000=1.0, d1_0001=0.8,
// d2_0000=0.0.
func newTestEngine(t *testing.T, reranker *rerank.Reranker) (*Engine, *atomic.Int32) {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "metadata.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	docs := []store.DocumentMetadata{
		{DocID: "d1", Filepath: "/tmp/a.pdf", Filename: "a.pdf", Title: "Rapport A",
			Authors: "Dupont, J.", APAReference: "Dupont, J. (2020). Rapport A.",
			Language: "fr", DocType: "report", Year: 2020},
		{DocID: "d2", Filepath: "/tmp/b.pdf", Filename: "b.pdf", Title: "Article B",
			Language: "en", DocType: "article", Year: 2022},
	}
	for _, d := range docs {
		if err := st.AddDocument(d); err != nil {
			t.Fatalf("adding document: %v", err)
		}
	}
	chunks := []chunk.Chunk{
		{DocID: "d1", ChunkIndex: 0, Text: "Texte un", PageNumber: 1, SectionTitle: "Intro"},
		{DocID: "d1", ChunkIndex: 1, Text: "Texte deux", PageNumber: 2},
		{DocID: "d2", ChunkIndex: 0, Text: "Text three", PageNumber: 1},
	}
	if err := st.AddChunks(chunks); err != nil {
		t.Fatalf("adding chunks: %v", err)
	}

	idx := vectorindex.New("stub", 2)
	err = idx.Upsert(
		[]string{"d1_0000", "d1_0001", "d2_0000"},
		[][]float32{{1, 0}, {0.8, 0.6}, {0, 1}},
		[]vectorindex.ChunkMeta{{DocID: "d1"}, {DocID: "d1"}, {DocID: "d2"}},
	)
	if err != nil {
		t.Fatalf("upserting vectors: %v", err)
	}

	var inits atomic.Int32
	provider := embedding.NewProvider(func(ctx context.Context) (embedding.Embedder, error) {
		inits.Add(1)
		return &stubEmbedder{queryVec: []float32{1, 0}}, nil
	})

	return NewEngine(st, idx, provider, reranker), &inits
}

func TestRetrieve_SimilarityOrder(t *testing.T) {
	e, _ := newTestEngine(t, nil)

	results, err := e.Retrieve(context.Background(), "ma requête", Options{})
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}

	wantIDs := []string{"d1_0000", "d1_0001", "d2_0000"}
	if len(results) != len(wantIDs) {
		t.Fatalf("got %d results, want %d", len(results), len(wantIDs))
	}
	for i, want := range wantIDs {
		if results[i].ChunkID != want {
			t.Errorf("result %d = %s, want %s", i, results[i].ChunkID, want)
		}
	}
	if results[0].CosineScore < 0.99 {
		t.Errorf("best CosineScore = %f, want ~1.0", results[0].CosineScore)
	}
	if results[2].CosineScore > 0.01 {
		t.Errorf("orthogonal CosineScore = %f, want ~0.0", results[2].CosineScore)
	}
}

func TestRetrieve_HydratesAttribution(t *testing.T) {
	e, _ := newTestEngine(t, nil)

	results, err := e.Retrieve(context.Background(), "q", Options{TopK: 1})
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}

	got := results[0]
	if got.Text != "Texte un" || got.PageNumber != 1 || got.SectionTitle != "Intro" {
		t.Errorf("chunk fields not hydrated: %+v", got)
	}
	if got.DocTitle != "Rapport A" || got.DocAuthors != "Dupont, J." ||
		got.APAReference != "Dupont, J. (2020). Rapport A." {
		t.Errorf("attribution not hydrated: %+v", got)
	}
	if got.RerankScore != 0 {
		t.Errorf("RerankScore = %f before reranking, want 0", got.RerankScore)
	}
}

func TestRetrieve_MetadataPrefilter(t *testing.T) {
	e, _ := newTestEngine(t, nil)

	results, err := e.Retrieve(context.Background(), "q", Options{
		Filter: store.DocumentFilter{Language: "fr"},
	})
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2 (d1 chunks only)", len(results))
	}
	for _, r := range results {
		if r.DocID != "d1" {
			t.Errorf("filtered retrieval returned chunk from %s", r.DocID)
		}
	}
}

func TestRetrieve_EmptyPrefilterShortCircuits(t *testing.T) {
	e, inits := newTestEngine(t, nil)

	results, err := e.Retrieve(context.Background(), "q", Options{
		Filter: store.DocumentFilter{Language: "de"},
	})
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}

	if len(results) != 0 {
		t.Errorf("got %d results, want 0", len(results))
	}
	if inits.Load() != 0 {
		t.Errorf("embedder initialized %d times despite empty prefilter, want 0", inits.Load())
	}
}

func TestRetrieve_Reranks(t *testing.T) {
	scorer := &stubScorer{scores: []float32{0.1, 0.9, 0.5}}
	reranker := rerank.New(func(ctx context.Context) (rerank.Scorer, error) {
		return scorer, nil
	})
	e, _ := newTestEngine(t, reranker)

	results, err := e.Retrieve(context.Background(), "q", Options{TopK: 2})
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].ChunkID != "d1_0001" || results[0].RerankScore != 0.9 {
		t.Errorf("best result = %s (%f), want d1_0001 (0.9)", results[0].ChunkID, results[0].RerankScore)
	}
	if results[1].ChunkID != "d2_0000" || results[1].RerankScore != 0.5 {
		t.Errorf("second result = %s (%f), want d2_0000 (0.5)", results[1].ChunkID, results[1].RerankScore)
	}
	if results[0].CosineScore < 0.79 || results[0].CosineScore > 0.81 {
		t.Errorf("CosineScore = %f not preserved through rerank", results[0].CosineScore)
	}
}

func TestRetrieve_NoRerankSkipsScorer(t *testing.T) {
	scorer := &stubScorer{scores: []float32{0.1, 0.9, 0.5}}
	reranker := rerank.New(func(ctx context.Context) (rerank.Scorer, error) {
		return scorer, nil
	})
	e, _ := newTestEngine(t, reranker)

	results, err := e.Retrieve(context.Background(), "q", Options{NoRerank: true})
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}

	if scorer.calls.Load() != 0 {
		t.Errorf("scorer called %d times with NoRerank, want 0", scorer.calls.Load())
	}
	if results[0].ChunkID != "d1_0000" {
		t.Errorf("results should keep similarity order, got %s first", results[0].ChunkID)
	}
}

func TestRetrieve_SkipsStaleIndexEntries(t *testing.T) {
	e, _ := newTestEngine(t, nil)

	// Simulate index drift: a vector whose chunk the store never had.
	err := e.index.Upsert(
		[]string{"ghost_0000"},
		[][]float32{{0.9, 0.1}},
		[]vectorindex.ChunkMeta{{DocID: "ghost"}},
	)
	if err != nil {
		t.Fatalf("upserting ghost vector: %v", err)
	}

	results, err := e.Retrieve(context.Background(), "q", Options{})
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}

	for _, r := range results {
		if r.ChunkID == "ghost_0000" {
			t.Error("stale index entry leaked into results")
		}
	}
	if len(results) != 3 {
		t.Errorf("got %d results, want 3 live chunks", len(results))
	}
}

func TestRetrieve_DefaultTopK(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "metadata.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	if err := st.AddDocument(store.DocumentMetadata{
		DocID: "d1", Filepath: "/tmp/a.pdf", Filename: "a.pdf",
	}); err != nil {
		t.Fatalf("adding document: %v", err)
	}

	idx := vectorindex.New("stub", 2)
	for i := 0; i < DefaultTopK+3; i++ {
		c := chunk.Chunk{DocID: "d1", ChunkIndex: i, Text: "Bloc de texte", PageNumber: i + 1}
		if err := st.AddChunks([]chunk.Chunk{c}); err != nil {
			t.Fatalf("adding chunk %d: %v", i, err)
		}
		err := idx.Upsert(
			[]string{c.ID()},
			[][]float32{{1, float32(i) / 100}},
			[]vectorindex.ChunkMeta{{DocID: "d1"}},
		)
		if err != nil {
			t.Fatalf("upserting vector %d: %v", i, err)
		}
	}

	provider := embedding.NewProvider(func(ctx context.Context) (embedding.Embedder, error) {
		return &stubEmbedder{queryVec: []float32{1, 0}}, nil
	})
	e := NewEngine(st, idx, provider, nil)

	results, err := e.Retrieve(context.Background(), "q", Options{})
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(results) != DefaultTopK {
		t.Errorf("got %d results with zero TopK, want %d", len(results), DefaultTopK)
	}
}

func TestRetrieve_TopNLimit(t *testing.T) {
	e, _ := newTestEngine(t, nil)

	results, err := e.Retrieve(context.Background(), "q", Options{TopN: 2})
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("got %d results, want 2", len(results))
	}
}
