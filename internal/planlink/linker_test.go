package planlink

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/orchestria/corpus/internal/chunk"
	"github.com/orchestria/corpus/internal/store"
	"github.com/orchestria/corpus/internal/vectorindex"
)

type stubQueryEmbedder struct {
	vec []float32
	err error
}

func (s *stubQueryEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return s.vec, s.err
}

type stubGenerator struct {
	response string
	err      error
	prompts  []string
}

func (s *stubGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.response, s.err
}

func openTestCorpus(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "metadata.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	docs := []store.DocumentMetadata{
		{DocID: "d1", Filepath: "/tmp/a.pdf", Filename: "a.pdf", Title: "Rapport Cloud",
			Language: "fr", DocType: "report", PageCount: 10, TokenCount: 2000},
		{DocID: "d2", Filepath: "/tmp/b.pdf", Filename: "b.pdf",
			Language: "en", DocType: "article", PageCount: 5, TokenCount: 1500},
	}
	for _, d := range docs {
		if err := st.AddDocument(d); err != nil {
			t.Fatalf("adding document: %v", err)
		}
	}

	chunks := []chunk.Chunk{
		{DocID: "d1", ChunkIndex: 0, Text: "Présentation du cloud.", SectionTitle: "Introduction", PageNumber: 1},
		{DocID: "d1", ChunkIndex: 1, Text: "Méthode employée.", SectionTitle: "Méthodologie", PageNumber: 2},
		{DocID: "d2", ChunkIndex: 0, Text: "Overview of results.", SectionTitle: "Résultats", PageNumber: 1},
	}
	if err := st.AddChunks(chunks); err != nil {
		t.Fatalf("adding chunks: %v", err)
	}
	return st
}

// buildCoverageIndex holds two orthogonal unit vectors so a query along
// the first axis scores 1.0 against one chunk and 0.0 against the
// other, averaging 0.5.
func buildCoverageIndex(t *testing.T) *vectorindex.Index {
	t.Helper()
	idx := vectorindex.New("all-minilm:l6-v2", 2)
	err := idx.Upsert(
		[]string{"d1_0000", "d2_0000"},
		[][]float32{{1, 0}, {0, 1}},
		[]vectorindex.ChunkMeta{{DocID: "d1"}, {DocID: "d2"}},
	)
	if err != nil {
		t.Fatalf("upserting vectors: %v", err)
	}
	return idx
}

func TestLink_CorpusSummary(t *testing.T) {
	st := openTestCorpus(t)
	l := NewLinker(st, nil)

	ctx, err := l.Link(context.Background(), "objectif")
	if err != nil {
		t.Fatalf("Link failed: %v", err)
	}

	s := ctx.CorpusSummary
	if s.TotalDocuments != 2 {
		t.Errorf("TotalDocuments = %d, want 2", s.TotalDocuments)
	}
	if s.TotalTokens != 3500 {
		t.Errorf("TotalTokens = %d, want 3500", s.TotalTokens)
	}
	if len(s.Languages) != 2 || len(s.Types) != 2 {
		t.Errorf("languages %v types %v, want 2 of each", s.Languages, s.Types)
	}
	if len(s.Documents) != 2 {
		t.Fatalf("got %d document digests, want 2", len(s.Documents))
	}
	if s.Documents[0].Title != "Rapport Cloud" {
		t.Errorf("digest title = %q, want document title", s.Documents[0].Title)
	}
	if s.Documents[1].Title != "b.pdf" {
		t.Errorf("digest title = %q, want filename fallback", s.Documents[1].Title)
	}
}

func TestLink_HeuristicThemes(t *testing.T) {
	st := openTestCorpus(t)
	l := NewLinker(st, nil)

	ctx, err := l.Link(context.Background(), "objectif")
	if err != nil {
		t.Fatalf("Link failed: %v", err)
	}

	for _, want := range []string{"Introduction", "Méthodologie", "Résultats"} {
		if !contains(ctx.Themes, want) {
			t.Errorf("themes %v missing %q", ctx.Themes, want)
		}
	}
}

func TestLink_GeneratorOverridesHeuristic(t *testing.T) {
	st := openTestCorpus(t)
	gen := &stubGenerator{response: "Gouvernance du cloud\nSécurité des données"}
	l := NewLinker(st, nil, WithGenerator(gen))

	ctx, err := l.Link(context.Background(), "rédiger un rapport cloud")
	if err != nil {
		t.Fatalf("Link failed: %v", err)
	}

	want := []string{"Gouvernance du cloud", "Sécurité des données"}
	if len(ctx.Themes) != 2 || ctx.Themes[0] != want[0] || ctx.Themes[1] != want[1] {
		t.Errorf("themes = %v, want %v", ctx.Themes, want)
	}
	if len(gen.prompts) != 1 {
		t.Fatalf("generator called %d times, want 1", len(gen.prompts))
	}
	if !strings.Contains(gen.prompts[0], "rédiger un rapport cloud") {
		t.Errorf("prompt missing objective:\n%s", gen.prompts[0])
	}
}

func TestLink_GeneratorFailureFallsBack(t *testing.T) {
	st := openTestCorpus(t)
	gen := &stubGenerator{err: errors.New("model unavailable")}
	l := NewLinker(st, nil, WithGenerator(gen))

	ctx, err := l.Link(context.Background(), "objectif")
	if err != nil {
		t.Fatalf("Link failed: %v", err)
	}

	if !contains(ctx.Themes, "Introduction") {
		t.Errorf("themes %v should come from the heuristic after generator failure", ctx.Themes)
	}
}

func TestLink_Coverage(t *testing.T) {
	st := openTestCorpus(t)
	idx := buildCoverageIndex(t)
	emb := &stubQueryEmbedder{vec: []float32{1, 0}}
	l := NewLinker(st, idx, WithEmbedder(emb))

	ctx, err := l.Link(context.Background(), "objectif")
	if err != nil {
		t.Fatalf("Link failed: %v", err)
	}

	cov, ok := ctx.Coverage["Introduction"]
	if !ok {
		t.Fatalf("coverage missing for Introduction: %v", ctx.Coverage)
	}
	if cov.AvgScore < 0.49 || cov.AvgScore > 0.51 {
		t.Errorf("AvgScore = %f, want 0.5", cov.AvgScore)
	}
	if cov.ChunkCount != 1 {
		t.Errorf("ChunkCount = %d, want 1 (only the aligned vector scores above 0.3)", cov.ChunkCount)
	}
}

func TestLink_EmbedderFailureDegradesToZero(t *testing.T) {
	st := openTestCorpus(t)
	idx := buildCoverageIndex(t)
	emb := &stubQueryEmbedder{err: errors.New("embedder down")}
	l := NewLinker(st, idx, WithEmbedder(emb))

	ctx, err := l.Link(context.Background(), "objectif")
	if err != nil {
		t.Fatalf("Link failed: %v", err)
	}

	for theme, cov := range ctx.Coverage {
		if cov.AvgScore != 0 || cov.ChunkCount != 0 {
			t.Errorf("theme %q coverage = %+v, want zero", theme, cov)
		}
	}
}

func TestLink_EmptyCorpus(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "metadata.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	defer st.Close()

	l := NewLinker(st, nil)
	ctx, err := l.Link(context.Background(), "objectif")
	if err != nil {
		t.Fatalf("Link failed: %v", err)
	}

	if ctx.CorpusSummary.TotalDocuments != 0 {
		t.Errorf("TotalDocuments = %d, want 0", ctx.CorpusSummary.TotalDocuments)
	}
	if len(ctx.Themes) != 0 {
		t.Errorf("themes = %v, want none", ctx.Themes)
	}
}

func TestLink_SamplingBounds(t *testing.T) {
	st := openTestCorpus(t)
	l := NewLinker(st, nil, WithMaxIntroChunks(1), WithMaxThemeDocs(1))

	ctx, err := l.Link(context.Background(), "objectif")
	if err != nil {
		t.Fatalf("Link failed: %v", err)
	}

	// Only d1's first chunk is sampled, so only its section title can
	// seed the theme list.
	if contains(ctx.Themes, "Méthodologie") || contains(ctx.Themes, "Résultats") {
		t.Errorf("themes %v include sections outside the sampling bounds", ctx.Themes)
	}
	if !contains(ctx.Themes, "Introduction") {
		t.Errorf("themes %v missing sampled section", ctx.Themes)
	}
}
