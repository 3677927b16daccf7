package planlink

import (
	"context"
	"fmt"
	"sort"

	"github.com/orchestria/corpus/internal/chunk"
	"github.com/orchestria/corpus/internal/store"
	"github.com/orchestria/corpus/internal/vectorindex"
)

// Sampling defaults for theme extraction.
const (
	DefaultMaxIntroChunks = 3
	DefaultMaxThemeDocs   = 30
	coverageTopK          = 10
	coverageMinScore      = 0.3
)

// QueryEmbedder is the embedding capability the linker needs for
// coverage estimation.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Linker builds a PlanContext from the stored corpus and its vector
// index. Generator and embedder are optional: without a generator,
// themes come from the text heuristic; without an embedder, coverage
// stays empty for every theme.
type Linker struct {
	store          *store.Store
	index          *vectorindex.Index
	embedder       QueryEmbedder
	generator      Generator
	maxIntroChunks int
	maxThemeDocs   int
}

// LinkerOption configures a Linker.
type LinkerOption func(*Linker)

// WithGenerator enables model-assisted theme extraction.
func WithGenerator(g Generator) LinkerOption {
	return func(l *Linker) { l.generator = g }
}

// WithEmbedder enables coverage estimation.
func WithEmbedder(e QueryEmbedder) LinkerOption {
	return func(l *Linker) { l.embedder = e }
}

// WithMaxIntroChunks limits how many leading chunks per document feed
// theme extraction.
func WithMaxIntroChunks(n int) LinkerOption {
	return func(l *Linker) { l.maxIntroChunks = n }
}

// WithMaxThemeDocs limits how many documents are sampled for themes.
func WithMaxThemeDocs(n int) LinkerOption {
	return func(l *Linker) { l.maxThemeDocs = n }
}

// NewLinker creates a Linker over a metadata store and vector index.
func NewLinker(st *store.Store, idx *vectorindex.Index, opts ...LinkerOption) *Linker {
	l := &Linker{
		store:          st,
		index:          idx,
		maxIntroChunks: DefaultMaxIntroChunks,
		maxThemeDocs:   DefaultMaxThemeDocs,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Link inventories the corpus, extracts themes, and estimates how well
// the index covers each theme. A failing generator falls back to the
// heuristic; a failing coverage query degrades that theme to zero
// coverage rather than aborting.
func (l *Linker) Link(ctx context.Context, objective string) (*PlanContext, error) {
	docs, err := l.store.ListDocuments()
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	summary := buildSummary(docs)

	sampled, err := l.sampleChunks(docs)
	if err != nil {
		return nil, fmt.Errorf("sampling chunks: %w", err)
	}

	themes := extractThemesSimple(sampled)
	if l.generator != nil && len(sampled) > 0 {
		if generated, err := l.generateThemes(ctx, objective, sampled); err == nil && len(generated) > 0 {
			themes = generated
		}
	}

	return &PlanContext{
		CorpusSummary: summary,
		Themes:        themes,
		Coverage:      l.estimateCoverage(ctx, themes),
	}, nil
}

func buildSummary(docs []store.DocumentMetadata) CorpusSummary {
	summary := CorpusSummary{
		TotalDocuments: len(docs),
		Languages:      []string{},
		Types:          []string{},
		Documents:      make([]DocumentDigest, 0, len(docs)),
	}

	langs := make(map[string]bool)
	types := make(map[string]bool)
	for _, d := range docs {
		summary.TotalTokens += d.TokenCount
		if d.Language != "" && !langs[d.Language] {
			langs[d.Language] = true
			summary.Languages = append(summary.Languages, d.Language)
		}
		if d.DocType != "" && !types[d.DocType] {
			types[d.DocType] = true
			summary.Types = append(summary.Types, d.DocType)
		}

		title := d.Title
		if title == "" {
			title = d.Filename
		}
		summary.Documents = append(summary.Documents, DocumentDigest{
			Title:  title,
			Pages:  d.PageCount,
			Tokens: d.TokenCount,
			Type:   d.DocType,
		})
	}
	sort.Strings(summary.Languages)
	sort.Strings(summary.Types)
	return summary
}

// sampleChunks collects the leading chunks of each document, bounded
// per document and across documents.
func (l *Linker) sampleChunks(docs []store.DocumentMetadata) ([]chunk.Chunk, error) {
	var sampled []chunk.Chunk
	for i, d := range docs {
		if i >= l.maxThemeDocs {
			break
		}
		chunks, err := l.store.ChunksByDoc(d.DocID)
		if err != nil {
			return nil, err
		}
		if len(chunks) > l.maxIntroChunks {
			chunks = chunks[:l.maxIntroChunks]
		}
		sampled = append(sampled, chunks...)
	}
	return sampled, nil
}

func (l *Linker) generateThemes(ctx context.Context, objective string, sampled []chunk.Chunk) ([]string, error) {
	response, err := l.generator.Generate(ctx,
		"Tu es un analyste documentaire expert.",
		themePrompt(objective, sampled))
	if err != nil {
		return nil, err
	}
	return parseGeneratedThemes(response), nil
}

// estimateCoverage queries the index for each theme and averages the
// similarity of the top matches. Themes that cannot be scored get zero
// coverage.
func (l *Linker) estimateCoverage(ctx context.Context, themes []string) map[string]ThemeCoverage {
	coverage := make(map[string]ThemeCoverage, len(themes))
	for _, theme := range themes {
		coverage[theme] = l.coverageFor(ctx, theme)
	}
	return coverage
}

func (l *Linker) coverageFor(ctx context.Context, theme string) ThemeCoverage {
	if l.embedder == nil || l.index == nil {
		return ThemeCoverage{}
	}

	vec, err := l.embedder.EmbedQuery(ctx, theme)
	if err != nil {
		return ThemeCoverage{}
	}

	results := l.index.Query(vec, coverageTopK, nil)
	if len(results) == 0 {
		return ThemeCoverage{}
	}

	var sum float64
	var covered int
	for _, r := range results {
		score := float64(r.Score())
		sum += score
		if score > coverageMinScore {
			covered++
		}
	}
	return ThemeCoverage{
		AvgScore:   sum / float64(len(results)),
		ChunkCount: covered,
	}
}
