// Package planlink analyzes the corpus before plan generation so the
// planner works from what the documents actually contain instead of
// the model's general knowledge.
package planlink

// DocumentDigest is a one-line view of a document for the corpus
// summary.
type DocumentDigest struct {
	Title  string `json:"title"`
	Pages  int    `json:"pages"`
	Tokens int    `json:"tokens"`
	Type   string `json:"type"`
}

// CorpusSummary is the inventory part of a PlanContext.
type CorpusSummary struct {
	TotalDocuments int              `json:"total_documents"`
	TotalTokens    int              `json:"total_tokens"`
	Languages      []string         `json:"languages"`
	Types          []string         `json:"types"`
	Documents      []DocumentDigest `json:"documents"`
}

// ThemeCoverage reports how well the indexed corpus covers one theme.
type ThemeCoverage struct {
	AvgScore   float64 `json:"avg_score"`
	ChunkCount int     `json:"nb_chunks"`
}

// PlanContext is the result of corpus analysis: inventory, extracted
// themes, and per-theme coverage estimates.
type PlanContext struct {
	CorpusSummary CorpusSummary            `json:"corpus_summary"`
	Themes        []string                 `json:"themes"`
	Coverage      map[string]ThemeCoverage `json:"coverage"`
}

// Coverage level labels used in prompt formatting.
const (
	CoverageStrong  = "FORT"
	CoveragePartial = "PARTIEL"
	CoverageWeak    = "FAIBLE"
)

// Classify buckets an average similarity score into a coverage level.
func Classify(avgScore float64) string {
	switch {
	case avgScore >= 0.5:
		return CoverageStrong
	case avgScore >= 0.3:
		return CoveragePartial
	default:
		return CoverageWeak
	}
}
