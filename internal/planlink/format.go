package planlink

import (
	"fmt"
	"strings"
)

// FormatForPrompt renders a PlanContext as the corpus section of a
// planning prompt. Themes missing from the coverage map render as weak
// coverage.
func FormatForPrompt(ctx *PlanContext) string {
	var lines []string

	s := ctx.CorpusSummary
	lines = append(lines, fmt.Sprintf("Nombre de documents : %d", s.TotalDocuments))
	lines = append(lines, fmt.Sprintf("Tokens totaux : %d", s.TotalTokens))
	if len(s.Languages) > 0 {
		lines = append(lines, "Langues : "+strings.Join(s.Languages, ", "))
	}
	if len(s.Types) > 0 {
		lines = append(lines, "Types : "+strings.Join(s.Types, ", "))
	}

	lines = append(lines, "", "Documents :")
	for _, d := range s.Documents {
		lines = append(lines, fmt.Sprintf("  - %s (%d pages, %d tokens)", d.Title, d.Pages, d.Tokens))
	}

	if len(ctx.Themes) > 0 {
		lines = append(lines, "", "Thèmes identifiés dans le corpus :")
		for _, theme := range ctx.Themes {
			cov := ctx.Coverage[theme]
			lines = append(lines, fmt.Sprintf("  - [%s] %s (score: %.2f, %d blocs)",
				Classify(cov.AvgScore), theme, cov.AvgScore, cov.ChunkCount))
		}
	}

	return strings.Join(lines, "\n")
}
