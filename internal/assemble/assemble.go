// Package assemble renders ranked chunks into a citation-traceable
// grounding block for prompt construction.
package assemble

import (
	"fmt"
	"strings"

	"github.com/orchestria/corpus/internal/rerank"
)

// NoSourcesSentinel is returned for an empty chunk list so the prompt
// layer can detect the no-context condition deterministically.
const NoSourcesSentinel = "Aucune source disponible."

// BuildContext renders the chunks as numbered, delimited source
// blocks. Each block carries an attribution line (APA reference, else
// document title, else document id), the page and section when known,
// and the chunk body. Chunks are numbered 1..n in input order.
func BuildContext(chunks []rerank.ScoredChunk) string {
	if len(chunks) == 0 {
		return NoSourcesSentinel
	}

	var sb strings.Builder
	for i, c := range chunks {
		n := i + 1
		fmt.Fprintf(&sb, "SOURCE %d\n", n)
		sb.WriteString(attribution(c))
		sb.WriteString("\n")
		if c.PageNumber > 0 {
			fmt.Fprintf(&sb, "Page : %d\n", c.PageNumber)
		}
		if c.SectionTitle != "" {
			fmt.Fprintf(&sb, "Section : %s\n", c.SectionTitle)
		}
		sb.WriteString(c.Text)
		sb.WriteString("\n")
		fmt.Fprintf(&sb, "FIN SOURCE %d\n", n)
		if i < len(chunks)-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// attribution picks the most specific available source reference.
func attribution(c rerank.ScoredChunk) string {
	if c.APAReference != "" {
		return c.APAReference
	}
	if c.DocTitle != "" {
		return c.DocTitle
	}
	return c.DocID
}
