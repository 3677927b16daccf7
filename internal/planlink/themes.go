package planlink

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/orchestria/corpus/internal/chunk"
)

const maxThemes = 15

// sampleCharsPerChunk bounds how much of each chunk feeds theme
// extraction.
const sampleCharsPerChunk = 500

var wordPattern = regexp.MustCompile(`\b[a-zà-ÿ]{4,}\b`)

var stopWords = map[string]bool{
	"dans": true, "avec": true, "pour": true, "cette": true,
	"comme": true, "plus": true, "être": true, "faire": true,
	"tout": true, "aussi": true, "entre": true, "mais": true,
	"très": true, "bien": true, "même": true, "peut": true,
	"sont": true, "leur": true, "leurs": true, "nous": true,
	"vous": true,
}

// extractThemesSimple derives themes without a model call. Section
// titles come first, deduplicated in encounter order; when the corpus
// yields fewer than three, frequent significant words fill the gap.
func extractThemesSimple(chunks []chunk.Chunk) []string {
	var themes []string
	seen := make(map[string]bool)

	for _, c := range chunks {
		if c.SectionTitle != "" && !seen[c.SectionTitle] {
			seen[c.SectionTitle] = true
			themes = append(themes, c.SectionTitle)
		}
	}

	if len(themes) < 3 {
		themes = append(themes, keywordThemes(chunks, seen)...)
	}

	if len(themes) > maxThemes {
		themes = themes[:maxThemes]
	}
	return themes
}

// keywordThemes extracts the most frequent significant words from the
// chunk texts, skipping stop words. Ties break by first occurrence so
// the result is deterministic.
func keywordThemes(chunks []chunk.Chunk, seen map[string]bool) []string {
	var sb strings.Builder
	for _, c := range chunks {
		text := c.Text
		if len(text) > sampleCharsPerChunk {
			text = text[:sampleCharsPerChunk]
		}
		sb.WriteString(text)
		sb.WriteString(" ")
	}

	words := wordPattern.FindAllString(strings.ToLower(sb.String()), -1)

	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	for i, w := range words {
		if stopWords[w] {
			continue
		}
		if _, ok := counts[w]; !ok {
			firstSeen[w] = i
		}
		counts[w]++
	}

	ranked := make([]string, 0, len(counts))
	for w := range counts {
		ranked = append(ranked, w)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if counts[ranked[i]] != counts[ranked[j]] {
			return counts[ranked[i]] > counts[ranked[j]]
		}
		return firstSeen[ranked[i]] < firstSeen[ranked[j]]
	})
	if len(ranked) > 10 {
		ranked = ranked[:10]
	}

	var out []string
	for _, w := range ranked {
		theme := capitalize(w)
		if !seen[theme] {
			seen[theme] = true
			out = append(out, theme)
		}
	}
	return out
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// themePrompt builds the theme extraction prompt from sampled chunks.
func themePrompt(objective string, chunks []chunk.Chunk) string {
	const maxPromptChunks = 30

	excerpts := make([]string, 0, maxPromptChunks)
	for i, c := range chunks {
		if i >= maxPromptChunks {
			break
		}
		text := c.Text
		if len(text) > sampleCharsPerChunk {
			text = text[:sampleCharsPerChunk]
		}
		excerpts = append(excerpts, text)
	}

	return fmt.Sprintf(`Analyse les extraits de corpus suivants et identifie les thèmes principaux
couverts par ces documents, en relation avec l'objectif suivant :

OBJECTIF : %s

EXTRAITS DU CORPUS :
%s

Retourne une liste de 5 à 15 thèmes, un par ligne, du plus important au moins important.
Chaque thème doit être une phrase courte (3-8 mots) décrivant un sujet couvert par le corpus.
Retourne UNIQUEMENT la liste, sans numérotation, sans commentaires.`,
		objective, strings.Join(excerpts, "\n---\n"))
}

// parseGeneratedThemes turns a model response into a theme list. Each
// line loses leading enumeration markers; lines of two characters or
// fewer are dropped. An empty result means the caller should fall back
// to heuristic extraction.
func parseGeneratedThemes(response string) []string {
	var themes []string
	for _, line := range strings.Split(strings.TrimSpace(response), "\n") {
		line = strings.TrimLeft(strings.TrimSpace(line), "0123456789.-•) ")
		if len(line) > 2 {
			themes = append(themes, line)
		}
	}
	if len(themes) > maxThemes {
		themes = themes[:maxThemes]
	}
	return themes
}
