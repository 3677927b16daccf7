package chunk

import (
	"strings"
	"testing"

	"github.com/orchestria/corpus/internal/extract"
)

func makeResult(text string, structure []extract.Segment) *extract.Result {
	return &extract.Result{
		Text:      text,
		Structure: structure,
		PageCount: 1,
		CharCount: len(text),
		WordCount: len(strings.Fields(text)),
		Method:    "test",
		Status:    extract.StatusSuccess,
	}
}

func TestSplit_ThreeSections(t *testing.T) {
	structure := []extract.Segment{
		{Text: "Introduction", Type: extract.SegmentTitle, Page: 1, Level: 1},
		{Text: strings.Repeat("Ceci est le paragraphe d'introduction. ", 30), Type: extract.SegmentParagraph, Page: 1},
		{Text: "Méthodologie", Type: extract.SegmentTitle, Page: 2, Level: 1},
		{Text: strings.Repeat("Voici la méthodologie utilisée. ", 30), Type: extract.SegmentParagraph, Page: 2},
		{Text: "Résultats", Type: extract.SegmentTitle, Page: 3, Level: 1},
		{Text: strings.Repeat("Les résultats sont présentés ici. ", 30), Type: extract.SegmentParagraph, Page: 3},
	}

	chunks := NewSplitter().Split(makeResult("ignored", structure), "doc1")

	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}

	want := []struct {
		title string
		page  int
	}{
		{"Introduction", 1},
		{"Méthodologie", 2},
		{"Résultats", 3},
	}
	for i, w := range want {
		if chunks[i].SectionTitle != w.title {
			t.Errorf("chunk %d title = %q, want %q", i, chunks[i].SectionTitle, w.title)
		}
		if chunks[i].PageNumber != w.page {
			t.Errorf("chunk %d page = %d, want %d", i, chunks[i].PageNumber, w.page)
		}
	}
}

func TestSplit_DocIDAndIndices(t *testing.T) {
	structure := []extract.Segment{
		{Text: "Titre", Type: extract.SegmentTitle, Page: 1, Level: 1},
		{Text: strings.Repeat("Contenu. ", 60), Type: extract.SegmentParagraph, Page: 1},
	}

	chunks := NewSplitter().Split(makeResult("ignored", structure), "ABC123")

	if len(chunks) == 0 {
		t.Fatal("expected at least one chunk")
	}
	for i, c := range chunks {
		if c.DocID != "ABC123" {
			t.Errorf("chunk %d DocID = %q, want ABC123", i, c.DocID)
		}
		if c.ChunkIndex != i {
			t.Errorf("chunk %d ChunkIndex = %d, want %d", i, c.ChunkIndex, i)
		}
		if !strings.HasPrefix(c.ID(), "ABC123_") {
			t.Errorf("chunk %d ID = %q, want ABC123_ prefix", i, c.ID())
		}
	}
}

func TestSplit_OversizedSection(t *testing.T) {
	longText := strings.Repeat("Ceci est une phrase de test avec suffisamment de mots pour dépasser la limite. ", 100)
	structure := []extract.Segment{
		{Text: "Analyse approfondie", Type: extract.SegmentTitle, Page: 1, Level: 1},
		{Text: longText, Type: extract.SegmentParagraph, Page: 1},
	}

	chunks := NewSplitter(WithMaxTokens(200)).Split(makeResult("ignored", structure), "doc2")

	if len(chunks) <= 1 {
		t.Fatalf("expected oversized section to split into multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if c.SectionTitle != "Analyse approfondie" {
			t.Errorf("chunk %d title = %q, want Analyse approfondie", i, c.SectionTitle)
		}
		if c.PageNumber != 1 {
			t.Errorf("chunk %d page = %d, want 1", i, c.PageNumber)
		}
	}
}

func TestSplit_NoStructureFallback(t *testing.T) {
	text := strings.Repeat("Premier paragraphe de texte. ", 50) + "\n\n" + strings.Repeat("Deuxième paragraphe. ", 50)
	chunks := NewSplitter().Split(makeResult(text, nil), "doc3")

	if len(chunks) == 0 {
		t.Fatal("expected at least one chunk")
	}
	for i, c := range chunks {
		if c.DocID != "doc3" {
			t.Errorf("chunk %d DocID = %q, want doc3", i, c.DocID)
		}
		if c.SectionTitle != "" {
			t.Errorf("chunk %d title = %q, want empty", i, c.SectionTitle)
		}
	}
}

func TestSplit_ShortText(t *testing.T) {
	text := "Un court texte de test."
	chunks := NewSplitter().Split(makeResult(text, nil), "doc4")

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != text {
		t.Errorf("Text = %q, want %q", chunks[0].Text, text)
	}
}

func TestSplit_ShortTrailingChunkMerged(t *testing.T) {
	body := strings.TrimSpace(strings.Repeat("Contenu substantiel pour le premier bloc de la section. ", 20))
	text := body + "\n\nCourt."
	splitter := NewSplitter(WithMaxTokens(150), WithMinTokens(50))

	chunks := splitter.Split(makeResult(text, nil), "doc5")

	// Without merging the trailing "Court." would stand alone.
	last := chunks[len(chunks)-1]
	if !strings.Contains(last.Text, "Court.") {
		t.Error("trailing fragment missing from final chunk")
	}
	joined := strings.Join(chunkTexts(chunks), "\n\n")
	if !strings.Contains(joined, "Court.") || !strings.Contains(joined, "Contenu substantiel") {
		t.Error("source text lost during merge")
	}
	for _, c := range chunks {
		if splitter.estimator.Estimate(c.Text) < 50 {
			t.Errorf("chunk below min tokens survived merge: %q", c.Text)
		}
	}
}

func TestSplit_ShortLeadingChunkMergedForward(t *testing.T) {
	structure := []extract.Segment{
		{Text: "Préface", Type: extract.SegmentTitle, Page: 1, Level: 1},
		{Text: "Trop court.", Type: extract.SegmentParagraph, Page: 1},
		{Text: "Chapitre", Type: extract.SegmentTitle, Page: 2, Level: 1},
		{Text: strings.Repeat("Contenu du chapitre avec assez de mots. ", 20), Type: extract.SegmentParagraph, Page: 2},
	}

	chunks := NewSplitter().Split(makeResult("ignored", structure), "doc6")

	if len(chunks) != 1 {
		t.Fatalf("expected forward merge into 1 chunk, got %d", len(chunks))
	}
	if !strings.Contains(chunks[0].Text, "Trop court.") {
		t.Error("leading fragment lost during forward merge")
	}
	if chunks[0].SectionTitle != "Chapitre" {
		t.Errorf("title = %q, want Chapitre", chunks[0].SectionTitle)
	}
	if chunks[0].PageNumber != 1 {
		t.Errorf("page = %d, want earliest page 1", chunks[0].PageNumber)
	}
}

func TestSplit_EmptyInputs(t *testing.T) {
	splitter := NewSplitter()

	if chunks := splitter.Split(makeResult("", nil), "empty"); len(chunks) != 0 {
		t.Errorf("empty text: expected no chunks, got %d", len(chunks))
	}
	if chunks := splitter.Split(makeResult("du texte", []extract.Segment{}), "empty"); len(chunks) != 0 {
		t.Errorf("empty structure: expected no chunks, got %d", len(chunks))
	}
	if chunks := splitter.Split(nil, "empty"); len(chunks) != 0 {
		t.Errorf("nil extraction: expected no chunks, got %d", len(chunks))
	}
}

func TestChunkID_Format(t *testing.T) {
	c := Chunk{DocID: "doc1", ChunkIndex: 5}
	if c.ID() != "doc1_0005" {
		t.Errorf("ID() = %q, want doc1_0005", c.ID())
	}
}

func TestChunkIDs_Unique(t *testing.T) {
	text := strings.Repeat("Une phrase de remplissage qui occupe des tokens. ", 200)
	chunks := NewSplitter(WithMaxTokens(100)).Split(makeResult(text, nil), "doc7")

	seen := make(map[string]bool)
	for _, c := range chunks {
		if seen[c.ID()] {
			t.Errorf("duplicate chunk id %q", c.ID())
		}
		seen[c.ID()] = true
	}
}

func chunkTexts(chunks []Chunk) []string {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	return texts
}
