package extract

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFromTextFile_Plain(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	content := "Premier paragraphe.\n\nDeuxième paragraphe."
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	res, err := FromTextFile(path)
	if err != nil {
		t.Fatalf("FromTextFile failed: %v", err)
	}

	if res.Text != content {
		t.Errorf("Text = %q, want %q", res.Text, content)
	}
	if res.Structure != nil {
		t.Errorf("expected nil structure for plain text, got %d segments", len(res.Structure))
	}
	if res.Status != StatusSuccess {
		t.Errorf("Status = %q, want %q", res.Status, StatusSuccess)
	}
	if res.Filename != "notes.txt" {
		t.Errorf("Filename = %q, want notes.txt", res.Filename)
	}
	if res.WordCount != 4 {
		t.Errorf("WordCount = %d, want 4", res.WordCount)
	}
}

func TestFromTextFile_MarkdownOutline(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.md")
	content := "# Introduction\n\nContenu de l'introduction.\n\n## Contexte\n\nContenu du contexte."
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	res, err := FromTextFile(path)
	if err != nil {
		t.Fatalf("FromTextFile failed: %v", err)
	}

	if len(res.Structure) != 4 {
		t.Fatalf("expected 4 segments, got %d", len(res.Structure))
	}

	want := []Segment{
		{Text: "Introduction", Type: SegmentTitle, Page: 1, Level: 1},
		{Text: "Contenu de l'introduction.", Type: SegmentParagraph, Page: 1},
		{Text: "Contexte", Type: SegmentTitle, Page: 1, Level: 2},
		{Text: "Contenu du contexte.", Type: SegmentParagraph, Page: 1},
	}
	for i, seg := range res.Structure {
		if seg != want[i] {
			t.Errorf("segment %d = %+v, want %+v", i, seg, want[i])
		}
	}
}

func TestFromTextFile_Missing(t *testing.T) {
	_, err := FromTextFile(filepath.Join(t.TempDir(), "absent.txt"))
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParseHeading(t *testing.T) {
	tests := []struct {
		name      string
		block     string
		wantLevel int
		wantTitle string
		wantOK    bool
	}{
		{"h1", "# Titre", 1, "Titre", true},
		{"h3", "### Sous-section", 3, "Sous-section", true},
		{"no space after hashes", "#Titre", 0, "", false},
		{"too deep", "####### Trop", 0, "", false},
		{"hashes only", "###", 0, "", false},
		{"multiline block", "# Titre\ntexte", 0, "", false},
		{"plain paragraph", "Un paragraphe.", 0, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, title, ok := parseHeading(tt.block)
			if level != tt.wantLevel || title != tt.wantTitle || ok != tt.wantOK {
				t.Errorf("parseHeading(%q) = (%d, %q, %v), want (%d, %q, %v)",
					tt.block, level, title, ok, tt.wantLevel, tt.wantTitle, tt.wantOK)
			}
		})
	}
}
