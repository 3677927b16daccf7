package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FromTextFile reads a plain-text or markdown file into a Result.
// Markdown ATX headings ("#", "##", ...) are mapped to title segments
// so that structured chunking can group paragraphs under them.
func FromTextFile(filePath string) (*Result, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	text := strings.TrimSpace(string(data))
	res := &Result{
		Text:      text,
		PageCount: 1,
		CharCount: len(text),
		WordCount: len(strings.Fields(text)),
		Method:    "text",
		Status:    StatusSuccess,
		Filename:  filepath.Base(filePath),
		SizeBytes: int64(len(data)),
	}

	if structure := parseMarkdownOutline(text); len(structure) > 0 {
		res.Structure = structure
	}
	return res, nil
}

// parseMarkdownOutline builds a structural outline from ATX headings.
// Returns nil if the text contains no headings at all, in which case
// the document is treated as unstructured.
func parseMarkdownOutline(text string) []Segment {
	var segments []Segment
	sawTitle := false

	for _, block := range strings.Split(text, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}

		if level, title, ok := parseHeading(block); ok {
			sawTitle = true
			segments = append(segments, Segment{
				Text:  title,
				Type:  SegmentTitle,
				Page:  1,
				Level: level,
			})
			continue
		}

		segments = append(segments, Segment{
			Text: block,
			Type: SegmentParagraph,
			Page: 1,
		})
	}

	if !sawTitle {
		return nil
	}
	return segments
}

// parseHeading parses a single-line ATX heading block.
func parseHeading(block string) (level int, title string, ok bool) {
	if strings.ContainsRune(block, '\n') || !strings.HasPrefix(block, "#") {
		return 0, "", false
	}

	i := 0
	for i < len(block) && block[i] == '#' {
		i++
	}
	if i > 6 || i >= len(block) || block[i] != ' ' {
		return 0, "", false
	}

	title = strings.TrimSpace(block[i:])
	if title == "" {
		return 0, "", false
	}
	return i, title, true
}
