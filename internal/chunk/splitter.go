package chunk

import (
	"regexp"
	"strings"

	"github.com/orchestria/corpus/internal/extract"
	"github.com/orchestria/corpus/internal/token"
)

const (
	// DefaultMaxTokens is the default upper bound on a chunk's
	// estimated token count.
	DefaultMaxTokens = 800

	// DefaultMinTokens is the default lower bound; smaller chunks are
	// merged into a neighbor so no fragment is retrieved on its own.
	DefaultMinTokens = 50
)

// sentencePattern splits text into sentence-sized pieces for oversized
// paragraphs. Anything after the last terminator is handled separately.
var sentencePattern = regexp.MustCompile(`[^.!?]+[.!?]+`)

// Splitter turns one extracted document into an ordered chunk sequence.
type Splitter struct {
	maxTokens int
	minTokens int
	estimator token.Estimator
}

// SplitterOption configures a Splitter.
type SplitterOption func(*Splitter)

// WithMaxTokens sets the maximum estimated tokens per chunk.
func WithMaxTokens(n int) SplitterOption {
	return func(s *Splitter) {
		s.maxTokens = n
	}
}

// WithMinTokens sets the minimum estimated tokens per chunk.
func WithMinTokens(n int) SplitterOption {
	return func(s *Splitter) {
		s.minTokens = n
	}
}

// WithEstimator sets the token estimator.
func WithEstimator(e token.Estimator) SplitterOption {
	return func(s *Splitter) {
		s.estimator = e
	}
}

// NewSplitter creates a Splitter with the default bounds and the
// word-count token estimator.
func NewSplitter(opts ...SplitterOption) *Splitter {
	s := &Splitter{
		maxTokens: DefaultMaxTokens,
		minTokens: DefaultMinTokens,
		estimator: token.WordEstimator{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Split chunks one extracted document. Strategy, in priority order:
// section grouping when a structural outline exists, raw-text
// paragraph accumulation otherwise. Undersized chunks are merged into
// a neighbor afterwards. Empty text with no outline, or an explicitly
// empty outline, yield an empty sequence; Split never fails.
func (s *Splitter) Split(res *extract.Result, docID string) []Chunk {
	if res == nil {
		return nil
	}

	var chunks []Chunk
	if res.Structure != nil {
		chunks = s.splitSections(res.Structure, docID)
	} else {
		chunks = s.splitText(res.Text, docID)
	}

	chunks = s.mergeShort(chunks)
	for i := range chunks {
		chunks[i].ChunkIndex = i
	}
	return chunks
}

// section is a run of paragraphs under one title segment.
type section struct {
	title string
	page  int
	parts []string
}

// splitSections groups consecutive paragraph segments under the
// nearest preceding title (level >= 1), then splits oversized sections.
func (s *Splitter) splitSections(segments []extract.Segment, docID string) []Chunk {
	var sections []section
	var current *section

	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}

		if seg.Type == extract.SegmentTitle && seg.Level >= 1 {
			sections = append(sections, section{title: text, page: seg.Page})
			current = &sections[len(sections)-1]
			continue
		}

		// Paragraphs before the first title form an untitled section.
		if current == nil {
			sections = append(sections, section{page: seg.Page})
			current = &sections[len(sections)-1]
		}
		current.parts = append(current.parts, text)
	}

	var chunks []Chunk
	for _, sec := range sections {
		if len(sec.parts) == 0 {
			continue
		}
		text := strings.Join(sec.parts, "\n\n")
		for _, piece := range s.splitOversized(text) {
			chunks = append(chunks, Chunk{
				DocID:        docID,
				Text:         piece,
				PageNumber:   sec.page,
				SectionTitle: sec.title,
			})
		}
	}
	return chunks
}

// splitText chunks raw text with no structural outline.
func (s *Splitter) splitText(text string, docID string) []Chunk {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var chunks []Chunk
	for _, piece := range s.splitOversized(text) {
		chunks = append(chunks, Chunk{
			DocID: docID,
			Text:  piece,
		})
	}
	return chunks
}

// splitOversized splits text into pieces of at most maxTokens estimated
// tokens by greedily accumulating paragraphs, falling back to sentence
// pieces for paragraphs that alone exceed the limit. Text within the
// limit is returned as a single piece.
func (s *Splitter) splitOversized(text string) []string {
	if s.estimator.Estimate(text) <= s.maxTokens {
		return []string{text}
	}

	var units []string
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if s.estimator.Estimate(para) <= s.maxTokens {
			units = append(units, para)
			continue
		}
		units = append(units, splitSentences(para)...)
	}

	var pieces []string
	var sb strings.Builder
	for _, unit := range units {
		if sb.Len() > 0 && s.estimator.Estimate(sb.String()+" "+unit) > s.maxTokens {
			pieces = append(pieces, sb.String())
			sb.Reset()
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(unit)
	}
	if sb.Len() > 0 {
		pieces = append(pieces, sb.String())
	}
	return pieces
}

// splitSentences splits a paragraph into sentence pieces. A trailing
// fragment without a terminator is kept so no text is dropped.
func splitSentences(text string) []string {
	matches := sentencePattern.FindAllString(text, -1)
	if matches == nil {
		return []string{text}
	}

	consumed := 0
	sentences := make([]string, 0, len(matches)+1)
	for _, m := range matches {
		consumed += len(m)
		if t := strings.TrimSpace(m); t != "" {
			sentences = append(sentences, t)
		}
	}
	if rest := strings.TrimSpace(text[consumed:]); rest != "" {
		sentences = append(sentences, rest)
	}
	return sentences
}

// mergeShort folds chunks below minTokens into their predecessor, or
// into the following chunk when the undersized chunk comes first.
// Merging concatenates text; no content is dropped.
func (s *Splitter) mergeShort(chunks []Chunk) []Chunk {
	if len(chunks) < 2 {
		return chunks
	}

	merged := make([]Chunk, 0, len(chunks))
	for _, c := range chunks {
		if len(merged) == 0 {
			merged = append(merged, c)
			continue
		}

		prev := &merged[len(merged)-1]
		switch {
		case s.estimator.Estimate(c.Text) < s.minTokens:
			// Undersized chunk joins its predecessor.
			prev.Text += "\n\n" + c.Text
		case len(merged) == 1 && s.estimator.Estimate(prev.Text) < s.minTokens:
			// Undersized leading chunk merges forward; the receiving
			// chunk keeps its own section metadata.
			c.Text = prev.Text + "\n\n" + c.Text
			if prev.PageNumber > 0 && (c.PageNumber == 0 || prev.PageNumber < c.PageNumber) {
				c.PageNumber = prev.PageNumber
			}
			merged[0] = c
		default:
			merged = append(merged, c)
		}
	}
	return merged
}
