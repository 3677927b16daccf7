package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// FromPDF extracts plain text from a PDF file, page by page.
// The result carries no structural outline; PDF text extraction does
// not reliably recover headings, so the chunker's raw-text fallback
// applies. Pages that fail to decode are skipped rather than failing
// the whole document.
func FromPDF(filePath string) (*Result, error) {
	f, r, err := pdf.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer f.Close()

	info, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("stat PDF: %w", err)
	}

	var sb strings.Builder
	numPages := r.NumPage()
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}

		sb.WriteString(text)
		sb.WriteString("\n\n")
	}

	text := strings.TrimSpace(sb.String())
	return &Result{
		Text:      text,
		PageCount: numPages,
		CharCount: len(text),
		WordCount: len(strings.Fields(text)),
		Method:    "pdf",
		Status:    StatusSuccess,
		Filename:  filepath.Base(filePath),
		SizeBytes: info.Size(),
	}, nil
}
