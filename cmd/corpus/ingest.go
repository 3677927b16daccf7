package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/orchestria/corpus/internal/chunk"
	"github.com/orchestria/corpus/internal/config"
	"github.com/orchestria/corpus/internal/extract"
	"github.com/orchestria/corpus/internal/store"
	"github.com/orchestria/corpus/internal/token"
	"github.com/spf13/cobra"
)

var ingestNoIndex bool

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().BoolVar(&ingestNoIndex, "no-index", false, "Skip embedding and indexing (run 'corpus index build' later)")
}

// IngestResult reports the outcome for one file.
type IngestResult struct {
	File    string `json:"file"`
	DocID   string `json:"doc_id,omitempty"`
	Chunks  int    `json:"chunks"`
	Tokens  int    `json:"tokens"`
	Pages   int    `json:"pages"`
	Indexed bool   `json:"indexed"`
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
}

// IngestResponse is the response for the ingest command.
type IngestResponse struct {
	Results  []IngestResult `json:"results"`
	Ingested int            `json:"ingested"`
	Failed   int            `json:"failed"`
}

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>...",
	Short: "Add documents to the corpus",
	Long: `Extract, chunk, store, and index one or more documents.

Supports PDF and plain-text/markdown files. A file that was already
ingested (same path) is replaced. Failures are isolated per file: a
document that cannot be processed does not stop the batch.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	root := mustFindWorkspace()
	cfg := mustLoadConfig(root)

	st := mustOpenStore(root)
	defer st.Close()

	var indexer *docIndexer
	if !ingestNoIndex {
		var err error
		indexer, err = openIndexer(ctx, root, cfg, st)
		if err != nil {
			exitWithError(ExitBackendDown, "embedding backend unavailable: %v\n\nUse --no-index to ingest without indexing.", err)
		}
	}

	resp := IngestResponse{Results: []IngestResult{}}
	for _, path := range args {
		result := ingestFile(ctx, st, cfg, indexer, path)
		if result.Status == "ingested" {
			resp.Ingested++
		} else {
			resp.Failed++
		}
		resp.Results = append(resp.Results, result)
	}

	if indexer != nil {
		if err := indexer.save(); err != nil {
			exitWithError(ExitError, "saving index: %v", err)
		}
	}

	if humanOutput {
		for _, r := range resp.Results {
			if r.Error != "" {
				outputHuman("FAIL %s: %s\n", r.File, r.Error)
				continue
			}
			outputHuman("OK   %s → %s (%d chunks, %d tokens)\n", r.File, r.DocID, r.Chunks, r.Tokens)
		}
		outputHuman("%d ingested, %d failed\n", resp.Ingested, resp.Failed)
	} else {
		outputJSON(resp)
	}

	if resp.Ingested == 0 && resp.Failed > 0 {
		os.Exit(ExitDataError)
	}
	return nil
}

// ingestFile processes a single file end to end. Errors are reported
// in the result, never raised, so batch ingestion continues.
func ingestFile(ctx context.Context, st *store.Store, cfg *config.Config, indexer *docIndexer, path string) IngestResult {
	result := IngestResult{File: path}

	res, err := extractFile(path)
	if err != nil {
		result.Status = "failed"
		result.Error = err.Error()
		return result
	}

	// Replace a previous ingest of the same path.
	if err := dropExisting(st, indexer, path); err != nil {
		result.Status = "failed"
		result.Error = err.Error()
		return result
	}

	docID := uuid.New().String()
	estimator := token.WordEstimator{}
	tokens := estimator.Estimate(res.Text)

	splitter := chunk.NewSplitter(
		chunk.WithMaxTokens(cfg.Chunking.MaxTokens),
		chunk.WithMinTokens(cfg.Chunking.MinTokens),
	)
	chunks := splitter.Split(res, docID)

	doc := store.DocumentMetadata{
		DocID:            docID,
		Filepath:         path,
		Filename:         filepath.Base(path),
		PageCount:        res.PageCount,
		TokenCount:       tokens,
		CharCount:        res.CharCount,
		WordCount:        res.WordCount,
		ExtractionMethod: res.Method,
		ExtractionStatus: res.Status,
		HashBinary:       fileHash(path),
		HashTextual:      textHash(res.Text),
	}
	if err := st.AddDocument(doc); err != nil {
		result.Status = "failed"
		result.Error = err.Error()
		return result
	}
	if err := st.AddChunks(chunks); err != nil {
		result.Status = "failed"
		result.Error = err.Error()
		return result
	}

	if indexer != nil {
		if err := indexer.indexDoc(ctx, doc, chunks); err != nil {
			result.Status = "failed"
			result.Error = fmt.Sprintf("indexing: %v", err)
			return result
		}
		result.Indexed = true
	}

	result.DocID = docID
	result.Chunks = len(chunks)
	result.Tokens = tokens
	result.Pages = res.PageCount
	result.Status = "ingested"
	return result
}

// extractFile picks the extractor by file extension.
func extractFile(path string) (*extract.Result, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return extract.FromPDF(path)
	case ".txt", ".md", ".markdown":
		return extract.FromTextFile(path)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
	}
}

// dropExisting removes any document previously ingested from the same
// path, cascading to its chunks and index entries.
func dropExisting(st *store.Store, indexer *docIndexer, path string) error {
	docs, err := st.ListDocuments()
	if err != nil {
		return err
	}
	for _, d := range docs {
		if d.Filepath != path {
			continue
		}
		if err := st.DeleteDocument(d.DocID); err != nil {
			return err
		}
		if indexer != nil {
			indexer.removeDoc(d.DocID)
		}
	}
	return nil
}

func fileHash(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func textHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
