package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/orchestria/corpus/internal/chunk"
	"github.com/orchestria/corpus/internal/config"
	"github.com/orchestria/corpus/internal/embedding"
	"github.com/orchestria/corpus/internal/store"
	"github.com/orchestria/corpus/internal/vectorindex"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.AddCommand(indexBuildCmd)
	indexCmd.AddCommand(indexCheckCmd)
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the vector index",
}

var indexBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Embed and index all unindexed or stale documents",
	Long: `Embed chunk text and add the vectors to the index.

Only documents that were never indexed, changed since indexing, or
were indexed with a different embedding model are processed. The index
is rebuilt from scratch when the configured model changed.`,
	RunE: runIndexBuild,
}

var indexCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Report index freshness against the store",
	RunE:  runIndexCheck,
}

// docIndexer couples the vector index with the embedding provider and
// per-document freshness metadata.
type docIndexer struct {
	idx      *vectorindex.Index
	embedder embedding.Embedder
	st       *store.Store
	path     string
}

// openIndexer loads or creates the index and verifies the embedding
// backend is reachable.
func openIndexer(ctx context.Context, root string, cfg *config.Config, st *store.Store) (*docIndexer, error) {
	path := config.IndexPath(root)

	idx, err := vectorindex.Load(path)
	if errors.Is(err, vectorindex.ErrIndexNotFound) {
		idx = vectorindex.New(cfg.Embedding.Model, cfg.Embedding.Dimensions)
	} else if err != nil {
		return nil, err
	}

	// A model change invalidates every stored vector.
	if idx.ModelName != cfg.Embedding.Model {
		idx = vectorindex.New(cfg.Embedding.Model, cfg.Embedding.Dimensions)
		if err := st.ClearIndexMeta(); err != nil {
			return nil, err
		}
	}

	embedder, err := newProvider(cfg).Get(ctx)
	if err != nil {
		return nil, err
	}

	return &docIndexer{idx: idx, embedder: embedder, st: st, path: path}, nil
}

// indexDoc embeds a document's chunks and upserts their vectors.
func (di *docIndexer) indexDoc(ctx context.Context, doc store.DocumentMetadata, chunks []chunk.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	ids := make([]string, len(chunks))
	meta := make([]vectorindex.ChunkMeta, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
		ids[i] = c.ID()
		meta[i] = vectorindex.ChunkMeta{DocID: c.DocID}
	}

	vectors, err := di.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return err
	}
	if err := di.idx.Upsert(ids, vectors, meta); err != nil {
		return err
	}

	return di.st.SaveIndexMeta(store.IndexMeta{
		DocID:     doc.DocID,
		ModelName: di.embedder.ModelName(),
		IndexedAt: time.Now().Unix(),
		TextHash:  doc.HashTextual,
	})
}

func (di *docIndexer) removeDoc(docID string) {
	di.idx.RemoveDoc(docID)
}

func (di *docIndexer) save() error {
	return di.idx.Save(di.path)
}

// needsIndexing decides whether a document's vectors are missing or
// stale.
func needsIndexing(st *store.Store, doc store.DocumentMetadata, modelName string) (bool, error) {
	meta, err := st.GetIndexMeta(doc.DocID)
	if err != nil {
		return false, err
	}
	if meta == nil {
		return true, nil
	}
	return meta.ModelName != modelName || meta.TextHash != doc.HashTextual, nil
}

// IndexBuildResponse is the response for the index build command.
type IndexBuildResponse struct {
	Indexed   int    `json:"indexed"`
	Skipped   int    `json:"skipped"`
	Vectors   int    `json:"vectors"`
	Model     string `json:"model"`
	SizeBytes int64  `json:"size_bytes"`
}

func runIndexBuild(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	root := mustFindWorkspace()
	cfg := mustLoadConfig(root)

	st := mustOpenStore(root)
	defer st.Close()

	indexer, err := openIndexer(ctx, root, cfg, st)
	if err != nil {
		exitWithError(ExitBackendDown, "embedding backend unavailable: %v", err)
	}

	docs, err := st.ListDocuments()
	if err != nil {
		exitWithError(ExitError, "listing documents: %v", err)
	}

	resp := IndexBuildResponse{Model: cfg.Embedding.Model}
	for _, doc := range docs {
		stale, err := needsIndexing(st, doc, cfg.Embedding.Model)
		if err != nil {
			exitWithError(ExitError, "checking index state for %s: %v", doc.DocID, err)
		}
		if !stale {
			resp.Skipped++
			continue
		}

		chunks, err := st.ChunksByDoc(doc.DocID)
		if err != nil {
			exitWithError(ExitError, "loading chunks for %s: %v", doc.DocID, err)
		}
		indexer.removeDoc(doc.DocID)
		if err := indexer.indexDoc(ctx, doc, chunks); err != nil {
			exitWithError(ExitError, "indexing %s: %v", doc.DocID, err)
		}
		resp.Indexed++
	}

	if err := indexer.save(); err != nil {
		exitWithError(ExitError, "saving index: %v", err)
	}
	resp.Vectors = indexer.idx.Len()
	if info, err := os.Stat(indexer.path); err == nil {
		resp.SizeBytes = info.Size()
	}

	if humanOutput {
		outputHuman("Indexed %d documents (%d already current), %d vectors, model %s, %s on disk\n",
			resp.Indexed, resp.Skipped, resp.Vectors, resp.Model, formatBytes(resp.SizeBytes))
	} else {
		outputJSON(resp)
	}
	return nil
}

// IndexCheckResponse is the response for the index check command.
type IndexCheckResponse struct {
	Documents int      `json:"documents"`
	Indexed   int      `json:"indexed"`
	Stale     []string `json:"stale"`
	Model     string   `json:"model"`
	Fresh     bool     `json:"fresh"`
}

func runIndexCheck(cmd *cobra.Command, args []string) error {
	root := mustFindWorkspace()
	cfg := mustLoadConfig(root)

	st := mustOpenStore(root)
	defer st.Close()

	docs, err := st.ListDocuments()
	if err != nil {
		exitWithError(ExitError, "listing documents: %v", err)
	}

	resp := IndexCheckResponse{
		Documents: len(docs),
		Stale:     []string{},
		Model:     cfg.Embedding.Model,
	}
	for _, doc := range docs {
		stale, err := needsIndexing(st, doc, cfg.Embedding.Model)
		if err != nil {
			exitWithError(ExitError, "checking index state for %s: %v", doc.DocID, err)
		}
		if stale {
			resp.Stale = append(resp.Stale, doc.DocID)
		} else {
			resp.Indexed++
		}
	}
	resp.Fresh = len(resp.Stale) == 0

	if humanOutput {
		if resp.Fresh {
			outputHuman("Index is current: %d/%d documents indexed with %s\n",
				resp.Indexed, resp.Documents, resp.Model)
		} else {
			outputHuman("Index is stale: %d documents need indexing\n", len(resp.Stale))
			for _, id := range resp.Stale {
				outputHuman("  %s\n", id)
			}
			outputHuman("\nRun 'corpus index build' to update.\n")
		}
	} else {
		outputJSON(resp)
	}

	if !resp.Fresh {
		os.Exit(ExitIndexStale)
	}
	return nil
}
