package main

import (
	"errors"
	"os"

	"github.com/orchestria/corpus/internal/config"
	"github.com/orchestria/corpus/internal/embedding"
	"github.com/orchestria/corpus/internal/rerank"
	"github.com/orchestria/corpus/internal/store"
	"github.com/orchestria/corpus/internal/vectorindex"
)

// mustFindWorkspace locates the workspace root or exits.
func mustFindWorkspace() string {
	cwd, err := os.Getwd()
	if err != nil {
		exitWithError(ExitError, "getting current directory: %v", err)
	}

	root, err := config.FindWorkspace(cwd)
	if err != nil {
		exitWithError(ExitConfigError, "%v\n\nRun 'corpus init' to create a workspace.", err)
	}
	return root
}

// mustLoadConfig loads the workspace config or exits.
func mustLoadConfig(root string) *config.Config {
	cfg, err := config.Load(root)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}

// mustOpenStore opens the metadata store or exits.
func mustOpenStore(root string) *store.Store {
	st, err := store.Open(config.DBPath(root))
	if err != nil {
		exitWithError(ExitError, "opening store: %v", err)
	}
	return st
}

// mustLoadIndex loads the vector index or exits with guidance.
func mustLoadIndex(root string) *vectorindex.Index {
	idx, err := vectorindex.Load(config.IndexPath(root))
	if err != nil {
		if errors.Is(err, vectorindex.ErrIndexNotFound) {
			exitWithError(ExitConfigError, "vector index not found\n\nRun 'corpus index build' to create it.")
		}
		exitWithError(ExitError, "loading index: %v", err)
	}
	return idx
}

// newProvider builds the embedding provider from workspace config.
func newProvider(cfg *config.Config) *embedding.Provider {
	return embedding.NewOllamaProvider(
		embedding.WithBaseURL(cfg.Embedding.URL),
		embedding.WithModel(cfg.Embedding.Model),
		embedding.WithDimensions(cfg.Embedding.Dimensions),
		embedding.WithBatchSize(cfg.Embedding.BatchSize),
	)
}

// newReranker builds the reranker from workspace config; nil when
// reranking is disabled.
func newReranker(cfg *config.Config) *rerank.Reranker {
	if !cfg.Rerank.Enabled {
		return nil
	}
	return rerank.NewHTTP(
		rerank.WithScorerURL(cfg.Rerank.URL),
		rerank.WithScorerModel(cfg.Rerank.Model),
	)
}
