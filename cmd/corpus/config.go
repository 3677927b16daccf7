package main

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show workspace configuration",
	RunE:  runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	root := mustFindWorkspace()
	cfg := mustLoadConfig(root)

	if humanOutput {
		outputHuman("embedding: %s (%s, %d dims, batch %d)\n",
			cfg.Embedding.URL, cfg.Embedding.Model, cfg.Embedding.Dimensions, cfg.Embedding.BatchSize)
		outputHuman("rerank: %s (%s, enabled=%t)\n",
			cfg.Rerank.URL, cfg.Rerank.Model, cfg.Rerank.Enabled)
		outputHuman("chunking: max %d / min %d tokens\n",
			cfg.Chunking.MaxTokens, cfg.Chunking.MinTokens)
		outputHuman("retrieval: top_n %d, top_k %d\n",
			cfg.Retrieval.TopN, cfg.Retrieval.TopK)
	} else {
		outputJSON(cfg)
	}
	return nil
}
