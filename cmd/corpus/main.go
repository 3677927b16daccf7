// Package main provides the corpus CLI entry point.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

func main() {
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Grounded retrieval over a document corpus",
	Long: `corpus manages a document corpus for retrieval-augmented generation.

Documents are chunked, stored in SQLite with rich metadata, and indexed
with local embeddings. Queries run a two-stage pipeline: vector
similarity followed by cross-encoder reranking, with results rendered
as citation-traceable context blocks. All commands output JSON by
default for easy integration with agents and other tools.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.Version = Version
}
