package main

import (
	"context"
	"errors"
	"strings"

	"github.com/orchestria/corpus/internal/assemble"
	"github.com/orchestria/corpus/internal/rerank"
	"github.com/orchestria/corpus/internal/retrieve"
	"github.com/orchestria/corpus/internal/store"
	"github.com/spf13/cobra"
)

var (
	queryTopN     int
	queryTopK     int
	queryNoRerank bool
	queryContext  bool
	queryLang     string
	queryType     string
	queryYearMin  int
	queryYearMax  int
)

func init() {
	rootCmd.AddCommand(queryCmd)

	queryCmd.Flags().IntVarP(&queryTopN, "top-n", "n", 0, "Similarity-stage candidate count (default from config)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "Final result count (default from config)")
	queryCmd.Flags().BoolVar(&queryNoRerank, "no-rerank", false, "Skip the reranking stage")
	queryCmd.Flags().BoolVar(&queryContext, "context", false, "Output an assembled context block instead of result records")
	queryCmd.Flags().StringVar(&queryLang, "lang", "", "Restrict to documents in this language")
	queryCmd.Flags().StringVar(&queryType, "type", "", "Restrict to documents of this type")
	queryCmd.Flags().IntVar(&queryYearMin, "year-min", 0, "Restrict to documents from this year on")
	queryCmd.Flags().IntVar(&queryYearMax, "year-max", 0, "Restrict to documents up to this year")
}

// QueryResponse is the response for the query command.
type QueryResponse struct {
	Query   string               `json:"query"`
	Results []rerank.ScoredChunk `json:"results"`
	Total   int                  `json:"total"`
	Context string               `json:"context,omitempty"`
}

var queryCmd = &cobra.Command{
	Use:   "query <text>",
	Short: "Retrieve the chunks most relevant to a query",
	Long: `Run two-stage retrieval: metadata prefilter, vector similarity,
then cross-encoder reranking.

Requires an index built with 'corpus index build'. With --context the
output is a single citation-traceable text block ready for prompt
injection.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	query := strings.TrimSpace(args[0])
	if query == "" {
		exitWithError(ExitError, "query cannot be empty")
	}

	root := mustFindWorkspace()
	cfg := mustLoadConfig(root)

	st := mustOpenStore(root)
	defer st.Close()

	idx := mustLoadIndex(root)

	engine := retrieve.NewEngine(st, idx, newProvider(cfg), newReranker(cfg))

	topN := queryTopN
	if topN <= 0 {
		topN = cfg.Retrieval.TopN
	}
	topK := queryTopK
	if topK <= 0 {
		topK = cfg.Retrieval.TopK
	}

	results, err := engine.Retrieve(ctx, query, retrieve.Options{
		TopN:     topN,
		TopK:     topK,
		NoRerank: queryNoRerank,
		Filter: store.DocumentFilter{
			Language: queryLang,
			DocType:  queryType,
			YearMin:  queryYearMin,
			YearMax:  queryYearMax,
		},
	})
	if err != nil {
		if errors.Is(err, rerank.ErrCapabilityUnavailable) {
			exitWithError(ExitBackendDown, "reranking backend unavailable: %v\n\nUse --no-rerank for similarity-only retrieval.", err)
		}
		exitWithError(ExitBackendDown, "retrieval failed: %v", err)
	}

	if queryContext {
		block := assemble.BuildContext(results)
		if humanOutput {
			outputHuman("%s\n", block)
		} else {
			outputJSON(QueryResponse{Query: query, Total: len(results), Context: block})
		}
		return nil
	}

	if humanOutput {
		for i, r := range results {
			score := r.RerankScore
			if queryNoRerank {
				score = r.CosineScore
			}
			outputHuman("%d. [%.3f] %s (page %d)\n", i+1, score, r.ChunkID, r.PageNumber)
			if r.SectionTitle != "" {
				outputHuman("   %s\n", r.SectionTitle)
			}
			outputHuman("   %s\n\n", truncateString(r.Text, 160))
		}
		outputHuman("%d results\n", len(results))
	} else {
		outputJSON(QueryResponse{Query: query, Results: results, Total: len(results)})
	}
	return nil
}
