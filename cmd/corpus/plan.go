package main

import (
	"context"
	"errors"

	"github.com/orchestria/corpus/internal/config"
	"github.com/orchestria/corpus/internal/planlink"
	"github.com/orchestria/corpus/internal/vectorindex"
	"github.com/spf13/cobra"
)

var (
	planUseLLM bool
	planPrompt bool
)

func init() {
	rootCmd.AddCommand(planCmd)

	planCmd.Flags().BoolVar(&planUseLLM, "llm", false, "Use the generative backend for theme extraction")
	planCmd.Flags().BoolVar(&planPrompt, "prompt", false, "Output the prompt-ready corpus section instead of raw JSON")
}

var planCmd = &cobra.Command{
	Use:   "plan <objective>",
	Short: "Analyze corpus coverage for a writing objective",
	Long: `Inventory the corpus, extract its themes, and estimate how well the
index covers each theme.

Theme extraction uses section titles and frequent terms by default;
--llm asks the generative backend instead, falling back to the
heuristic on failure. Coverage estimation needs a built index and a
reachable embedding backend; without them every theme reports zero
coverage.`,
	Args: cobra.ExactArgs(1),
	RunE: runPlan,
}

func runPlan(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	root := mustFindWorkspace()
	cfg := mustLoadConfig(root)

	st := mustOpenStore(root)
	defer st.Close()

	opts := []planlink.LinkerOption{
		planlink.WithMaxIntroChunks(cfg.Planning.MaxIntroChunksPerDoc),
		planlink.WithMaxThemeDocs(cfg.Planning.MaxDocsForThemes),
	}

	// Coverage degrades to zero when no index exists yet.
	idx, err := vectorindex.Load(config.IndexPath(root))
	if err != nil && !errors.Is(err, vectorindex.ErrIndexNotFound) {
		exitWithError(ExitError, "loading index: %v", err)
	}
	if idx != nil {
		embedder, err := newProvider(cfg).Get(ctx)
		if err == nil {
			opts = append(opts, planlink.WithEmbedder(embedder))
		}
	}

	if planUseLLM {
		opts = append(opts, planlink.WithGenerator(planlink.NewOllamaGenerator(
			planlink.WithGenerateURL(cfg.Planning.GenerateURL),
			planlink.WithGenerateModel(cfg.Planning.GenerateModel),
		)))
	}

	linker := planlink.NewLinker(st, idx, opts...)
	planCtx, err := linker.Link(ctx, args[0])
	if err != nil {
		exitWithError(ExitError, "analyzing corpus: %v", err)
	}

	if planPrompt || humanOutput {
		outputHuman("%s\n", planlink.FormatForPrompt(planCtx))
	} else {
		outputJSON(planCtx)
	}
	return nil
}
