package cmd

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizrag/internal/config"
	"github.com/abhisek/quizrag/internal/llm"
	"github.com/abhisek/quizrag/internal/pipeline"
	"github.com/abhisek/quizrag/internal/prompt"
	"github.com/abhisek/quizrag/internal/store"
)

// buildPipeline opens the event log and wires providers into a Pipeline.
// The caller closes the returned store.
func buildPipeline(cmd *cobra.Command, cfg config.Config) (*pipeline.Pipeline, *store.Store, error) {
	ctx := cmd.Context()

	lc, err := cfg.LLMConfig()
	if err != nil {
		return nil, nil, err
	}
	pc, err := cfg.PipelineConfig()
	if err != nil {
		return nil, nil, err
	}
	loader, err := cfg.Loader()
	if err != nil {
		return nil, nil, err
	}

	st, err := openStore(cmd, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}

	provider, err := llm.NewProvider(ctx, lc, st.EventRepo())
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	embedder, err := llm.NewEmbedder(ctx, lc, st.EventRepo())
	if err != nil {
		st.Close()
		return nil, nil, err
	}

	p, err := pipeline.New(provider, embedder, pc,
		pipeline.WithLogger(slog.Default()),
		pipeline.WithLoader(loader),
	)
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	return p, st, nil
}

// addInputFlags registers the flags describing one generation request.
func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("file", "f", "", "PDF, DOCX, TXT or Markdown file to generate from")
	cmd.Flags().StringP("text", "t", "", "Text to generate from; \"-\" reads standard input")
	cmd.Flags().IntP("num", "n", 5, fmt.Sprintf("Number of questions (%d-%d)", prompt.MinQuestions, prompt.MaxQuestions))
	cmd.Flags().StringP("difficulty", "d", string(prompt.Easy), "Difficulty: Easy, Medium or Hard")
	cmd.Flags().StringP("bloom", "b", string(prompt.Understand), "Bloom's taxonomy level: Remember, Understand, Apply, Analyze, Evaluate or Create")
}

// inputFromFlags reads the flags registered by addInputFlags.
func inputFromFlags(cmd *cobra.Command) (pipeline.Input, error) {
	file, _ := cmd.Flags().GetString("file")
	text, _ := cmd.Flags().GetString("text")
	n, _ := cmd.Flags().GetInt("num")
	difficulty, _ := cmd.Flags().GetString("difficulty")
	bloom, _ := cmd.Flags().GetString("bloom")

	if text == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return pipeline.Input{}, fmt.Errorf("read standard input: %w", err)
		}
		text = string(b)
	}

	return pipeline.Input{
		Text:         text,
		File:         file,
		NumQuestions: n,
		Difficulty:   prompt.Difficulty(difficulty),
		BloomLevel:   prompt.BloomLevel(bloom),
	}, nil
}
