package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizrag/internal/mcq"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate MCQs from a document or text and print them",
	Example: `  quizrag generate -f notes.pdf -n 10 -d Medium
  quizrag generate -t "Photosynthesis converts light..." -b Apply
  cat notes.md | quizrag generate -t - --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		in, err := inputFromFlags(cmd)
		if err != nil {
			return err
		}
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		p, st, err := buildPipeline(cmd, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		mcqs, err := p.Run(cmd.Context(), in)
		if err != nil {
			return err
		}

		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(mcq.List{MCQs: mcqs})
		}
		printMCQs(cmd.OutOrStdout(), mcqs)
		return nil
	},
}

// printMCQs writes the batch in reading order with answers and explanations.
func printMCQs(w io.Writer, mcqs []mcq.MCQ) {
	fmt.Fprintf(w, "%d Unique MCQs Generated\n", len(mcqs))

	for i, q := range mcqs {
		fmt.Fprintf(w, "\nQ%d: %s\n", i+1, q.Question)
		for _, label := range q.Labels() {
			fmt.Fprintf(w, "%s. %s\n", label, q.Options[label])
		}
		fmt.Fprintf(w, "Answer: %s\n", q.Answer)
		fmt.Fprintf(w, "Explanation: %s\n", q.Explanation)
	}
}

func init() {
	addInputFlags(generateCmd)
	generateCmd.Flags().Bool("json", false, "Print the batch as JSON")
}
