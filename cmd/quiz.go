package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizrag/internal/app"
	"github.com/abhisek/quizrag/internal/mcq"
)

var quizCmd = &cobra.Command{
	Use:   "quiz",
	Short: "Generate MCQs and answer them in the terminal",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
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

		return app.Run(cmd.Context(), func(ctx context.Context) ([]mcq.MCQ, error) {
			return p.Run(ctx, in)
		})
	},
}

func init() {
	addInputFlags(quizCmd)
}
