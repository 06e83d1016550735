package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/spf13/cobra"

	"github.com/abhisek/quizrag/internal/llm"
	"github.com/abhisek/quizrag/internal/store"
)

const timeLayout = "2006-01-02 15:04:05"

var eventsCmd = &cobra.Command{
	Use:     "events",
	Aliases: []string{"llm"},
	Short:   "Inspect the completion and embedding calls made by past runs",
	Long: `Every provider call a generation run makes is written to the SQLite
event log: the index, query and dedup embeddings as well as the MCQ
completion. These commands read that log back.`,
}

var eventsRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Summarize recent generation runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return withEventRepo(cmd, func(ctx context.Context, repo *store.EventRepo) error {
			runs, err := repo.Runs(ctx, limit)
			if err != nil {
				return err
			}
			renderRuns(cmd.OutOrStdout(), runs)
			return nil
		})
	},
}

var eventsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded provider calls, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		var opts store.QueryOpts
		opts.Limit, _ = cmd.Flags().GetInt("limit")
		opts.Kind, _ = cmd.Flags().GetString("kind")
		opts.Purpose, _ = cmd.Flags().GetString("purpose")
		opts.RunID, _ = cmd.Flags().GetString("run")

		return withEventRepo(cmd, func(ctx context.Context, repo *store.EventRepo) error {
			events, err := repo.QueryLLMEvents(ctx, opts)
			if err != nil {
				return err
			}
			renderEvents(cmd.OutOrStdout(), events)
			return nil
		})
	},
}

var eventsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print one call with the prompt and completion it carried",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("event id must be a number, got %q", args[0])
		}
		return withEventRepo(cmd, func(ctx context.Context, repo *store.EventRepo) error {
			e, err := repo.GetLLMEvent(ctx, id)
			if err != nil {
				return err
			}
			if e == nil {
				return fmt.Errorf("no event with id %d", id)
			}
			renderEvent(cmd.OutOrStdout(), e)
			return nil
		})
	},
}

var eventsUsageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Token totals per pipeline stage and estimated spend per model",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEventRepo(cmd, func(ctx context.Context, repo *store.EventRepo) error {
			purposes, err := repo.LLMUsageByPurpose(ctx)
			if err != nil {
				return err
			}
			models, err := repo.LLMUsageByModel(ctx)
			if err != nil {
				return err
			}
			renderUsage(cmd.OutOrStdout(), purposes, models)
			return nil
		})
	},
}

// withEventRepo opens the configured event log for the duration of fn.
func withEventRepo(cmd *cobra.Command, fn func(context.Context, *store.EventRepo) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st, err := openStore(cmd, cfg)
	if err != nil {
		return fmt.Errorf("open event log: %w", err)
	}
	defer st.Close()
	return fn(cmd.Context(), st.EventRepo())
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...)
}

func renderRuns(w io.Writer, runs []store.RunSummary) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded. Run `quizrag generate` first.")
		return
	}
	t := newTable("Run", "Started", "Embeds", "Completions", "Tokens in/out", "Failed")
	for _, r := range runs {
		t.Row(
			r.RunID,
			r.Started.Local().Format(timeLayout),
			strconv.Itoa(r.Embeddings),
			strconv.Itoa(r.Completions),
			fmt.Sprintf("%d/%d", r.InputTokens, r.OutputTokens),
			strconv.Itoa(r.Failures),
		)
	}
	fmt.Fprintln(w, t.String())
}

func renderEvents(w io.Writer, events []store.LLMEvent) {
	if len(events) == 0 {
		fmt.Fprintln(w, "No matching calls in the event log.")
		return
	}
	t := newTable("ID", "When", "Stage", "Model", "Tokens in/out", "Ms", "Status")
	for _, e := range events {
		status := "ok"
		if !e.Success {
			status = "failed"
		}
		t.Row(
			strconv.Itoa(e.ID),
			e.Timestamp.Local().Format(timeLayout),
			e.Purpose,
			clip(e.Model, 28),
			fmt.Sprintf("%d/%d", e.InputTokens, e.OutputTokens),
			strconv.FormatInt(e.LatencyMs, 10),
			status,
		)
	}
	fmt.Fprintln(w, t.String())
}

func renderEvent(w io.Writer, e *store.LLMEvent) {
	fields := [][2]string{
		{"event", strconv.Itoa(e.ID)},
		{"run", or(e.RunID, "-")},
		{"at", e.Timestamp.Local().Format(timeLayout)},
		{"stage", fmt.Sprintf("%s (%s)", e.Purpose, e.Kind)},
		{"model", e.Provider + "/" + e.Model},
		{"tokens", fmt.Sprintf("%d in, %d out", e.InputTokens, e.OutputTokens)},
		{"latency", fmt.Sprintf("%dms", e.LatencyMs)},
	}
	if !e.Success {
		fields = append(fields, [2]string{"error", e.ErrorMessage})
	}
	for _, f := range fields {
		fmt.Fprintf(w, "%-8s %s\n", f[0]+":", f[1])
	}

	section := func(title, body string) {
		fmt.Fprintf(w, "\n== %s ==\n", title)
		fmt.Fprintln(w, or(body, "(empty)"))
	}
	if e.Kind == llm.KindEmbedding {
		section("embedded text", e.RequestBody)
		section("result", e.ResponseBody)
		return
	}
	section("prompt", e.RequestBody)
	section("completion", e.ResponseBody)
}

func renderUsage(w io.Writer, purposes []store.PurposeUsage, models []store.ModelUsage) {
	if len(purposes) == 0 {
		fmt.Fprintln(w, "The event log is empty.")
		return
	}

	var calls, in, out int
	stages := newTable("Stage", "Calls", "Tokens in", "Tokens out", "Avg ms")
	for _, p := range purposes {
		stages.Row(p.Purpose, strconv.Itoa(p.Calls), strconv.Itoa(p.InputTokens),
			strconv.Itoa(p.OutputTokens), strconv.Itoa(p.AvgLatencyMs))
		calls += p.Calls
		in += p.InputTokens
		out += p.OutputTokens
	}
	stages.Row("all", strconv.Itoa(calls), strconv.Itoa(in), strconv.Itoa(out), "")
	fmt.Fprintln(w, stages.String())

	if len(models) == 0 {
		return
	}

	var (
		spend    float64
		unpriced []string
	)
	costs := newTable("Model", "Calls", "Tokens in", "Tokens out", "USD")
	for _, m := range models {
		price := "?"
		if c := llm.LookupCost(m.Model); c != nil {
			usd := c.Cost(m.InputTokens, m.OutputTokens)
			spend += usd
			price = usdString(usd)
		} else {
			unpriced = append(unpriced, m.Model)
		}
		costs.Row(clip(m.Model, 32), strconv.Itoa(m.Calls), strconv.Itoa(m.InputTokens),
			strconv.Itoa(m.OutputTokens), price)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, costs.String())

	fmt.Fprintf(w, "Estimated spend: %s\n", usdString(spend))
	if len(unpriced) > 0 {
		fmt.Fprintf(w, "No price list for %s; they are left out of the estimate.\n", strings.Join(unpriced, ", "))
	}
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

func usdString(usd float64) string {
	if usd > 0 && usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func or(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func init() {
	eventsRunsCmd.Flags().IntP("limit", "n", 10, "Number of runs to show (0 for all)")

	eventsListCmd.Flags().IntP("limit", "n", 20, "Number of calls to show")
	eventsListCmd.Flags().String("run", "", "Only calls made by this run ID (see `quizrag events runs`)")
	eventsListCmd.Flags().String("kind", "", "Only completion or embedding calls")
	eventsListCmd.Flags().StringP("purpose", "p", "", "Only calls for one stage: mcq-gen, index-embed, query-embed or dedup-embed")

	eventsCmd.AddCommand(eventsRunsCmd, eventsListCmd, eventsShowCmd, eventsUsageCmd)
}
