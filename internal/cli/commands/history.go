package commands

import (
	"fmt"
	"time"

	"github.com/forgeline-labs/forgeline/internal/cli/output"
	"github.com/forgeline-labs/forgeline/internal/state"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// HistoryOptions holds options for the history command.
type HistoryOptions struct {
	Limit int
	RunID string
}

// historyRow is the JSON output row for the history command.
type historyRow struct {
	ID        string `json:"id"`
	Command   string `json:"command"`
	Status    string `json:"status"`
	StartedAt string `json:"started_at"`
	Duration  string `json:"duration,omitempty"`
	Error     string `json:"error,omitempty"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent pipeline runs",
		Long: `List recent pipeline runs from the local state database, newest first.
Use --run to show the release steps of a single publish run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if cmdCtx.Store == nil {
				return fmt.Errorf("state database unavailable; no run history")
			}
			if opts.RunID != "" {
				return renderSteps(cmdCtx.Renderer, cmdCtx.Store, opts.RunID)
			}
			return renderRuns(cmdCtx.Renderer, cmdCtx.Store, opts.Limit)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "Maximum number of runs to show")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "Show the steps of a single run")

	return cmd
}

func renderRuns(r *output.Renderer, store state.Store, limit int) error {
	runs, err := store.ListRuns(limit)
	if err != nil {
		return err
	}

	rows := make([]historyRow, 0, len(runs))
	for _, run := range runs {
		row := historyRow{
			ID:        run.ID,
			Command:   run.Command,
			Status:    string(run.Status),
			StartedAt: run.StartedAt.Local().Format(time.RFC3339),
			Error:     run.Error,
		}
		if run.CompletedAt != nil {
			row.Duration = run.CompletedAt.Sub(run.StartedAt).Round(time.Millisecond).String()
		}
		rows = append(rows, row)
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(rows)
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.Out())
	t.AppendHeader(table.Row{"Started", "Command", "Status", "Duration", "Error"})
	for _, row := range rows {
		t.AppendRow(table.Row{row.StartedAt, row.Command, row.Status, row.Duration, truncate(row.Error, 60)})
	}
	if r.EffectiveMode() == output.ModeMarkdown {
		t.RenderMarkdown()
	} else {
		t.SetStyle(table.StyleLight)
		t.Render()
	}
	return nil
}

func renderSteps(r *output.Renderer, store state.Store, runID string) error {
	steps, err := store.ListSteps(runID)
	if err != nil {
		return err
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(steps)
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.Out())
	t.AppendHeader(table.Row{"#", "Step", "Status", "Error"})
	for _, s := range steps {
		t.AppendRow(table.Row{s.Seq, s.Step, string(s.Status), truncate(s.Error, 60)})
	}
	if r.EffectiveMode() == output.ModeMarkdown {
		t.RenderMarkdown()
	} else {
		t.SetStyle(table.StyleLight)
		t.Render()
	}
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
