package commands

import (
	"github.com/forgeline-labs/forgeline/internal/cli/output"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// componentRow is the JSON output row for the components command.
type componentRow struct {
	Name     string `json:"name"`
	Memcheck string `json:"memcheck"`
	Reason   string `json:"reason,omitempty"`
}

// NewComponentsCommand creates the components command.
func NewComponentsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "components",
		Short: "List the configured component set and per-pass coverage",
		Long: `Show the component list shared by the formatter, the verifier and the
test runner, and which components the memory-safety audit covers. Coverage
differences reflect checker limitations, not product behavior.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := getConfig()
			r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))

			allowed := make(map[string]bool, len(cfg.Memcheck.Components))
			for _, c := range cfg.Memcheck.Components {
				allowed[c] = true
			}

			rows := make([]componentRow, 0, len(cfg.Components))
			for _, c := range cfg.Components {
				row := componentRow{Name: c, Memcheck: "no"}
				if allowed[c] {
					row.Memcheck = "yes"
				} else if reason, ok := cfg.Memcheck.Incompatible[c]; ok {
					row.Reason = reason
				}
				rows = append(rows, row)
			}

			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(rows)
			}

			t := table.NewWriter()
			t.SetOutputMirror(r.Out())
			t.AppendHeader(table.Row{"Component", "Memcheck", "Notes"})
			for _, row := range rows {
				t.AppendRow(table.Row{row.Name, row.Memcheck, row.Reason})
			}
			if r.EffectiveMode() == output.ModeMarkdown {
				t.RenderMarkdown()
			} else {
				t.SetStyle(table.StyleLight)
				t.Render()
			}
			return nil
		},
	}
}
