package commands

import (
	"github.com/spf13/cobra"
)

// NewFormatAllCommand creates the format-all command.
func NewFormatAllCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "format-all",
		Short: "Apply canonical formatting across all components",
		Long: `Run the toolchain formatter over every component in the workspace.

Formatting rewrites sources in place. Only a formatter crash is fatal;
style changes themselves are not failures.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := cmdCtx.Engine.FormatAll(cmd.Context()); err != nil {
				return err
			}
			cmdCtx.Renderer.Success("formatting applied")
			return nil
		},
	}
}
