package commands

import (
	"strings"

	"github.com/spf13/cobra"
)

// NewCheckAllFeaturesCommand creates the check-all-features command.
func NewCheckAllFeaturesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check-all-features",
		Short: "Static analysis across all components with every optional feature enabled",
		Long: `Run static analysis over the fixed component list with all optional
features enabled, to catch integration regressions across the full feature
matrix.

The pass is all-or-nothing: any diagnostic error aborts with a nonzero exit
status. There is no partial-success concept.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := cmdCtx.Engine.CheckAllFeatures(cmd.Context()); err != nil {
				return err
			}
			cmdCtx.Renderer.Success("check passed: " + strings.Join(cmdCtx.Engine.Components(), ", "))
			return nil
		},
	}
}

// NewCheckDefaultCommand creates the check-default command.
func NewCheckDefaultCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check-default",
		Short: "Static analysis with the default feature configuration",
		Long: `Run static analysis with default features only and no explicit component
list. This is the fast pass for local iteration; check-all-features remains
the authoritative pre-merge gate.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := cmdCtx.Engine.CheckDefault(cmd.Context()); err != nil {
				return err
			}
			cmdCtx.Renderer.Success("check passed")
			return nil
		},
	}
}
