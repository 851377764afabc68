package commands

import (
	"github.com/spf13/cobra"
)

// NewTestAllFeaturesCommand creates the test-all-features command.
func NewTestAllFeaturesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "test-all-features",
		Short: "Run the test suite for all components with every optional feature enabled",
		Long: `Execute the full automated test suite across the fixed component list with
all features enabled. The test tool's internal parallelism is bounded to a
small fixed worker count (test.jobs) to control resource contention in CI.

Any failing test aborts with a nonzero exit status; the failing case identity
is in the tool output. Failures are fatal per invocation — there is no retry.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := cmdCtx.Engine.TestAllFeatures(cmd.Context()); err != nil {
				return err
			}
			cmdCtx.Renderer.Success("test suite passed")
			return nil
		},
	}
}

// NewTestDocsCommand creates the test-docs command.
func NewTestDocsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "test-docs",
		Short: "Run only the documentation-embedded example tests",
		Long: `Execute the documentation-embedded example tests for the same component
list, with the default feature configuration. Any failing example aborts with
a nonzero exit status.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := cmdCtx.Engine.TestDocs(cmd.Context()); err != nil {
				return err
			}
			cmdCtx.Renderer.Success("documentation examples passed")
			return nil
		},
	}
}
