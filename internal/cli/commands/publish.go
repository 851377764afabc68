package commands

import (
	"github.com/forgeline-labs/forgeline/internal/release"
	"github.com/forgeline-labs/forgeline/internal/toolchain"
	"github.com/spf13/cobra"
)

// NewPublishCommand creates the publish command.
func NewPublishCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "publish",
		Short: "Build and publish the native-extension distribution",
		Long: `Run the release pipeline: inspect the working directory, overwrite the
package-local readme with the canonical one, pin the configured toolchain
release, then build and publish the distribution artifact under the
configured identity.

Steps run strictly in order and the first failure halts the remainder. The
publish step is irreversible — there is no rollback. A version-already-
published conflict is terminal (exit code 4): bump the version and re-run.
The verification commands are assumed to have passed already; publish does
not re-run them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			cfg := cmdCtx.Cfg
			if err := cfg.ValidatePublish(); err != nil {
				return err
			}

			pub, err := release.New(release.Config{
				PackageDir:   cfg.Publish.PackageDir,
				Readme:       cfg.Publish.Readme,
				ToolchainPin: cfg.Publish.ToolchainPin,
				Identity:     cfg.Publish.Identity,
				PackagerTool: cfg.Toolchain.Packager,
				PinnerTool:   cfg.Toolchain.Pinner,
				WorkDir:      cfg.ProjectRoot,
				Runner:       toolchain.NewExecRunner(),
				Store:        cmdCtx.Store,
				Logger:       cmdCtx.Logger,
			})
			if err != nil {
				return err
			}

			if err := pub.Publish(cmd.Context()); err != nil {
				return err
			}
			cmdCtx.Renderer.Success("published " + cfg.Publish.PackageDir)
			return nil
		},
	}
}
