// Package cli provides the command-line interface for forgeline.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/forgeline-labs/forgeline/internal/cli/commands"
	"github.com/forgeline-labs/forgeline/internal/cli/config"
	"github.com/forgeline-labs/forgeline/internal/pipeline"
	"github.com/forgeline-labs/forgeline/internal/release"
	"github.com/spf13/cobra"
)

var cfgFile string

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// Exit codes. Verification failures and configuration errors exit 1; the two
// conditions operators triage differently get their own codes.
const (
	ExitFailure         = 1
	ExitMemSafety       = 3
	ExitPublishConflict = 4
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "forgeline",
		Short: "forgeline - verification and release pipeline runner",
		Long: `forgeline drives the verification and release pipeline of a
multi-component compiled-library project: formatting, static analysis, the
test suite, a memory-safety audit, and the native-extension release build.

Every command is a single-shot invocation that runs to completion or aborts
on first failure, surfacing the underlying tool's diagnostics verbatim.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" || cmd.Name() == "version" {
				return nil
			}

			cfg, err := config.LoadConfig(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			level := slog.LevelWarn
			if cfg.Verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			cmd.SetContext(context.WithValue(cmd.Context(), config.LoggerKey(), logger))

			if cfg.Verbose {
				if configFile := config.GetConfigFileUsed(); configFile != "" {
					fmt.Fprintf(os.Stderr, "Using config file: %s\n", configFile)
				}
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./forgeline.yaml, searched upward)")
	rootCmd.PersistentFlags().String("state", "", "Path to the run-history database")
	rootCmd.PersistentFlags().Int("jobs", 0, "Test-tool parallelism bound (default 2)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output format (auto|text|markdown|json)")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"auto", "text", "markdown", "json"}, cobra.ShellCompDirectiveNoFileComp
	})

	// Add subcommands
	rootCmd.AddCommand(commands.NewFormatAllCommand())
	rootCmd.AddCommand(commands.NewCheckAllFeaturesCommand())
	rootCmd.AddCommand(commands.NewCheckDefaultCommand())
	rootCmd.AddCommand(commands.NewTestAllFeaturesCommand())
	rootCmd.AddCommand(commands.NewTestDocsCommand())
	rootCmd.AddCommand(commands.NewMemcheckCommand())
	rootCmd.AddCommand(commands.NewPublishCommand())
	rootCmd.AddCommand(commands.NewComponentsCommand())
	rootCmd.AddCommand(commands.NewHistoryCommand())
	rootCmd.AddCommand(commands.NewWatchCommand())
	rootCmd.AddCommand(commands.NewVersionCommand(Version, BuildDate, GitCommit))
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitCode(err)
	}
	return 0
}

// ExitCode maps an error to the process exit code. Memory-safety detections
// and publish conflicts get distinct codes so operators and CI can tell them
// apart from ordinary verification failures.
func ExitCode(err error) int {
	var memErr *pipeline.MemSafetyError
	if errors.As(err, &memErr) {
		return ExitMemSafety
	}
	var pubErr *release.PublishError
	if errors.As(err, &pubErr) && pubErr.Terminal() {
		return ExitPublishConflict
	}
	return ExitFailure
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	return &cobra.Command{
		Use:                   "completion [bash|zsh|fish|powershell]",
		Short:                 "Generate shell completion scripts",
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}
}
