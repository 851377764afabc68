// Package commands implements the forgeline subcommands.
package commands

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/forgeline-labs/forgeline/internal/cli/config"
	"github.com/forgeline-labs/forgeline/internal/cli/output"
	"github.com/forgeline-labs/forgeline/internal/pipeline"
	"github.com/forgeline-labs/forgeline/internal/state"
	"github.com/forgeline-labs/forgeline/internal/toolchain"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Engine   *pipeline.Engine
	Store    state.Store
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with engine, state store and
// renderer. Returns the context and a cleanup function that must be called
// (typically via defer).
//
// The state store is an audit trail: when it cannot be opened the command
// proceeds without history recording rather than failing a verification pass.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))

	store := openStore(cfg, logger)

	eng, err := pipeline.New(pipeline.Config{
		Components:           cfg.Components,
		TestJobs:             cfg.Test.Jobs,
		MemcheckComponents:   cfg.Memcheck.Components,
		MemcheckIncompatible: cfg.Memcheck.Incompatible,
		MemcheckEnv:          cfg.Memcheck.Env,
		BuildTool:            cfg.Toolchain.Build,
		MemcheckTool:         cfg.Toolchain.Memcheck,
		WorkDir:              cfg.ProjectRoot,
		Runner:               toolchain.NewExecRunner(),
		Store:                store,
		Logger:               logger,
	})
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		return nil, nil, err
	}

	cleanup := func() {
		if store != nil {
			_ = store.Close()
		}
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Engine:   eng,
		Store:    store,
		Renderer: r,
	}, cleanup, nil
}

// getConfig returns the current configuration, falling back to defaults when
// a command runs outside the root command's config loading (tests).
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return &config.Config{
		Components: config.DefaultComponents(),
		Test:       config.TestConfig{Jobs: config.DefaultTestJobs},
		Memcheck: config.MemcheckConfig{
			Components:   config.DefaultMemcheckComponents(),
			Incompatible: config.DefaultMemcheckIncompatible(),
			Env:          config.DefaultMemcheckEnv(),
		},
		Publish: config.PublishConfig{
			PackageDir: config.DefaultPackageDir,
			Readme:     config.DefaultReadme,
		},
		Toolchain: config.ToolchainConfig{
			Build:    config.DefaultBuildTool,
			Memcheck: config.DefaultMemcheckTool,
			Packager: config.DefaultPackagerTool,
			Pinner:   config.DefaultPinnerTool,
		},
		StatePath:    config.DefaultStateFile,
		OutputFormat: config.DefaultOutput,
	}
}

// openStore opens the run-history store, or returns nil when it cannot.
func openStore(cfg *config.Config, logger *slog.Logger) state.Store {
	if cfg.StatePath == "" {
		return nil
	}
	stateDir := filepath.Dir(cfg.StatePath)
	if stateDir != "." && stateDir != "" {
		if err := os.MkdirAll(stateDir, 0750); err != nil {
			logger.Warn("cannot create state directory; run history disabled",
				slog.String("dir", stateDir), slog.Any("error", err))
			return nil
		}
	}
	store := state.NewSQLiteStore()
	if err := store.Open(cfg.StatePath); err != nil {
		logger.Warn("cannot open state database; run history disabled",
			slog.String("path", cfg.StatePath), slog.Any("error", err))
		return nil
	}
	return store
}
