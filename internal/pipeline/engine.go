// Package pipeline implements the verification passes over the managed
// project: formatting, static analysis, the test suite, and the memory-safety
// audit. Each pass is a single-shot command invocation with no coordination
// between passes: it runs to completion or aborts on first failure, and the
// underlying tool's diagnostics pass through verbatim.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/forgeline-labs/forgeline/internal/state"
	"github.com/forgeline-labs/forgeline/internal/toolchain"
)

// Config wires an Engine.
type Config struct {
	// Components is the fixed component list shared by every pass.
	Components []string

	// TestJobs bounds the test tool's internal parallelism.
	TestJobs int

	// MemcheckComponents is the checker-safe subset of Components.
	MemcheckComponents []string

	// MemcheckIncompatible maps component name to the reason it must not
	// run under the checker.
	MemcheckIncompatible map[string]string

	// MemcheckEnv is the environment the checker requires (isolation
	// disable flag).
	MemcheckEnv map[string]string

	// BuildTool and MemcheckTool are command prefixes: first word binary,
	// remaining words leading arguments.
	BuildTool    string
	MemcheckTool string

	// WorkDir is the project root all invocations run in.
	WorkDir string

	// Runner executes tool invocations. Required.
	Runner toolchain.Runner

	// Store, when non-nil, records run history. Recording failures are
	// logged, never fatal.
	Store state.Store

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Engine runs the verification passes.
type Engine struct {
	cfg    Config
	logger *slog.Logger
}

// New creates an Engine.
func New(cfg Config) (*Engine, error) {
	if cfg.Runner == nil {
		return nil, fmt.Errorf("pipeline: runner is required")
	}
	if len(cfg.Components) == 0 {
		return nil, fmt.Errorf("pipeline: component list is empty")
	}
	if cfg.TestJobs < 1 {
		return nil, fmt.Errorf("pipeline: test jobs must be at least 1")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{cfg: cfg, logger: logger}, nil
}

// Components returns the configured component list.
func (e *Engine) Components() []string {
	out := make([]string, len(e.cfg.Components))
	copy(out, e.cfg.Components)
	return out
}

// MemcheckComponents returns the checker-safe subset.
func (e *Engine) MemcheckComponents() []string {
	out := make([]string, len(e.cfg.MemcheckComponents))
	copy(out, e.cfg.MemcheckComponents)
	return out
}

// splitTool splits a command prefix into binary and leading arguments.
func splitTool(prefix string) (string, []string) {
	fields := strings.Fields(prefix)
	if len(fields) == 0 {
		return "", nil
	}
	return fields[0], fields[1:]
}

// packageArgs renders the -p flags enumerating the given components.
func packageArgs(components []string) []string {
	args := make([]string, 0, len(components)*2)
	for _, c := range components {
		args = append(args, "-p", c)
	}
	return args
}

// FormatAll applies canonical formatting across all components.
// Only a formatter crash is fatal.
func (e *Engine) FormatAll(ctx context.Context) error {
	return e.recorded(ctx, "format-all", func(ctx context.Context) error {
		bin, lead := splitTool(e.cfg.BuildTool)
		inv := toolchain.Invocation{
			Bin:  bin,
			Args: append(lead, "fmt", "--all"),
			Dir:  e.cfg.WorkDir,
		}
		res, err := e.cfg.Runner.Run(ctx, inv)
		if err != nil {
			return err
		}
		if res.ExitCode != 0 {
			return &FormatError{Invocation: inv.String(), ExitCode: res.ExitCode}
		}
		return nil
	})
}

// CheckAllFeatures runs static analysis across every configured component
// with all optional features enabled. All-or-nothing: any diagnostic error
// aborts the pass.
func (e *Engine) CheckAllFeatures(ctx context.Context) error {
	return e.recorded(ctx, "check-all-features", func(ctx context.Context) error {
		bin, lead := splitTool(e.cfg.BuildTool)
		args := append(lead, "clippy")
		args = append(args, packageArgs(e.cfg.Components)...)
		args = append(args, "--all-features", "--", "-D", "warnings")
		return e.checkInvocation(ctx, toolchain.Invocation{Bin: bin, Args: args, Dir: e.cfg.WorkDir})
	})
}

// CheckDefault runs static analysis with the default feature configuration
// and no explicit component list, for fast local iteration.
func (e *Engine) CheckDefault(ctx context.Context) error {
	return e.recorded(ctx, "check-default", func(ctx context.Context) error {
		bin, lead := splitTool(e.cfg.BuildTool)
		args := append(lead, "clippy", "--", "-D", "warnings")
		return e.checkInvocation(ctx, toolchain.Invocation{Bin: bin, Args: args, Dir: e.cfg.WorkDir})
	})
}

func (e *Engine) checkInvocation(ctx context.Context, inv toolchain.Invocation) error {
	res, err := e.cfg.Runner.Run(ctx, inv)
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return &CheckError{Invocation: inv.String(), ExitCode: res.ExitCode}
	}
	return nil
}

// TestAllFeatures runs the full test suite for the component list with all
// features enabled, bounding the tool's internal parallelism to the
// configured worker count. The bound controls CI resource contention; the
// scheduling itself belongs to the tool.
func (e *Engine) TestAllFeatures(ctx context.Context) error {
	return e.recorded(ctx, "test-all-features", func(ctx context.Context) error {
		bin, lead := splitTool(e.cfg.BuildTool)
		args := append(lead, "test")
		args = append(args, packageArgs(e.cfg.Components)...)
		args = append(args, "--all-features", "-j", strconv.Itoa(e.cfg.TestJobs))
		inv := toolchain.Invocation{Bin: bin, Args: args, Dir: e.cfg.WorkDir}
		res, err := e.cfg.Runner.Run(ctx, inv)
		if err != nil {
			return err
		}
		if res.ExitCode != 0 {
			return &TestError{Invocation: inv.String(), ExitCode: res.ExitCode}
		}
		return nil
	})
}

// TestDocs runs only the documentation-embedded example tests for the same
// component list, with the default feature configuration.
func (e *Engine) TestDocs(ctx context.Context) error {
	return e.recorded(ctx, "test-docs", func(ctx context.Context) error {
		bin, lead := splitTool(e.cfg.BuildTool)
		args := append(lead, "test", "--doc")
		args = append(args, packageArgs(e.cfg.Components)...)
		inv := toolchain.Invocation{Bin: bin, Args: args, Dir: e.cfg.WorkDir}
		res, err := e.cfg.Runner.Run(ctx, inv)
		if err != nil {
			return err
		}
		if res.ExitCode != 0 {
			return &TestError{Invocation: inv.String(), ExitCode: res.ExitCode}
		}
		return nil
	})
}

// Memcheck runs the test suite under the memory-checking interpreter for the
// checker-safe subset, with default features disabled and isolation disabled.
// requested narrows the subset further; a component outside the subset is
// rejected up front rather than silently skipped.
func (e *Engine) Memcheck(ctx context.Context, requested []string) error {
	components := e.cfg.MemcheckComponents
	if len(requested) > 0 {
		allowed := make(map[string]bool, len(components))
		for _, c := range components {
			allowed[c] = true
		}
		for _, c := range requested {
			if allowed[c] {
				continue
			}
			if reason, ok := e.cfg.MemcheckIncompatible[c]; ok {
				return fmt.Errorf("component %q cannot run under the memory checker: %s", c, reason)
			}
			return fmt.Errorf("component %q is not in the memcheck subset (allowed: %s)",
				c, strings.Join(components, ", "))
		}
		components = requested
	}

	return e.recorded(ctx, "memcheck", func(ctx context.Context) error {
		bin, lead := splitTool(e.cfg.MemcheckTool)
		args := append(lead, "test", "--no-default-features")
		args = append(args, packageArgs(components)...)

		env := make([]string, 0, len(e.cfg.MemcheckEnv))
		for k, v := range e.cfg.MemcheckEnv {
			env = append(env, k+"="+v)
		}
		sort.Strings(env)

		inv := toolchain.Invocation{Bin: bin, Args: args, Dir: e.cfg.WorkDir, Env: env}
		res, err := e.cfg.Runner.Run(ctx, inv)
		if err != nil {
			return err
		}
		if res.ExitCode != 0 {
			output := res.Output()
			if isUndefinedBehavior(output) {
				return &MemSafetyError{
					Invocation: inv.String(),
					ExitCode:   res.ExitCode,
					Detail:     ubDetail(output),
				}
			}
			return &TestError{Invocation: inv.String(), ExitCode: res.ExitCode}
		}
		return nil
	})
}

// recorded wraps a pass with run-history bookkeeping and logging. The store
// is an audit trail: its failures are warnings, never pipeline failures.
func (e *Engine) recorded(ctx context.Context, command string, fn func(ctx context.Context) error) error {
	logger := e.logger.With(slog.String("command", command))
	logger.Info("starting pass")
	start := time.Now()

	var runID string
	if e.cfg.Store != nil {
		run, err := e.cfg.Store.CreateRun(command)
		if err != nil {
			logger.Warn("failed to record run start", slog.Any("error", err))
		} else {
			runID = run.ID
		}
	}

	err := fn(ctx)

	if runID != "" {
		status := state.RunStatusSuccess
		errMsg := ""
		if err != nil {
			status = state.RunStatusFailed
			errMsg = err.Error()
		}
		if serr := e.cfg.Store.CompleteRun(runID, status, errMsg); serr != nil {
			logger.Warn("failed to record run completion", slog.Any("error", serr))
		}
	}

	elapsed := time.Since(start).Round(time.Millisecond)
	if err != nil {
		logger.Error("pass failed", slog.Duration("elapsed", elapsed), slog.Any("error", err))
		return err
	}
	logger.Info("pass completed", slog.Duration("elapsed", elapsed))
	return nil
}
