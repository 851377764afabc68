// Package release implements the release packager: a strictly ordered state
// machine that regenerates the package readme, pins the build toolchain and
// publishes the native-extension distribution. There is no branching and no
// rollback — each step's failure halts the remainder, and a failed or partial
// publish is handled by the operator out of band.
package release

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/forgeline-labs/forgeline/internal/state"
	"github.com/forgeline-labs/forgeline/internal/toolchain"
)

// Config wires a Publisher.
type Config struct {
	// PackageDir is the native-extension package subdirectory (absolute).
	PackageDir string

	// Readme is the canonical top-level readme (absolute).
	Readme string

	// ToolchainPin is the exact toolchain release to pin.
	ToolchainPin string

	// Identity is the publishing identity against the distribution index.
	Identity string

	// PackagerTool and PinnerTool are command prefixes.
	PackagerTool string
	PinnerTool   string

	// WorkDir is the project root.
	WorkDir string

	Runner toolchain.Runner
	Store  state.Store
	Logger *slog.Logger
}

// Publisher runs the release state machine.
type Publisher struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Publisher.
func New(cfg Config) (*Publisher, error) {
	if cfg.Runner == nil {
		return nil, fmt.Errorf("release: runner is required")
	}
	if cfg.PackageDir == "" || cfg.Readme == "" {
		return nil, fmt.Errorf("release: package dir and readme are required")
	}
	if cfg.ToolchainPin == "" {
		return nil, fmt.Errorf("release: toolchain pin is required")
	}
	if cfg.Identity == "" {
		return nil, fmt.Errorf("release: publishing identity is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{cfg: cfg, logger: logger}, nil
}

type step struct {
	name string
	run  func(ctx context.Context) error
}

// Steps returns the ordered step names, for display.
func (p *Publisher) Steps() []string {
	names := make([]string, 0, len(p.steps()))
	for _, s := range p.steps() {
		names = append(names, s.name)
	}
	return names
}

func (p *Publisher) steps() []step {
	return []step{
		{"inspect", p.inspect},
		{"sync-readme", p.syncReadme},
		{"enter-package-dir", p.enterPackageDir},
		{"pin-toolchain", p.pinToolchain},
		{"build-publish", p.buildPublish},
	}
}

// Publish executes the state machine. The publish step is irreversible: it
// pushes to a public distribution index with no compensating transaction.
func (p *Publisher) Publish(ctx context.Context) error {
	var runID string
	if p.cfg.Store != nil {
		run, err := p.cfg.Store.CreateRun("publish")
		if err != nil {
			p.logger.Warn("failed to record run start", slog.Any("error", err))
		} else {
			runID = run.ID
		}
	}

	err := p.runSteps(ctx, runID)

	if runID != "" {
		status := state.RunStatusSuccess
		errMsg := ""
		if err != nil {
			status = state.RunStatusFailed
			errMsg = err.Error()
		}
		if serr := p.cfg.Store.CompleteRun(runID, status, errMsg); serr != nil {
			p.logger.Warn("failed to record run completion", slog.Any("error", serr))
		}
	}
	return err
}

func (p *Publisher) runSteps(ctx context.Context, runID string) error {
	for i, s := range p.steps() {
		logger := p.logger.With(slog.String("step", s.name), slog.Int("seq", i+1))
		logger.Info("starting step")
		started := time.Now().UTC()

		err := s.run(ctx)

		p.recordStep(runID, s.name, i+1, started, err)
		if err != nil {
			logger.Error("step failed", slog.Any("error", err))
			return &StepError{Step: s.name, Err: err}
		}
		logger.Info("step completed")
	}
	return nil
}

func (p *Publisher) recordStep(runID, name string, seq int, started time.Time, err error) {
	if runID == "" {
		return
	}
	completed := time.Now().UTC()
	status := state.RunStatusSuccess
	errMsg := ""
	if err != nil {
		status = state.RunStatusFailed
		errMsg = err.Error()
	}
	rec := &state.StepRun{
		RunID:       runID,
		Step:        name,
		Seq:         seq,
		Status:      status,
		StartedAt:   started,
		CompletedAt: &completed,
		Error:       errMsg,
	}
	if serr := p.cfg.Store.RecordStep(rec); serr != nil {
		p.logger.Warn("failed to record step", slog.Any("error", serr))
	}
}

// inspect logs the working directory and its contents for the audit trail.
// Diagnostic only: it never fails the pipeline.
func (p *Publisher) inspect(_ context.Context) error {
	dir := p.cfg.WorkDir
	if dir == "" {
		var err error
		if dir, err = os.Getwd(); err != nil {
			p.logger.Warn("inspect: cannot determine working directory", slog.Any("error", err))
			return nil
		}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		p.logger.Warn("inspect: cannot list working directory", slog.Any("error", err))
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	p.logger.Info("working directory", slog.String("dir", dir), slog.Any("contents", names))
	return nil
}

// syncReadme overwrites the package-local readme with the canonical one.
// Delete-then-copy, not a merge: package-local-only content is lost. The step
// is destructive and idempotent.
func (p *Publisher) syncReadme(_ context.Context) error {
	src, err := os.Open(p.cfg.Readme)
	if err != nil {
		return fmt.Errorf("canonical readme: %w", err)
	}
	defer src.Close()

	target := filepath.Join(p.cfg.PackageDir, filepath.Base(p.cfg.Readme))
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing package readme: %w", err)
	}

	dst, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("creating package readme: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("copying readme: %w", err)
	}
	return dst.Close()
}

// enterPackageDir verifies the package subdirectory exists. Subsequent steps
// run inside it.
func (p *Publisher) enterPackageDir(_ context.Context) error {
	info, err := os.Stat(p.cfg.PackageDir)
	if err != nil {
		return fmt.Errorf("package directory %s: %w", p.cfg.PackageDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("package directory %s is not a directory", p.cfg.PackageDir)
	}
	return nil
}

// pinToolchain pins the exact configured toolchain release for the package
// directory. Fails if the release cannot be installed or located.
func (p *Publisher) pinToolchain(ctx context.Context) error {
	bin, lead := splitTool(p.cfg.PinnerTool)
	inv := toolchain.Invocation{
		Bin:  bin,
		Args: append(lead, "override", "set", p.cfg.ToolchainPin),
		Dir:  p.cfg.PackageDir,
	}
	res, err := p.cfg.Runner.Run(ctx, inv)
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("cannot pin toolchain %q (exit %d)", p.cfg.ToolchainPin, res.ExitCode)
	}
	return nil
}

// buildPublish builds and publishes the distribution artifact under the
// configured identity. Irreversible; failure classification tells the
// operator whether a retry is admissible.
func (p *Publisher) buildPublish(ctx context.Context) error {
	bin, lead := splitTool(p.cfg.PackagerTool)
	inv := toolchain.Invocation{
		Bin:  bin,
		Args: append(lead, "publish", "--username", p.cfg.Identity),
		Dir:  p.cfg.PackageDir,
	}
	res, err := p.cfg.Runner.Run(ctx, inv)
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		output := res.Output()
		return &PublishError{
			Kind:     classifyPublishFailure(output),
			ExitCode: res.ExitCode,
			Detail:   firstLine(output),
		}
	}
	return nil
}
