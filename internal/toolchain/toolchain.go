// Package toolchain executes the underlying build-toolchain commands that the
// pipeline orchestrates. It knows nothing about components or feature sets;
// callers describe a single process invocation and get back its captured
// output and exit code.
package toolchain

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"
)

// Invocation describes one toolchain command to run.
type Invocation struct {
	// Bin is the executable name or path (e.g. "cargo").
	Bin string

	// Args are the arguments passed to Bin.
	Args []string

	// Dir is the working directory. Empty means the current directory.
	Dir string

	// Env holds extra KEY=VALUE pairs appended to the host environment.
	// The host environment is always inherited: the tools under
	// orchestration need PATH, HOME, credentials, and toolchain caches.
	Env []string
}

// String renders the invocation the way an operator would type it.
func (inv Invocation) String() string {
	parts := append([]string{inv.Bin}, inv.Args...)
	return strings.Join(parts, " ")
}

// Result holds the outcome of a completed invocation.
type Result struct {
	// Stdout and Stderr are captured verbatim. They are also streamed to
	// the runner's writers while the command runs, so operators see tool
	// diagnostics live.
	Stdout []byte
	Stderr []byte

	// ExitCode is the process exit code; 0 means success.
	ExitCode int
}

// Output returns combined stdout and stderr, for error classification.
func (r *Result) Output() string {
	return string(r.Stdout) + string(r.Stderr)
}

// Runner runs toolchain invocations. The exec-backed implementation is
// ExecRunner; tests substitute a recording fake.
type Runner interface {
	// Run executes the invocation and returns its result. A non-zero exit
	// code is not an error at this layer: err is non-nil only when the
	// process could not be started or was cancelled.
	Run(ctx context.Context, inv Invocation) (*Result, error)
}

// ExecRunner runs invocations as real subprocesses.
type ExecRunner struct {
	// Stdout and Stderr receive the live output streams. Nil defaults to
	// os.Stdout / os.Stderr.
	Stdout io.Writer
	Stderr io.Writer
}

// NewExecRunner returns a runner streaming to the process's own stdio.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{Stdout: os.Stdout, Stderr: os.Stderr}
}

// Run implements Runner.
func (e *ExecRunner) Run(ctx context.Context, inv Invocation) (*Result, error) {
	if inv.Bin == "" {
		return nil, fmt.Errorf("toolchain: empty binary name")
	}

	cmd := exec.CommandContext(ctx, inv.Bin, inv.Args...)
	cmd.Dir = inv.Dir
	cmd.Env = append(os.Environ(), inv.Env...)

	// Own process group so cancellation kills the whole tree, not just
	// the immediate child.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var stdout, stderr bytes.Buffer
	outW, errW := e.Stdout, e.Stderr
	if outW == nil {
		outW = os.Stdout
	}
	if errW == nil {
		errW = os.Stderr
	}
	cmd.Stdout = io.MultiWriter(outW, &stdout)
	cmd.Stderr = io.MultiWriter(errW, &stderr)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("toolchain: failed to start %q: %w", inv.String(), err)
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	var waitErr error
	select {
	case <-ctx.Done():
		if cmd.Process != nil {
			_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		}
		<-done
		return nil, fmt.Errorf("toolchain: %q cancelled: %w", inv.String(), ctx.Err())
	case waitErr = <-done:
	}

	exitCode := 0
	if waitErr != nil {
		exitErr, ok := waitErr.(*exec.ExitError)
		if !ok {
			return nil, fmt.Errorf("toolchain: %q: %w", inv.String(), waitErr)
		}
		exitCode = exitErr.ExitCode()
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
			exitCode = 128 + int(status.Signal())
		}
	}

	return &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: exitCode,
	}, nil
}
