// Package testutil provides shared test helpers.
package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/forgeline-labs/forgeline/internal/toolchain"
)

// RecordingRunner is a toolchain.Runner for tests: it records every
// invocation and serves scripted results instead of spawning processes.
type RecordingRunner struct {
	mu          sync.Mutex
	invocations []toolchain.Invocation

	// Script, when set, decides the result for each invocation. When nil,
	// every invocation succeeds with exit code 0 and empty output.
	Script func(inv toolchain.Invocation) (*toolchain.Result, error)
}

// NewRecordingRunner returns a runner where every invocation succeeds.
func NewRecordingRunner() *RecordingRunner {
	return &RecordingRunner{}
}

// Run implements toolchain.Runner.
func (r *RecordingRunner) Run(_ context.Context, inv toolchain.Invocation) (*toolchain.Result, error) {
	r.mu.Lock()
	r.invocations = append(r.invocations, inv)
	r.mu.Unlock()

	if r.Script != nil {
		return r.Script(inv)
	}
	return &toolchain.Result{ExitCode: 0}, nil
}

// Invocations returns a copy of everything run so far, in order.
func (r *RecordingRunner) Invocations() []toolchain.Invocation {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]toolchain.Invocation, len(r.invocations))
	copy(out, r.invocations)
	return out
}

// FailWhen scripts a failure for invocations whose rendered command line
// contains substr; everything else succeeds.
func (r *RecordingRunner) FailWhen(substr string, exitCode int, stderr string) {
	r.Script = func(inv toolchain.Invocation) (*toolchain.Result, error) {
		if strings.Contains(inv.String(), substr) {
			return &toolchain.Result{ExitCode: exitCode, Stderr: []byte(stderr)}, nil
		}
		return &toolchain.Result{ExitCode: 0}, nil
	}
}
