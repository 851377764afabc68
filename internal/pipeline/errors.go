package pipeline

import (
	"fmt"
	"strings"
)

// The error taxonomy follows the operational failure classes: formatter
// crashes, static-analysis violations, test failures, and memory-safety
// detections. All are fatal for the invocation and never retried; the types
// exist so callers can map them to distinct exit semantics. The underlying
// tool's diagnostics stream through verbatim while the command runs, so these
// errors carry identity, not transcripts.

// FormatError is a formatter crash.
type FormatError struct {
	Invocation string
	ExitCode   int
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("formatter failed (exit %d): %s", e.ExitCode, e.Invocation)
}

// CheckError is a static-analysis violation. The pass is all-or-nothing:
// there is no partial-success concept.
type CheckError struct {
	Invocation string
	ExitCode   int
}

func (e *CheckError) Error() string {
	return fmt.Sprintf("static analysis failed (exit %d): %s", e.ExitCode, e.Invocation)
}

// TestError is a failing test suite invocation. The failing case identity is
// in the tool output already printed to the operator.
type TestError struct {
	Invocation string
	ExitCode   int
}

func (e *TestError) Error() string {
	return fmt.Sprintf("tests failed (exit %d): %s", e.ExitCode, e.Invocation)
}

// MemSafetyError is a detected undefined-behavior instance. This is a
// higher-severity signal than a test failure: it indicates memory-unsafety,
// not a logic bug, and is surfaced with distinct exit semantics.
type MemSafetyError struct {
	Invocation string
	ExitCode   int
	Detail     string
}

func (e *MemSafetyError) Error() string {
	msg := fmt.Sprintf("memory-safety violation detected (exit %d): %s", e.ExitCode, e.Invocation)
	if e.Detail != "" {
		msg += "\n" + e.Detail
	}
	return msg
}

// ubDetail extracts the first undefined-behavior report line from checker
// output, for the error summary. The full output has already been streamed.
func ubDetail(output string) string {
	for _, line := range strings.Split(output, "\n") {
		if strings.Contains(strings.ToLower(line), "undefined behavior") {
			return strings.TrimSpace(line)
		}
	}
	return ""
}

// isUndefinedBehavior reports whether checker output contains a UB report as
// opposed to an ordinary test failure under the interpreter.
func isUndefinedBehavior(output string) bool {
	return strings.Contains(strings.ToLower(output), "undefined behavior")
}
