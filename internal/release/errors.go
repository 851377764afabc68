package release

import (
	"fmt"
	"strings"
)

// FailureKind classifies a publish failure for the operator. The pipeline
// never retries on its own; the classification tells the operator whether a
// retry is even admissible.
type FailureKind string

const (
	// KindConflict: the exact version was already published. Terminal —
	// re-running cannot succeed without a version bump.
	KindConflict FailureKind = "conflict"

	// KindAuth: the distribution index rejected the credential.
	KindAuth FailureKind = "auth"

	// KindTransient: a transport-level failure. The operator may judge a
	// retry safe; the pipeline itself will not.
	KindTransient FailureKind = "transient"

	// KindBuild: the artifact build failed.
	KindBuild FailureKind = "build"
)

// PublishError is a failed build-and-publish step.
type PublishError struct {
	Kind     FailureKind
	ExitCode int
	Detail   string
}

func (e *PublishError) Error() string {
	msg := fmt.Sprintf("publish failed (%s, exit %d)", e.Kind, e.ExitCode)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Terminal reports whether re-running with the same version can ever succeed.
func (e *PublishError) Terminal() bool {
	return e.Kind == KindConflict
}

// StepError identifies which release step halted the pipeline.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("release step %q: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// classifyPublishFailure inspects packager output. Publish conflicts must be
// distinguished from transport failures: the former is terminal, the latter
// is the operator's judgement call.
func classifyPublishFailure(output string) FailureKind {
	lower := strings.ToLower(output)
	switch {
	case strings.Contains(lower, "already exists") ||
		strings.Contains(lower, "already been published") ||
		strings.Contains(lower, "file already exists") ||
		strings.Contains(lower, "409"):
		return KindConflict
	case strings.Contains(lower, "authentication") ||
		strings.Contains(lower, "unauthorized") ||
		strings.Contains(lower, "invalid or non-existent authentication") ||
		strings.Contains(lower, "403") ||
		strings.Contains(lower, "401"):
		return KindAuth
	case strings.Contains(lower, "timed out") ||
		strings.Contains(lower, "timeout") ||
		strings.Contains(lower, "connection refused") ||
		strings.Contains(lower, "connection reset") ||
		strings.Contains(lower, "temporarily unavailable"):
		return KindTransient
	default:
		return KindBuild
	}
}
