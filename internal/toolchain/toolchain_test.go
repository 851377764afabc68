package toolchain

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvocation_String(t *testing.T) {
	inv := Invocation{Bin: "cargo", Args: []string{"clippy", "--", "-D", "warnings"}}
	assert.Equal(t, "cargo clippy -- -D warnings", inv.String())
}

func TestResult_Output(t *testing.T) {
	res := &Result{Stdout: []byte("out\n"), Stderr: []byte("err\n")}
	assert.Equal(t, "out\nerr\n", res.Output())
}

func TestExecRunner_CapturesAndStreams(t *testing.T) {
	var stream bytes.Buffer
	runner := &ExecRunner{Stdout: &stream, Stderr: &stream}

	res, err := runner.Run(context.Background(), Invocation{
		Bin:  "sh",
		Args: []string{"-c", "echo hello"},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "hello\n", string(res.Stdout))
	// The same bytes went to the live stream.
	assert.Equal(t, "hello\n", stream.String())
}

func TestExecRunner_ExitCodeIsNotAnError(t *testing.T) {
	runner := &ExecRunner{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}}

	res, err := runner.Run(context.Background(), Invocation{
		Bin:  "sh",
		Args: []string{"-c", "echo broken >&2; exit 101"},
	})
	require.NoError(t, err)
	assert.Equal(t, 101, res.ExitCode)
	assert.Equal(t, "broken\n", string(res.Stderr))
	assert.Empty(t, res.Stdout)
}

func TestExecRunner_ExtraEnvAndDir(t *testing.T) {
	dir := t.TempDir()
	runner := &ExecRunner{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}}

	res, err := runner.Run(context.Background(), Invocation{
		Bin:  "sh",
		Args: []string{"-c", "echo $CHECK_FLAGS; pwd"},
		Dir:  dir,
		Env:  []string{"CHECK_FLAGS=-Zdisable-isolation"},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	out := string(res.Stdout)
	assert.Contains(t, out, "-Zdisable-isolation")
	assert.Contains(t, out, dir)
}

func TestExecRunner_EmptyBin(t *testing.T) {
	runner := &ExecRunner{}
	_, err := runner.Run(context.Background(), Invocation{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty binary")
}

func TestExecRunner_MissingBinary(t *testing.T) {
	runner := &ExecRunner{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}}
	_, err := runner.Run(context.Background(), Invocation{Bin: "definitely-not-installed-anywhere"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to start")
}

func TestExecRunner_Cancellation(t *testing.T) {
	runner := &ExecRunner{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := runner.Run(ctx, Invocation{Bin: "sleep", Args: []string{"30"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second, "cancellation must not wait for the child")
}
