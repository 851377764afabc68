package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatches(t *testing.T) {
	tests := []struct {
		name       string
		extensions []string
		file       string
		want       bool
	}{
		{"source file", []string{".rs", ".toml"}, "core/src/lib.rs", true},
		{"manifest", []string{".rs", ".toml"}, "Cargo.toml", true},
		{"unrelated file", []string{".rs", ".toml"}, "notes.txt", false},
		{"no extension", []string{".rs"}, "Makefile", false},
		{"empty filter matches everything", nil, "anything.bin", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &Watcher{Extensions: tt.extensions}
			assert.Equal(t, tt.want, w.matches(tt.file))
		})
	}
}

// waitForChange polls the trigger channel with a deadline; inotify delivery
// has no latency guarantee.
func waitForChange(t *testing.T, ch <-chan struct{}, timeout time.Duration) bool {
	t.Helper()
	select {
	case <-ch:
		return true
	case <-time.After(timeout):
		return false
	}
}

func TestRun_DebouncedTrigger(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "core", "src"), 0o755))

	triggered := make(chan struct{}, 8)
	w := &Watcher{
		Dir:        dir,
		Extensions: []string{".rs"},
		Debounce:   50 * time.Millisecond,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(context.Context) {
			triggered <- struct{}{}
		})
	}()

	// Give the watcher time to register the tree.
	time.Sleep(200 * time.Millisecond)

	// A save burst coalesces into a single trigger.
	target := filepath.Join(dir, "core", "src", "lib.rs")
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(target, []byte("fn main() {}\n"), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	require.True(t, waitForChange(t, triggered, 5*time.Second), "expected a change trigger")
	assert.False(t, waitForChange(t, triggered, 200*time.Millisecond), "burst must coalesce into one trigger")

	// A non-matching file never triggers.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	assert.False(t, waitForChange(t, triggered, 300*time.Millisecond))

	cancel()
	require.NoError(t, <-done)
}

func TestRun_PicksUpNewDirectories(t *testing.T) {
	dir := t.TempDir()

	triggered := make(chan struct{}, 8)
	w := &Watcher{
		Dir:        dir,
		Extensions: []string{".rs"},
		Debounce:   50 * time.Millisecond,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(context.Context) {
			triggered <- struct{}{}
		})
	}()

	time.Sleep(200 * time.Millisecond)

	sub := filepath.Join(dir, "lazy")
	require.NoError(t, os.Mkdir(sub, 0o755))
	time.Sleep(200 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(sub, "exec.rs"), []byte("// new\n"), 0o644))
	assert.True(t, waitForChange(t, triggered, 5*time.Second), "expected trigger from a file in a new directory")

	cancel()
	require.NoError(t, <-done)
}

func TestRun_IgnoresHiddenDirectories(t *testing.T) {
	dir := t.TempDir()
	hidden := filepath.Join(dir, ".forgeline")
	require.NoError(t, os.Mkdir(hidden, 0o755))

	triggered := make(chan struct{}, 8)
	w := &Watcher{
		Dir:      dir,
		Debounce: 50 * time.Millisecond,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(context.Context) {
			triggered <- struct{}{}
		})
	}()

	time.Sleep(200 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(hidden, "state.db"), []byte("x"), 0o644))
	assert.False(t, waitForChange(t, triggered, 300*time.Millisecond),
		"state-directory writes must not re-trigger the watcher")

	cancel()
	require.NoError(t, <-done)
}

func TestRun_CancelledContextReturnsCleanly(t *testing.T) {
	w := &Watcher{Dir: t.TempDir()}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, w.Run(ctx, func(context.Context) {}))
}
