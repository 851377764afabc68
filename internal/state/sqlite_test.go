package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore()
	require.NoError(t, store.Open(":memory:"))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_RunLifecycle(t *testing.T) {
	store := openTestStore(t)

	run, err := store.CreateRun("check-all-features")
	require.NoError(t, err)
	require.NotEmpty(t, run.ID)
	assert.Equal(t, "check-all-features", run.Command)
	assert.Equal(t, RunStatusRunning, run.Status)

	require.NoError(t, store.CompleteRun(run.ID, RunStatusFailed, "static analysis failed (exit 101)"))

	runs, err := store.ListRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
	assert.Equal(t, RunStatusFailed, runs[0].Status)
	assert.Equal(t, "static analysis failed (exit 101)", runs[0].Error)
	require.NotNil(t, runs[0].CompletedAt)
	assert.False(t, runs[0].CompletedAt.Before(runs[0].StartedAt))
}

func TestSQLiteStore_CompleteUnknownRun(t *testing.T) {
	store := openTestStore(t)

	err := store.CompleteRun("no-such-id", RunStatusSuccess, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")
}

func TestSQLiteStore_ListRunsNewestFirst(t *testing.T) {
	store := openTestStore(t)

	for _, cmd := range []string{"format-all", "test-all-features", "memcheck"} {
		_, err := store.CreateRun(cmd)
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}

	runs, err := store.ListRuns(2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "memcheck", runs[0].Command)
	assert.Equal(t, "test-all-features", runs[1].Command)
}

func TestSQLiteStore_Steps(t *testing.T) {
	store := openTestStore(t)

	run, err := store.CreateRun("publish")
	require.NoError(t, err)

	now := time.Now().UTC()
	for i, name := range []string{"inspect", "sync-readme", "pin-toolchain"} {
		completed := now.Add(time.Duration(i+1) * time.Second)
		status := RunStatusSuccess
		errMsg := ""
		if name == "pin-toolchain" {
			status = RunStatusFailed
			errMsg = "cannot pin toolchain"
		}
		require.NoError(t, store.RecordStep(&StepRun{
			RunID:       run.ID,
			Step:        name,
			Seq:         i + 1,
			Status:      status,
			StartedAt:   now,
			CompletedAt: &completed,
			Error:       errMsg,
		}))
	}

	steps, err := store.ListSteps(run.ID)
	require.NoError(t, err)
	require.Len(t, steps, 3)
	assert.Equal(t, "inspect", steps[0].Step)
	assert.Equal(t, "sync-readme", steps[1].Step)
	assert.Equal(t, "pin-toolchain", steps[2].Step)
	assert.Equal(t, RunStatusFailed, steps[2].Status)
	assert.Equal(t, "cannot pin toolchain", steps[2].Error)
	require.NotNil(t, steps[0].CompletedAt)

	// Steps are scoped to their run.
	other, err := store.CreateRun("publish")
	require.NoError(t, err)
	steps, err = store.ListSteps(other.ID)
	require.NoError(t, err)
	assert.Empty(t, steps)
}

func TestSQLiteStore_NotOpened(t *testing.T) {
	store := NewSQLiteStore()

	_, err := store.CreateRun("format-all")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not opened")
	require.NoError(t, store.Close())
}

func TestSQLiteStore_OnDisk(t *testing.T) {
	path := t.TempDir() + "/state.db"

	store := NewSQLiteStore()
	require.NoError(t, store.Open(path))
	run, err := store.CreateRun("test-docs")
	require.NoError(t, err)
	require.NoError(t, store.CompleteRun(run.ID, RunStatusSuccess, ""))
	require.NoError(t, store.Close())

	// Reopening sees the recorded history; migrations are idempotent.
	store = NewSQLiteStore()
	require.NoError(t, store.Open(path))
	defer store.Close()
	runs, err := store.ListRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "test-docs", runs[0].Command)
}
