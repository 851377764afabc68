package state

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore creates a new SQLite state store instance.
func NewSQLiteStore() *SQLiteStore {
	return &SQLiteStore{}
}

// Open opens a connection to the SQLite database and runs migrations.
// Use ":memory:" for an in-memory database.
func (s *SQLiteStore) Open(path string) error {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.db = db
	s.path = path

	if err := s.Migrate(); err != nil {
		db.Close()
		s.db = nil
		return err
	}
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// generateID creates a new UUID.
func generateID() string {
	return uuid.New().String()
}

// CreateRun records the start of a command invocation.
func (s *SQLiteStore) CreateRun(command string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run := &Run{
		ID:        generateID(),
		Command:   command,
		Status:    RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}

	_, err := s.db.Exec(
		`INSERT INTO runs (id, command, status, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.Command, run.Status, run.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return run, nil
}

// CompleteRun marks a run finished.
func (s *SQLiteStore) CompleteRun(id string, status RunStatus, errMsg string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	res, err := s.db.Exec(
		`UPDATE runs SET status = ?, completed_at = ?, error = ? WHERE id = ?`,
		status, time.Now().UTC(), errMsg, id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return fmt.Errorf("run not found: %s", id)
	}
	return nil
}

// RecordStep records a release step.
func (s *SQLiteStore) RecordStep(step *StepRun) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	var completed interface{}
	if step.CompletedAt != nil {
		completed = step.CompletedAt.UTC()
	}
	_, err := s.db.Exec(
		`INSERT INTO step_runs (run_id, step, seq, status, started_at, completed_at, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		step.RunID, step.Step, step.Seq, step.Status, step.StartedAt.UTC(), completed, step.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to record step: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *SQLiteStore) ListRuns(limit int) ([]*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(
		`SELECT id, command, status, started_at, completed_at, error
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run := &Run{}
		var completedAt sql.NullTime
		var errMsg sql.NullString
		if err := rows.Scan(&run.ID, &run.Command, &run.Status, &run.StartedAt, &completedAt, &errMsg); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if completedAt.Valid {
			t := completedAt.Time
			run.CompletedAt = &t
		}
		run.Error = errMsg.String
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// ListSteps returns the steps of a run in execution order.
func (s *SQLiteStore) ListSteps(runID string) ([]*StepRun, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(
		`SELECT run_id, step, seq, status, started_at, completed_at, error
		 FROM step_runs WHERE run_id = ? ORDER BY seq`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list steps: %w", err)
	}
	defer rows.Close()

	var steps []*StepRun
	for rows.Next() {
		step := &StepRun{}
		var completedAt sql.NullTime
		var errMsg sql.NullString
		if err := rows.Scan(&step.RunID, &step.Step, &step.Seq, &step.Status, &step.StartedAt, &completedAt, &errMsg); err != nil {
			return nil, fmt.Errorf("failed to scan step: %w", err)
		}
		if completedAt.Valid {
			t := completedAt.Time
			step.CompletedAt = &t
		}
		step.Error = errMsg.String
		steps = append(steps, step)
	}
	return steps, rows.Err()
}
