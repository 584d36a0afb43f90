// Package store owns the sqlite persistence for learned weights, the feedback
// log, the attempt audit trail, and the long-term context archive.
package store

// #region imports
import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "modernc.org/sqlite"
)

// #endregion

// #region schema

const schema = `
CREATE TABLE IF NOT EXISTS source_weights (
	source      TEXT NOT NULL,
	bucket      TEXT NOT NULL,
	weight      REAL NOT NULL,
	updated_at  TEXT NOT NULL,
	PRIMARY KEY (source, bucket)
);

CREATE TABLE IF NOT EXISTS feedback_events (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	query       TEXT NOT NULL,
	response    TEXT NOT NULL,
	correct     INTEGER NOT NULL,
	note        TEXT,
	source      TEXT NOT NULL,
	bucket      TEXT NOT NULL,
	created_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS attempt_log (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	query_id       TEXT NOT NULL,
	stage          INTEGER NOT NULL,
	source         TEXT NOT NULL,
	success        INTEGER NOT NULL,
	latency_ms     INTEGER NOT NULL,
	confidence     REAL NOT NULL,
	failure_reason TEXT,
	created_at     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS context_archive (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id   INTEGER NOT NULL,
	query        TEXT NOT NULL,
	answer       TEXT NOT NULL,
	source       TEXT NOT NULL,
	problem_type TEXT NOT NULL,
	is_retry     INTEGER NOT NULL DEFAULT 0,
	created_at   TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_attempt_log_query ON attempt_log(query_id);
CREATE INDEX IF NOT EXISTS idx_feedback_source ON feedback_events(source, bucket);
`

// #endregion

// #region store-struct

// Store wraps the sqlite connection shared by weights, feedback, and archive.
type Store struct {
	db       *sql.DB
	degraded bool
}

// #endregion

// #region constructor

// Open opens the database at path and runs migrations. Corruption degrades to
// an in-memory database rather than halting the pipeline: the learned state is
// lost but the assistant keeps answering.
func Open(path string) (*Store, error) {
	db, err := open(path)
	if err != nil {
		log.Printf("[STORE] %s unusable (%v), degrading to in-memory state", path, err)
		db, err = open(":memory:")
		if err != nil {
			return nil, fmt.Errorf("open fallback store: %w", err)
		}
		return &Store{db: db, degraded: true}, nil
	}
	return &Store{db: db}, nil
}

func open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// #endregion

// #region accessors

// DB returns the underlying *sql.DB for the packages that own their tables.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Degraded reports whether the on-disk database was unusable and this store
// is running on in-memory defaults.
func (s *Store) Degraded() bool {
	return s.degraded
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// #endregion

// #region attempt-log

// AttemptRow is one persisted escalation attempt.
type AttemptRow struct {
	QueryID       string
	Stage         int
	Source        string
	Success       bool
	Latency       time.Duration
	Confidence    float64
	FailureReason string
	CreatedAt     time.Time
}

// LogAttempt appends one attempt to the audit trail.
func (s *Store) LogAttempt(row AttemptRow) error {
	success := 0
	if row.Success {
		success = 1
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(
		`INSERT INTO attempt_log (query_id, stage, source, success, latency_ms, confidence, failure_reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		row.QueryID, row.Stage, row.Source, success, row.Latency.Milliseconds(),
		row.Confidence, nullIfEmpty(row.FailureReason), row.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log attempt: %w", err)
	}
	return nil
}

// #endregion

// #region context-archive

// ArchiveRow is one resolved query persisted for long-term context.
type ArchiveRow struct {
	SessionID   int64
	Query       string
	Answer      string
	Source      string
	ProblemType string
	IsRetry     bool
	CreatedAt   time.Time
}

// ArchiveContext appends a resolved query to the long-term archive.
func (s *Store) ArchiveContext(row ArchiveRow) error {
	isRetry := 0
	if row.IsRetry {
		isRetry = 1
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(
		`INSERT INTO context_archive (session_id, query, answer, source, problem_type, is_retry, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		row.SessionID, row.Query, row.Answer, row.Source, row.ProblemType,
		isRetry, row.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("archive context: %w", err)
	}
	return nil
}

// #endregion

// #region helpers

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion
