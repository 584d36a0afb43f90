package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenAndMigrate(t *testing.T) {
	s := tempStore(t)
	if s.Degraded() {
		t.Fatal("fresh store reported degraded")
	}
	// All tables queryable.
	for _, table := range []string{"source_weights", "feedback_events", "attempt_log", "context_archive"} {
		var n int
		if err := s.DB().QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
			t.Errorf("table %s: %v", table, err)
		}
	}
}

func TestOpen_CorruptFileDegrades(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "garbage.db")
	if err := os.WriteFile(path, []byte("this is not a sqlite database at all"), 0o644); err != nil {
		t.Fatalf("write garbage: %v", err)
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open should degrade, not fail: %v", err)
	}
	defer s.Close()
	if !s.Degraded() {
		t.Error("expected degraded store")
	}

	// Degraded store still serves the pipeline.
	if err := s.LogAttempt(AttemptRow{QueryID: "q1", Source: "websearch", Latency: time.Second}); err != nil {
		t.Errorf("LogAttempt on degraded store: %v", err)
	}
}

func TestLogAttemptAndArchive(t *testing.T) {
	s := tempStore(t)

	rows := []AttemptRow{
		{QueryID: "q1", Stage: 1, Source: "websearch", Success: false, Latency: 120 * time.Millisecond, FailureReason: "timeout"},
		{QueryID: "q1", Stage: 2, Source: "research", Success: true, Latency: 800 * time.Millisecond, Confidence: 0.82},
	}
	for _, r := range rows {
		if err := s.LogAttempt(r); err != nil {
			t.Fatalf("LogAttempt: %v", err)
		}
	}

	var n int
	if err := s.DB().QueryRow(`SELECT COUNT(*) FROM attempt_log WHERE query_id = 'q1'`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Errorf("attempt rows: got %d, want 2", n)
	}

	if err := s.ArchiveContext(ArchiveRow{SessionID: 3, Query: "q", Answer: "a", Source: "solver", ProblemType: "math_word_problem"}); err != nil {
		t.Fatalf("ArchiveContext: %v", err)
	}
	var sessionID int64
	if err := s.DB().QueryRow(`SELECT session_id FROM context_archive LIMIT 1`).Scan(&sessionID); err != nil {
		t.Fatalf("read archive: %v", err)
	}
	if sessionID != 3 {
		t.Errorf("session_id: got %d, want 3", sessionID)
	}
}
