// Package feedback ingests correctness feedback: it appends events to an
// append-only log, triggers the weight update for the attributed source, and
// owns the #-command grammar the CLI and bridge share.
package feedback

// #region imports
import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/kibbyd/reason-pilot/internal/weights"
)

// #endregion

// #region event

// Event is one recorded feedback item. Past events are never mutated.
type Event struct {
	Query     string
	Response  string
	Correct   bool
	Note      string
	Source    string
	Bucket    string
	CreatedAt time.Time
}

// #endregion

// #region recorder

// Recorder appends feedback events and applies the weight update.
type Recorder struct {
	db      *sql.DB
	weights *weights.Store
}

// NewRecorder returns a recorder over an already-migrated database.
func NewRecorder(db *sql.DB, w *weights.Store) *Recorder {
	return &Recorder{db: db, weights: w}
}

// Record appends the event and adjusts the attributed source's weight.
func (r *Recorder) Record(ev Event) error {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	correct := 0
	if ev.Correct {
		correct = 1
	}

	_, err := r.db.Exec(
		`INSERT INTO feedback_events (query, response, correct, note, source, bucket, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ev.Query, ev.Response, correct, nullIfEmpty(ev.Note), ev.Source, ev.Bucket,
		ev.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record feedback: %w", err)
	}

	if _, err := r.weights.Update(ev.Source, ev.Bucket, ev.Correct); err != nil {
		// The event itself is durable; a failed weight update is logged, not fatal.
		log.Printf("[FEEDBACK] weight update failed: %v", err)
	}
	return nil
}

// Recent returns the most recent events, newest first.
func (r *Recorder) Recent(limit int) ([]Event, error) {
	rows, err := r.db.Query(
		`SELECT query, response, correct, COALESCE(note, ''), source, bucket, created_at
		 FROM feedback_events ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var ev Event
		var correct int
		var createdStr string
		if err := rows.Scan(&ev.Query, &ev.Response, &correct, &ev.Note, &ev.Source, &ev.Bucket, &createdStr); err != nil {
			return nil, fmt.Errorf("scan feedback row: %w", err)
		}
		ev.Correct = correct == 1
		ev.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		out = append(out, ev)
	}
	return out, rows.Err()
}

// #endregion

// #region command-grammar

// CommandKind enumerates the #-commands.
type CommandKind string

const (
	CmdCorrect     CommandKind = "correct"
	CmdIncorrect   CommandKind = "incorrect"
	CmdFeedback    CommandKind = "feedback"    // read-only summary
	CmdContext     CommandKind = "context"     // read-only stack dump
	CmdPerformance CommandKind = "performance" // read-only weight dump
)

// Command is a parsed #-command.
type Command struct {
	Kind    CommandKind
	Correct bool
	Note    string
}

// noteDelimiters split the correctness verdict from a free-text note. The
// em-dash and hyphen-space forms are accepted equivalently.
var noteDelimiters = []string{"—", " - "}

// ParseCommand recognizes the #-command grammar. ok is false for ordinary
// queries.
func ParseCommand(input string) (Command, bool) {
	trimmed := strings.TrimSpace(input)
	if !strings.HasPrefix(trimmed, "#") {
		return Command{}, false
	}
	lower := strings.ToLower(trimmed)

	switch {
	case strings.HasPrefix(lower, "#correct"):
		return Command{Kind: CmdCorrect, Correct: true, Note: parseNote(trimmed[len("#correct"):])}, true
	case strings.HasPrefix(lower, "#incorrect"):
		return Command{Kind: CmdIncorrect, Correct: false, Note: parseNote(trimmed[len("#incorrect"):])}, true
	case lower == "#feedback":
		return Command{Kind: CmdFeedback}, true
	case lower == "#context":
		return Command{Kind: CmdContext}, true
	case lower == "#performance":
		return Command{Kind: CmdPerformance}, true
	}
	return Command{}, false
}

func parseNote(rest string) string {
	for _, d := range noteDelimiters {
		if i := strings.Index(rest, d); i >= 0 {
			return strings.TrimSpace(rest[i+len(d):])
		}
	}
	return ""
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
