// Package session tracks question identity: retry and follow-up detection,
// the monotonically increasing session counter, per-session cached classifier
// and solver state, and the bounded recent-context stack.
//
// The tracker is not self-locking. All mutation happens under the pipeline's
// single mutex so the interactive loop and the HTTP bridge never tear state.
package session

// #region imports
import (
	"strings"
	"time"

	"github.com/kibbyd/reason-pilot/internal/classify"
	"github.com/kibbyd/reason-pilot/internal/solver"
)

// #endregion

// #region phrases

// RetryPhrases re-run the current question verbatim. Case-insensitive
// substring match, checked before follow-up phrases.
var RetryPhrases = []string{
	"try again", "retry", "recalculate", "redo that", "do that again",
}

// FollowUpPhrases continue the current question with extra context. Checked
// only when no retry phrase matched.
var FollowUpPhrases = []string{
	"explain further", "give an example", "tell me more", "elaborate", "more details",
}

// #endregion

// #region kind

// Kind is how an incoming input relates to the current question.
type Kind string

const (
	KindNew      Kind = "new"
	KindRetry    Kind = "retry"
	KindFollowUp Kind = "follow_up"
)

// #endregion

// #region question-session

// QuestionSession is the unit of identity for one logical question, including
// its retries and follow-ups.
type QuestionSession struct {
	ID        int64
	Query     string
	CreatedAt time.Time

	classification classify.Classification
	classified     bool

	// solved is write-once per session: the answer-isolation invariant says a
	// session's cached deterministic result is never overwritten while the id
	// is unchanged.
	solved    solver.Result
	hasSolved bool
}

// CacheClassification stores the classifier output. Overwrites are allowed
// (a follow-up re-runs classification on its own text); retries read the
// cache instead of reclassifying.
func (q *QuestionSession) CacheClassification(c classify.Classification) {
	q.classification = c
	q.classified = true
}

// Classification returns the cached classifier output.
func (q *QuestionSession) Classification() (classify.Classification, bool) {
	return q.classification, q.classified
}

// CacheSolved stores a deterministic result. No-op when one is already
// cached.
func (q *QuestionSession) CacheSolved(res solver.Result) {
	if q.hasSolved {
		return
	}
	q.solved = res
	q.hasSolved = true
}

// Solved returns the cached deterministic result.
func (q *QuestionSession) Solved() (solver.Result, bool) {
	return q.solved, q.hasSolved
}

// #endregion

// #region context-entry

// ContextEntry is one resolved interaction held in the bounded stack.
type ContextEntry struct {
	SessionID   int64
	Query       string
	Answer      string
	Source      string
	ProblemType classify.ProblemType
	IsRetry     bool
	Timestamp   time.Time
}

// StackCapacity bounds the recent-context stack; oldest entries evict first.
const StackCapacity = 15

// #endregion

// #region tracker

// Tracker owns the session counter, the current session, and the context
// stack.
type Tracker struct {
	nextID  int64
	current *QuestionSession
	stack   []ContextEntry
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{nextID: 1}
}

// #endregion

// #region detection

// IsRetry reports whether the input is a retry phrase.
func IsRetry(input string) bool {
	return matchesAny(input, RetryPhrases)
}

// IsFollowUp reports whether the input is a follow-up phrase.
func IsFollowUp(input string) bool {
	return matchesAny(input, FollowUpPhrases)
}

func matchesAny(input string, phrases []string) bool {
	lower := strings.ToLower(strings.TrimSpace(input))
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// #endregion

// #region begin

// Begin resolves the input against the current session. Resolution order is
// fixed: retry, then follow-up, then new question.
//
// Retry reuses the current session and its cached state verbatim; the
// effective query is the session's original query. Follow-up keeps the
// session id and supplies the most recent context entry, but classification
// and solving re-run on the new text. Anything else starts a fresh session,
// making the previous session's cached solver state unreachable.
func (t *Tracker) Begin(input string, now time.Time) (*QuestionSession, Kind, *ContextEntry) {
	if t.current != nil && IsRetry(input) {
		return t.current, KindRetry, t.last()
	}
	if t.current != nil && IsFollowUp(input) {
		return t.current, KindFollowUp, t.last()
	}

	sess := &QuestionSession{
		ID:        t.nextID,
		Query:     strings.TrimSpace(input),
		CreatedAt: now,
	}
	t.nextID++
	t.current = sess
	return sess, KindNew, nil
}

// Current returns the active session, nil before the first question.
func (t *Tracker) Current() *QuestionSession {
	return t.current
}

// #endregion

// #region stack

// Push appends a resolved entry, evicting the oldest once capacity is hit.
func (t *Tracker) Push(e ContextEntry) {
	t.stack = append(t.stack, e)
	if len(t.stack) > StackCapacity {
		t.stack = t.stack[len(t.stack)-StackCapacity:]
	}
}

// Last returns the most recent entry, nil when the stack is empty.
func (t *Tracker) Last() *ContextEntry {
	return t.last()
}

func (t *Tracker) last() *ContextEntry {
	if len(t.stack) == 0 {
		return nil
	}
	e := t.stack[len(t.stack)-1]
	return &e
}

// Entries returns a copy of the stack, oldest first.
func (t *Tracker) Entries() []ContextEntry {
	out := make([]ContextEntry, len(t.stack))
	copy(out, t.stack)
	return out
}

// Len returns the current stack depth.
func (t *Tracker) Len() int {
	return len(t.stack)
}

// #endregion
