package session

import (
	"fmt"
	"testing"
	"time"

	"github.com/kibbyd/reason-pilot/internal/classify"
	"github.com/kibbyd/reason-pilot/internal/solver"
)

func TestDetection(t *testing.T) {
	tests := []struct {
		input        string
		wantRetry    bool
		wantFollowUp bool
	}{
		{"try again", true, false},
		{"Please TRY AGAIN", true, false},
		{"retry", true, false},
		{"recalculate", true, false},
		{"redo that", true, false},
		{"do that again", true, false},
		{"tell me more", false, true},
		{"could you elaborate?", false, true},
		{"explain further", false, true},
		{"give an example", false, true},
		{"more details please", false, true},
		{"what is the capital of France?", false, false},
	}
	for _, tt := range tests {
		if got := IsRetry(tt.input); got != tt.wantRetry {
			t.Errorf("IsRetry(%q) = %v, want %v", tt.input, got, tt.wantRetry)
		}
		if got := IsFollowUp(tt.input); got != tt.wantFollowUp {
			t.Errorf("IsFollowUp(%q) = %v, want %v", tt.input, got, tt.wantFollowUp)
		}
	}
}

func TestBegin_NewQuestionIncrementsID(t *testing.T) {
	tr := NewTracker()
	now := time.Now()

	s1, kind, _ := tr.Begin("first question", now)
	if kind != KindNew {
		t.Fatalf("kind: got %s, want %s", kind, KindNew)
	}
	s2, _, _ := tr.Begin("second question", now)
	if s2.ID <= s1.ID {
		t.Errorf("session ids not monotonic: %d then %d", s1.ID, s2.ID)
	}
}

func TestBegin_RetryReusesSession(t *testing.T) {
	tr := NewTracker()
	now := time.Now()

	s1, _, _ := tr.Begin("what is 2 plus 2", now)
	s1.CacheClassification(classify.Classification{Type: classify.MathWordProblem, Signal: "plus"})
	s1.CacheSolved(solver.Result{Answer: "4", Template: "x"})

	s2, kind, _ := tr.Begin("try again", now)
	if kind != KindRetry {
		t.Fatalf("kind: got %s, want %s", kind, KindRetry)
	}
	if s2.ID != s1.ID {
		t.Errorf("retry created a new session: %d vs %d", s2.ID, s1.ID)
	}
	if res, ok := s2.Solved(); !ok || res.Answer != "4" {
		t.Errorf("cached solver state lost on retry: %+v ok=%v", res, ok)
	}
	if c, ok := s2.Classification(); !ok || c.Type != classify.MathWordProblem {
		t.Errorf("cached classification lost on retry: %+v ok=%v", c, ok)
	}
}

func TestBegin_RetryWithNoSessionIsNew(t *testing.T) {
	tr := NewTracker()
	_, kind, _ := tr.Begin("try again", time.Now())
	if kind != KindNew {
		t.Errorf("retry before any question should start a new session, got %s", kind)
	}
}

func TestBegin_FollowUpKeepsSessionAndContext(t *testing.T) {
	tr := NewTracker()
	now := time.Now()

	s1, _, _ := tr.Begin("what is a monad", now)
	tr.Push(ContextEntry{SessionID: s1.ID, Query: "what is a monad", Answer: "a monoid in...", Source: "local"})

	s2, kind, prev := tr.Begin("tell me more", now)
	if kind != KindFollowUp {
		t.Fatalf("kind: got %s, want %s", kind, KindFollowUp)
	}
	if s2.ID != s1.ID {
		t.Errorf("follow-up changed session id: %d vs %d", s2.ID, s1.ID)
	}
	if prev == nil || prev.Answer != "a monoid in..." {
		t.Errorf("follow-up did not surface the last context entry: %+v", prev)
	}
}

func TestAnswerIsolation_NewSessionCannotReadOldCache(t *testing.T) {
	tr := NewTracker()
	now := time.Now()

	s1, _, _ := tr.Begin("solvable question with 2 numbers", now)
	s1.CacheSolved(solver.Result{Answer: "42", Template: "x"})

	s2, _, _ := tr.Begin("a completely different question", now)
	if _, ok := s2.Solved(); ok {
		t.Error("new session can read the previous session's cached result")
	}
}

func TestCacheSolved_WriteOnce(t *testing.T) {
	tr := NewTracker()
	s, _, _ := tr.Begin("question", time.Now())

	s.CacheSolved(solver.Result{Answer: "first", Template: "x"})
	s.CacheSolved(solver.Result{Answer: "second", Template: "y"})

	res, ok := s.Solved()
	if !ok || res.Answer != "first" {
		t.Errorf("cached result overwritten: %+v", res)
	}
}

func TestStack_FIFOEviction(t *testing.T) {
	tr := NewTracker()

	for i := 0; i < StackCapacity+5; i++ {
		tr.Push(ContextEntry{SessionID: int64(i), Query: fmt.Sprintf("q%d", i)})
		if tr.Len() > StackCapacity {
			t.Fatalf("stack exceeded capacity: %d", tr.Len())
		}
	}

	entries := tr.Entries()
	if len(entries) != StackCapacity {
		t.Fatalf("stack size: got %d, want %d", len(entries), StackCapacity)
	}
	// Oldest five evicted: first surviving entry is q5.
	if entries[0].Query != "q5" {
		t.Errorf("oldest surviving entry: got %q, want %q", entries[0].Query, "q5")
	}
	if last := tr.Last(); last == nil || last.Query != fmt.Sprintf("q%d", StackCapacity+4) {
		t.Errorf("newest entry wrong: %+v", last)
	}
}
