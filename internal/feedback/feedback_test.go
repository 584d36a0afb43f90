package feedback

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/kibbyd/reason-pilot/internal/store"
	"github.com/kibbyd/reason-pilot/internal/weights"
)

func tempRecorder(t *testing.T) (*Recorder, *weights.Store) {
	t.Helper()
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	w := weights.NewStore(st.DB())
	return NewRecorder(st.DB(), w), w
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		input    string
		wantKind CommandKind
		wantNote string
		wantOK   bool
	}{
		{"#correct", CmdCorrect, "", true},
		{"#incorrect", CmdIncorrect, "", true},
		{"#incorrect - wrong step", CmdIncorrect, "wrong step", true},
		{"#incorrect — wrong step", CmdIncorrect, "wrong step", true},
		{"#correct - nice derivation", CmdCorrect, "nice derivation", true},
		{"#correct — nice derivation", CmdCorrect, "nice derivation", true},
		{"#feedback", CmdFeedback, "", true},
		{"#context", CmdContext, "", true},
		{"#performance", CmdPerformance, "", true},
		{"  #CORRECT  ", CmdCorrect, "", true},
		{"what is 2 + 2", "", "", false},
		{"#unknown", "", "", false},
	}
	for _, tt := range tests {
		cmd, ok := ParseCommand(tt.input)
		if ok != tt.wantOK {
			t.Errorf("ParseCommand(%q): ok = %v, want %v", tt.input, ok, tt.wantOK)
			continue
		}
		if !ok {
			continue
		}
		if cmd.Kind != tt.wantKind {
			t.Errorf("ParseCommand(%q): kind = %s, want %s", tt.input, cmd.Kind, tt.wantKind)
		}
		if cmd.Note != tt.wantNote {
			t.Errorf("ParseCommand(%q): note = %q, want %q", tt.input, cmd.Note, tt.wantNote)
		}
	}
}

func TestParseCommand_DelimitersEquivalent(t *testing.T) {
	emDash, _ := ParseCommand("#incorrect — the rate step is off")
	hyphen, _ := ParseCommand("#incorrect - the rate step is off")
	if emDash.Note != hyphen.Note {
		t.Errorf("delimiter forms differ: %q vs %q", emDash.Note, hyphen.Note)
	}
}

func TestRecord_AppendsAndUpdatesWeight(t *testing.T) {
	r, w := tempRecorder(t)

	before := w.Get("assistant", "calculation")
	err := r.Record(Event{
		Query:    "bat and ball",
		Response: "$0.05",
		Correct:  false,
		Note:     "wrong step",
		Source:   "assistant",
		Bucket:   "calculation",
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	after := w.Get("assistant", "calculation")
	want := before - weights.LearningRate
	if math.Abs(after-want) > 1e-9 {
		t.Errorf("weight after negative feedback: got %f, want %f", after, want)
	}

	events, err := r.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("event count: got %d, want 1", len(events))
	}
	if events[0].Note != "wrong step" {
		t.Errorf("note: got %q, want %q", events[0].Note, "wrong step")
	}
	if events[0].Correct {
		t.Error("correct flag should be false")
	}
}

func TestRecord_AppendOnly(t *testing.T) {
	r, _ := tempRecorder(t)

	for i := 0; i < 3; i++ {
		if err := r.Record(Event{Query: "q", Response: "a", Correct: true, Source: "websearch", Bucket: "general"}); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	events, err := r.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(events) != 3 {
		t.Errorf("events: got %d, want 3 (append-only, nothing replaced)", len(events))
	}
}
